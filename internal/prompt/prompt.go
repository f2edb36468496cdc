// Package prompt assembles the text-generation prompt for one article.
// Construction is pure string work: identical requests always produce the
// identical prompt so retries reuse the same input.
package prompt

import (
	"fmt"
	"strings"

	"blogforge/internal/core"
)

// ArticlePromptTemplate is the master template for SEO article generation.
// The response schema, field length constraints, placeholder convention and
// CTA markup are all spelled out here because the provider returns free text
// and downstream parsing is only best-effort.
const ArticlePromptTemplate = `You are a senior content writer for a web development agency. Write one SEO blog post in Korean targeting the keyword below.

PRIMARY KEYWORD: %s
SECONDARY KEYWORDS: %s
TARGET AUDIENCE: %s
SERVICE CATEGORY: %s
BLOG CATEGORY: %s

Respond with ONLY a JSON object, no prose before or after, using exactly this schema:
{
  "title": "...",
  "meta_title": "...",
  "meta_description": "...",
  "excerpt": "...",
  "content": "...",
  "faq": [{"question": "...", "answer": "..."}],
  "tags": ["..."],
  "reading_time_minutes": 0,
  "image_descriptions": [{"position": 1, "alt_text": "...", "image_prompt": "...", "context": "..."}]
}

FIELD CONSTRAINTS:
- title: 20-60 characters, must contain the primary keyword
- meta_title: 30-60 characters
- meta_description: 50-160 characters, must contain the primary keyword
- excerpt: 80-200 characters
- content: 2000-4000 characters of clean HTML (h2/h3 headings, p, ul/ol, table where useful)
- faq: exactly 5 question/answer pairs
- tags: 3-6 short tags
- image_descriptions: exactly 5 entries, positions 1 through 5

CONTENT RULES:
- Insert the tokens IMAGE_PLACEHOLDER_1 through IMAGE_PLACEHOLDER_5 as standalone <img> tags at the natural position for each illustration, like <img src="IMAGE_PLACEHOLDER_2" alt="...">.
- Insert at least two call-to-action links using exactly this markup: <a class="cta-button" href="/contact">%s</a>
- Voice: confident, practical, specific. Give concrete costs, timelines and checklists instead of generic advice.
- Address the target audience directly. Avoid filler phrases and restating the question.
- Work the secondary keywords into headings or body text naturally, never as a list.`

// ctaLabels maps each service category to the call-to-action label the
// article must embed.
var ctaLabels = map[core.ServiceCategory]string{
	core.ServiceHomepage:     "홈페이지 제작 상담 받기",
	core.ServiceShoppingMall: "쇼핑몰 구축 상담 받기",
	core.ServiceLandingPage:  "랜딩페이지 제작 문의하기",
	core.ServiceMaintenance:  "유지보수 견적 문의하기",
}

const defaultCTALabel = "무료 상담 신청하기"

// BuildArticlePrompt renders the generation prompt for one request.
func BuildArticlePrompt(req core.GenerationRequest) string {
	secondary := strings.Join(req.SecondaryKeywords, ", ")
	if secondary == "" {
		secondary = "(none)"
	}

	cta, ok := ctaLabels[req.ServiceCategory]
	if !ok {
		cta = defaultCTALabel
	}

	return fmt.Sprintf(ArticlePromptTemplate,
		req.PrimaryKeyword,
		secondary,
		req.TargetAudience,
		req.ServiceCategory,
		req.Category,
		cta,
	)
}
