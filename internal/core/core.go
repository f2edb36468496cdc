package core

import (
	"regexp"
	"strings"
	"time"
)

// ServiceCategory identifies the agency service line a post is written for.
type ServiceCategory string

const (
	ServiceHomepage     ServiceCategory = "homepage"
	ServiceShoppingMall ServiceCategory = "shopping-mall"
	ServiceLandingPage  ServiceCategory = "landing"
	ServiceMaintenance  ServiceCategory = "maintenance"
)

// PostStatus is the lifecycle state of a persisted blog post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"     // below publish threshold, needs manual review
	PostStatusScheduled PostStatus = "scheduled" // queued for automatic publication
	PostStatusPublished PostStatus = "published" // advanced externally, never set by the pipeline
)

// KeywordStatus is the lifecycle state of a keyword queue record.
type KeywordStatus string

const (
	KeywordStatusPending    KeywordStatus = "pending"
	KeywordStatusGenerating KeywordStatus = "generating"
	KeywordStatusUsed       KeywordStatus = "used"
	KeywordStatusFailed     KeywordStatus = "failed"
)

// GenerationRequest describes one article to generate. It is built per run
// from a keyword queue record and never persisted.
type GenerationRequest struct {
	PrimaryKeyword    string          `json:"primary_keyword"`    // The SEO keyword the article targets
	SecondaryKeywords []string        `json:"secondary_keywords"` // Supporting keywords, in priority order
	TargetAudience    string          `json:"target_audience"`    // Who the article is written for
	ServiceCategory   ServiceCategory `json:"service_category"`   // Agency service line
	Category          string          `json:"category"`           // Blog category label
}

// FAQItem is one question/answer pair in a generated article.
type FAQItem struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// ImageDescription describes one illustration slot requested by the model.
type ImageDescription struct {
	Position    int    `json:"position"`     // Placeholder index, 1..5
	AltText     string `json:"alt_text"`     // Accessibility text for the final <img> tag
	ImagePrompt string `json:"image_prompt"` // Prompt to send to the image model
	Context     string `json:"context"`      // What part of the article the image belongs to
}

// GeneratedDocument is the structured article recovered from raw model
// output. The image pipeline substitutes placeholder tokens in Content;
// nothing mutates it after persistence.
type GeneratedDocument struct {
	Title              string             `json:"title"`
	MetaTitle          string             `json:"meta_title"`
	MetaDescription    string             `json:"meta_description"`
	Excerpt            string             `json:"excerpt"`
	Content            string             `json:"content"` // HTML with IMAGE_PLACEHOLDER_N tokens
	FAQ                []FAQItem          `json:"faq"`
	Tags               []string           `json:"tags"`
	ReadingTimeMinutes int                `json:"reading_time_minutes"`
	ImageDescriptions  []ImageDescription `json:"image_descriptions"`
}

// ImageSlot is one illustration to resolve. ResolvedURL stays empty when the
// slot failed; missing slots are stripped from the content, not fatal.
type ImageSlot struct {
	Position    int    `json:"position"` // 1..5
	Prompt      string `json:"prompt"`
	AltText     string `json:"alt_text"`
	ResolvedURL string `json:"resolved_url,omitempty"`
}

// Resolved reports whether the slot produced a durable image URL.
func (s ImageSlot) Resolved() bool {
	return s.ResolvedURL != ""
}

// QualityReport is the heuristic structural assessment of a document.
// Recomputed every run, never persisted on its own.
type QualityReport struct {
	Score          int      `json:"score"` // 0..100
	Issues         []string `json:"issues,omitempty"`
	KeywordDensity float64  `json:"keyword_density"`
}

// BlogPostRecord is the persisted result of one generation run.
// Invariant: Status == scheduled implies QualityScore >= the publish threshold.
type BlogPostRecord struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Slug               string     `json:"slug"`
	MetaTitle          string     `json:"meta_title"`
	MetaDescription    string     `json:"meta_description"`
	Excerpt            string     `json:"excerpt"`
	Content            string     `json:"content"`
	FAQ                []FAQItem  `json:"faq"`
	Tags               []string   `json:"tags"`
	ReadingTimeMinutes int        `json:"reading_time_minutes"`
	PrimaryKeyword     string     `json:"primary_keyword"`
	Category           string     `json:"category"`
	QualityScore       int        `json:"quality_score"`
	Status             PostStatus `json:"status"`
	ScheduledFor       *time.Time `json:"scheduled_for,omitempty"`
	ModelUsed          string     `json:"model_used"`
	DateGenerated      time.Time  `json:"date_generated"`
}

// KeywordRecord is the upstream unit of work one generation run consumes.
type KeywordRecord struct {
	ID                string          `json:"id"`
	Keyword           string          `json:"keyword"`
	SecondaryKeywords []string        `json:"secondary_keywords"`
	TargetAudience    string          `json:"target_audience"`
	ServiceCategory   ServiceCategory `json:"service_category"`
	Priority          int             `json:"priority"`
	Status            KeywordStatus   `json:"status"`
	LastError         string          `json:"last_error,omitempty"`
	DateAdded         time.Time       `json:"date_added"`
}

var slugStrip = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// Slugify derives a URL slug from a post title. Unicode letters (including
// Korean) are kept so that localized titles remain addressable.
func Slugify(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))
	slug = slugStrip.ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		slug = "post"
	}
	return slug
}
