package parse

import (
	"encoding/json"
	"regexp"
	"strconv"

	"blogforge/internal/core"
)

// DefaultReadingTime is used when no reading_time_minutes value can be
// recovered from the model output.
const DefaultReadingTime = 9

// fieldPattern matches `"name": "value"` with escape-aware value capture.
func fieldPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`"` + name + `"\s*:\s*"((?:[^"\\]|\\.)*)"`)
}

var (
	titlePattern    = fieldPattern("title")
	metaTitlePat    = fieldPattern("meta_title")
	metaDescPattern = fieldPattern("meta_description")
	excerptPattern  = fieldPattern("excerpt")
	questionPattern = fieldPattern("question")
	answerPattern   = fieldPattern("answer")
	altTextPattern  = fieldPattern("alt_text")
	imgPromptPat    = fieldPattern("image_prompt")
	contextPattern  = fieldPattern("context")

	contentKeyPattern = regexp.MustCompile(`"content"\s*:\s*"`)
	readingTimePat    = regexp.MustCompile(`"reading_time_minutes"\s*:\s*(\d+)`)
	positionPattern   = regexp.MustCompile(`"position"\s*:\s*(\d+)`)
	quotedPattern     = regexp.MustCompile(`"((?:[^"\\]|\\.)*)"`)
)

// extractFields is the terminal parsing strategy: every field is pulled out
// independently with a best-effort default, so it always produces a document.
func extractFields(s string) (*core.GeneratedDocument, bool) {
	return &core.GeneratedDocument{
		Title:              stringField(titlePattern, s),
		MetaTitle:          stringField(metaTitlePat, s),
		MetaDescription:    stringField(metaDescPattern, s),
		Excerpt:            stringField(excerptPattern, s),
		Content:            contentField(s),
		FAQ:                faqField(s),
		Tags:               tagsField(s),
		ReadingTimeMinutes: intField(readingTimePat, s, DefaultReadingTime),
		ImageDescriptions:  imageDescriptionsField(s),
	}, true
}

func stringField(pat *regexp.Regexp, s string) string {
	m := pat.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	return unescape(m[1])
}

func allStringFields(pat *regexp.Regexp, s string) []string {
	var out []string
	for _, m := range pat.FindAllStringSubmatch(s, -1) {
		out = append(out, unescape(m[1]))
	}
	return out
}

func intField(pat *regexp.Regexp, s string, fallback int) int {
	m := pat.FindStringSubmatch(s)
	if m == nil {
		return fallback
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return fallback
	}
	return n
}

// contentField recovers the content value by scanning character-by-character
// from the field's opening quote, honoring backslash escapes until the
// matching unescaped closing quote. Content is large and routinely breaks
// naive regexes. A truncated value (no closing quote) keeps what was read.
func contentField(s string) string {
	loc := contentKeyPattern.FindStringIndex(s)
	if loc == nil {
		return ""
	}

	start := loc[1]
	for i := start; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '"':
			return unescape(s[start:i])
		}
	}
	return unescape(s[start:])
}

// arraySpan isolates the balanced [...] value of the named field.
func arraySpan(s, name string) (string, bool) {
	keyPat := regexp.MustCompile(`"` + name + `"\s*:\s*\[`)
	loc := keyPat.FindStringIndex(s)
	if loc == nil {
		return "", false
	}
	return balancedSpan(s, loc[1]-1, '[', ']')
}

// faqField parses the faq array, degrading from a strict sub-parse to
// zipping question/answer captures by index.
func faqField(s string) []core.FAQItem {
	scope := s
	if span, ok := arraySpan(s, "faq"); ok {
		var items []core.FAQItem
		if err := json.Unmarshal([]byte(span), &items); err == nil {
			return ensureFAQ(items)
		}
		if err := json.Unmarshal([]byte(repairJSON(span)), &items); err == nil {
			return ensureFAQ(items)
		}
		scope = span
	}

	questions := allStringFields(questionPattern, scope)
	answers := allStringFields(answerPattern, scope)
	n := len(questions)
	if len(answers) < n {
		n = len(answers)
	}

	items := make([]core.FAQItem, 0, n)
	for i := 0; i < n; i++ {
		items = append(items, core.FAQItem{Question: questions[i], Answer: answers[i]})
	}
	return items
}

func ensureFAQ(items []core.FAQItem) []core.FAQItem {
	if items == nil {
		return []core.FAQItem{}
	}
	return items
}

// tagsField parses the tags array, falling back to collecting every quoted
// string inside the balanced span.
func tagsField(s string) []string {
	span, ok := arraySpan(s, "tags")
	if !ok {
		return []string{}
	}

	var tags []string
	if err := json.Unmarshal([]byte(span), &tags); err == nil && tags != nil {
		return tags
	}

	tags = []string{}
	for _, m := range quotedPattern.FindAllStringSubmatch(span, -1) {
		if v := unescape(m[1]); v != "" {
			tags = append(tags, v)
		}
	}
	return tags
}

// imageDescriptionsField parses the image_descriptions array, degrading from
// a strict sub-parse to per-object regex extraction over each balanced
// {...} span inside the array.
func imageDescriptionsField(s string) []core.ImageDescription {
	span, ok := arraySpan(s, "image_descriptions")
	if !ok {
		return []core.ImageDescription{}
	}

	var descs []core.ImageDescription
	if err := json.Unmarshal([]byte(span), &descs); err == nil && descs != nil {
		return descs
	}
	if err := json.Unmarshal([]byte(repairJSON(span)), &descs); err == nil && descs != nil {
		return descs
	}

	descs = []core.ImageDescription{}
	for i, obj := range objectSpans(span) {
		descs = append(descs, core.ImageDescription{
			Position:    intField(positionPattern, obj, i+1),
			AltText:     stringField(altTextPattern, obj),
			ImagePrompt: stringField(imgPromptPat, obj),
			Context:     stringField(contextPattern, obj),
		})
	}
	return descs
}

// objectSpans walks an array span and yields each top-level balanced {...}
// object, skipping braces that occur inside quoted strings.
func objectSpans(span string) []string {
	var out []string
	inString := false
	for i := 0; i < len(span); i++ {
		c := span[i]
		if inString {
			switch c {
			case '\\':
				i++
			case '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			if obj, ok := balancedSpan(span, i, '{', '}'); ok {
				out = append(out, obj)
				i += len(obj) - 1
			}
		}
	}
	return out
}
