package images

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"blogforge/internal/core"
)

var (
	// Matches a whole <img> tag whose src is a placeholder token.
	placeholderImgPattern = regexp.MustCompile(`<img[^>]*IMAGE_PLACEHOLDER_(\d+)[^>]*/?>`)
	// Matches bare placeholder tokens left outside <img> tags.
	placeholderTokenPattern = regexp.MustCompile(`IMAGE_PLACEHOLDER_(\d+)`)
	altAttrPattern          = regexp.MustCompile(`alt="([^"]*)"`)
)

// SubstitutePlaceholders replaces every placeholder token in content with
// its slot's durable URL. Hand-authored alt text inside an existing <img>
// tag wins over the slot's stored alt text. Placeholders with no resolved
// slot are stripped entirely so no dangling reference survives. Running the
// substitution twice is a no-op.
func SubstitutePlaceholders(content string, slots []core.ImageSlot) string {
	urlByPosition := make(map[int]core.ImageSlot, len(slots))
	for _, s := range slots {
		if s.Resolved() {
			urlByPosition[s.Position] = s
		}
	}

	content = placeholderImgPattern.ReplaceAllStringFunc(content, func(tag string) string {
		pos := placeholderPosition(placeholderImgPattern, tag)
		slot, ok := urlByPosition[pos]
		if !ok {
			return ""
		}

		alt := slot.AltText
		if m := altAttrPattern.FindStringSubmatch(tag); m != nil && m[1] != "" && !strings.Contains(m[1], "IMAGE_PLACEHOLDER_") {
			alt = m[1]
		}
		return fmt.Sprintf(`<img src="%s" alt="%s">`, slot.ResolvedURL, alt)
	})

	content = placeholderTokenPattern.ReplaceAllStringFunc(content, func(token string) string {
		pos := placeholderPosition(placeholderTokenPattern, token)
		slot, ok := urlByPosition[pos]
		if !ok {
			return ""
		}
		return fmt.Sprintf(`<img src="%s" alt="%s">`, slot.ResolvedURL, slot.AltText)
	})

	return content
}

func placeholderPosition(pattern *regexp.Regexp, match string) int {
	m := pattern.FindStringSubmatch(match)
	if m == nil {
		return 0
	}
	pos, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return pos
}
