package parse

import (
	"regexp"
	"strings"
)

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.+?)```")

// extractFence returns the interior of the first fenced code block, or the
// input unchanged when no fence is present.
func extractFence(raw string) string {
	if m := fencePattern.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return raw
}

// isolateJSON narrows raw model output down to the most plausible JSON
// object: fence interior first, then a balanced {...} span found by
// string-aware bracket matching. When no balanced span exists (truncated
// output) it returns everything from the first brace so later stages can
// still salvage fields.
func isolateJSON(raw string) string {
	text := strings.TrimSpace(extractFence(raw))

	start := strings.IndexByte(text, '{')
	if start < 0 {
		return text
	}
	if span, ok := balancedSpan(text, start, '{', '}'); ok {
		return span
	}
	return text[start:]
}

// balancedSpan extracts the span from s[start] (which must be the open
// delimiter) through its matching close delimiter. Delimiters inside quoted
// strings do not affect depth; a backslash escape consumes exactly two
// characters during the scan.
func balancedSpan(s string, start int, open, close byte) (string, bool) {
	if start >= len(s) || s[start] != open {
		return "", false
	}

	depth := 0
	inString := false
	for i := start; i < len(s); i++ {
		c := s[i]
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
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

var trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)

// repairJSON applies the fixed lenient-repair sequence: escape literal
// control characters inside string values, then strip trailing commas
// before } or ].
func repairJSON(s string) string {
	s = escapeControlChars(s)
	return trailingCommaPattern.ReplaceAllString(s, "$1")
}

// escapeControlChars rewrites literal newlines, carriage returns and tabs
// that occur inside quoted strings into their JSON escape sequences.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))

	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !inString {
			if c == '"' {
				inString = true
			}
			b.WriteByte(c)
			continue
		}
		if escaped {
			escaped = false
			b.WriteByte(c)
			continue
		}
		switch c {
		case '\\':
			escaped = true
			b.WriteByte(c)
		case '"':
			inString = false
			b.WriteByte(c)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// unescape decodes the JSON escape sequences that show up in regex-captured
// string values. Unknown sequences are passed through untouched.
func unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '"':
			b.WriteByte('"')
		case '\\':
			b.WriteByte('\\')
		case '/':
			b.WriteByte('/')
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i])
		}
	}
	return b.String()
}
