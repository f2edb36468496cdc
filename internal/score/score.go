// Package score computes the heuristic 0-100 quality score that gates
// automatic scheduling. Scoring is a pure function of the assembled
// document: fixed point weights per satisfied structural property, so the
// same document always yields the same score.
package score

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"blogforge/internal/core"
)

// Point weights per criterion. They sum to exactly 100.
const (
	weightTitleLength  = 10
	weightMetaDescLen  = 10
	weightBodyLength   = 15
	weightHeadingCount = 10
	weightFAQCount     = 15
	weightCTACount     = 10
	weightKeywordTitle = 15
	weightTagCount     = 10
	weightTableOrList  = 5
)

// Accepted structural ranges.
const (
	minTitleLen   = 10
	maxTitleLen   = 60
	minMetaDesc   = 50
	maxMetaDesc   = 160
	minBodyChars  = 1500
	maxBodyChars  = 20000
	minHeadings   = 3
	maxHeadings   = 10
	minFAQItems   = 5
	minCTAMarkers = 2
	minTags       = 3
)

// ctaMarker is the class name the prompt mandates for call-to-action links.
const ctaMarker = "cta-button"

// Evaluate scores a document against the primary keyword it targets.
func Evaluate(doc *core.GeneratedDocument, primaryKeyword string) core.QualityReport {
	report := core.QualityReport{}

	plainText, headings, tableOrList := analyzeContent(doc.Content)
	titleLen := len([]rune(doc.Title))
	metaLen := len([]rune(doc.MetaDescription))
	bodyLen := len([]rune(plainText))
	ctaCount := strings.Count(doc.Content, ctaMarker)

	check := func(ok bool, weight int, issue string) {
		if ok {
			report.Score += weight
			return
		}
		report.Issues = append(report.Issues, issue)
	}

	check(titleLen >= minTitleLen && titleLen <= maxTitleLen, weightTitleLength,
		fmt.Sprintf("title length %d outside %d-%d", titleLen, minTitleLen, maxTitleLen))
	check(metaLen >= minMetaDesc && metaLen <= maxMetaDesc, weightMetaDescLen,
		fmt.Sprintf("meta description length %d outside %d-%d", metaLen, minMetaDesc, maxMetaDesc))
	check(bodyLen >= minBodyChars && bodyLen <= maxBodyChars, weightBodyLength,
		fmt.Sprintf("body text length %d outside %d-%d", bodyLen, minBodyChars, maxBodyChars))
	check(headings >= minHeadings && headings <= maxHeadings, weightHeadingCount,
		fmt.Sprintf("heading count %d outside %d-%d", headings, minHeadings, maxHeadings))
	check(len(doc.FAQ) >= minFAQItems, weightFAQCount,
		fmt.Sprintf("only %d FAQ entries, want at least %d", len(doc.FAQ), minFAQItems))
	check(ctaCount >= minCTAMarkers, weightCTACount,
		fmt.Sprintf("only %d CTA markers, want at least %d", ctaCount, minCTAMarkers))
	check(containsKeyword(doc.Title, primaryKeyword), weightKeywordTitle,
		"primary keyword missing from title")
	check(len(doc.Tags) >= minTags, weightTagCount,
		fmt.Sprintf("only %d tags, want at least %d", len(doc.Tags), minTags))
	check(tableOrList, weightTableOrList,
		"no table or list element in content")

	if report.Score > 100 {
		report.Score = 100
	}

	report.KeywordDensity = keywordDensity(plainText, primaryKeyword)
	return report
}

// analyzeContent extracts the plain text, heading count and table/list
// presence from the content HTML.
func analyzeContent(content string) (plainText string, headings int, tableOrList bool) {
	q, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		// Fall back to the raw markup; scoring still proceeds.
		return content, 0, false
	}

	plainText = q.Text()
	headings = q.Find("h1, h2, h3, h4, h5, h6").Length()
	tableOrList = q.Find("table, ul, ol").Length() > 0
	return plainText, headings, tableOrList
}

func containsKeyword(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

// keywordDensity weights keyword occurrences by the keyword's character
// length relative to the total plain-text length.
func keywordDensity(plainText, keyword string) float64 {
	if keyword == "" || plainText == "" {
		return 0
	}
	textLen := len([]rune(plainText))
	if textLen == 0 {
		return 0
	}
	occurrences := strings.Count(strings.ToLower(plainText), strings.ToLower(keyword))
	return float64(occurrences*len([]rune(keyword))) / float64(textLen)
}
