// Package parse recovers a structured article from raw text-generation
// output. The provider is prompted for JSON but truncation, unescaped
// control characters, trailing commas and prose wrappers are all observed in
// practice, so parsing degrades through an ordered cascade instead of
// failing: strict parse, lenient repair, then field-level extraction that
// always succeeds with documented defaults.
package parse

import (
	"encoding/json"

	"blogforge/internal/core"
	"blogforge/internal/logger"
)

// strategy attempts to build a document from an isolated JSON candidate.
type strategy struct {
	name string
	run  func(string) (*core.GeneratedDocument, bool)
}

var strategies = []strategy{
	{name: "strict", run: parseStrict},
	{name: "repaired", run: parseRepaired},
	{name: "fields", run: extractFields},
}

// Document extracts a GeneratedDocument from raw model output. It never
// returns an error: fully unparseable input yields a document where every
// field holds its documented default (empty strings, empty slices, reading
// time 9).
func Document(raw string) *core.GeneratedDocument {
	candidate := isolateJSON(raw)

	for _, s := range strategies {
		doc, ok := s.run(candidate)
		if !ok {
			continue
		}
		if s.name != "strict" {
			logger.Debug("recovered document with degraded parsing", "strategy", s.name)
		}
		normalize(doc)
		return doc
	}

	// extractFields always succeeds; this is unreachable.
	doc := &core.GeneratedDocument{ReadingTimeMinutes: DefaultReadingTime}
	normalize(doc)
	return doc
}

func parseStrict(candidate string) (*core.GeneratedDocument, bool) {
	var doc core.GeneratedDocument
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil, false
	}
	return &doc, true
}

func parseRepaired(candidate string) (*core.GeneratedDocument, bool) {
	repaired := repairJSON(candidate)
	if repaired == candidate {
		return nil, false
	}
	return parseStrict(repaired)
}

// normalize replaces nil collections with empty ones so downstream stages
// never distinguish "absent" from "empty". Present values are left alone to
// keep strict parsing lossless.
func normalize(doc *core.GeneratedDocument) {
	if doc.FAQ == nil {
		doc.FAQ = []core.FAQItem{}
	}
	if doc.Tags == nil {
		doc.Tags = []string{}
	}
	if doc.ImageDescriptions == nil {
		doc.ImageDescriptions = []core.ImageDescription{}
	}
}
