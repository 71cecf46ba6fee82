package parser

import (
	"strings"

	"github.com/c360studio/specparse/source"
)

// Keyword vocabularies shared by every structural parser. Matching is a plain
// substring test against the lowercased, trimmed line.
var (
	RequirementKeywords = []string{"must", "shall", "should", "need to", "required", "cannot", "must not"}
	AcceptanceKeywords  = []string{"given", "when", "then", "acceptance", "criteria"}
	ExampleKeywords     = []string{"example", "for instance", "e.g.", "sample"}
)

// ExtractLines returns every trimmed line of text containing at least one of
// keywords. The result is never nil.
func ExtractLines(text string, keywords []string) []string {
	out := []string{}
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		lower := strings.ToLower(trimmed)
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				out = append(out, trimmed)
				break
			}
		}
	}
	return out
}

// Keywords holds the three keyword-matched line lists for a document.
type Keywords struct {
	Requirements       []string
	AcceptanceCriteria []string
	Examples           []string
}

// ExtractKeywords runs all three vocabularies over the full document text.
func ExtractKeywords(text string) Keywords {
	return Keywords{
		Requirements:       ExtractLines(text, RequirementKeywords),
		AcceptanceCriteria: ExtractLines(text, AcceptanceKeywords),
		Examples:           ExtractLines(text, ExampleKeywords),
	}
}

// newCommon builds the shared parsed fields from the document text.
func newCommon(path string, text string, title *string, sections map[string]string) source.Common {
	kw := ExtractKeywords(text)
	if sections == nil {
		sections = map[string]string{}
	}
	return source.Common{
		Title:              title,
		Sections:           sections,
		Requirements:       kw.Requirements,
		AcceptanceCriteria: kw.AcceptanceCriteria,
		Examples:           kw.Examples,
		RawText:            text,
		SourcePath:         path,
	}
}
