// Package source provides the normalized specification model shared by every
// parser, along with the warning and error taxonomy used during routing.
package source

// Format identifies which parser family produced a result.
type Format string

// Supported formats. FormatLLM marks results produced by the generative
// fallback parser rather than a structural grammar.
const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
	FormatOpenAPI  Format = "openapi"
	FormatLLM      Format = "llm"
	FormatUnknown  Format = ""
)

// String returns the format name, or "unknown" for FormatUnknown.
func (f Format) String() string {
	if f == FormatUnknown {
		return "unknown"
	}
	return string(f)
}

// NormalizedSpec is the single output schema every parser folds into.
type NormalizedSpec struct {
	// Title is the primary heading or name of the document, if any.
	Title *string `json:"title" yaml:"title"`

	// Sections maps a section name to its text content.
	Sections map[string]string `json:"sections" yaml:"sections"`

	// Requirements are verbatim requirement-like lines.
	Requirements []string `json:"requirements" yaml:"requirements"`

	// AcceptanceCriteria are verbatim acceptance-like lines.
	AcceptanceCriteria []string `json:"acceptance_criteria" yaml:"acceptance_criteria"`

	// Examples are verbatim example-like lines.
	Examples []string `json:"examples" yaml:"examples"`

	// RawText is the complete original document content.
	RawText string `json:"raw_text" yaml:"raw_text"`

	// SourcePath is the path the content was read from.
	SourcePath string `json:"source_path" yaml:"source_path"`

	// Confidence is set only when the generative fallback produced the spec.
	Confidence *float64 `json:"confidence" yaml:"confidence"`
}

// TitleOrEmpty returns the title, or "" when the document has none.
func (s *NormalizedSpec) TitleOrEmpty() string {
	if s.Title == nil {
		return ""
	}
	return *s.Title
}

// ParseResult wraps a normalized spec with the warnings collected while
// routing it.
type ParseResult struct {
	Spec     *NormalizedSpec `json:"spec" yaml:"spec"`
	Warnings []Warning       `json:"warnings" yaml:"warnings"`
}

// Messages renders the warnings as human-readable strings.
func (r *ParseResult) Messages() []string {
	out := make([]string, 0, len(r.Warnings))
	for _, w := range r.Warnings {
		out = append(out, w.String())
	}
	return out
}

// newNormalized builds a NormalizedSpec with every container initialized so
// consumers never see nil collections.
func newNormalized(title *string, sections map[string]string, requirements, acceptance, examples []string, rawText, sourcePath string) *NormalizedSpec {
	if sections == nil {
		sections = map[string]string{}
	}
	return &NormalizedSpec{
		Title:              title,
		Sections:           sections,
		Requirements:       nonNil(requirements),
		AcceptanceCriteria: nonNil(acceptance),
		Examples:           nonNil(examples),
		RawText:            rawText,
		SourcePath:         sourcePath,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
