package source

// Parsed is the closed set of format-specific parser outputs. Every variant
// supplies its own conversion into NormalizedSpec, so adding a variant without
// a conversion fails to compile.
type Parsed interface {
	// Format reports which parser produced the value.
	Format() Format

	// Normalize folds the format-specific fields into a NormalizedSpec.
	Normalize() *NormalizedSpec

	parsed()
}

// Common holds the fields every structural parser extracts.
type Common struct {
	Title              *string           `json:"title"`
	Sections           map[string]string `json:"sections"`
	Requirements       []string          `json:"requirements"`
	AcceptanceCriteria []string          `json:"acceptance_criteria"`
	Examples           []string          `json:"examples"`
	RawText            string            `json:"raw_text"`
	SourcePath         string            `json:"source_path"`
}

func (c *Common) normalize() *NormalizedSpec {
	return newNormalized(c.Title, c.Sections, c.Requirements, c.AcceptanceCriteria, c.Examples, c.RawText, c.SourcePath)
}

// ParsedMarkdown is the Markdown parser output.
type ParsedMarkdown struct {
	Common

	// Bullets are unordered list items with their marker trimmed.
	Bullets []string `json:"bullets"`

	// Numbered are ordered list items with their "N." prefix trimmed.
	Numbered []string `json:"numbered"`

	// CodeBlocks are trimmed fenced code block bodies.
	CodeBlocks []string `json:"code_blocks"`

	// Frontmatter holds a leading YAML frontmatter block, if present.
	Frontmatter map[string]any `json:"frontmatter,omitempty"`
}

// Format implements Parsed.
func (p *ParsedMarkdown) Format() Format { return FormatMarkdown }

// Normalize implements Parsed. Bullets, numbered items and code blocks are
// already represented in Sections and have no normalized counterpart.
func (p *ParsedMarkdown) Normalize() *NormalizedSpec { return p.normalize() }

func (p *ParsedMarkdown) parsed() {}

// ParsedJSON is the JSON parser output.
type ParsedJSON struct {
	Common
}

// Format implements Parsed.
func (p *ParsedJSON) Format() Format { return FormatJSON }

// Normalize implements Parsed.
func (p *ParsedJSON) Normalize() *NormalizedSpec { return p.normalize() }

func (p *ParsedJSON) parsed() {}

// ParsedYAML is the YAML parser output.
type ParsedYAML struct {
	Common
}

// Format implements Parsed.
func (p *ParsedYAML) Format() Format { return FormatYAML }

// Normalize implements Parsed.
func (p *ParsedYAML) Normalize() *NormalizedSpec { return p.normalize() }

func (p *ParsedYAML) parsed() {}

// ParsedOpenAPI is the OpenAPI parser output.
type ParsedOpenAPI struct {
	Common

	// Version is info.version, if present.
	Version *string `json:"version"`

	// Endpoints are "<METHOD> <path>[ - <summary|operationId>]" descriptors
	// in document order.
	Endpoints []string `json:"endpoints"`
}

// Format implements Parsed.
func (p *ParsedOpenAPI) Format() Format { return FormatOpenAPI }

// Normalize implements Parsed.
func (p *ParsedOpenAPI) Normalize() *NormalizedSpec { return p.normalize() }

func (p *ParsedOpenAPI) parsed() {}

// ParsedLLMSpec is the generative fallback parser output.
type ParsedLLMSpec struct {
	Common

	// Confidence is the model-reported score scaled to [0,1].
	Confidence float64 `json:"confidence"`

	// ConfidenceReported is false when the model omitted the score or sent a
	// non-numeric value; Confidence is then 0.
	ConfidenceReported bool `json:"confidence_reported"`
}

// Format implements Parsed.
func (p *ParsedLLMSpec) Format() Format { return FormatLLM }

// Normalize implements Parsed.
func (p *ParsedLLMSpec) Normalize() *NormalizedSpec {
	spec := p.normalize()
	confidence := p.Confidence
	spec.Confidence = &confidence
	return spec
}

func (p *ParsedLLMSpec) parsed() {}
