package parser

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/c360studio/specparse/llm"
	"github.com/c360studio/specparse/source"
)

// LLMParser delegates extraction to a text generator and reports the model's
// self-assessed confidence. It never retries; transport policy belongs to the
// generator.
type LLMParser struct {
	gen     llm.Generator
	model   string
	apiKey  string
	lenient bool
	extra   map[string]any
	logger  *slog.Logger
}

// LLMOption configures an LLMParser.
type LLMOption func(*LLMParser)

// WithLLMModel sets the model passed to the generator.
func WithLLMModel(model string) LLMOption {
	return func(p *LLMParser) {
		p.model = model
	}
}

// WithLLMAPIKey sets the API key passed to the generator.
func WithLLMAPIKey(key string) LLMOption {
	return func(p *LLMParser) {
		p.apiKey = key
	}
}

// WithLenientJSON strips code fences, comments and trailing commas from the
// model output before decoding it.
func WithLenientJSON(lenient bool) LLMOption {
	return func(p *LLMParser) {
		p.lenient = lenient
	}
}

// WithLLMExtra passes provider-specific request fields through to the
// generator.
func WithLLMExtra(extra map[string]any) LLMOption {
	return func(p *LLMParser) {
		p.extra = extra
	}
}

// WithLLMLogger sets the logger.
func WithLLMLogger(logger *slog.Logger) LLMOption {
	return func(p *LLMParser) {
		p.logger = logger
	}
}

// NewLLMParser creates a fallback parser backed by gen.
func NewLLMParser(gen llm.Generator, opts ...LLMOption) *LLMParser {
	p := &LLMParser{
		gen:    gen,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Format implements Parser.
func (p *LLMParser) Format() source.Format {
	return source.FormatLLM
}

// Parse sends the document to the generator and decodes its JSON answer.
// raw_text and source_path always come from the file, never from the model.
func (p *LLMParser) Parse(ctx context.Context, path string, content []byte) (source.Parsed, error) {
	if p.gen == nil {
		return nil, fmt.Errorf("no text generator configured for LLM parsing")
	}

	text := string(content)
	response, err := p.gen.GenerateText(ctx, BuildUserPrompt(text), llm.GenerateOptions{
		APIKey:       p.apiKey,
		Model:        p.model,
		SystemPrompt: SystemPrompt(),
		Extra:        p.extra,
	})
	if err != nil {
		return nil, fmt.Errorf("LLM generation failed: %w", err)
	}

	p.logger.Debug("LLM parser response received", "path", path, "chars", len(response))

	return decodeLLMResponse(response, path, text, p.lenient)
}

// SystemPrompt returns the fixed system instruction sent with every request.
func SystemPrompt() string {
	return specSystemPrompt
}

// BuildUserPrompt embeds text verbatim between delimiter lines.
func BuildUserPrompt(text string) string {
	return fmt.Sprintf(specUserPrompt, text)
}

// llmPayload is the field shape the model is instructed to return.
type llmPayload struct {
	Title              *string           `json:"title"`
	Sections           map[string]string `json:"sections"`
	Requirements       []string          `json:"requirements"`
	AcceptanceCriteria []string          `json:"acceptance_criteria"`
	Examples           []string          `json:"examples"`
}

func decodeLLMResponse(response, path, rawText string, lenient bool) (*source.ParsedLLMSpec, error) {
	body := response
	if lenient {
		if extracted := llm.ExtractJSON(response); extracted != "" {
			body = extracted
		}
	}

	var probe any
	if err := json.Unmarshal([]byte(body), &probe); err != nil {
		return nil, source.NewFormatError(source.FormatLLM, path,
			fmt.Errorf("%w. Response was:\n%s", err, response))
	}
	if _, ok := probe.(map[string]any); !ok {
		return nil, source.NewValidationError(source.FormatLLM, path, "response must be a JSON object", nil)
	}

	var payload llmPayload
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		return nil, source.NewValidationError(source.FormatLLM, path, "response did not match the spec shape", err)
	}

	confidence, reported := normalizeConfidence(gjson.Get(body, "confidence"))

	if payload.Sections == nil {
		payload.Sections = map[string]string{}
	}
	return &source.ParsedLLMSpec{
		Common: source.Common{
			Title:              payload.Title,
			Sections:           payload.Sections,
			Requirements:       nonNil(payload.Requirements),
			AcceptanceCriteria: nonNil(payload.AcceptanceCriteria),
			Examples:           nonNil(payload.Examples),
			RawText:            rawText,
			SourcePath:         path,
		},
		Confidence:         confidence,
		ConfidenceReported: reported,
	}, nil
}

// normalizeConfidence scales a 0-100 score into [0,1]. Absent, null,
// non-numeric and NaN values yield 0 and reported=false.
func normalizeConfidence(v gjson.Result) (float64, bool) {
	var raw float64
	switch v.Type {
	case gjson.Number:
		raw = v.Float()
	case gjson.String:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil {
			return 0, false
		}
		raw = f
	default:
		return 0, false
	}
	if math.IsNaN(raw) {
		return 0, false
	}
	return math.Max(0, math.Min(1, raw/100)), true
}
