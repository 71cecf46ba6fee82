package source

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatString(t *testing.T) {
	assert.Equal(t, "markdown", FormatMarkdown.String())
	assert.Equal(t, "openapi", FormatOpenAPI.String())
	assert.Equal(t, "unknown", FormatUnknown.String())
}

func TestNormalize_FillsContainers(t *testing.T) {
	p := &ParsedJSON{Common: Common{RawText: "{}", SourcePath: "a.json"}}
	spec := p.Normalize()

	assert.Nil(t, spec.Title)
	assert.Equal(t, "", spec.TitleOrEmpty())
	assert.NotNil(t, spec.Sections)
	assert.NotNil(t, spec.Requirements)
	assert.NotNil(t, spec.AcceptanceCriteria)
	assert.NotNil(t, spec.Examples)
	assert.Nil(t, spec.Confidence)
	assert.Equal(t, "a.json", spec.SourcePath)

	data, err := json.Marshal(spec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":null,"sections":{},"requirements":[],"acceptance_criteria":[],
		"examples":[],"raw_text":"{}","source_path":"a.json","confidence":null}`, string(data))
}

func TestNormalize_Variants(t *testing.T) {
	title := "T"
	version := "1.0"
	common := Common{Title: &title, Sections: map[string]string{"a": "b"}, Requirements: []string{"must x"}}

	tests := []struct {
		name   string
		parsed Parsed
		format Format
	}{
		{"markdown", &ParsedMarkdown{Common: common, Bullets: []string{"x"}}, FormatMarkdown},
		{"json", &ParsedJSON{Common: common}, FormatJSON},
		{"yaml", &ParsedYAML{Common: common}, FormatYAML},
		{"openapi", &ParsedOpenAPI{Common: common, Version: &version, Endpoints: []string{"GET /"}}, FormatOpenAPI},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.format, tt.parsed.Format())
			spec := tt.parsed.Normalize()
			assert.Equal(t, "T", spec.TitleOrEmpty())
			assert.Equal(t, map[string]string{"a": "b"}, spec.Sections)
			assert.Equal(t, []string{"must x"}, spec.Requirements)
			assert.Nil(t, spec.Confidence)
		})
	}
}

func TestNormalize_LLMConfidence(t *testing.T) {
	spec := (&ParsedLLMSpec{Confidence: 0.42, ConfidenceReported: true}).Normalize()
	require.NotNil(t, spec.Confidence)
	assert.Equal(t, 0.42, *spec.Confidence)

	// Unreported confidence still normalizes to zero
	spec = (&ParsedLLMSpec{}).Normalize()
	require.NotNil(t, spec.Confidence)
	assert.Equal(t, 0.0, *spec.Confidence)
}

func TestWarningStrings(t *testing.T) {
	cause := errors.New("bad indent")
	tests := []struct {
		warning Warning
		want    string
	}{
		{Warning{Kind: WarnUnknownExtension}, "Unrecognized file extension; using LLM parser fallback."},
		{Warning{Kind: WarnUnknownExtensionNoFallback}, "Unrecognized file extension and LLM fallback disabled."},
		{ParseFailedWarning(FormatOpenAPI, cause), "OpenAPI parsing failed (bad indent)."},
		{ParseFailedWarning(FormatJSON, cause), "JSON parsing failed (bad indent)."},
		{ParseFailedWarning(FormatYAML, cause), "YAML parsing failed (bad indent)."},
		{SniffFailedWarning(cause), "Failed to inspect YAML/JSON content (bad indent)."},
		{Warning{Kind: WarnFallbackNotice}, "Falling back to LLM parser."},
		{Warning{Kind: WarnNoConfidence}, "LLM did not return a confidence score."},
		{LowConfidenceWarning(0.4, 0.7), "LLM confidence 40% is below threshold 70%; results may be incomplete."},
		{LowConfidenceWarning(0.576, 0.666), "LLM confidence 58% is below threshold 67%; results may be incomplete."},
		{Warning{Kind: "custom"}, "custom"},
	}
	for _, tt := range tests {
		t.Run(string(tt.warning.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.warning.String())
		})
	}
}

func TestParseResultMessages(t *testing.T) {
	res := &ParseResult{Warnings: []Warning{{Kind: WarnFallbackNotice}, {Kind: WarnNoConfidence}}}
	assert.Equal(t, []string{"Falling back to LLM parser.", "LLM did not return a confidence score."}, res.Messages())

	data, err := json.Marshal(res.Warnings)
	require.NoError(t, err)
	assert.JSONEq(t, `["Falling back to LLM parser.","LLM did not return a confidence score."]`, string(data))
}

func TestErrors(t *testing.T) {
	cause := errors.New("unexpected EOF")

	fe := NewFormatError(FormatJSON, "a.json", cause)
	assert.Equal(t, "invalid json in a.json: unexpected EOF", fe.Error())
	assert.ErrorIs(t, fe, cause)

	llmErr := NewFormatError(FormatLLM, "a.txt", cause)
	assert.Equal(t, "LLM returned invalid JSON for a.txt: unexpected EOF", llmErr.Error())

	ve := NewValidationError(FormatOpenAPI, "api.yaml", "must be a mapping at the top level", nil)
	assert.Equal(t, "openapi spec in api.yaml must be a mapping at the top level", ve.Error())
	assert.Nil(t, errors.Unwrap(ve))

	wrapped := WrapParsingError(fe)
	assert.True(t, IsParsingError(wrapped))
	assert.Equal(t, fe.Error(), wrapped.Error())
	var target *FormatError
	require.ErrorAs(t, wrapped, &target)
	assert.Equal(t, "a.json", target.Path)

	// Already a ParsingError: returned as is
	pe := NewParsingError("JSON parsing failed and LLM fallback disabled.", fe)
	assert.Same(t, pe, WrapParsingError(pe))
	outer := fmt.Errorf("ctx: %w", pe)
	assert.Equal(t, outer, WrapParsingError(outer))
}

func TestWrapParsingError_NotFound(t *testing.T) {
	assert.NoError(t, WrapParsingError(nil))

	missing := &fs.PathError{Op: "open", Path: "x.md", Err: fs.ErrNotExist}
	err := WrapParsingError(missing)
	assert.Same(t, missing, err)
	assert.True(t, IsNotFound(err))
	assert.False(t, IsParsingError(err))
}
