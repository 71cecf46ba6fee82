package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantKey string
		wantErr bool
	}{
		{
			name:    "plain JSON",
			input:   `{"title": "Spec"}`,
			wantKey: "title",
		},
		{
			name:    "markdown code block",
			input:   "```json\n{\"title\": \"Spec\"}\n```",
			wantKey: "title",
		},
		{
			name:    "prose before and after",
			input:   "Here is the result:\n{\"sections\": {\"A\": \"b\"}}\nHope that helps!",
			wantKey: "sections",
		},
		{
			name:    "comments and trailing commas",
			input:   "```json\n{\n  \"requirements\": [\n    \"must a\",  // first\n    \"must b\",  // second\n  ]\n}\n```",
			wantKey: "requirements",
		},
		{
			name:    "braces inside strings",
			input:   `{"examples": ["use {curly} braces"], "confidence": 80} trailing`,
			wantKey: "examples",
		},
		{
			name:    "URL in string not stripped",
			input:   `{"url": "http://example.com/path"}`,
			wantKey: "url",
		},
		{
			name:    "empty input",
			input:   "",
			wantErr: true,
		},
		{
			name:    "no object",
			input:   "I could not parse this document.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractJSON(tt.input)
			if tt.wantErr {
				assert.Empty(t, got)
				return
			}
			var parsed map[string]any
			require.NoError(t, json.Unmarshal([]byte(got), &parsed), "extracted: %s", got)
			assert.Contains(t, parsed, tt.wantKey)
		})
	}
}

func TestExtractJSON_PreservesURLValue(t *testing.T) {
	got := ExtractJSON("{\"url\": \"http://example.com/path\"} // trailing")

	var parsed map[string]string
	require.NoError(t, json.Unmarshal([]byte(got), &parsed))
	assert.Equal(t, "http://example.com/path", parsed["url"])
}

func TestStripLineComment(t *testing.T) {
	assert.Equal(t, `"a",`, stripLineComment(`"a",   // note`))
	assert.Equal(t, `"http://x"`, stripLineComment(`"http://x"`))
	assert.Equal(t, `"esc \" // still string"`, stripLineComment(`"esc \" // still string"`))
}
