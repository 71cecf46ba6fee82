package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractLines(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		keywords []string
		want     []string
	}{
		{
			name:     "empty text",
			text:     "",
			keywords: RequirementKeywords,
			want:     []string{},
		},
		{
			name:     "case insensitive and trimmed",
			text:     "  The system MUST log in  \nnothing here\n",
			keywords: RequirementKeywords,
			want:     []string{"The system MUST log in"},
		},
		{
			name:     "substring match inside words",
			text:     "mustard is yellow",
			keywords: RequirementKeywords,
			want:     []string{"mustard is yellow"},
		},
		{
			name:     "line matching several keywords appears once",
			text:     "must not and shall",
			keywords: RequirementKeywords,
			want:     []string{"must not and shall"},
		},
		{
			name:     "duplicates kept",
			text:     "Given x\nGiven x",
			keywords: AcceptanceKeywords,
			want:     []string{"Given x", "Given x"},
		},
		{
			name:     "example vocabulary",
			text:     "see e.g. the docs\nA sample request\nplain",
			keywords: ExampleKeywords,
			want:     []string{"see e.g. the docs", "A sample request"},
		},
		{
			name:     "carriage returns trimmed",
			text:     "Should work\r\nother\r\n",
			keywords: RequirementKeywords,
			want:     []string{"Should work"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractLines(tt.text, tt.keywords)
			assert.NotNil(t, got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractKeywords(t *testing.T) {
	kw := ExtractKeywords("Users must sign in.\nGiven a user\nFor instance, bob")

	assert.Equal(t, []string{"Users must sign in."}, kw.Requirements)
	assert.Equal(t, []string{"Given a user"}, kw.AcceptanceCriteria)
	assert.Equal(t, []string{"For instance, bob"}, kw.Examples)
}
