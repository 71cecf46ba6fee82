package parser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/specparse/source"
)

func parseMarkdown(t *testing.T, content string) *source.ParsedMarkdown {
	t.Helper()
	parsed, err := NewMarkdownParser().Parse(context.Background(), "spec.md", []byte(content))
	require.NoError(t, err)
	md, ok := parsed.(*source.ParsedMarkdown)
	require.True(t, ok)
	return md
}

func TestMarkdownParser_Parse(t *testing.T) {
	content := "# Title\n\n## Section One\n- item one\n1. first\n```\ncode block\n```\nMust comply.\nGiven condition then result."

	md := parseMarkdown(t, content)

	require.NotNil(t, md.Title)
	assert.Equal(t, "Title", *md.Title)
	assert.Contains(t, md.Sections, "Section One")
	assert.Contains(t, md.Bullets, "item one")
	assert.Contains(t, md.Numbered, "first")
	require.Len(t, md.CodeBlocks, 1)
	assert.Contains(t, md.CodeBlocks[0], "code block")
	require.NotEmpty(t, md.Requirements)
	assert.Contains(t, md.Requirements[0], "Must")
	require.NotEmpty(t, md.AcceptanceCriteria)
	assert.Contains(t, md.AcceptanceCriteria[0], "Given")

	assert.Equal(t, content, md.RawText)
	assert.Equal(t, "spec.md", md.SourcePath)
	assert.Equal(t, source.FormatMarkdown, md.Format())
}

func TestMarkdownParser_Sections(t *testing.T) {
	content := `Intro text before any heading.

# Login

Users sign in with email.
Second line of the same paragraph.

## Empty

## Rules

* rule a
+ rule b

# Login

Replaced.
`

	md := parseMarkdown(t, content)

	require.NotNil(t, md.Title)
	assert.Equal(t, "Login", *md.Title)

	// Text before the first heading belongs to no section
	for _, text := range md.Sections {
		assert.NotContains(t, text, "Intro text")
	}

	assert.Equal(t, "", md.Sections["Empty"])
	assert.Equal(t, "rule a\nrule b", md.Sections["Rules"])
	assert.Equal(t, []string{"rule a", "rule b"}, md.Bullets)

	// Duplicate heading names keep the last section
	assert.Equal(t, "Replaced.", md.Sections["Login"])
}

func TestMarkdownParser_ParagraphLinesJoined(t *testing.T) {
	md := parseMarkdown(t, "# A\n\nline one\nline two\n\nnext paragraph\n")
	assert.Equal(t, "line one\nline two\nnext paragraph", md.Sections["A"])
}

func TestMarkdownParser_Table(t *testing.T) {
	content := `# Limits

| Field | Rule |
|-------|------|
| name  | must be set |
`
	md := parseMarkdown(t, content)

	section := md.Sections["Limits"]
	assert.Contains(t, section, "Field")
	assert.Contains(t, section, "must be set")
}

func TestMarkdownParser_FencedCodeNotInSection(t *testing.T) {
	md := parseMarkdown(t, "# Usage\n\n```go\nfmt.Println(\"hi\")\n```\n")

	assert.Equal(t, []string{`fmt.Println("hi")`}, md.CodeBlocks)
	assert.Equal(t, "", md.Sections["Usage"])
}

func TestMarkdownParser_Empty(t *testing.T) {
	md := parseMarkdown(t, "")

	assert.Nil(t, md.Title)
	assert.NotNil(t, md.Sections)
	assert.Empty(t, md.Sections)
	assert.NotNil(t, md.Bullets)
	assert.NotNil(t, md.Numbered)
	assert.NotNil(t, md.CodeBlocks)
	assert.NotNil(t, md.Requirements)
	assert.NotNil(t, md.AcceptanceCriteria)
	assert.NotNil(t, md.Examples)
	assert.Equal(t, "", md.RawText)
}

func TestMarkdownParser_WithFrontmatter(t *testing.T) {
	content := `---
title: Checkout
owner: payments
---
Body without headings. The cart must persist.
`

	md := parseMarkdown(t, content)

	assert.Equal(t, "payments", md.Frontmatter["owner"])
	require.NotNil(t, md.Title)
	assert.Equal(t, "Checkout", *md.Title)

	// Raw text and keyword scan cover the whole file
	assert.Equal(t, content, md.RawText)
	assert.Contains(t, md.Requirements, "Body without headings. The cart must persist.")
}

func TestMarkdownParser_HeadingWinsOverFrontmatterTitle(t *testing.T) {
	md := parseMarkdown(t, "---\ntitle: From Frontmatter\n---\n# From Heading\n")

	require.NotNil(t, md.Title)
	assert.Equal(t, "From Heading", *md.Title)
}

func TestMarkdownParser_InvalidFrontmatterKeptInBody(t *testing.T) {
	md := parseMarkdown(t, "---\nkey: [unclosed\n---\n# Doc\n")

	assert.Nil(t, md.Frontmatter)
	assert.Contains(t, md.Sections, "Doc")
}

func TestMarkdownParser_LeadingThematicBreak(t *testing.T) {
	md := parseMarkdown(t, "---\n## Overview\nStatus: draft\n---\n\nThe system must log in.\n")

	assert.Nil(t, md.Frontmatter)
	require.NotNil(t, md.Title)
	assert.Equal(t, "Overview", *md.Title)
	assert.Contains(t, md.Sections, "Overview")
	assert.Equal(t, []string{"The system must log in."}, md.Requirements)
}

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantFM   map[string]any
		wantBody string
		wantErr  bool
	}{
		{
			name:     "simple",
			content:  "---\nkey: value\n---\nbody",
			wantFM:   map[string]any{"key": "value"},
			wantBody: "body",
		},
		{
			name:     "CRLF line endings",
			content:  "---\r\nkey: value\r\n---\r\nbody",
			wantFM:   map[string]any{"key": "value"},
			wantBody: "body",
		},
		{
			name:    "no closing delimiter",
			content: "---\nkey: value\nbody",
			wantErr: true,
		},
		{
			name:    "heading inside block",
			content: "---\n## Overview\nStatus: draft\n---\nbody",
			wantErr: true,
		},
		{
			name:    "no keys",
			content: "---\n\n---\nbody",
			wantErr: true,
		},
		{
			name:    "scalar block",
			content: "---\njust text\n---\nbody",
			wantErr: true,
		},
		{
			name:     "empty body",
			content:  "---\nkey: value\n---\n",
			wantFM:   map[string]any{"key": "value"},
			wantBody: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fm, body, err := extractFrontmatter(tt.content)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantFM, fm)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
