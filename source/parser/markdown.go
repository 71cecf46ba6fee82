package parser

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/specparse/source"
)

// MarkdownParser parses Markdown specs with optional YAML frontmatter.
type MarkdownParser struct {
	md goldmark.Markdown
}

// NewMarkdownParser creates a new markdown parser with GFM tables enabled.
func NewMarkdownParser() *MarkdownParser {
	return &MarkdownParser{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Format implements Parser.
func (p *MarkdownParser) Format() source.Format {
	return source.FormatMarkdown
}

// Parse walks the Markdown block tree. The first heading becomes the title,
// every heading opens a section, and list items and fenced code are collected
// separately. Keyword lists always cover the whole file.
func (p *MarkdownParser) Parse(_ context.Context, path string, content []byte) (source.Parsed, error) {
	str := string(content)
	body := content

	// Frontmatter is optional; a malformed block is left in the body
	var frontmatter map[string]any
	if strings.HasPrefix(str, "---\n") || strings.HasPrefix(str, "---\r\n") {
		fm, rest, err := extractFrontmatter(str)
		if err == nil {
			frontmatter = fm
			body = []byte(rest)
		}
	}

	out := &markdownWalker{}
	doc := p.md.Parser().Parse(text.NewReader(body))
	if err := ast.Walk(doc, out.visit(body)); err != nil {
		return nil, fmt.Errorf("walk markdown: %w", err)
	}
	out.flush()

	title := out.title
	if title == nil {
		if t, ok := frontmatter["title"].(string); ok {
			title = &t
		}
	}

	return &source.ParsedMarkdown{
		Common:      newCommon(path, str, title, out.sections),
		Bullets:     nonNil(out.bullets),
		Numbered:    nonNil(out.numbered),
		CodeBlocks:  nonNil(out.codeBlocks),
		Frontmatter: frontmatter,
	}, nil
}

// markdownWalker accumulates state while walking one document.
type markdownWalker struct {
	title      *string
	sections   map[string]string
	bullets    []string
	numbered   []string
	codeBlocks []string

	current string
	open    bool
	content []string
}

func (m *markdownWalker) visit(src []byte) ast.Walker {
	return func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *ast.Heading:
			m.flush()
			heading := strings.TrimSpace(blockText(node, src))
			if m.title == nil {
				m.title = &heading
			}
			m.current = heading
			m.open = true
			return ast.WalkSkipChildren, nil

		case *ast.ListItem:
			if first := node.FirstChild(); first != nil {
				item := strings.TrimSpace(blockText(first, src))
				if list, ok := node.Parent().(*ast.List); ok && list.IsOrdered() {
					m.numbered = append(m.numbered, item)
				} else {
					m.bullets = append(m.bullets, item)
				}
			}

		case *ast.FencedCodeBlock:
			m.codeBlocks = append(m.codeBlocks, strings.TrimSpace(linesText(node, src, "")))
			return ast.WalkSkipChildren, nil

		case *ast.Paragraph, *ast.TextBlock:
			m.appendContent(blockText(node, src))
			return ast.WalkSkipChildren, nil

		case *extast.TableCell:
			m.appendContent(strings.TrimSpace(blockText(node, src)))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	}
}

func (m *markdownWalker) appendContent(s string) {
	if m.open && s != "" {
		m.content = append(m.content, s)
	}
}

// flush stores the section being collected. Duplicate headings overwrite.
func (m *markdownWalker) flush() {
	if !m.open {
		return
	}
	if m.sections == nil {
		m.sections = map[string]string{}
	}
	m.sections[m.current] = strings.Join(m.content, "\n")
	m.content = nil
}

// blockText returns the raw source lines of a block, falling back to its
// inline text for nodes without line segments.
func blockText(n ast.Node, src []byte) string {
	if n.Lines().Len() > 0 {
		return linesText(n, src, "\n")
	}
	return inlineText(n, src)
}

// linesText joins the raw line segments of a block. With sep empty the
// segments are concatenated as-is, preserving their own line endings.
func linesText(n ast.Node, src []byte, sep string) string {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		line := string(seg.Value(src))
		if sep != "" {
			line = strings.TrimRight(line, "\r\n")
		}
		parts = append(parts, line)
	}
	return strings.Join(parts, sep)
}

// inlineText concatenates the text leaves below n.
func inlineText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte('\n')
			}
		case *ast.String:
			buf.Write(t.Value)
		case *ast.AutoLink:
			buf.Write(t.Label(src))
		}
		return ast.WalkContinue, nil
	})
	return buf.String()
}

// atxHeading matches an ATX heading line anywhere in a block.
var atxHeading = regexp.MustCompile(`(?m)^ {0,3}#{1,6}(?:[ \t]|$)`)

// extractFrontmatter parses YAML frontmatter from markdown content.
// Returns the parsed frontmatter map, the remaining body, and any error.
// Blocks holding headings or no keys are rejected so a leading thematic
// break stays part of the document.
func extractFrontmatter(content string) (map[string]any, string, error) {
	const delimiter = "---"

	// Skip the opening delimiter
	start := len(delimiter)
	if len(content) > start && content[start] == '\r' {
		start++
	}
	if len(content) > start && content[start] == '\n' {
		start++
	}

	closeIdx := strings.Index(content[start:], "\n"+delimiter)
	if closeIdx == -1 {
		return nil, content, fmt.Errorf("no closing frontmatter delimiter")
	}

	yamlContent := content[start : start+closeIdx]

	// A leading thematic break around headings is Markdown, not frontmatter
	if atxHeading.MatchString(yamlContent) {
		return nil, content, fmt.Errorf("frontmatter block contains a heading")
	}

	// Body starts after the closing delimiter and its line break
	bodyStart := start + closeIdx + 1 + len(delimiter)
	for bodyStart < len(content) && (content[bodyStart] == '\n' || content[bodyStart] == '\r') {
		bodyStart++
	}

	body := ""
	if bodyStart < len(content) {
		body = content[bodyStart:]
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &frontmatter); err != nil {
		return nil, content, fmt.Errorf("parse YAML frontmatter: %w", err)
	}
	if len(frontmatter) == 0 {
		return nil, content, fmt.Errorf("empty frontmatter")
	}

	return frontmatter, body, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
