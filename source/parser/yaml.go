package parser

import (
	"context"

	"github.com/c360studio/specparse/source"
)

// YAMLParser parses generic YAML specs. Each top-level key becomes a section.
type YAMLParser struct{}

// NewYAMLParser creates a new YAML parser.
func NewYAMLParser() *YAMLParser {
	return &YAMLParser{}
}

// Format implements Parser.
func (p *YAMLParser) Format() source.Format {
	return source.FormatYAML
}

// Parse implements Parser. A non-mapping document parses to empty sections.
func (p *YAMLParser) Parse(_ context.Context, path string, content []byte) (source.Parsed, error) {
	root, err := loadYAML(content)
	if err != nil {
		return nil, source.NewFormatError(source.FormatYAML, path, err)
	}

	var title *string
	if t, ok := scalarString(lookup(root, "title")); ok {
		title = &t
	}

	sections, err := yamlSections(root)
	if err != nil {
		return nil, source.NewFormatError(source.FormatYAML, path, err)
	}

	return &source.ParsedYAML{
		Common: newCommon(path, string(content), title, sections),
	}, nil
}
