// Package parser provides the structural spec parsers (Markdown, JSON, YAML,
// OpenAPI), the generative fallback parser, and the shared keyword extractor.
package parser

import (
	"context"

	"github.com/c360studio/specparse/source"
)

// Parser turns the content of one spec file into a format-specific model.
// Implementations never read the file themselves; path is recorded as the
// source path only.
type Parser interface {
	// Format reports which variant this parser produces.
	Format() source.Format

	// Parse extracts a parsed model from content.
	Parse(ctx context.Context, path string, content []byte) (source.Parsed, error)
}
