package parser

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/c360studio/specparse/llm"
	"github.com/c360studio/specparse/source"
)

// errInvalidUTF8 is the cause of a FormatError for undecodable content.
var errInvalidUTF8 = errors.New("content is not valid UTF-8")

// osFs backs the file convenience functions.
var osFs = afero.NewOsFs()

// ReadSpec reads a whole spec file. A missing file yields an error matching
// fs.ErrNotExist.
func ReadSpec(fsys afero.Fs, path string) ([]byte, error) {
	content, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, err
	}
	if !utf8.Valid(content) {
		return nil, source.NewFormatError(FormatFromExtension(path), path, errInvalidUTF8)
	}
	return content, nil
}

// ParseFile reads path from fsys and runs p over it.
func ParseFile(ctx context.Context, fsys afero.Fs, p Parser, path string) (source.Parsed, error) {
	content, err := ReadSpec(fsys, path)
	if err != nil {
		return nil, err
	}
	return p.Parse(ctx, path, content)
}

func parseAs[T source.Parsed](ctx context.Context, p Parser, path string) (T, error) {
	var zero T
	parsed, err := ParseFile(ctx, osFs, p, path)
	if err != nil {
		return zero, err
	}
	typed, ok := parsed.(T)
	if !ok {
		return zero, fmt.Errorf("%s parser returned %T", p.Format(), parsed)
	}
	return typed, nil
}

// ParseMarkdownFile parses a Markdown spec from disk.
func ParseMarkdownFile(ctx context.Context, path string) (*source.ParsedMarkdown, error) {
	return parseAs[*source.ParsedMarkdown](ctx, NewMarkdownParser(), path)
}

// ParseJSONFile parses a JSON spec from disk.
func ParseJSONFile(ctx context.Context, path string) (*source.ParsedJSON, error) {
	return parseAs[*source.ParsedJSON](ctx, NewJSONParser(), path)
}

// ParseYAMLFile parses a YAML spec from disk.
func ParseYAMLFile(ctx context.Context, path string) (*source.ParsedYAML, error) {
	return parseAs[*source.ParsedYAML](ctx, NewYAMLParser(), path)
}

// ParseOpenAPIFile parses an OpenAPI document from disk.
func ParseOpenAPIFile(ctx context.Context, path string) (*source.ParsedOpenAPI, error) {
	return parseAs[*source.ParsedOpenAPI](ctx, NewOpenAPIParser(), path)
}

// ParseWithLLM parses any text file from disk through the generative parser.
func ParseWithLLM(ctx context.Context, path string, gen llm.Generator, opts ...LLMOption) (*source.ParsedLLMSpec, error) {
	return parseAs[*source.ParsedLLMSpec](ctx, NewLLMParser(gen, opts...), path)
}
