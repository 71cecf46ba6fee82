package parser

import (
	"context"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/c360studio/specparse/source"
)

// httpMethods are the operation keys recognized under an OpenAPI path item.
var httpMethods = map[string]bool{
	"get":     true,
	"post":    true,
	"put":     true,
	"delete":  true,
	"patch":   true,
	"options": true,
	"head":    true,
	"trace":   true,
}

// openAPIMarkers are the top-level keys that identify an OpenAPI document.
var openAPIMarkers = []string{"openapi", "swagger", "paths"}

// OpenAPIParser parses OpenAPI/Swagger documents written in YAML or JSON.
type OpenAPIParser struct{}

// NewOpenAPIParser creates a new OpenAPI parser.
func NewOpenAPIParser() *OpenAPIParser {
	return &OpenAPIParser{}
}

// Format implements Parser.
func (p *OpenAPIParser) Format() source.Format {
	return source.FormatOpenAPI
}

// Parse implements Parser. The document root must be a mapping.
func (p *OpenAPIParser) Parse(_ context.Context, path string, content []byte) (source.Parsed, error) {
	root, err := loadYAML(content)
	if err != nil {
		return nil, source.NewFormatError(source.FormatOpenAPI, path, err)
	}
	if !isMapping(root) {
		return nil, source.NewValidationError(source.FormatOpenAPI, path, "must be a mapping at the top level", nil)
	}

	var title, version *string
	info := lookup(root, "info")
	if t, ok := scalarString(lookup(info, "title")); ok {
		title = &t
	}
	if v, ok := scalarString(lookup(info, "version")); ok {
		version = &v
	}

	sections, err := yamlSections(root)
	if err != nil {
		return nil, source.NewFormatError(source.FormatOpenAPI, path, err)
	}

	return &source.ParsedOpenAPI{
		Common:    newCommon(path, string(content), title, sections),
		Version:   version,
		Endpoints: endpoints(lookup(root, "paths")),
	}, nil
}

// endpoints lists "<METHOD> <path>[ - <summary|operationId>]" for every
// operation under paths, in document order.
func endpoints(paths *yaml.Node) []string {
	out := []string{}
	eachPair(paths, func(route string, item *yaml.Node) {
		eachPair(item, func(method string, op *yaml.Node) {
			lower := strings.ToLower(method)
			if !httpMethods[lower] {
				return
			}
			descriptor := strings.ToUpper(lower) + " " + route
			if summary, ok := scalarString(lookup(op, "summary")); ok && summary != "" {
				descriptor += " - " + summary
			} else if opID, ok := scalarString(lookup(op, "operationId")); ok && opID != "" {
				descriptor += " - " + opID
			}
			out = append(out, descriptor)
		})
	})
	return out
}

// SniffOpenAPI reports whether content is a YAML/JSON mapping carrying any of
// the openapi, swagger or paths keys. An error means the content could not be
// inspected at all.
func SniffOpenAPI(content []byte) (bool, error) {
	root, err := loadYAML(content)
	if err != nil {
		return false, err
	}
	for _, key := range openAPIMarkers {
		if lookup(root, key) != nil {
			return true, nil
		}
	}
	return false, nil
}
