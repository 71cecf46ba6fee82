package parser

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/c360studio/specparse/source"
)

// JSONParser parses JSON specs. Each top-level key becomes a section, in
// document order.
type JSONParser struct{}

// NewJSONParser creates a new JSON parser.
func NewJSONParser() *JSONParser {
	return &JSONParser{}
}

// Format implements Parser.
func (p *JSONParser) Format() source.Format {
	return source.FormatJSON
}

// Parse implements Parser. A top-level value that is not an object parses to
// empty sections.
func (p *JSONParser) Parse(_ context.Context, path string, content []byte) (source.Parsed, error) {
	// gjson is permissive, so syntax is checked with the strict decoder first
	var probe any
	if err := json.Unmarshal(content, &probe); err != nil {
		return nil, source.NewFormatError(source.FormatJSON, path, err)
	}

	var title *string
	sections := map[string]string{}

	root := gjson.ParseBytes(content)
	if root.IsObject() {
		root.ForEach(func(key, value gjson.Result) bool {
			name := key.String()
			sections[name] = jsonSectionText(value)
			if name == "title" && value.Type == gjson.String {
				t := value.String()
				title = &t
			}
			return true
		})
	}

	return &source.ParsedJSON{
		Common: newCommon(path, string(content), title, sections),
	}, nil
}

// jsonSectionText renders nested values as indented JSON and scalars as
// their literal text. null renders as "".
func jsonSectionText(v gjson.Result) string {
	switch {
	case v.IsObject(), v.IsArray():
		return strings.TrimSpace(string(pretty.Pretty([]byte(v.Raw))))
	case v.Type == gjson.String:
		return v.String()
	case v.Type == gjson.Null:
		return ""
	default:
		return v.Raw
	}
}
