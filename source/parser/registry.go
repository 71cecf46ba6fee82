package parser

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/c360studio/specparse/source"
)

// Registry holds the structural parsers keyed by the format they produce.
type Registry struct {
	mu      sync.RWMutex
	parsers map[source.Format]Parser
}

// DefaultRegistry is the global registry with the structural parsers.
var DefaultRegistry = NewRegistry()

// NewRegistry creates a registry with the four structural parsers.
func NewRegistry() *Registry {
	r := &Registry{
		parsers: make(map[source.Format]Parser),
	}

	r.Register(NewMarkdownParser())
	r.Register(NewJSONParser())
	r.Register(NewYAMLParser())
	r.Register(NewOpenAPIParser())

	return r
}

// Register adds or replaces the parser for p.Format().
func (r *Registry) Register(p Parser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsers[p.Format()] = p
}

// Get returns the parser for format, or nil.
func (r *Registry) Get(format source.Format) Parser {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.parsers[format]
}

// Formats returns all registered formats, sorted.
func (r *Registry) Formats() []source.Format {
	r.mu.RLock()
	defer r.mu.RUnlock()

	formats := make([]source.Format, 0, len(r.parsers))
	for f := range r.parsers {
		formats = append(formats, f)
	}
	sort.Slice(formats, func(i, j int) bool { return formats[i] < formats[j] })
	return formats
}

// FormatFromExtension maps a file name to the structural format its
// extension selects. OpenAPI is never chosen by extension; it is detected
// from content. Unrecognized extensions return source.FormatUnknown.
func FormatFromExtension(filename string) source.Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".md":
		return source.FormatMarkdown
	case ".json":
		return source.FormatJSON
	case ".yaml", ".yml":
		return source.FormatYAML
	default:
		return source.FormatUnknown
	}
}

// Extensions returns the file extensions routed to a structural parser.
func Extensions() []string {
	return []string{".json", ".md", ".yaml", ".yml"}
}
