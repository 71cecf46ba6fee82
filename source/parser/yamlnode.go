package parser

import (
	"bytes"
	"strings"

	"gopkg.in/yaml.v3"
)

// maxAliasDepth bounds alias expansion so self-referencing anchors terminate.
const maxAliasDepth = 64

// loadYAML parses content with the YAML grammar, which also accepts JSON. It
// returns the root value node, or nil for an empty document.
func loadYAML(content []byte) (*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, nil
	}
	return resolveAlias(doc.Content[0]), nil
}

func resolveAlias(n *yaml.Node) *yaml.Node {
	for depth := 0; n != nil && n.Kind == yaml.AliasNode && depth < maxAliasDepth; depth++ {
		n = n.Alias
	}
	return n
}

func isMapping(n *yaml.Node) bool {
	return n != nil && n.Kind == yaml.MappingNode
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}

// mergeTag marks a "<<" merge key.
const mergeTag = "!!merge"

type yamlPair struct {
	key, value *yaml.Node
}

// mappingPairs returns the entries of a mapping with "<<" merge keys
// expanded, the way a YAML load builds the mapping: merged entries come
// first, explicit keys override merged ones in place, and within a merged
// sequence earlier mappings win.
func mappingPairs(n *yaml.Node, depth int) []yamlPair {
	if !isMapping(n) || depth > maxAliasDepth {
		return nil
	}

	var merged, explicit []yamlPair
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := resolveAlias(n.Content[i]), resolveAlias(n.Content[i+1])
		if k.Kind != yaml.ScalarNode || k.Tag != mergeTag {
			explicit = append(explicit, yamlPair{k, v})
			continue
		}
		switch v.Kind {
		case yaml.MappingNode:
			merged = append(merged, mappingPairs(v, depth+1)...)
		case yaml.SequenceNode:
			for j := len(v.Content) - 1; j >= 0; j-- {
				merged = append(merged, mappingPairs(resolveAlias(v.Content[j]), depth+1)...)
			}
		}
	}
	if len(merged) == 0 {
		return explicit
	}

	// First position, last value
	all := append(merged, explicit...)
	out := make([]yamlPair, 0, len(all))
	index := make(map[string]int, len(all))
	for _, p := range all {
		if p.key.Kind == yaml.ScalarNode {
			if i, ok := index[p.key.Value]; ok {
				out[i].value = p.value
				continue
			}
			index[p.key.Value] = len(out)
		}
		out = append(out, p)
	}
	return out
}

// eachPair calls fn for every key/value pair of a mapping, in document order
// with merge keys expanded.
func eachPair(n *yaml.Node, fn func(key string, value *yaml.Node)) {
	for _, p := range mappingPairs(n, 0) {
		fn(p.key.Value, p.value)
	}
}

// lookup returns the value stored under key in a mapping node, or nil.
func lookup(n *yaml.Node, key string) *yaml.Node {
	var found *yaml.Node
	eachPair(n, func(k string, v *yaml.Node) {
		if found == nil && k == key {
			found = v
		}
	})
	return found
}

// scalarString returns the value of a non-null scalar.
func scalarString(n *yaml.Node) (string, bool) {
	if n == nil || n.Kind != yaml.ScalarNode || isNull(n) {
		return "", false
	}
	return n.Value, true
}

// yamlSectionText renders a section value: nested values as a block-style
// YAML dump, scalars as their literal text, null as "".
func yamlSectionText(n *yaml.Node) (string, error) {
	switch {
	case n == nil, isNull(n):
		return "", nil
	case n.Kind == yaml.MappingNode, n.Kind == yaml.SequenceNode:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(blockCopy(n, 0)); err != nil {
			return "", err
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return strings.TrimSpace(buf.String()), nil
	default:
		return n.Value, nil
	}
}

// yamlSections maps every top-level key of a mapping to its section text.
func yamlSections(root *yaml.Node) (map[string]string, error) {
	sections := map[string]string{}
	var err error
	eachPair(root, func(key string, value *yaml.Node) {
		if err != nil {
			return
		}
		var text string
		if text, err = yamlSectionText(value); err == nil {
			sections[key] = text
		}
	})
	return sections, err
}

// blockCopy deep-copies n with aliases expanded and flow, quoting and comment
// presentation dropped so the encoder emits plain block style.
func blockCopy(n *yaml.Node, depth int) *yaml.Node {
	if depth > maxAliasDepth {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	n = resolveAlias(n)
	out := &yaml.Node{
		Kind:  n.Kind,
		Tag:   n.Tag,
		Value: n.Value,
	}
	if n.Kind == yaml.ScalarNode && n.Style&(yaml.LiteralStyle|yaml.FoldedStyle) != 0 {
		out.Style = yaml.LiteralStyle
	}
	if n.Kind == yaml.MappingNode {
		for _, p := range mappingPairs(n, depth) {
			out.Content = append(out.Content, blockCopy(p.key, depth+1), blockCopy(p.value, depth+1))
		}
		return out
	}
	for _, child := range n.Content {
		out.Content = append(out.Content, blockCopy(child, depth+1))
	}
	return out
}
