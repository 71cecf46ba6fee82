package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	// fencedBlockPattern matches the body of a markdown code fence: ```json ... ```
	fencedBlockPattern = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\\n?(.*?)\\n?\\s*```")
	// trailingCommaPattern matches trailing commas before ] or }.
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON pulls the first JSON object out of a chatty LLM response.
// It unwraps markdown code fences, skips prose before the opening brace and
// removes // comments and trailing commas. Returns "" when no object is found.
func ExtractJSON(content string) string {
	candidate := content
	if m := fencedBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		candidate = m[1]
	}

	start := strings.Index(candidate, "{")
	if start == -1 {
		return ""
	}
	candidate = cleanJSON(candidate[start:])

	// The decoder finds the object boundary, so braces inside strings and
	// trailing prose are handled.
	dec := json.NewDecoder(strings.NewReader(candidate))
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		end := strings.LastIndex(candidate, "}")
		if end == -1 {
			return ""
		}
		return candidate[:end+1]
	}
	return string(raw)
}

// cleanJSON removes JavaScript-style comments and trailing commas from JSON.
func cleanJSON(raw string) string {
	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		lines[i] = stripLineComment(line)
	}
	return trailingCommaPattern.ReplaceAllString(strings.Join(lines, "\n"), "$1")
}

// stripLineComment removes a // comment from a JSON line, respecting string values.
//
//	"path/to/file.js",          // a comment  → "path/to/file.js",
//	"url": "http://example.com"               → unchanged
func stripLineComment(line string) string {
	if !strings.Contains(line, "//") {
		return line
	}

	inString := false
	escaped := false
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if escaped {
			escaped = false
			continue
		}
		if ch == '\\' && inString {
			escaped = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if !inString && ch == '/' && i+1 < len(line) && line[i+1] == '/' {
			return strings.TrimRight(line[:i], " \t")
		}
	}
	return line
}
