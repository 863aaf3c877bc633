// Package parser extracts frontmatter, title, tags and review hints from Markdown content.
package parser

import (
	"bytes"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

var tagRe = regexp.MustCompile(`(?:^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)

// Date layouts accepted for the "created" frontmatter field.
var createdLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}

// Result holds the output of parsing a Markdown file.
type Result struct {
	Frontmatter map[string]any
	Body        string
	Tags        []string
	Title       string
	// Difficulty is the author's 1-5 estimate from frontmatter, or 0 when absent or out of range.
	Difficulty int
	// Created is the frontmatter creation date, or the zero time when absent.
	Created time.Time
}

// Parse extracts frontmatter, body, tags and review hints from raw Markdown bytes.
func Parse(data []byte) (*Result, error) {
	fm, body, err := splitFrontmatter(data)
	if err != nil {
		return nil, err
	}

	return &Result{
		Frontmatter: fm,
		Body:        body,
		Tags:        extractTags(body, fm),
		Title:       deriveTitle(fm, body),
		Difficulty:  difficulty(fm),
		Created:     created(fm),
	}, nil
}

// splitFrontmatter separates YAML frontmatter (between leading --- delimiters)
// from the Markdown body. If no frontmatter is found the entire content is body.
func splitFrontmatter(data []byte) (map[string]any, string, error) {
	const delim = "---"
	trimmed := bytes.TrimLeft(data, "\n\r")

	if !bytes.HasPrefix(trimmed, []byte(delim)) {
		return nil, string(data), nil
	}

	rest := trimmed[len(delim):]
	idx := bytes.Index(rest, []byte("\n"+delim))
	if idx < 0 {
		return nil, string(data), nil
	}

	yamlBlock := rest[:idx]
	afterDelim := rest[idx+1+len(delim):]
	body := strings.TrimLeft(string(afterDelim), "\n\r")

	var fm map[string]any
	if err := yaml.Unmarshal(yamlBlock, &fm); err != nil {
		// Broken frontmatter is treated as plain body text.
		return nil, string(data), nil
	}

	return fm, body, nil
}

// extractTags collects #tags from body and from the frontmatter "tags" list.
func extractTags(body string, fm map[string]any) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(t string) {
		t = strings.TrimSpace(t)
		if t == "" {
			return
		}
		if _, dup := seen[t]; dup {
			return
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}

	if list, ok := fm["tags"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				add(s)
			}
		}
	}
	for _, m := range tagRe.FindAllStringSubmatch(body, -1) {
		add(m[1])
	}
	return out
}

// deriveTitle returns the frontmatter "title" if present, otherwise the first
// H1 heading, otherwise empty string.
func deriveTitle(fm map[string]any, body string) string {
	if s, ok := fm["title"].(string); ok && s != "" {
		return s
	}
	for _, line := range strings.Split(body, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "# ") {
			return strings.TrimSpace(trimmed[2:])
		}
	}
	return ""
}

func difficulty(fm map[string]any) int {
	var d int
	switch v := fm["difficulty"].(type) {
	case int:
		d = v
	case float64:
		if v != float64(int(v)) {
			return 0
		}
		d = int(v)
	default:
		return 0
	}
	if d < 1 || d > 5 {
		return 0
	}
	return d
}

func created(fm map[string]any) time.Time {
	switch v := fm["created"].(type) {
	case time.Time:
		return v
	case string:
		for _, layout := range createdLayouts {
			if t, err := time.Parse(layout, strings.TrimSpace(v)); err == nil {
				return t
			}
		}
	}
	return time.Time{}
}
