// Package frontmatter reads and writes scenes stored as markdown files with
// a YAML frontmatter block.
package frontmatter

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned when a file does not open with a "---" block.
var ErrNoFrontmatter = errors.New("frontmatter: no frontmatter block")

// Frontmatter keys read and written on scene files. Lookups ignore case.
const (
	KeyTitle          = "Title"
	KeyClass          = "Class"
	KeySubplot        = "Subplot"
	KeyAct            = "Act"
	KeySynopsis       = "Synopsis"
	KeyWhen           = "When"
	KeyDuration       = "Duration"
	KeyWhenSource     = "WhenSource"
	KeyWhenConfidence = "WhenConfidence"
	KeyNeedsReview    = "NeedsReview"
)

// Document is a parsed scene file: the frontmatter mapping and the body.
type Document struct {
	node yaml.Node // Document node wrapping a mapping
	Body string
}

// Parse splits data into frontmatter and body.
func Parse(data []byte) (*Document, error) {
	front, body, ok := split(data)
	if !ok {
		return nil, ErrNoFrontmatter
	}

	doc := &Document{Body: body}
	if err := yaml.Unmarshal(front, &doc.node); err != nil {
		return nil, fmt.Errorf("frontmatter: %w", err)
	}
	switch {
	case doc.node.Kind == 0:
		// Empty block.
		doc.node = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{{Kind: yaml.MappingNode, Tag: "!!map"}}}
	case len(doc.node.Content) != 1 || doc.node.Content[0].Kind != yaml.MappingNode:
		return nil, fmt.Errorf("frontmatter: expected a mapping")
	}
	return doc, nil
}

// split returns the bytes between the opening and closing delimiters and
// everything after the closing delimiter line.
func split(data []byte) ([]byte, string, bool) {
	data = bytes.TrimPrefix(data, []byte("\ufeff"))
	first, rest, found := cutLine(data)
	if !found || strings.TrimSpace(string(first)) != "---" {
		return nil, "", false
	}

	offset := 0
	for {
		line, next, more := cutLine(rest[offset:])
		trimmed := strings.TrimSpace(string(line))
		if trimmed == "---" || trimmed == "..." {
			return rest[:offset], string(next), true
		}
		if !more {
			return nil, "", false
		}
		offset = len(rest) - len(next)
	}
}

// cutLine splits at the first newline. found is false when data has no
// newline; line is then all of data.
func cutLine(data []byte) (line, rest []byte, found bool) {
	line, rest, found = bytes.Cut(data, []byte("\n"))
	return bytes.TrimSuffix(line, []byte("\r")), rest, found
}

func (d *Document) mapping() *yaml.Node {
	return d.node.Content[0]
}

// lookup returns the index of the value node for key, or -1.
func (d *Document) lookup(key string) int {
	m := d.mapping()
	for i := 0; i+1 < len(m.Content); i += 2 {
		if strings.EqualFold(m.Content[i].Value, key) {
			return i + 1
		}
	}
	return -1
}

// Get returns the scalar value for key.
func (d *Document) Get(key string) (string, bool) {
	i := d.lookup(key)
	if i < 0 {
		return "", false
	}
	n := d.mapping().Content[i]
	if n.Kind != yaml.ScalarNode || n.Tag == "!!null" {
		return "", false
	}
	return strings.TrimSpace(n.Value), true
}

// List returns the values for key as a list. A scalar becomes a one-item
// list; empty items are dropped.
func (d *Document) List(key string) []string {
	i := d.lookup(key)
	if i < 0 {
		return nil
	}
	n := d.mapping().Content[i]

	var items []*yaml.Node
	switch n.Kind {
	case yaml.ScalarNode:
		items = []*yaml.Node{n}
	case yaml.SequenceNode:
		items = n.Content
	}

	var out []string
	for _, item := range items {
		if item.Kind != yaml.ScalarNode || item.Tag == "!!null" {
			continue
		}
		if v := strings.TrimSpace(item.Value); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Set writes a string value, replacing an existing key of any case.
func (d *Document) Set(key, value string) {
	d.setNode(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value})
}

// SetBool writes a boolean value.
func (d *Document) SetBool(key string, value bool) {
	d.setNode(key, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: fmt.Sprint(value)})
}

func (d *Document) setNode(key string, value *yaml.Node) {
	m := d.mapping()
	if i := d.lookup(key); i >= 0 {
		// Comments stay attached to the key.
		value.LineComment = m.Content[i].LineComment
		m.Content[i] = value
		return
	}
	m.Content = append(m.Content, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}, value)
}

// Delete removes key if present.
func (d *Document) Delete(key string) {
	i := d.lookup(key)
	if i < 0 {
		return
	}
	m := d.mapping()
	m.Content = append(m.Content[:i-1], m.Content[i+1:]...)
}

// Bytes renders the document back into a markdown file.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	if len(d.mapping().Content) > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(&d.node); err != nil {
			return nil, fmt.Errorf("frontmatter: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("frontmatter: %w", err)
		}
	}
	buf.WriteString("---\n")
	buf.WriteString(d.Body)
	return buf.Bytes(), nil
}
