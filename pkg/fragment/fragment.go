// Package fragment parses partial HTML markup into a flat list of top-level
// nodes. Parsing is best-effort: unclosed or stray tags never fail, they are
// repaired the way a browser would repair them inside a <template> element.
package fragment

import (
	"strings"
)

// NodeKind classifies a top-level fragment node.
type NodeKind int

const (
	// KindOther covers comments, doctypes and anything that carries no content.
	KindOther NodeKind = iota
	// KindElement is an HTML element.
	KindElement
	// KindText is a run of character data.
	KindText
)

// String implements fmt.Stringer.
func (k NodeKind) String() string {
	switch k {
	case KindElement:
		return "element"
	case KindText:
		return "text"
	default:
		return "other"
	}
}

// Attribute is a single key/value pair on an element. Keys are lower-cased by
// the parser.
type Attribute struct {
	Key string
	Val string
}

// Node is a direct child of a parsed fragment. Inner holds the inner markup of
// an element (raw text for script-like elements) or the character data of a
// text node.
type Node struct {
	Kind  NodeKind
	Tag   string
	Attrs []Attribute
	Inner string
}

// Attr returns the value of the named attribute. Lookup is case-insensitive so
// camelCase names such as "emitterKey" resolve against lower-cased parser
// output.
func (n Node) Attr(key string) (string, bool) {
	for _, attr := range n.Attrs {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val, true
		}
	}
	return "", false
}

// IsBlank reports whether the node carries no usable content.
func (n Node) IsBlank() bool {
	return strings.TrimSpace(n.Inner) == ""
}

// Describe renders a short human readable identifier used in error messages.
func (n Node) Describe() string {
	switch n.Kind {
	case KindElement:
		return "<" + n.Tag + ">"
	case KindText:
		text := strings.TrimSpace(n.Inner)
		if len(text) > 24 {
			text = text[:24] + "..."
		}
		return "text " + `"` + text + `"`
	default:
		return n.Kind.String()
	}
}

// Parser turns markup into its top-level nodes in document order.
type Parser interface {
	Parse(markup string) ([]Node, error)
}

// ParserFunc adapts a function to the Parser interface.
type ParserFunc func(markup string) ([]Node, error)

// Parse implements Parser.
func (fn ParserFunc) Parse(markup string) ([]Node, error) {
	return fn(markup)
}
