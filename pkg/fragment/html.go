package fragment

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// rawTextElements keep their content verbatim; html.Render would otherwise
// escape the character data when rendered outside of the parent element.
var rawTextElements = map[string]struct{}{
	"script":    {},
	"style":     {},
	"textarea":  {},
	"title":     {},
	"xmp":       {},
	"iframe":    {},
	"noembed":   {},
	"noframes":  {},
	"plaintext": {},
}

var voidElements = map[string]struct{}{
	"area":   {},
	"base":   {},
	"br":     {},
	"col":    {},
	"embed":  {},
	"hr":     {},
	"img":    {},
	"input":  {},
	"link":   {},
	"meta":   {},
	"param":  {},
	"source": {},
	"track":  {},
	"wbr":    {},
}

// HTMLParser parses fragments with golang.org/x/net/html using a <template>
// context element, which accepts table parts and any other content model.
// Element inner content is sliced from the source markup so it keeps its
// authored bytes.
type HTMLParser struct{}

var _ Parser = HTMLParser{}

// NewHTMLParser returns the default fragment parser.
func NewHTMLParser() HTMLParser {
	return HTMLParser{}
}

// Parse implements Parser. Empty markup yields no nodes.
func (HTMLParser) Parse(markup string) ([]Node, error) {
	if markup == "" {
		return nil, nil
	}

	templateCtx := &html.Node{
		Type:     html.ElementNode,
		Data:     "template",
		DataAtom: atom.Template,
	}
	parsed, err := html.ParseFragment(strings.NewReader(markup), templateCtx)
	if err != nil {
		return nil, fmt.Errorf("fragment: parse: %w", err)
	}

	spans := topLevelSpans(markup)
	elements := 0
	for _, raw := range parsed {
		if raw.Type == html.ElementNode {
			elements++
		}
	}
	// The tree and the token stream only line up when the parser did not
	// repair the top level; otherwise inner content is re-rendered.
	useSpans := elements == len(spans)

	nodes := make([]Node, 0, len(parsed))
	idx := 0
	for _, raw := range parsed {
		node, err := convertNode(raw)
		if err != nil {
			return nil, err
		}
		if raw.Type == html.ElementNode {
			if useSpans && strings.EqualFold(spans[idx].tag, raw.Data) {
				node.Inner = markup[spans[idx].start:spans[idx].end]
			} else {
				useSpans = false
			}
			idx++
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func convertNode(raw *html.Node) (Node, error) {
	switch raw.Type {
	case html.ElementNode:
		tag := strings.ToLower(raw.Data)
		node := Node{
			Kind: KindElement,
			Tag:  tag,
		}
		if len(raw.Attr) > 0 {
			node.Attrs = make([]Attribute, 0, len(raw.Attr))
			for _, attr := range raw.Attr {
				node.Attrs = append(node.Attrs, Attribute{Key: attr.Key, Val: attr.Val})
			}
		}
		inner, err := innerMarkup(raw, tag)
		if err != nil {
			return Node{}, err
		}
		node.Inner = inner
		return node, nil
	case html.TextNode:
		return Node{Kind: KindText, Inner: raw.Data}, nil
	default:
		return Node{Kind: KindOther}, nil
	}
}

func innerMarkup(raw *html.Node, tag string) (string, error) {
	_, rawText := rawTextElements[tag]

	var buf bytes.Buffer
	for child := raw.FirstChild; child != nil; child = child.NextSibling {
		if rawText && child.Type == html.TextNode {
			buf.WriteString(child.Data)
			continue
		}
		if err := html.Render(&buf, child); err != nil {
			return "", fmt.Errorf("fragment: render <%s> content: %w", tag, err)
		}
	}
	return buf.String(), nil
}

// span is the byte range of a top-level element's inner content in the
// source markup.
type span struct {
	tag        string
	start, end int
}

// topLevelSpans tokenizes markup and returns the inner content range of every
// top-level element in document order. An end tag closes the innermost open
// element with the same name and everything opened after it. A top-level
// element left open runs to the end of the markup.
func topLevelSpans(markup string) []span {
	z := html.NewTokenizer(strings.NewReader(markup))

	var (
		spans  []span
		open   []string
		offset int
	)
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		size := len(z.Raw())

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			_, void := voidElements[tag]
			selfClosing := void || (tt == html.SelfClosingTagToken && inForeignContent(tag, open))
			if len(open) == 0 {
				s := span{tag: tag, start: offset + size, end: -1}
				if selfClosing {
					s.end = s.start
				}
				spans = append(spans, s)
			}
			if !selfClosing {
				open = append(open, tag)
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			for i := len(open) - 1; i >= 0; i-- {
				if open[i] != tag {
					continue
				}
				open = open[:i]
				if i == 0 {
					spans[len(spans)-1].end = offset
				}
				break
			}
		}
		offset += size
	}

	for i := range spans {
		if spans[i].end < 0 {
			spans[i].end = len(markup)
		}
	}
	return spans
}

// inForeignContent reports whether tag is or sits inside svg or math, the
// only places the parser honours a self-closing flag on non-void elements.
func inForeignContent(tag string, open []string) bool {
	if tag == "svg" || tag == "math" {
		return true
	}
	for _, name := range open {
		if name == "svg" || name == "math" {
			return true
		}
	}
	return false
}
