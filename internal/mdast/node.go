// Package mdast implements a small Markdown-like document engine that parses
// text into a node tree and serializes the tree back to text.
//
// The engine only knows the block constructs needed by zmd documents: blank
// lines, fenced code, ATX headings, thematic breaks, blockquotes, lists and
// paragraphs. Inline content is kept as opaque text. Extensions add block
// rules through RuleSet and serializers through Compiler.
package mdast

import "strings"

// Built-in node types.
const (
	TypeRoot          = "root"
	TypeParagraph     = "paragraph"
	TypeText          = "text"
	TypeHeading       = "heading"
	TypeCode          = "code"
	TypeBlockquote    = "blockquote"
	TypeList          = "list"
	TypeListItem      = "listItem"
	TypeThematicBreak = "thematicBreak"
)

// Point is a location in the source text. Line and Column are 1-based.
type Point struct {
	Line   int `json:"line"`
	Column int `json:"column"`
	Offset int `json:"offset"`
}

// Position is the source span of a node.
type Position struct {
	Start Point `json:"start"`
	End   Point `json:"end"`
}

// Data carries output hints for renderers. The engine never reads it.
type Data struct {
	HName       string         `json:"hName,omitempty"`
	HProperties map[string]any `json:"hProperties,omitempty"`
}

// Node is a node of the document tree.
type Node struct {
	Type string `json:"type"`
	// Name is set on extension nodes that belong to a named family, such as
	// directive blocks.
	Name     string   `json:"name,omitempty"`
	Value    string   `json:"value,omitempty"`
	Depth    int      `json:"depth,omitempty"`
	Lang     string   `json:"lang,omitempty"`
	Ordered  bool     `json:"ordered,omitempty"`
	Start    int      `json:"start,omitempty"`
	Children []*Node  `json:"children,omitempty"`
	Data     *Data    `json:"data,omitempty"`
	Position Position `json:"position"`
}

// Walk visits n and its descendants in document order. Returning false from
// fn skips the children of the node just visited.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, fn)
	}
}

// TextContent concatenates the values of all text descendants of n.
func TextContent(n *Node) string {
	var sb strings.Builder
	Walk(n, func(c *Node) bool {
		if c.Type == TypeText {
			sb.WriteString(c.Value)
		}
		return true
	})
	return sb.String()
}

// Advance returns the point reached after consuming text from p.
func (p Point) Advance(text string) Point {
	return advance(p, text)
}

// advance returns the point reached after consuming text from p.
func advance(p Point, text string) Point {
	for i := 0; i < len(text); i++ {
		if text[i] == '\n' {
			p.Line++
			p.Column = 1
		} else {
			p.Column++
		}
	}
	p.Offset += len(text)
	return p
}
