package mdast

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrDuplicateVisitor is returned when a node type already has a visitor.
var ErrDuplicateVisitor = errors.New("visitor already registered")

// Visitor serializes one node. Visitors call back into the Compiler to
// serialize children and must keep any intermediate results in locals.
type Visitor func(c *Compiler, n *Node) string

// Compiler serializes a node tree back to text by dispatching on node type.
type Compiler struct {
	visitors map[string]Visitor
}

// NewCompiler returns a compiler with visitors for the built-in node types.
func NewCompiler() *Compiler {
	return &Compiler{visitors: map[string]Visitor{
		TypeRoot:          compileRoot,
		TypeParagraph:     compileInline,
		TypeText:          compileText,
		TypeHeading:       compileHeading,
		TypeCode:          compileCode,
		TypeBlockquote:    compileBlockquote,
		TypeList:          compileList,
		TypeListItem:      compileBlocks,
		TypeThematicBreak: compileThematicBreak,
	}}
}

// Register adds the visitor for nodeType.
func (c *Compiler) Register(nodeType string, v Visitor) error {
	if _, ok := c.visitors[nodeType]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateVisitor, nodeType)
	}
	c.visitors[nodeType] = v
	return nil
}

// One serializes a single node. Node types without a visitor serialize to
// their value, or to the concatenation of their children.
func (c *Compiler) One(n *Node) string {
	if v, ok := c.visitors[n.Type]; ok {
		return v(c, n)
	}
	if len(n.Children) == 0 {
		return n.Value
	}
	return strings.Join(c.All(n), "")
}

// All serializes each child of n.
func (c *Compiler) All(n *Node) []string {
	out := make([]string, len(n.Children))
	for i, child := range n.Children {
		out[i] = c.One(child)
	}
	return out
}

// Blocks serializes the children of n as blocks separated by a blank line.
func (c *Compiler) Blocks(n *Node) string {
	return strings.Join(c.All(n), "\n\n")
}

func compileRoot(c *Compiler, n *Node) string {
	out := c.Blocks(n)
	if out == "" {
		return ""
	}
	return out + "\n"
}

func compileBlocks(c *Compiler, n *Node) string {
	return c.Blocks(n)
}

func compileInline(c *Compiler, n *Node) string {
	return strings.Join(c.All(n), "")
}

func compileText(_ *Compiler, n *Node) string {
	return n.Value
}

func compileHeading(c *Compiler, n *Node) string {
	marker := strings.Repeat("#", n.Depth)
	text := compileInline(c, n)
	if text == "" {
		return marker
	}
	return marker + " " + text
}

func compileThematicBreak(*Compiler, *Node) string {
	return "***"
}

var backquoteRunRegexp = regexp.MustCompile("`+")

func compileCode(_ *Compiler, n *Node) string {
	longest := 0
	for _, run := range backquoteRunRegexp.FindAllString(n.Value, -1) {
		longest = max(longest, len(run))
	}
	fence := strings.Repeat("`", max(3, longest+1))
	if n.Value == "" {
		return fence + n.Lang + "\n" + fence
	}
	return fence + n.Lang + "\n" + n.Value + "\n" + fence
}

func compileBlockquote(c *Compiler, n *Node) string {
	lines := strings.Split(c.Blocks(n), "\n")
	for i, line := range lines {
		if line == "" {
			lines[i] = ">"
		} else {
			lines[i] = "> " + line
		}
	}
	return strings.Join(lines, "\n")
}

func compileList(c *Compiler, n *Node) string {
	items := make([]string, len(n.Children))
	for i, item := range n.Children {
		marker := "- "
		if n.Ordered {
			marker = strconv.Itoa(n.Start+i) + ". "
		}
		items[i] = prefixItem(c.One(item), marker)
	}
	return strings.Join(items, "\n")
}

// prefixItem puts marker before the first line of content and indents the
// remaining non-empty lines to the content column.
func prefixItem(content, marker string) string {
	if content == "" {
		return strings.TrimRight(marker, " ")
	}
	indent := strings.Repeat(" ", len(marker))
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		switch {
		case i == 0:
			lines[i] = marker + line
		case line != "":
			lines[i] = indent + line
		}
	}
	return strings.Join(lines, "\n")
}
