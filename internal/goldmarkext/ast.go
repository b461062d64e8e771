// Package goldmarkext renders directive blocks with goldmark.
//
// The block parser recognizes the same opening tag and continuation lines as
// the mdast rule, backed by the same directive.Registry, and the renderer
// emits the details/summary or div structure described by the directive's
// definition.
package goldmarkext

import (
	"github.com/yuin/goldmark/ast"

	"github.com/twardoch/zmarkdown/internal/directive"
)

var (
	// KindBlock is the node kind of a directive block.
	KindBlock = ast.NewNodeKind("DirectiveBlock")
	// KindHeading is the node kind of a directive title.
	KindHeading = ast.NewNodeKind("DirectiveHeading")
)

// Block is a directive block. Its first child is a Heading when the tag has
// a title; the remaining children are the body blocks.
type Block struct {
	ast.BaseBlock
	Definition directive.Definition
}

// NewBlock returns a block for def.
func NewBlock(def directive.Definition) *Block {
	return &Block{Definition: def}
}

// Kind implements ast.Node.
func (n *Block) Kind() ast.NodeKind {
	return KindBlock
}

// Dump implements ast.Node.
func (n *Block) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Name":  n.Definition.Name,
		"Title": n.Definition.Title.String(),
	}, nil)
}

// Heading holds the inline content of a directive title.
type Heading struct {
	ast.BaseBlock
}

// Kind implements ast.Node.
func (n *Heading) Kind() ast.NodeKind {
	return KindHeading
}

// Dump implements ast.Node.
func (n *Heading) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}
