package goldmarkext

import (
	"bytes"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"

	"github.com/twardoch/zmarkdown/internal/directive"
)

type blockParser struct {
	reg *directive.Registry
}

// NewParser returns a goldmark block parser for the directives in reg.
func NewParser(reg *directive.Registry) parser.BlockParser {
	return &blockParser{reg: reg}
}

func (b *blockParser) Trigger() []byte {
	return []byte{'['}
}

func (b *blockParser) Open(parent ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, segment := reader.PeekLine()
	if len(line) == 0 || line[0] != '[' || !bytes.HasSuffix(line, []byte{'\n'}) {
		return nil, parser.NoChildren
	}
	content := bytes.TrimSuffix(bytes.TrimSuffix(line, []byte{'\n'}), []byte{'\r'})

	m, ok := directive.ParseMarker(string(content))
	if !ok {
		return nil, parser.NoChildren
	}
	def, ok := b.reg.Lookup(m.Name)
	if !ok {
		return nil, parser.NoChildren
	}
	switch {
	case def.Title == directive.TitleRequired && !m.HasTitle():
		return nil, parser.NoChildren
	case def.Title == directive.TitleForbidden && m.HasTitle():
		return nil, parser.NoChildren
	}

	node := NewBlock(def)
	if m.HasTitle() {
		heading := &Heading{}
		start := segment.Start + m.TitleOffset
		heading.Lines().Append(text.NewSegment(start, start+len(m.Title)))
		node.AppendChild(node, heading)
	}
	reader.Advance(len(content))
	return node, parser.HasChildren
}

func (b *blockParser) Continue(node ast.Node, reader text.Reader, pc parser.Context) parser.State {
	line, _ := reader.PeekLine()
	if len(line) == 0 || line[0] != '|' {
		return parser.Close
	}
	if len(line) > 1 && line[1] == ' ' {
		reader.Advance(2)
	} else {
		reader.Advance(1)
	}
	return parser.Continue | parser.HasChildren
}

func (b *blockParser) Close(node ast.Node, reader text.Reader, pc parser.Context) {}

func (b *blockParser) CanInterruptParagraph() bool {
	return true
}

func (b *blockParser) CanAcceptIndentedLine() bool {
	return false
}
