package goldmarkext

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/twardoch/zmarkdown/internal/directive"
)

// Priorities place the block parser between fenced code (700) and
// blockquote (800), matching the mdast rule order.
const (
	ParserPriority   = 750
	RendererPriority = 500
)

type extension struct {
	reg *directive.Registry
}

// New returns a goldmark extension for the directives in reg.
func New(reg *directive.Registry) goldmark.Extender {
	return &extension{reg: reg}
}

func (e *extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithBlockParsers(
		util.Prioritized(NewParser(e.reg), ParserPriority),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(NewRenderer(), RendererPriority),
	))
}
