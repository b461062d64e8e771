package goldmarkext

import (
	"strings"

	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/util"

	"github.com/twardoch/zmarkdown/internal/directive"
)

const bodyOpen = `<div class="custom-block-body">` + "\n"

type htmlRenderer struct{}

// NewRenderer returns the HTML renderer for directive nodes.
func NewRenderer() renderer.NodeRenderer {
	return &htmlRenderer{}
}

func (r *htmlRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindBlock, r.renderBlock)
	reg.Register(KindHeading, r.renderHeading)
}

func outerTag(def directive.Definition) string {
	if def.Collapsible {
		return "details"
	}
	return "div"
}

func headingTag(def directive.Definition) string {
	if def.Collapsible {
		return "summary"
	}
	return "div"
}

func (r *htmlRenderer) renderBlock(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	n := node.(*Block)
	tag := outerTag(n.Definition)
	if !entering {
		_, _ = w.WriteString("</div>\n</" + tag + ">\n")
		return ast.WalkContinue, nil
	}

	class := strings.Join(directive.BlockClasses(n.Definition), " ")
	_, _ = w.WriteString("<" + tag + ` class="`)
	_, _ = w.Write(util.EscapeHTML([]byte(class)))
	_, _ = w.WriteString("\">\n")
	if _, ok := n.FirstChild().(*Heading); !ok {
		_, _ = w.WriteString(bodyOpen)
	}
	return ast.WalkContinue, nil
}

// renderHeading closes the title element and opens the body wrapper.
func (r *htmlRenderer) renderHeading(w util.BufWriter, source []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	tag := "div"
	if parent, ok := node.Parent().(*Block); ok {
		tag = headingTag(parent.Definition)
	}
	if entering {
		_, _ = w.WriteString("<" + tag + ` class="custom-block-heading">`)
	} else {
		_, _ = w.WriteString("</" + tag + ">\n" + bodyOpen)
	}
	return ast.WalkContinue, nil
}
