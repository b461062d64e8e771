package directive

import (
	"strings"

	"github.com/twardoch/zmarkdown/internal/mdast"
)

// Node type suffixes.
const (
	blockSuffix   = "CustomBlock"
	headingSuffix = "CustomBlockHeading"
	bodySuffix    = "CustomBlockBody"
)

// BlockType returns the node type of a directive block.
func BlockType(name string) string { return name + blockSuffix }

// HeadingType returns the node type of a directive's title.
func HeadingType(name string) string { return name + headingSuffix }

// BodyType returns the node type of a directive's body.
func BodyType(name string) string { return name + bodySuffix }

// capture is the raw text of a matched directive.
type capture struct {
	def    Definition
	marker Marker
	body   []string
	// Bytes of the opening line including its terminator.
	opening int
	// Bytes consumed in total.
	consumed int
}

// scan matches a directive at the start of value. It never fails loudly: any
// mismatch means the text is not a directive.
func scan(reg *Registry, value string) (capture, bool) {
	nl := strings.IndexByte(value, '\n')
	if nl < 0 {
		return capture{}, false
	}
	marker, ok := ParseMarker(value[:nl])
	if !ok {
		return capture{}, false
	}
	def, ok := reg.Lookup(marker.Name)
	if !ok {
		return capture{}, false
	}
	switch {
	case def.Title == TitleRequired && !marker.HasTitle():
		return capture{}, false
	case def.Title == TitleForbidden && marker.HasTitle():
		return capture{}, false
	}

	c := capture{def: def, marker: marker, opening: nl + 1}
	end := c.opening
	for end < len(value) && value[end] == '|' {
		line := value[end:]
		n := len(line)
		if i := strings.IndexByte(line, '\n'); i >= 0 {
			line, n = line[:i], i+1
		}
		c.body = append(c.body, strings.TrimPrefix(line[1:], " "))
		end += n
	}
	c.consumed = end
	return c, true
}

// Tokenizer is the block rule for directives.
type Tokenizer struct {
	reg *Registry
}

// NewTokenizer returns a tokenizer for the directives in reg.
func NewTokenizer(reg *Registry) *Tokenizer {
	return &Tokenizer{reg: reg}
}

// Tokenize implements mdast.BlockTokenizer.
func (t *Tokenizer) Tokenize(p *mdast.Parser, eat *mdast.Eater, value string, silent bool) (*mdast.Node, bool) {
	c, ok := scan(t.reg, value)
	if !ok {
		return nil, false
	}
	if silent {
		return nil, true
	}
	node := build(p, c, eat.Now())
	eat.Eat(value[:c.consumed], node)
	if body := Body(node); body != nil {
		body.Position.End = node.Position.End
	}
	return node, true
}

// build turns a capture into a directive node, tokenizing the title and
// body through b. now is the position of the opening tag.
func build(b Bridge, c capture, now mdast.Point) *mdast.Node {
	name := c.def.Name
	node := &mdast.Node{
		Type: BlockType(name),
		Name: name,
		Data: blockData(c.def),
	}

	if c.marker.HasTitle() && c.def.Title != TitleForbidden {
		at := mdast.Point{
			Line:   now.Line,
			Column: now.Column + c.marker.TitleOffset,
			Offset: now.Offset + c.marker.TitleOffset,
		}
		node.Children = append(node.Children, &mdast.Node{
			Type:     HeadingType(name),
			Name:     name,
			Children: b.TokenizeInline(c.marker.Title, at),
			Data:     headingData(c.def),
			Position: mdast.Position{Start: at, End: at.Advance(c.marker.Title)},
		})
	}

	// Every body line is newline-terminated, so a directive opening on the
	// last line nests like one anywhere else.
	var content string
	if len(c.body) > 0 {
		content = strings.Join(c.body, "\n") + "\n"
	}
	at := mdast.Point{Line: now.Line + 1, Column: 1, Offset: now.Offset + c.opening}
	node.Children = append(node.Children, &mdast.Node{
		Type:     BodyType(name),
		Name:     name,
		Children: b.TokenizeBlock(content, at),
		Data:     bodyData(c.def),
		Position: mdast.Position{Start: at, End: at},
	})
	return node
}

func blockData(def Definition) *mdast.Data {
	tag := "div"
	if def.Collapsible {
		tag = "details"
	}
	return &mdast.Data{
		HName:       tag,
		HProperties: map[string]any{"className": BlockClasses(def)},
	}
}

func headingData(def Definition) *mdast.Data {
	tag := "div"
	if def.Collapsible {
		tag = "summary"
	}
	return &mdast.Data{
		HName:       tag,
		HProperties: map[string]any{"className": []string{"custom-block-heading"}},
	}
}

func bodyData(Definition) *mdast.Data {
	return &mdast.Data{
		HName:       "div",
		HProperties: map[string]any{"className": []string{"custom-block-body"}},
	}
}

// BlockClasses returns the classes of a directive's outer element.
func BlockClasses(def Definition) []string {
	return append([]string{"custom-block"}, def.Classes...)
}

// IsBlock reports whether n is a directive block.
func IsBlock(n *mdast.Node) bool {
	return n != nil && n.Name != "" && n.Type == BlockType(n.Name)
}

// Heading returns the title child of a directive block, or nil.
func Heading(n *mdast.Node) *mdast.Node {
	return child(n, HeadingType(n.Name))
}

// Body returns the body child of a directive block, or nil.
func Body(n *mdast.Node) *mdast.Node {
	return child(n, BodyType(n.Name))
}

func child(n *mdast.Node, typ string) *mdast.Node {
	for _, c := range n.Children {
		if c.Type == typ {
			return c
		}
	}
	return nil
}
