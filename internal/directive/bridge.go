package directive

import "github.com/twardoch/zmarkdown/internal/mdast"

// Bridge re-enters the host tokenizers for a directive's title and body.
// now is the source position of the first byte of text.
type Bridge interface {
	TokenizeInline(text string, now mdast.Point) []*mdast.Node
	TokenizeBlock(text string, now mdast.Point) []*mdast.Node
}

var _ Bridge = (*mdast.Parser)(nil)
