package ops

import (
	"context"

	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/mdast"
)

// FormatInput contains parameters for the Format operation.
type FormatInput struct {
	Markdown string
}

// FormatOutput contains the result of the Format operation.
type FormatOutput struct {
	Markdown string `json:"markdown"`
	Changed  bool   `json:"changed"`
}

// Format parses a document and serializes it back in canonical form.
func Format(ctx context.Context, rt *Runtime, input FormatInput) (*FormatOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCanceled(err)
	}
	if err := rt.checkDocument(input.Markdown); err != nil {
		return nil, err
	}

	out := rt.Factory.Markdown().Format(input.Markdown)
	return &FormatOutput{
		Markdown: out,
		Changed:  out != input.Markdown,
	}, nil
}

// ParseInput contains parameters for the Parse operation.
type ParseInput struct {
	Markdown string
}

// ParseOutput contains the result of the Parse operation.
type ParseOutput struct {
	Tree       *mdast.Node    `json:"tree"`
	Directives []DirectiveUse `json:"directives"`
}

// Parse returns the document tree and the directive blocks it contains.
func Parse(ctx context.Context, rt *Runtime, input ParseInput) (*ParseOutput, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.NewCanceled(err)
	}
	if err := rt.checkDocument(input.Markdown); err != nil {
		return nil, err
	}

	tree := rt.Factory.Markdown().Parse(input.Markdown)
	return &ParseOutput{
		Tree:       tree,
		Directives: collectDirectives(tree),
	}, nil
}
