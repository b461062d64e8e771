package directive

import (
	"fmt"

	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/mdast"
)

// RuleName is the name of the directive block rule.
const RuleName = "directive"

// Install adds the directive rule to p right after fenced code, lets it
// interrupt paragraphs, lists and blockquotes, and registers serializers for
// every directive in reg.
func Install(p *mdast.Processor, reg *Registry) error {
	if reg == nil || reg.Len() == 0 {
		return errors.NewEmptyDirectiveMap()
	}

	rules := p.Rules()
	rule := mdast.BlockRule{Name: RuleName, Tokenize: NewTokenizer(reg).Tokenize}
	if err := rules.InsertAfter(mdast.RuleFencedCode, rule); err != nil {
		return installError(err)
	}
	for _, kind := range []mdast.InterruptKind{
		mdast.InterruptParagraph,
		mdast.InterruptList,
		mdast.InterruptBlockquote,
	} {
		if err := rules.AddInterrupt(kind, RuleName, mdast.RuleFencedCode); err != nil {
			return installError(err)
		}
	}

	compiler := p.Compiler()
	for _, name := range reg.Names() {
		for typ, visit := range map[string]mdast.Visitor{
			BlockType(name):   compileBlock,
			HeadingType(name): compileHeading,
			BodyType(name):    compileBody,
		} {
			if err := compiler.Register(typ, visit); err != nil {
				return installError(err)
			}
		}
	}
	return nil
}

func installError(err error) error {
	return errors.NewConfiguration(fmt.Sprintf("install directives: %v", err), nil)
}

// NewProcessor returns an mdast processor with the directives in reg
// installed.
func NewProcessor(reg *Registry) (*mdast.Processor, error) {
	p := mdast.NewProcessor()
	if err := Install(p, reg); err != nil {
		return nil, err
	}
	return p, nil
}
