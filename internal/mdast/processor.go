package mdast

import "strings"

// Processor bundles a rule set and a compiler. Configure it before first
// use; after that Parse and Stringify are safe for concurrent use.
type Processor struct {
	rules    *RuleSet
	compiler *Compiler
}

// NewProcessor returns a processor with the built-in rules and visitors.
func NewProcessor() *Processor {
	return &Processor{
		rules:    NewRuleSet(),
		compiler: NewCompiler(),
	}
}

// Rules returns the block rule set for extension.
func (p *Processor) Rules() *RuleSet {
	return p.rules
}

// Compiler returns the serializer for extension.
func (p *Processor) Compiler() *Compiler {
	return p.compiler
}

// Parse parses text into a root node. Line endings are normalized to "\n".
func (p *Processor) Parse(text string) *Node {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	parser := &Parser{rules: p.rules}
	start := Point{Line: 1, Column: 1}
	return &Node{
		Type:     TypeRoot,
		Children: parser.TokenizeBlock(text, start),
		Position: Position{Start: start, End: advance(start, text)},
	}
}

// Stringify serializes a tree back to text.
func (p *Processor) Stringify(n *Node) string {
	return p.compiler.One(n)
}

// Format parses and re-serializes text.
func (p *Processor) Format(text string) string {
	return p.Stringify(p.Parse(text))
}
