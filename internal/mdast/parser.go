package mdast

import (
	"fmt"
	"strings"
)

// Parser holds the state of a single parse. Tokenizers receive it to recurse
// into nested content and to probe interrupt lists.
type Parser struct {
	rules *RuleSet
}

// Eater consumes a prefix of the remaining input on behalf of a tokenizer and
// tracks the current source position.
type Eater struct {
	value string
	start Point
	now   Point
	eaten int
}

// Now returns the position of the next unconsumed byte.
func (e *Eater) Now() Point {
	return e.now
}

// Eat consumes subvalue, which must be a prefix of the not yet consumed input,
// and stamps node (if any) with the consumed span. A subvalue that is not a
// prefix is a tokenizer bug and panics.
func (e *Eater) Eat(subvalue string, node *Node) *Node {
	if !strings.HasPrefix(e.value[e.eaten:], subvalue) {
		panic(fmt.Sprintf("mdast: eaten text %q is not a prefix of the remaining input", subvalue))
	}
	start := e.now
	e.now = advance(e.now, subvalue)
	e.eaten += len(subvalue)
	if node != nil {
		node.Position = Position{Start: start, End: e.now}
	}
	return node
}

func (e *Eater) reset(value string, now Point) {
	e.value = value
	e.start = now
	e.now = now
	e.eaten = 0
}

func (e *Eater) rollback() {
	e.now = e.start
	e.eaten = 0
}

// TokenizeBlock splits value into block nodes. now is the source position of
// the first byte of value.
func (p *Parser) TokenizeBlock(value string, now Point) []*Node {
	var nodes []*Node
	eat := &Eater{}
	for value != "" {
		eat.reset(value, now)
		matched := false
		for _, rule := range p.rules.rules {
			node, ok := rule.Tokenize(p, eat, value, false)
			if !ok {
				eat.rollback()
				continue
			}
			if eat.eaten == 0 {
				panic(fmt.Sprintf("mdast: rule %s matched without consuming input", rule.Name))
			}
			if node != nil {
				nodes = append(nodes, node)
			}
			matched = true
			break
		}
		if !matched {
			panic(fmt.Sprintf("mdast: no block rule matched %q", firstLine(value)))
		}
		value = value[eat.eaten:]
		now = eat.now
	}
	return nodes
}

// TokenizeInline turns inline text into nodes. Inline syntax is not
// interpreted; the text becomes a single text node.
func (p *Parser) TokenizeInline(text string, now Point) []*Node {
	if text == "" {
		return nil
	}
	return []*Node{{
		Type:     TypeText,
		Value:    text,
		Position: Position{Start: now, End: advance(now, text)},
	}}
}

// Interrupts reports whether any rule in the given interrupt list matches at
// the start of value. Rules are probed in silent mode.
func (p *Parser) Interrupts(kind InterruptKind, value string) bool {
	for _, name := range p.rules.interrupts[kind] {
		rule, ok := p.rules.Lookup(name)
		if !ok {
			continue
		}
		if _, ok := rule.Tokenize(p, nil, value, true); ok {
			return true
		}
	}
	return false
}
