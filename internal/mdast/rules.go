package mdast

import (
	"errors"
	"fmt"
)

// Names of the built-in block rules, in their default order.
const (
	RuleNewline       = "newline"
	RuleFencedCode    = "fencedCode"
	RuleBlockquote    = "blockquote"
	RuleATXHeading    = "atxHeading"
	RuleThematicBreak = "thematicBreak"
	RuleList          = "list"
	RuleParagraph     = "paragraph"
)

var (
	// ErrRuleNotFound is returned when an anchor rule does not exist.
	ErrRuleNotFound = errors.New("block rule not found")
	// ErrDuplicateRule is returned when a rule name is already in use.
	ErrDuplicateRule = errors.New("block rule already exists")
)

// BlockTokenizer tries to match a block at the start of value.
//
// In normal mode a tokenizer that matches calls eat.Eat with the exact prefix
// of value it consumes and returns the resulting node (which may be nil for
// constructs that produce no node, such as blank lines) and true.
//
// In silent mode eat is nil; the tokenizer only reports whether it would
// match and must not tokenize children.
type BlockTokenizer func(p *Parser, eat *Eater, value string, silent bool) (*Node, bool)

// BlockRule is a named block tokenizer.
type BlockRule struct {
	Name     string
	Tokenize BlockTokenizer
}

// InterruptKind selects one of the interrupt lists. A construct whose rule is
// in a list may start on a line that would otherwise continue the
// corresponding container lazily.
type InterruptKind int

const (
	InterruptParagraph InterruptKind = iota
	InterruptList
	InterruptBlockquote
)

func (k InterruptKind) String() string {
	switch k {
	case InterruptParagraph:
		return "paragraph"
	case InterruptList:
		return "list"
	case InterruptBlockquote:
		return "blockquote"
	}
	return fmt.Sprintf("InterruptKind(%d)", int(k))
}

// RuleSet is the ordered list of block rules plus the interrupt lists.
type RuleSet struct {
	rules      []BlockRule
	interrupts map[InterruptKind][]string
}

// NewRuleSet returns the built-in rules in their default order.
func NewRuleSet() *RuleSet {
	return &RuleSet{
		rules: []BlockRule{
			{RuleNewline, tokenizeNewline},
			{RuleFencedCode, tokenizeFencedCode},
			{RuleBlockquote, tokenizeBlockquote},
			{RuleATXHeading, tokenizeATXHeading},
			{RuleThematicBreak, tokenizeThematicBreak},
			{RuleList, tokenizeList},
			{RuleParagraph, tokenizeParagraph},
		},
		interrupts: map[InterruptKind][]string{
			InterruptParagraph:  {RuleThematicBreak, RuleList, RuleATXHeading, RuleFencedCode, RuleBlockquote},
			InterruptList:       {RuleATXHeading, RuleFencedCode, RuleThematicBreak},
			InterruptBlockquote: {RuleFencedCode, RuleATXHeading, RuleThematicBreak, RuleList},
		},
	}
}

// Names returns the rule names in order.
func (s *RuleSet) Names() []string {
	names := make([]string, len(s.rules))
	for i, r := range s.rules {
		names[i] = r.Name
	}
	return names
}

// Lookup returns the rule with the given name.
func (s *RuleSet) Lookup(name string) (BlockRule, bool) {
	if i := s.index(name); i >= 0 {
		return s.rules[i], true
	}
	return BlockRule{}, false
}

// InsertAfter inserts rule immediately after the rule named anchor.
func (s *RuleSet) InsertAfter(anchor string, rule BlockRule) error {
	return s.insert(anchor, rule, 1)
}

// InsertBefore inserts rule immediately before the rule named anchor.
func (s *RuleSet) InsertBefore(anchor string, rule BlockRule) error {
	return s.insert(anchor, rule, 0)
}

// Append adds rule at the end of the order.
func (s *RuleSet) Append(rule BlockRule) error {
	if err := s.checkNew(rule); err != nil {
		return err
	}
	s.rules = append(s.rules, rule)
	return nil
}

func (s *RuleSet) insert(anchor string, rule BlockRule, delta int) error {
	if err := s.checkNew(rule); err != nil {
		return err
	}
	i := s.index(anchor)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, anchor)
	}
	i += delta
	s.rules = append(s.rules, BlockRule{})
	copy(s.rules[i+1:], s.rules[i:])
	s.rules[i] = rule
	return nil
}

func (s *RuleSet) checkNew(rule BlockRule) error {
	if rule.Name == "" || rule.Tokenize == nil {
		return fmt.Errorf("block rule needs a name and a tokenizer")
	}
	if s.index(rule.Name) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicateRule, rule.Name)
	}
	return nil
}

func (s *RuleSet) index(name string) int {
	for i, r := range s.rules {
		if r.Name == name {
			return i
		}
	}
	return -1
}

// Interrupts returns a copy of the named interrupt list.
func (s *RuleSet) Interrupts(kind InterruptKind) []string {
	return append([]string(nil), s.interrupts[kind]...)
}

// AddInterrupt adds name to the interrupt list right after the entry named
// after. An empty after appends to the list.
func (s *RuleSet) AddInterrupt(kind InterruptKind, name, after string) error {
	if s.index(name) < 0 {
		return fmt.Errorf("%w: %s", ErrRuleNotFound, name)
	}
	list := s.interrupts[kind]
	for _, n := range list {
		if n == name {
			return fmt.Errorf("%w: %s already interrupts %s", ErrDuplicateRule, name, kind)
		}
	}
	if after == "" {
		s.interrupts[kind] = append(list, name)
		return nil
	}
	for i, n := range list {
		if n == after {
			list = append(list, "")
			copy(list[i+2:], list[i+1:])
			list[i+1] = name
			s.interrupts[kind] = list
			return nil
		}
	}
	return fmt.Errorf("%w: %s is not in the %s interrupt list", ErrRuleNotFound, after, kind)
}
