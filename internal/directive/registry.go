// Package directive implements directive blocks: a bracketed opening tag
// followed by pipe-prefixed continuation lines.
//
//	[[information | Optional title]]
//	| Body, parsed as ordinary blocks.
//
// Each directive name is registered with a title policy, a class list and a
// collapsible flag. Install wires the block rule and the serializers into an
// mdast.Processor.
package directive

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode"

	"github.com/twardoch/zmarkdown/internal/config"
	"github.com/twardoch/zmarkdown/internal/errors"
)

// TitlePolicy says whether a directive's opening tag may carry a title.
type TitlePolicy int

const (
	TitleForbidden TitlePolicy = iota
	TitleOptional
	TitleRequired
)

// ParseTitlePolicy parses a configured policy. An empty string means
// forbidden.
func ParseTitlePolicy(s string) (TitlePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "forbidden":
		return TitleForbidden, nil
	case "optional":
		return TitleOptional, nil
	case "required":
		return TitleRequired, nil
	}
	return 0, errors.NewConfiguration(
		fmt.Sprintf("unknown title policy %q (want forbidden, optional or required)", s),
		map[string]any{"title": s},
	)
}

func (p TitlePolicy) String() string {
	switch p {
	case TitleForbidden:
		return "forbidden"
	case TitleOptional:
		return "optional"
	case TitleRequired:
		return "required"
	}
	return fmt.Sprintf("TitlePolicy(%d)", int(p))
}

// Definition describes one directive name.
type Definition struct {
	Name        string
	Title       TitlePolicy
	Classes     []string
	Collapsible bool
}

// Registry maps directive names to definitions. The zero value is an empty
// registry. It must not be modified once a processor uses it.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds a registry from configured directives. Class strings
// are split on whitespace.
func NewRegistry(directives map[string]config.Directive) (*Registry, error) {
	if len(directives) == 0 {
		return nil, errors.NewEmptyDirectiveMap()
	}
	names := make([]string, 0, len(directives))
	for name := range directives {
		names = append(names, name)
	}
	sort.Strings(names)

	reg := &Registry{}
	for _, name := range names {
		d := directives[name]
		policy, err := ParseTitlePolicy(d.Title)
		if err != nil {
			return nil, err
		}
		if err := reg.Register(name, policy, strings.Fields(d.Class), d.Details); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// Register adds a directive. Names the opening tag can never match and
// malformed class tokens are rejected.
func (r *Registry) Register(name string, title TitlePolicy, classes []string, collapsible bool) error {
	if name == "" {
		return errors.NewInvalidDirectiveName(name, "name is empty")
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return errors.NewInvalidDirectiveName(name, "name contains whitespace")
	}
	if strings.ContainsAny(name, "|]") {
		return errors.NewInvalidDirectiveName(name, "name contains '|' or ']'")
	}
	if _, ok := r.defs[name]; ok {
		return errors.NewDuplicateDirective(name)
	}
	for _, class := range classes {
		if class == "" || strings.IndexFunc(class, unicode.IsSpace) >= 0 {
			return errors.NewInvalidClassToken(name, class)
		}
	}
	if title < TitleForbidden || title > TitleRequired {
		return errors.NewConfiguration(
			fmt.Sprintf("directive %q has invalid title policy %d", name, int(title)),
			map[string]any{"name": name},
		)
	}

	if r.defs == nil {
		r.defs = make(map[string]Definition)
	}
	r.defs[name] = Definition{
		Name:        name,
		Title:       title,
		Classes:     slices.Clone(classes),
		Collapsible: collapsible,
	}
	return nil
}

// Lookup returns the definition registered under name.
func (r *Registry) Lookup(name string) (Definition, bool) {
	def, ok := r.defs[name]
	if !ok {
		return Definition{}, false
	}
	def.Classes = slices.Clone(def.Classes)
	return def, true
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.defs))
	for name := range r.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of registered directives.
func (r *Registry) Len() int {
	return len(r.defs)
}
