package ops

import (
	"github.com/twardoch/zmarkdown/internal/directive"
	"github.com/twardoch/zmarkdown/internal/errors"
)

// DirectiveInfo describes a configured directive.
type DirectiveInfo struct {
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Classes     []string `json:"classes"`
	Collapsible bool     `json:"collapsible"`
	LatexEnv    string   `json:"latex_env"`
}

// DirectivesOutput contains the result of the Directives operation.
type DirectivesOutput struct {
	Items []DirectiveInfo `json:"items"`
	Total int             `json:"total"`
}

// Directives lists the configured directives sorted by name.
func Directives(rt *Runtime) *DirectivesOutput {
	reg := rt.Factory.Registry()
	names := reg.Names()
	items := make([]DirectiveInfo, 0, len(names))
	for _, name := range names {
		def, _ := reg.Lookup(name)
		items = append(items, describe(rt, def))
	}
	return &DirectivesOutput{Items: items, Total: len(items)}
}

// GetDirective returns a single configured directive.
func GetDirective(rt *Runtime, name string) (*DirectiveInfo, error) {
	def, ok := rt.Factory.Registry().Lookup(name)
	if !ok {
		return nil, errors.NewNotFound("directive", name)
	}
	info := describe(rt, def)
	return &info, nil
}

func describe(rt *Runtime, def directive.Definition) DirectiveInfo {
	classes := def.Classes
	if classes == nil {
		classes = []string{}
	}
	return DirectiveInfo{
		Name:        def.Name,
		Title:       def.Title.String(),
		Classes:     classes,
		Collapsible: def.Collapsible,
		LatexEnv:    rt.Factory.LaTeXEnvironment(def.Name),
	}
}
