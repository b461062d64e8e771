// Package latex renders an mdast tree, including directive blocks, to LaTeX.
//
// Blockquotes, code blocks and directives map to environments. The built-in
// table can be overridden per directive name or per node type.
package latex

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/twardoch/zmarkdown/internal/directive"
	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/mdast"
)

// Built-in environment names.
const (
	EnvQuotation = "Quotation"
	EnvCodeBlock = "CodeBlock"
)

var sectioning = []string{"section", "subsection", "subsubsection", "paragraph", "subparagraph"}

var escaper = strings.NewReplacer(
	`\`, `\textbackslash{}`,
	`{`, `\{`,
	`}`, `\}`,
	`$`, `\$`,
	`&`, `\&`,
	`#`, `\#`,
	`_`, `\_`,
	`%`, `\%`,
	`~`, `\textasciitilde{}`,
	`^`, `\textasciicircum{}`,
)

// Escape escapes LaTeX special characters in text.
func Escape(text string) string {
	return escaper.Replace(text)
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithEnvironment renders the named directive with env instead of its
// capitalized name.
func WithEnvironment(name, env string) Option {
	return func(r *Renderer) {
		r.overrides[name] = env
	}
}

// WithEnvironments applies WithEnvironment for every entry of envs.
func WithEnvironments(envs map[string]string) Option {
	return func(r *Renderer) {
		for name, env := range envs {
			r.overrides[name] = env
		}
	}
}

// WithBuiltin replaces the environment of a built-in node type
// (mdast.TypeBlockquote or mdast.TypeCode).
func WithBuiltin(nodeType, env string) Option {
	return func(r *Renderer) {
		r.builtins[nodeType] = env
	}
}

// Renderer converts trees to LaTeX. It is safe for concurrent use.
type Renderer struct {
	reg       *directive.Registry
	builtins  map[string]string
	overrides map[string]string
}

// New returns a renderer for the directives in reg. Overrides naming an
// unregistered directive or an empty environment are configuration errors.
func New(reg *directive.Registry, opts ...Option) (*Renderer, error) {
	r := &Renderer{
		reg: reg,
		builtins: map[string]string{
			mdast.TypeBlockquote: EnvQuotation,
			mdast.TypeCode:       EnvCodeBlock,
		},
		overrides: map[string]string{},
	}
	for _, opt := range opts {
		opt(r)
	}

	for name, env := range r.overrides {
		if _, ok := reg.Lookup(name); !ok {
			return nil, errors.NewConfiguration(
				fmt.Sprintf("latex environment override for unknown directive %q", name),
				map[string]any{"name": name},
			)
		}
		if strings.TrimSpace(env) == "" {
			return nil, errors.NewConfiguration(
				fmt.Sprintf("latex environment override for %q is empty", name),
				map[string]any{"name": name},
			)
		}
	}
	for typ := range r.builtins {
		if typ != mdast.TypeBlockquote && typ != mdast.TypeCode {
			return nil, errors.NewConfiguration(
				fmt.Sprintf("no built-in latex environment for node type %q", typ),
				map[string]any{"type": typ},
			)
		}
	}
	return r, nil
}

// Environment returns the environment used for the named directive.
func (r *Renderer) Environment(name string) string {
	if env, ok := r.overrides[name]; ok {
		return env
	}
	first, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(first)) + name[size:]
}

// Render converts root to a LaTeX fragment ending with a newline.
func (r *Renderer) Render(root *mdast.Node) string {
	out := r.blocks(root.Children)
	if out == "" {
		return ""
	}
	return out + "\n"
}

func (r *Renderer) blocks(nodes []*mdast.Node) string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		parts = append(parts, r.block(n))
	}
	return strings.Join(parts, "\n\n")
}

func (r *Renderer) inline(n *mdast.Node) string {
	var sb strings.Builder
	for _, c := range n.Children {
		if c.Type == mdast.TypeText {
			sb.WriteString(Escape(c.Value))
		} else {
			sb.WriteString(r.inline(c))
		}
	}
	return sb.String()
}

func environment(name, args, content string) string {
	if content == "" {
		return `\begin{` + name + `}` + args + "\n" + `\end{` + name + `}`
	}
	return `\begin{` + name + `}` + args + "\n" + content + "\n" + `\end{` + name + `}`
}

func (r *Renderer) block(n *mdast.Node) string {
	if directive.IsBlock(n) {
		return r.directive(n)
	}

	switch n.Type {
	case mdast.TypeParagraph:
		return r.inline(n)
	case mdast.TypeHeading:
		level := min(max(n.Depth, 1), len(sectioning))
		return `\` + sectioning[level-1] + "{" + r.inline(n) + "}"
	case mdast.TypeCode:
		return environment(r.builtins[mdast.TypeCode], "{"+codeLanguage(n.Lang)+"}", n.Value)
	case mdast.TypeBlockquote:
		return environment(r.builtins[mdast.TypeBlockquote], "", r.blocks(n.Children))
	case mdast.TypeList:
		env := "itemize"
		if n.Ordered {
			env = "enumerate"
		}
		items := make([]string, len(n.Children))
		for i, item := range n.Children {
			items[i] = `\item ` + r.blocks(item.Children)
		}
		return environment(env, "", strings.Join(items, "\n"))
	case mdast.TypeThematicBreak:
		return `\horizontalLine`
	case mdast.TypeText:
		return Escape(n.Value)
	}
	if len(n.Children) == 0 {
		return Escape(n.Value)
	}
	return r.blocks(n.Children)
}

func (r *Renderer) directive(n *mdast.Node) string {
	var args string
	if h := directive.Heading(n); h != nil {
		args = "[" + r.inline(h) + "]"
	}
	var content string
	if body := directive.Body(n); body != nil {
		content = r.blocks(body.Children)
	}
	return environment(r.Environment(n.Name), args, content)
}

var codeLanguagePattern = regexp.MustCompile(`^[A-Za-z0-9+.-]+$`)

// codeLanguage returns the fence language as an environment argument, or
// "text" when it is empty or holds characters LaTeX would interpret.
func codeLanguage(lang string) string {
	if !codeLanguagePattern.MatchString(lang) {
		return "text"
	}
	return lang
}
