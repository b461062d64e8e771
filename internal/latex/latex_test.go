package latex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/twardoch/zmarkdown/internal/directive"
	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/mdast"
)

func testRegistry(t *testing.T) *directive.Registry {
	t.Helper()
	reg := &directive.Registry{}
	require.NoError(t, reg.Register("information", directive.TitleOptional, nil, false))
	require.NoError(t, reg.Register("secret", directive.TitleOptional, nil, true))
	return reg
}

func render(t *testing.T, src string, opts ...Option) string {
	t.Helper()
	reg := testRegistry(t)
	p, err := directive.NewProcessor(reg)
	require.NoError(t, err)
	r, err := New(reg, opts...)
	require.NoError(t, err)
	return r.Render(p.Parse(src))
}

func TestRender_Directive(t *testing.T) {
	got := render(t, "[[information | Note & co]]\n| Body 100%\n")
	assert.Equal(t, "\\begin{Information}[Note \\& co]\nBody 100\\%\n\\end{Information}\n", got)
}

func TestRender_DirectiveNoTitleNoBody(t *testing.T) {
	got := render(t, "[[secret]]\n")
	assert.Equal(t, "\\begin{Secret}\n\\end{Secret}\n", got)
}

func TestRender_Override(t *testing.T) {
	got := render(t, "[[secret]]\n| x\n", WithEnvironment("secret", "Spoiler"))
	assert.Equal(t, "\\begin{Spoiler}\nx\n\\end{Spoiler}\n", got)

	got = render(t, "> q\n", WithBuiltin(mdast.TypeBlockquote, "Quote"))
	assert.Equal(t, "\\begin{Quote}\nq\n\\end{Quote}\n", got)
}

func TestRender_Builtins(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"heading", "## Part_1\n", "\\subsection{Part\\_1}\n"},
		{"deep heading", "###### Deep\n", "\\subparagraph{Deep}\n"},
		{"blockquote", "> quoted\n", "\\begin{Quotation}\nquoted\n\\end{Quotation}\n"},
		{"code", "```go\nx := {}\n```\n", "\\begin{CodeBlock}{go}\nx := {}\n\\end{CodeBlock}\n"},
		{"code without lang", "```\nx\n```\n", "\\begin{CodeBlock}{text}\nx\n\\end{CodeBlock}\n"},
		{"code lang with symbols", "```c++\nx\n```\n", "\\begin{CodeBlock}{c++}\nx\n\\end{CodeBlock}\n"},
		{"code lang with braces", "```x}\\input{/etc/passwd\nx\n```\n", "\\begin{CodeBlock}{text}\nx\n\\end{CodeBlock}\n"},
		{"code lang with hash", "```c#\nx\n```\n", "\\begin{CodeBlock}{text}\nx\n\\end{CodeBlock}\n"},
		{"bullets", "- a\n- b\n", "\\begin{itemize}\n\\item a\n\\item b\n\\end{itemize}\n"},
		{"ordered", "1. a\n", "\\begin{enumerate}\n\\item a\n\\end{enumerate}\n"},
		{"thematic break", "***\n", "\\horizontalLine\n"},
		{"paragraphs", "a\n\nb\n", "a\n\nb\n"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, render(t, tt.src))
		})
	}
}

func TestRender_NestedDirective(t *testing.T) {
	got := render(t, "[[secret]]\n| > [[information]]\n| > | inner\n")
	want := "\\begin{Secret}\n\\begin{Quotation}\n\\begin{Information}\ninner\n\\end{Information}\n\\end{Quotation}\n\\end{Secret}\n"
	assert.Equal(t, want, got)
}

func TestEscape(t *testing.T) {
	assert.Equal(t, `\textbackslash{}\{\}\$\&\#\_\%\textasciitilde{}\textasciicircum{}`, Escape(`\{}$&#_%~^`))
}

func TestNew_Errors(t *testing.T) {
	reg := testRegistry(t)

	_, err := New(reg, WithEnvironment("unknown", "Box"))
	assert.True(t, errors.Is(err, errors.ErrConfiguration), "unknown directive error = %v", err)

	_, err = New(reg, WithEnvironments(map[string]string{"secret": " "}))
	assert.True(t, errors.Is(err, errors.ErrConfiguration), "empty env error = %v", err)

	_, err = New(reg, WithBuiltin(mdast.TypeParagraph, "Para"))
	assert.True(t, errors.Is(err, errors.ErrConfiguration), "builtin error = %v", err)
}

func TestEnvironment(t *testing.T) {
	r, err := New(testRegistry(t), WithEnvironment("secret", "Spoiler"))
	require.NoError(t, err)

	assert.Equal(t, "Information", r.Environment("information"))
	assert.Equal(t, "Spoiler", r.Environment("secret"))
	assert.Equal(t, "Érreur", r.Environment("érreur"))
}
