package goldmarkext

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"

	"github.com/twardoch/zmarkdown/internal/directive"
)

func testRegistry(t *testing.T) *directive.Registry {
	t.Helper()
	reg := &directive.Registry{}
	require.NoError(t, reg.Register("secret", directive.TitleOptional, []string{"spoiler"}, true))
	require.NoError(t, reg.Register("information", directive.TitleOptional, []string{"information", "ico-after"}, false))
	require.NoError(t, reg.Register("neutre", directive.TitleRequired, nil, false))
	return reg
}

func convert(t *testing.T, src string) string {
	t.Helper()
	md := goldmark.New(goldmark.WithExtensions(New(testRegistry(t))))
	var buf bytes.Buffer
	require.NoError(t, md.Convert([]byte(src), &buf))
	return buf.String()
}

func TestRender_Collapsible(t *testing.T) {
	got := convert(t, "[[secret | Spoiler]]\n| hidden\n")

	want := `<details class="custom-block spoiler">
<summary class="custom-block-heading">Spoiler</summary>
<div class="custom-block-body">
<p>hidden</p>
</div>
</details>
`
	assert.Equal(t, want, got)
}

func TestRender_NoTitle(t *testing.T) {
	got := convert(t, "[[information]]\n| body\n")

	want := `<div class="custom-block information ico-after">
<div class="custom-block-body">
<p>body</p>
</div>
</div>
`
	assert.Equal(t, want, got)
}

func TestRender_BodyBlocks(t *testing.T) {
	got := convert(t, "[[information | Note]]\n| para1\n|\n| para2\n")

	assert.Contains(t, got, `<div class="custom-block-heading">Note</div>`)
	assert.Contains(t, got, "<p>para1</p>\n<p>para2</p>\n")
}

func TestRender_Nested(t *testing.T) {
	got := convert(t, "[[secret]]\n| [[information | Inner]]\n| | text\n")

	outer := strings.Index(got, `<details class="custom-block spoiler">`)
	inner := strings.Index(got, `<div class="custom-block information ico-after">`)
	require.GreaterOrEqual(t, outer, 0, got)
	require.Greater(t, inner, outer, got)
	assert.Contains(t, got, "<p>text</p>")
	assert.True(t, strings.HasSuffix(got, "</details>\n"), got)
}

func TestRender_Declines(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"required title missing", "[[neutre]]\n| body\n"},
		{"unknown name", "[[unknown]]\n| body\n"},
		{"no terminator", "[[secret]]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := convert(t, tt.src)
			if strings.Contains(got, "custom-block") {
				t.Errorf("convert(%q) = %q, want no directive", tt.src, got)
			}
		})
	}
}

func TestRender_InterruptsParagraph(t *testing.T) {
	got := convert(t, "intro\n[[information]]\n| body\n")

	assert.True(t, strings.HasPrefix(got, "<p>intro</p>\n"), got)
	assert.Contains(t, got, `<div class="custom-block information ico-after">`)
}

func TestRender_FencedCodeWins(t *testing.T) {
	got := convert(t, "```\n[[secret]]\n| x\n```\n")

	assert.NotContains(t, got, "custom-block")
	assert.Contains(t, got, "<pre><code>[[secret]]\n| x\n</code></pre>")
}

func TestRender_EscapesClasses(t *testing.T) {
	reg := &directive.Registry{}
	require.NoError(t, reg.Register("odd", directive.TitleForbidden, []string{`a"b`}, false))
	md := goldmark.New(goldmark.WithExtensions(New(reg)))

	var buf bytes.Buffer
	require.NoError(t, md.Convert([]byte("[[odd]]\n| x\n"), &buf))
	assert.Contains(t, buf.String(), `class="custom-block a&quot;b"`)
}
