package ops

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/twardoch/zmarkdown/internal/config"
	"github.com/twardoch/zmarkdown/internal/db"
	"github.com/twardoch/zmarkdown/internal/errors"
)

const sampleDoc = `# Title

[[secret | Spoiler]]
| hidden text

[[information]]
| note
| > [[attention | Careful]]
| > | nested
`

func newTestRuntime(t *testing.T) *Runtime {
	t.Helper()
	database, err := db.Init(t.TempDir())
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	rt, err := NewRuntime(database, config.DefaultConfig())
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	return rt
}

func TestNewRuntime_InvalidDirectives(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Directives = map[string]config.Directive{"bad name": {Title: "optional"}}

	_, err := NewRuntime(nil, cfg)
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("NewRuntime error = %v, want CONFIGURATION_ERROR", err)
	}

	cfg.Directives = map[string]config.Directive{}
	_, err = NewRuntime(nil, cfg)
	if !errors.Is(err, errors.ErrConfiguration) {
		t.Errorf("NewRuntime(empty) error = %v, want CONFIGURATION_ERROR", err)
	}
}

func TestNewRuntime_NilConfig(t *testing.T) {
	rt, err := NewRuntime(nil, nil)
	if err != nil {
		t.Fatalf("NewRuntime failed: %v", err)
	}
	if rt.Config.DefaultTarget != "html" {
		t.Errorf("DefaultTarget = %q, want html", rt.Config.DefaultTarget)
	}
}

func TestParse_CollectsDirectives(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := Parse(context.Background(), rt, ParseInput{Markdown: sampleDoc})
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if out.Tree.Type != "root" {
		t.Errorf("Tree.Type = %q, want root", out.Tree.Type)
	}

	want := []DirectiveUse{
		{Name: "secret", Title: "Spoiler", Line: 3, Depth: 0},
		{Name: "information", Line: 6, Depth: 0},
		{Name: "attention", Title: "Careful", Line: 8, Depth: 1},
	}
	if len(out.Directives) != len(want) {
		t.Fatalf("Directives = %+v, want %+v", out.Directives, want)
	}
	for i, w := range want {
		if out.Directives[i] != w {
			t.Errorf("Directives[%d] = %+v, want %+v", i, out.Directives[i], w)
		}
	}
}

func TestFormat(t *testing.T) {
	rt := newTestRuntime(t)

	out, err := Format(context.Background(), rt, FormatInput{Markdown: "[[secret|Title]]\n|a\n"})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if out.Markdown != "[[secret | Title]]\n| a\n" {
		t.Errorf("Markdown = %q, want %q", out.Markdown, "[[secret | Title]]\n| a\n")
	}
	if !out.Changed {
		t.Error("Changed = false, want true")
	}

	again, err := Format(context.Background(), rt, FormatInput{Markdown: out.Markdown})
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if again.Changed {
		t.Errorf("second Format changed %q to %q", out.Markdown, again.Markdown)
	}
}

func TestDocumentTooLarge(t *testing.T) {
	rt := newTestRuntime(t)
	rt.Config.MaxDocumentChars = 5

	ctx := context.Background()
	if _, err := Format(ctx, rt, FormatInput{Markdown: "éééééé"}); !errors.Is(err, errors.ErrDocumentTooLarge) {
		t.Errorf("Format error = %v, want DOCUMENT_TOO_LARGE", err)
	}
	if _, err := Parse(ctx, rt, ParseInput{Markdown: "123456"}); !errors.Is(err, errors.ErrDocumentTooLarge) {
		t.Errorf("Parse error = %v, want DOCUMENT_TOO_LARGE", err)
	}
	if _, err := Render(ctx, rt, RenderInput{Markdown: "123456"}); !errors.Is(err, errors.ErrDocumentTooLarge) {
		t.Errorf("Render error = %v, want DOCUMENT_TOO_LARGE", err)
	}
	if _, err := Format(ctx, rt, FormatInput{Markdown: "ééééé"}); err != nil {
		t.Errorf("Format at limit error = %v", err)
	}
}

func TestCanceledContext(t *testing.T) {
	rt := newTestRuntime(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Render(ctx, rt, RenderInput{Markdown: "x"})
	if !errors.Is(err, errors.ErrCanceled) {
		t.Errorf("Render error = %v, want CANCELED", err)
	}
	if !stderrors.Is(err, context.Canceled) {
		t.Errorf("Render error = %v does not wrap context.Canceled", err)
	}
	if _, err := Format(ctx, rt, FormatInput{Markdown: "x"}); !errors.Is(err, errors.ErrCanceled) {
		t.Errorf("Format error = %v, want CANCELED", err)
	}
	if _, err := CacheStats(ctx, rt); !errors.Is(err, errors.ErrCanceled) {
		t.Errorf("CacheStats error = %v, want CANCELED", err)
	}
}

func TestDirectives(t *testing.T) {
	rt := newTestRuntime(t)

	out := Directives(rt)
	if out.Total != len(config.DefaultDirectives()) {
		t.Errorf("Total = %d, want %d", out.Total, len(config.DefaultDirectives()))
	}
	if out.Items[0].Name != "a" {
		t.Errorf("first directive = %q, want a", out.Items[0].Name)
	}

	info, err := GetDirective(rt, "secret")
	if err != nil {
		t.Fatalf("GetDirective failed: %v", err)
	}
	if info.Title != "optional" || !info.Collapsible || info.LatexEnv != "Secret" {
		t.Errorf("secret = %+v", info)
	}
	if len(info.Classes) != 1 || info.Classes[0] != "spoiler" {
		t.Errorf("secret classes = %v, want [spoiler]", info.Classes)
	}

	neutre, err := GetDirective(rt, "neutre")
	if err != nil {
		t.Fatalf("GetDirective failed: %v", err)
	}
	if neutre.Title != "required" {
		t.Errorf("neutre title = %q, want required", neutre.Title)
	}

	if _, err := GetDirective(rt, "nope"); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetDirective(nope) error = %v, want NOT_FOUND", err)
	}
}
