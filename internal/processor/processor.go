// Package processor builds and memoizes renderers per output target.
package processor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/tliron/commonlog"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/renderer"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/sync/singleflight"

	"github.com/twardoch/zmarkdown/internal/directive"
	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/goldmarkext"
	"github.com/twardoch/zmarkdown/internal/latex"
	"github.com/twardoch/zmarkdown/internal/mdast"
)

var log = commonlog.GetLogger("zmd.processor")

// Target is an output format.
type Target string

const (
	TargetHTML  Target = "html"
	TargetEPUB  Target = "epub"
	TargetLaTeX Target = "latex"
)

// Targets lists the supported targets.
var Targets = []Target{TargetHTML, TargetEPUB, TargetLaTeX}

// TargetNames returns Targets as strings.
func TargetNames() []string {
	names := make([]string, len(Targets))
	for i, t := range Targets {
		names[i] = string(t)
	}
	return names
}

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Targets {
		if t == known {
			return t, nil
		}
	}
	return "", errors.NewUnknownTarget(s, TargetNames())
}

// Options tune rendering. HTML-only options are ignored for LaTeX.
type Options struct {
	// XHTML emits self-closing void elements.
	XHTML bool `json:"xhtml,omitempty"`
	// Unsafe passes raw HTML through.
	Unsafe bool `json:"unsafe,omitempty"`
	// HardWraps renders soft line breaks as hard breaks.
	HardWraps bool `json:"hard_wraps,omitempty"`
	// Standalone wraps the output in a complete document.
	Standalone bool `json:"standalone,omitempty"`
	// Title is the document title used when Standalone is set.
	Title string `json:"title,omitempty"`
}

// For returns opts adjusted to what target supports: EPUB forces XHTML and
// a standalone document; LaTeX drops HTML-only options.
func (o Options) For(t Target) Options {
	switch t {
	case TargetEPUB:
		o.XHTML = true
		o.Standalone = true
	case TargetLaTeX:
		o.XHTML = false
		o.Unsafe = false
		o.HardWraps = false
	}
	return o
}

// Key returns the memoization key for a target and its adjusted options.
func Key(t Target, o Options) string {
	data, _ := json.Marshal(o)
	return string(t) + string(data)
}

// Processor renders Markdown for one target and option set.
type Processor interface {
	Target() Target
	Render(markdown string) (string, error)
}

// Factory creates processors on demand and memoizes them by Key. It is safe
// for concurrent use.
type Factory struct {
	reg      *directive.Registry
	markdown *mdast.Processor
	latex    *latex.Renderer

	mu    sync.RWMutex
	cache map[string]Processor
	group singleflight.Group
}

// NewFactory validates the directive setup and returns a factory. latexEnvs
// overrides LaTeX environments per directive name.
func NewFactory(reg *directive.Registry, latexEnvs map[string]string) (*Factory, error) {
	md, err := directive.NewProcessor(reg)
	if err != nil {
		return nil, err
	}
	lr, err := latex.New(reg, latex.WithEnvironments(latexEnvs))
	if err != nil {
		return nil, err
	}
	return &Factory{
		reg:      reg,
		markdown: md,
		latex:    lr,
		cache:    make(map[string]Processor),
	}, nil
}

// Registry returns the directive registry processors are built from.
func (f *Factory) Registry() *directive.Registry {
	return f.reg
}

// Markdown returns the shared mdast processor used for parsing and
// formatting.
func (f *Factory) Markdown() *mdast.Processor {
	return f.markdown
}

// LaTeXEnvironment returns the LaTeX environment used for the named
// directive.
func (f *Factory) LaTeXEnvironment(name string) string {
	return f.latex.Environment(name)
}

// Get returns the processor for target and opts, building it on first use.
func (f *Factory) Get(target string, opts Options) (Processor, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return nil, err
	}
	opts = opts.For(t)
	key := Key(t, opts)

	if p := f.lookup(key); p != nil {
		return p, nil
	}
	v, err, _ := f.group.Do(key, func() (any, error) {
		if p := f.lookup(key); p != nil {
			return p, nil
		}
		p := f.build(t, opts)
		f.mu.Lock()
		f.cache[key] = p
		f.mu.Unlock()
		log.Debug("built processor", "key", key)
		return p, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Processor), nil
}

// Len returns the number of memoized processors.
func (f *Factory) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.cache)
}

func (f *Factory) lookup(key string) Processor {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.cache[key]
}

func (f *Factory) build(t Target, opts Options) Processor {
	if t == TargetLaTeX {
		return &latexProcessor{markdown: f.markdown, renderer: f.latex, opts: opts}
	}

	var htmlOpts []renderer.Option
	if opts.XHTML {
		htmlOpts = append(htmlOpts, gmhtml.WithXHTML())
	}
	if opts.Unsafe {
		htmlOpts = append(htmlOpts, gmhtml.WithUnsafe())
	}
	if opts.HardWraps {
		htmlOpts = append(htmlOpts, gmhtml.WithHardWraps())
	}
	md := goldmark.New(
		goldmark.WithExtensions(goldmarkext.New(f.reg)),
		goldmark.WithRendererOptions(htmlOpts...),
	)
	return &htmlProcessor{
		target: t,
		md:     md,
		opts:   opts,
	}
}

type htmlProcessor struct {
	target Target
	md     goldmark.Markdown
	opts   Options
}

func (p *htmlProcessor) Target() Target { return p.target }

func (p *htmlProcessor) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := p.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render %s: %w", p.target, err)
	}
	if !p.opts.Standalone {
		return buf.String(), nil
	}
	return htmlDocument(buf.String(), p.opts), nil
}

func htmlDocument(body string, opts Options) string {
	var sb strings.Builder
	if opts.XHTML {
		sb.WriteString(`<?xml version="1.0" encoding="utf-8"?>` + "\n")
		sb.WriteString("<!DOCTYPE html>\n")
		sb.WriteString(`<html xmlns="http://www.w3.org/1999/xhtml">` + "\n")
		sb.WriteString("<head>\n<meta charset=\"utf-8\" />\n")
	} else {
		sb.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	}
	sb.WriteString("<title>" + html.EscapeString(opts.Title) + "</title>\n")
	sb.WriteString("</head>\n<body>\n")
	sb.WriteString(body)
	sb.WriteString("</body>\n</html>\n")
	return sb.String()
}

type latexProcessor struct {
	markdown *mdast.Processor
	renderer *latex.Renderer
	opts     Options
}

func (p *latexProcessor) Target() Target { return TargetLaTeX }

func (p *latexProcessor) Render(markdown string) (string, error) {
	out := p.renderer.Render(p.markdown.Parse(markdown))
	if !p.opts.Standalone {
		return out, nil
	}
	var sb strings.Builder
	sb.WriteString("\\documentclass{article}\n")
	if p.opts.Title != "" {
		sb.WriteString("\\title{" + latex.Escape(p.opts.Title) + "}\n")
	}
	sb.WriteString("\\begin{document}\n")
	sb.WriteString(out)
	sb.WriteString("\\end{document}\n")
	return sb.String(), nil
}
