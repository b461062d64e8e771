package ops

import (
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/processor"
)

// RenderFilesInput contains parameters for the RenderFiles operation.
type RenderFilesInput struct {
	Paths     []string // required, source documents
	Target    string   // default: cfg.DefaultTarget
	Options   processor.Options
	OutputDir string // default: next to each source
	Jobs      int    // default: GOMAXPROCS, capped at MaxJobs
	NoCache   bool
}

// FileResult is the outcome for one source document.
type FileResult struct {
	Source     string   `json:"source"`
	Output     string   `json:"output,omitempty"`
	Cached     bool     `json:"cached"`
	Directives []string `json:"directives,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// RenderFilesOutput contains the result of the RenderFiles operation.
type RenderFilesOutput struct {
	Target  string       `json:"target"`
	Results []FileResult `json:"results"`
	Failed  int          `json:"failed"`
}

// RenderFiles renders each source document to a file, in parallel. A failing
// document is reported in its FileResult and does not stop the others;
// cancellation of ctx does.
func RenderFiles(ctx context.Context, rt *Runtime, input RenderFilesInput) (*RenderFilesOutput, error) {
	if len(input.Paths) == 0 {
		return nil, errors.NewInvalidRequest("paths must not be empty")
	}
	if len(input.Paths) > MaxBatchSize {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("at most %d paths per batch", MaxBatchSize))
	}

	target := strings.TrimSpace(input.Target)
	if target == "" {
		target = rt.Config.DefaultTarget
	}
	t, err := processor.ParseTarget(target)
	if err != nil {
		return nil, err
	}
	if input.OutputDir != "" {
		info, err := os.Stat(input.OutputDir)
		if err != nil || !info.IsDir() {
			return nil, errors.NewInvalidRequest("output_dir does not exist: " + input.OutputDir)
		}
	}

	jobs := input.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	jobs = min(jobs, MaxJobs, len(input.Paths))

	// Each goroutine writes only its own index.
	results := make([]FileResult, len(input.Paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)
	for i, path := range input.Paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res := renderFile(gctx, rt, path, t, input)
			if res.Error != "" {
				log.Warning("render failed", "source", path, "error", res.Error)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.NewCanceled(err)
	}

	out := &RenderFilesOutput{Target: string(t), Results: results}
	for _, r := range results {
		if r.Error != "" {
			out.Failed++
		}
	}
	return out, nil
}

func renderFile(ctx context.Context, rt *Runtime, path string, t processor.Target, input RenderFilesInput) FileResult {
	res := FileResult{Source: path}

	markdown, err := readSource(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	rendered, err := Render(ctx, rt, RenderInput{
		Markdown: markdown,
		Target:   string(t),
		Options:  input.Options,
		NoCache:  input.NoCache,
	})
	if err != nil {
		res.Error = err.Error()
		return res
	}
	res.Cached = rendered.Cached
	res.Directives = rendered.Directives

	dest := OutputPath(path, input.OutputDir, t)
	if err := writeOutput(dest, rendered.Content); err != nil {
		res.Error = err.Error()
		return res
	}
	res.Output = dest
	return res
}

func readSource(path string) (string, error) {
	if err := ValidatePath(path, PathCheckRead); err != nil {
		return "", err
	}
	f, err := openSource(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return "", errors.NewInternal(err)
	}
	return string(data), nil
}

func writeOutput(path, content string) error {
	if err := ValidatePath(path, PathCheckWrite); err != nil {
		return err
	}
	f, err := createOutput(path)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return errors.NewInternal(err)
	}
	return f.Close()
}
