package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/twardoch/zmarkdown/internal/errors"
	"github.com/twardoch/zmarkdown/internal/ops"
	"github.com/twardoch/zmarkdown/internal/processor"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	rt *ops.Runtime
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(rt *ops.Runtime) *Handlers {
	return &Handlers{rt: rt}
}

// RenderRequest represents the arguments for zmd_render.
type RenderRequest struct {
	Markdown *string           `json:"md"`
	Target   string            `json:"target,omitempty"`
	Options  processor.Options `json:"opts,omitempty"`
	NoCache  bool              `json:"no_cache,omitempty"`
}

// RenderFilesRequest represents the arguments for zmd_render_files.
type RenderFilesRequest struct {
	Paths     []string          `json:"paths"`
	Target    string            `json:"target,omitempty"`
	OutputDir string            `json:"output_dir,omitempty"`
	Jobs      int               `json:"jobs,omitempty"`
	Options   processor.Options `json:"opts,omitempty"`
	NoCache   bool              `json:"no_cache,omitempty"`
}

// DocumentRequest represents the arguments for zmd_format and zmd_parse.
type DocumentRequest struct {
	Markdown *string `json:"md"`
}

// DirectivesRequest represents the arguments for zmd_directives.
type DirectivesRequest struct {
	Name string `json:"name,omitempty"`
}

// CachePurgeRequest represents the arguments for zmd_cache_purge.
type CachePurgeRequest struct {
	Target        string `json:"target,omitempty"`
	OlderThanDays *int   `json:"older_than_days,omitempty"`
}

// decode unmarshals MCP request arguments into a typed struct. Unknown
// arguments are rejected.
func decode[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

// requireMarkdown dereferences a required md argument.
func requireMarkdown(md *string) (string, error) {
	if md == nil {
		return "", errors.NewInvalidRequest("md is required")
	}
	return *md, nil
}

// HandleRender handles the zmd_render tool.
func (h *Handlers) HandleRender(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenderRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	md, err := requireMarkdown(input.Markdown)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Render(ctx, h.rt, ops.RenderInput{
		Markdown: md,
		Target:   input.Target,
		Options:  input.Options,
		NoCache:  input.NoCache,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRenderFiles handles the zmd_render_files tool.
func (h *Handlers) HandleRenderFiles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenderFilesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.RenderFiles(ctx, h.rt, ops.RenderFilesInput{
		Paths:     input.Paths,
		Target:    input.Target,
		Options:   input.Options,
		OutputDir: input.OutputDir,
		Jobs:      input.Jobs,
		NoCache:   input.NoCache,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFormat handles the zmd_format tool.
func (h *Handlers) HandleFormat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DocumentRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	md, err := requireMarkdown(input.Markdown)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Format(ctx, h.rt, ops.FormatInput{Markdown: md})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleParse handles the zmd_parse tool.
func (h *Handlers) HandleParse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DocumentRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}
	md, err := requireMarkdown(input.Markdown)
	if err != nil {
		return errorResult(err), nil
	}

	result, err := ops.Parse(ctx, h.rt, ops.ParseInput{Markdown: md})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDirectives handles the zmd_directives tool.
func (h *Handlers) HandleDirectives(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DirectivesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	if input.Name != "" {
		info, err := ops.GetDirective(h.rt, input.Name)
		if err != nil {
			return errorResult(err), nil
		}
		return successResult(info)
	}
	return successResult(ops.Directives(h.rt))
}

// HandleCachePurge handles the zmd_cache_purge tool.
func (h *Handlers) HandleCachePurge(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CachePurgeRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.PurgeCache(ctx, h.rt, ops.PurgeInput{
		Target:        input.Target,
		OlderThanDays: input.OlderThanDays,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCacheStats handles the zmd_cache_stats tool.
func (h *Handlers) HandleCacheStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.CacheStats(ctx, h.rt)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// errorResult creates an MCP error result from any error.
// Internal error details are not exposed.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if zErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    zErr.Code,
			"message": zErr.Message,
			"status":  zErr.Status,
		}
		if zErr.Code != errors.ErrInternal && zErr.Details != nil {
			errorObj["details"] = zErr.Details
		}
		if zErr.Code == errors.ErrInternal {
			log.Error("tool failed", "error", zErr.Message)
			errorObj["message"] = "an internal error occurred"
		}
		payload = map[string]any{"error": errorObj}
	} else {
		log.Error("tool failed", "error", err)
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
