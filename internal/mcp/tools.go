package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// optionsSchema describes processor.Options for tool input schemas.
var optionsSchema = mcp.Properties(map[string]any{
	"xhtml":      map[string]any{"type": "boolean", "description": "Self-close void elements"},
	"unsafe":     map[string]any{"type": "boolean", "description": "Pass raw HTML through"},
	"hard_wraps": map[string]any{"type": "boolean", "description": "Render soft line breaks as <br>"},
	"standalone": map[string]any{"type": "boolean", "description": "Wrap output in a complete document"},
	"title":      map[string]any{"type": "string", "description": "Document title for standalone output"},
})

var renderToolDef = mcp.NewTool("zmd_render",
	mcp.WithDescription("Render a zmd document to html, epub (XHTML) or latex. "+
		"Directive blocks open with [[name | optional title]] and continue with lines starting with '| '."),
	mcp.WithString("md", mcp.Required(), mcp.Description("Document source")),
	mcp.WithString("target", mcp.Description("Output target (default from config, usually html)"),
		mcp.Enum("html", "epub", "latex")),
	mcp.WithObject("opts", mcp.Description("Rendering options"), optionsSchema),
	mcp.WithBoolean("no_cache", mcp.Description("Bypass the render cache")),
)

var renderFilesToolDef = mcp.NewTool("zmd_render_files",
	mcp.WithDescription("Render source files (.md, .markdown, .zmd, .txt) in parallel and write one output file per source."),
	mcp.WithArray("paths", mcp.Required(), mcp.Description("Source file paths"),
		mcp.Items(map[string]any{"type": "string"})),
	mcp.WithString("target", mcp.Description("Output target"), mcp.Enum("html", "epub", "latex")),
	mcp.WithString("output_dir", mcp.Description("Directory for outputs (default: next to each source)")),
	mcp.WithNumber("jobs", mcp.Description("Parallel workers")),
	mcp.WithObject("opts", mcp.Description("Rendering options"), optionsSchema),
	mcp.WithBoolean("no_cache", mcp.Description("Bypass the render cache")),
)

var formatToolDef = mcp.NewTool("zmd_format",
	mcp.WithDescription("Normalize a zmd document: parse it and serialize it back in canonical form."),
	mcp.WithString("md", mcp.Required(), mcp.Description("Document source")),
)

var parseToolDef = mcp.NewTool("zmd_parse",
	mcp.WithDescription("Parse a zmd document and return its tree plus the directive blocks it uses."),
	mcp.WithString("md", mcp.Required(), mcp.Description("Document source")),
)

var directivesToolDef = mcp.NewTool("zmd_directives",
	mcp.WithDescription("List configured directives with their title policy, classes and LaTeX environment."),
	mcp.WithString("name", mcp.Description("Return only this directive")),
)

var cachePurgeToolDef = mcp.NewTool("zmd_cache_purge",
	mcp.WithDescription("Delete cached renders not accessed within the retention window."),
	mcp.WithString("target", mcp.Description("Only purge this target"), mcp.Enum("html", "epub", "latex")),
	mcp.WithNumber("older_than_days", mcp.Description("Retention in days (default from config, 0 purges all)")),
)

var cacheStatsToolDef = mcp.NewTool("zmd_cache_stats",
	mcp.WithDescription("Report render cache entries, hits and size per target."),
)
