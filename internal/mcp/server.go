package mcp

import (
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/tliron/commonlog"

	"github.com/twardoch/zmarkdown/internal/ops"
)

var log = commonlog.GetLogger("zmd.mcp")

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

// toolRegistry maps tool names to their definitions and handler factories.
var toolRegistry = map[string]toolEntry{
	"zmd_render": {
		def:     renderToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRender },
	},
	"zmd_render_files": {
		def:     renderFilesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRenderFiles },
	},
	"zmd_format": {
		def:     formatToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleFormat },
	},
	"zmd_parse": {
		def:     parseToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleParse },
	},
	"zmd_directives": {
		def:     directivesToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleDirectives },
	},
	"zmd_cache_purge": {
		def:     cachePurgeToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCachePurge },
	},
	"zmd_cache_stats": {
		def:     cacheStatsToolDef,
		handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleCacheStats },
	},
}

// AllToolNames returns all valid tool names, sorted.
func AllToolNames() []string {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ValidateDisabledTools returns a list of unknown tool names from the given list.
func ValidateDisabledTools(names []string) []string {
	unknown := make([]string, 0)
	for _, name := range names {
		if _, ok := toolRegistry[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	return unknown
}

// EnabledToolNames returns the sorted tool names left after removing
// disabled ones.
func EnabledToolNames(disabled []string) []string {
	skip := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		skip[name] = true
	}
	names := make([]string, 0, len(toolRegistry))
	for _, name := range AllToolNames() {
		if !skip[name] {
			names = append(names, name)
		}
	}
	return names
}

// NewServer creates an MCP server with the zmd tools registered. Tools listed
// in the runtime config's DisabledTools are excluded; unknown names there
// are logged.
func NewServer(rt *ops.Runtime, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"zmd",
		version,
		server.WithToolCapabilities(true),
	)

	if unknown := ValidateDisabledTools(rt.Config.DisabledTools); len(unknown) > 0 {
		log.Warning("ignoring unknown disabled tools", "tools", unknown)
	}

	h := NewHandlers(rt)
	for _, name := range EnabledToolNames(rt.Config.DisabledTools) {
		entry := toolRegistry[name]
		s.AddTool(entry.def, entry.handler(h))
	}

	return s
}

// Run starts the MCP server using stdio transport.
func Run(rt *ops.Runtime, version string) error {
	s := NewServer(rt, version)
	return server.ServeStdio(s)
}
