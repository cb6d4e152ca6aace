// Package mcpserver exposes the surface hasher over the Model Context
// Protocol as a single hash_assembly_surface tool, so an agentic build
// assistant can ask "did this assembly's public surface change" without
// shelling out to the CLI. Stdio carries the protocol stream; all
// diagnostics go through internal/debug, which the MCP entrypoint
// silences at startup.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/asmsurface/internal/debug"
	"github.com/standardbeagle/asmsurface/internal/pereader"
	"github.com/standardbeagle/asmsurface/internal/surfacehash"
	"github.com/standardbeagle/asmsurface/internal/version"
)

// HashFunc computes the surface hash of the assembly at path. The
// production implementation is DefaultHash; tests substitute a stub so
// protocol behavior can be exercised without a compiled assembly on
// disk.
type HashFunc func(path string, options surfacehash.Options) (uint64, error)

// DefaultHash opens path as a PE image and hashes its API surface.
func DefaultHash(path string, options surfacehash.Options) (uint64, error) {
	reader, err := pereader.OpenFile(path)
	if err != nil {
		return 0, err
	}
	return surfacehash.New(reader, options).Hash()
}

// Server wraps an MCP server with the hash_assembly_surface tool
// registered.
type Server struct {
	server *mcp.Server
	hash   HashFunc
}

// NewServer creates a ready-to-run Server. A nil hash uses DefaultHash.
func NewServer(hash HashFunc) *Server {
	if hash == nil {
		hash = DefaultHash
	}
	s := &Server{hash: hash}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    "asmsurface-mcp-server",
		Version: version.Version,
	}, nil)

	s.registerTools()
	return s
}

type hashAssemblySurfaceParams struct {
	Path                 string `json:"path"`
	IncludeAllAttributes bool   `json:"include_all_attributes"`
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name: "hash_assembly_surface",
		Description: "Compute the 64-bit API-surface hash of a compiled .NET assembly (PE/COFF with CLI metadata). " +
			"The hash is stable across implementation-only recompiles and changes whenever the public surface changes, " +
			"so it works as a cache key for downstream rebuild decisions.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"path": {
					Type:        "string",
					Description: "Filesystem path to the assembly (.dll or .exe) to hash",
				},
				"include_all_attributes": {
					Type:        "boolean",
					Description: "Hash every custom attribute instead of the well-known whitelist (default false)",
				},
			},
			Required: []string{"path"},
		},
	}, s.handleHashAssemblySurface)
}

func (s *Server) handleHashAssemblySurface(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params hashAssemblySurfaceParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return errorResult(fmt.Errorf("invalid parameters: %w", err)), nil
	}
	if params.Path == "" {
		return errorResult(fmt.Errorf("path is required")), nil
	}

	debug.Tracef(debug.StageMCP, "hash_assembly_surface %s include_all_attributes=%v\n", params.Path, params.IncludeAllAttributes)

	h, err := s.hash(params.Path, surfacehash.Options{IncludeAllAttributes: params.IncludeAllAttributes})
	if err != nil {
		return errorResult(err), nil
	}

	return jsonResult(map[string]any{
		"path":                   params.Path,
		"surface_hash":           fmt.Sprintf("%016x", h),
		"include_all_attributes": params.IncludeAllAttributes,
	})
}

// Run serves the protocol over stdio until ctx is cancelled or the
// client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Connect attaches the server to an arbitrary transport. Tests use this
// with an in-memory transport pair.
func (s *Server) Connect(ctx context.Context, t mcp.Transport) (*mcp.ServerSession, error) {
	return s.server.Connect(ctx, t, nil)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(content)}},
	}, nil
}

func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
		IsError: true,
	}
}
