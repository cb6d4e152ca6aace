// asmsurface-mcp serves the hash_assembly_surface MCP tool over stdio.
// It exists as its own binary so MCP host configuration stays a single
// command with no subcommand or flag plumbing.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/standardbeagle/asmsurface/internal/debug"
	"github.com/standardbeagle/asmsurface/internal/mcpserver"
)

func main() {
	// Stdio belongs to the protocol stream; suppress all trace output.
	debug.Silence()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	server := mcpserver.NewServer(nil)
	if err := server.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "asmsurface-mcp: %v\n", err)
		os.Exit(1)
	}
}
