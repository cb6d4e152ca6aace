// Package debug is the trace sink behind the CLI's -v flag. The hashing
// pipeline itself never logs; components emit trace lines through this
// package, and output only flows once a caller has attached a writer.
// The MCP entrypoint silences the package outright, since its stdio
// carries the protocol stream and must stay clean.
package debug

import (
	"fmt"
	"io"
	"sync"
)

// Stage labels which part of the pipeline a trace line came from.
type Stage string

const (
	// StagePE covers PE container parsing: section table, CLI header,
	// metadata root location.
	StagePE Stage = "pe"
	// StageMetadata covers logical-metadata decoding: stream directory,
	// table rows, heap sizes.
	StageMetadata Stage = "metadata"
	// StageSurface covers the surface traversal: which assembly is
	// being hashed and with what options.
	StageSurface Stage = "surface"
	// StageWatch covers CLI watch-mode events: file rewrites, debounce
	// firings, skipped unchanged rewrites.
	StageWatch Stage = "watch"
	// StageMCP covers MCP tool dispatch.
	StageMCP Stage = "mcp"
)

var (
	mu       sync.Mutex
	sink     io.Writer
	silenced bool
)

// Attach routes subsequent trace output to w. Attach(nil) detaches the
// sink again. Attaching has no effect while the package is silenced.
func Attach(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	sink = w
}

// Silence drops all trace output for the life of the process,
// regardless of any attached sink. The MCP server calls this once at
// startup; there is deliberately no way back, so a library consumer
// can't accidentally re-enable chatter on a protocol stream.
func Silence() {
	mu.Lock()
	defer mu.Unlock()
	silenced = true
}

// Enabled reports whether a trace line written now would go anywhere.
// Callers assembling an expensive trace message can check it first.
func Enabled() bool {
	mu.Lock()
	defer mu.Unlock()
	return sink != nil && !silenced
}

// Tracef writes one formatted trace line tagged with its stage.
func Tracef(stage Stage, format string, args ...any) {
	mu.Lock()
	defer mu.Unlock()
	if sink == nil || silenced {
		return
	}
	fmt.Fprintf(sink, "[%s] ", stage)
	fmt.Fprintf(sink, format, args...)
}
