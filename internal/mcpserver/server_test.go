package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/standardbeagle/asmsurface/internal/surfacehash"
)

// TestMain ensures the server and its sessions leave no goroutines
// behind - the MCP connection is the only place this package spawns
// any.
func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

var testClientImpl = &mcp.Implementation{Name: "test-client", Version: "0.0.1"}

// connect wires a Server to an SDK client over an in-memory transport
// pair and returns the client session. Both ends are torn down via
// t.Cleanup.
func connect(t *testing.T, hash HashFunc) *mcp.ClientSession {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	server := NewServer(hash)
	serverSession, err := server.Connect(ctx, serverTransport)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Wait() })

	client := mcp.NewClient(testClientImpl, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })

	return session
}

func textContent(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestListTools_ExposesHashAssemblySurface(t *testing.T) {
	session := connect(t, func(string, surfacehash.Options) (uint64, error) { return 0, nil })

	tools, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, tool := range tools.Tools {
		names[tool.Name] = true
	}
	assert.True(t, names["hash_assembly_surface"])
}

func TestCallTool_ReturnsHashAsJSON(t *testing.T) {
	var gotPath string
	var gotOptions surfacehash.Options
	session := connect(t, func(path string, options surfacehash.Options) (uint64, error) {
		gotPath = path
		gotOptions = options
		return 0xDEADBEEFCAFE1234, nil
	})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name: "hash_assembly_surface",
		Arguments: map[string]any{
			"path":                   "/tmp/App.dll",
			"include_all_attributes": true,
		},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	assert.Equal(t, "/tmp/App.dll", gotPath)
	assert.True(t, gotOptions.IncludeAllAttributes)

	var response struct {
		Path                 string `json:"path"`
		SurfaceHash          string `json:"surface_hash"`
		IncludeAllAttributes bool   `json:"include_all_attributes"`
	}
	require.NoError(t, json.Unmarshal([]byte(textContent(t, result)), &response))
	assert.Equal(t, "/tmp/App.dll", response.Path)
	assert.Equal(t, "deadbeefcafe1234", response.SurfaceHash)
	assert.True(t, response.IncludeAllAttributes)
}

func TestCallTool_MissingPathIsToolError(t *testing.T) {
	session := connect(t, func(string, surfacehash.Options) (uint64, error) {
		t.Fatal("hash must not be called without a path")
		return 0, nil
	})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "hash_assembly_surface",
		Arguments: map[string]any{},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "path is required")
}

func TestCallTool_HashFailureIsToolError(t *testing.T) {
	session := connect(t, func(string, surfacehash.Options) (uint64, error) {
		return 0, errors.New("pereader: not a PE image")
	})

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "hash_assembly_surface",
		Arguments: map[string]any{"path": "/tmp/garbage.dll"},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, textContent(t, result), "not a PE image")
}

func TestDefaultHash_RejectsNonAssembly(t *testing.T) {
	_, err := DefaultHash("testdata-does-not-exist.dll", surfacehash.Options{})
	assert.Error(t, err)
}
