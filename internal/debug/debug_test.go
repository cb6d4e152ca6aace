package debug

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetState returns the package to its initial detached, unsilenced
// state after a test has mutated it.
func resetState() {
	mu.Lock()
	defer mu.Unlock()
	sink = nil
	silenced = false
}

func TestTracef_NoSinkIsSilent(t *testing.T) {
	defer resetState()

	assert.False(t, Enabled())
	// Must not panic with nothing attached.
	Tracef(StageSurface, "hashing %s\n", "App.dll")
}

func TestTracef_WritesStageTaggedLines(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	Attach(&buf)
	assert.True(t, Enabled())

	Tracef(StageSurface, "hashing %s\n", "App.dll")
	Tracef(StageWatch, "%s: content unchanged\n", "App.dll")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "[surface] hashing App.dll", lines[0])
	assert.Equal(t, "[watch] App.dll: content unchanged", lines[1])
}

func TestAttachNil_Detaches(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	Attach(&buf)
	Tracef(StagePE, "one\n")
	Attach(nil)
	Tracef(StagePE, "two\n")

	assert.False(t, Enabled())
	assert.Equal(t, "[pe] one\n", buf.String())
}

func TestSilence_DropsOutputEvenWithSinkAttached(t *testing.T) {
	defer resetState()

	var buf bytes.Buffer
	Attach(&buf)
	Silence()

	assert.False(t, Enabled())
	Tracef(StageMCP, "tool call\n")
	assert.Empty(t, buf.String())

	// Re-attaching after Silence must not revive output either.
	Attach(&buf)
	Tracef(StageMCP, "tool call\n")
	assert.Empty(t, buf.String())
}
