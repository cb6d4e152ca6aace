package resourcedigest

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSurfaceHashBytes_DeterministicAcrossCalls(t *testing.T) {
	data := []byte("resource payload")
	assert.Equal(t, SurfaceHashBytes(data), SurfaceHashBytes(data))
}

func TestSurfaceHashBytes_DifferentContentDifferentHashes(t *testing.T) {
	assert.NotEqual(t, SurfaceHashBytes([]byte("one")), SurfaceHashBytes([]byte("two")))
}

func TestSurfaceHash_MatchesSurfaceHashBytes(t *testing.T) {
	data := []byte("streamed just the same")
	streamed, err := SurfaceHash(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, SurfaceHashBytes(data), streamed)
}

func TestFingerprint_TracksContent(t *testing.T) {
	data := []byte("assembly image bytes")
	assert.Equal(t, Fingerprint(data), Fingerprint(data))
	assert.NotEqual(t, Fingerprint(data), Fingerprint([]byte("assembly image bytes!")))
}
