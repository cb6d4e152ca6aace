package customattr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashValue_RejectsMissingProlog(t *testing.T) {
	_, err := HashValue([]byte{0x02, 0x00})
	require.Error(t, err)
}

func TestHashValue_RejectsTruncatedBlob(t *testing.T) {
	_, err := HashValue([]byte{0x01})
	require.Error(t, err)
}

func TestHashValue_EmptyArgumentsMatchesHashEmpty(t *testing.T) {
	h, err := HashValue([]byte{0x01, 0x00})
	require.NoError(t, err)
	assert.Equal(t, HashEmpty, h)
}

func TestHashValue_SensitiveToArgumentBytes(t *testing.T) {
	a, err := HashValue([]byte{0x01, 0x00, 0x05})
	require.NoError(t, err)
	b, err := HashValue([]byte{0x01, 0x00, 0x06})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashValue_Deterministic(t *testing.T) {
	blob := []byte{0x01, 0x00, 0x03, 'f', 'o', 'o'}
	a, err := HashValue(blob)
	require.NoError(t, err)
	b, err := HashValue(blob)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}
