package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKDL_Defaults(t *testing.T) {
	cfg, err := parseKDL(nil, Default())
	require.NoError(t, err)
	assert.False(t, cfg.IncludeAllAttributes)
	assert.Equal(t, 200, cfg.WatchDebounceMs)
	assert.NotEmpty(t, cfg.Exclude)
}

func TestParseKDL_IncludeAllAttributes(t *testing.T) {
	cfg, err := parseKDL([]byte(`include-all-attributes true`), Default())
	require.NoError(t, err)
	assert.True(t, cfg.IncludeAllAttributes)
}

func TestParseKDL_WatchDebounce(t *testing.T) {
	cfg, err := parseKDL([]byte(`watch-debounce-ms 500`), Default())
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.WatchDebounceMs)
}

func TestParseKDL_ExcludeInline(t *testing.T) {
	cfg, err := parseKDL([]byte(`exclude "vendor/**" "third_party/**"`), Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**", "third_party/**"}, cfg.Exclude)
}

func TestParseKDL_ExcludeBlock(t *testing.T) {
	kdlContent := `
exclude {
    "vendor/**"
    "third_party/**"
}
`
	cfg, err := parseKDL([]byte(kdlContent), Default())
	require.NoError(t, err)
	assert.Equal(t, []string{"vendor/**", "third_party/**"}, cfg.Exclude)
}

func TestParseKDL_InvalidDocument(t *testing.T) {
	_, err := parseKDL([]byte(`exclude "unterminated`), Default())
	assert.Error(t, err)
}

func TestLoad_MissingFileReturnsDefault(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ReadsProjectFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".asmsurface.kdl"), []byte(`include-all-attributes true
watch-debounce-ms 750
`), 0644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.IncludeAllAttributes)
	assert.Equal(t, 750, cfg.WatchDebounceMs)
}
