package fixtures

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsEverySurfacePair(t *testing.T) {
	for _, pair := range SurfacePairs {
		pair := pair
		t.Run(pair.Name, func(t *testing.T) {
			assert.NoError(t, Validate([]byte(pair.A.Source)), "fixture %s", pair.A.Name)
			assert.NoError(t, Validate([]byte(pair.B.Source)), "fixture %s", pair.B.Name)
		})
	}
}

func TestValidate_ReportsSyntaxErrorWithLocation(t *testing.T) {
	err := Validate([]byte("public class {{{\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line")
}

func TestValidate_EmptySourceIsFine(t *testing.T) {
	assert.NoError(t, Validate(nil))
}

func TestSurfacePairs_NamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, pair := range SurfacePairs {
		assert.False(t, seen[pair.Name], "duplicate pair name %s", pair.Name)
		seen[pair.Name] = true
		assert.NotEqual(t, pair.A.Name, pair.B.Name, "pair %s reuses a fixture name", pair.Name)
	}
}

func TestWriteProject_MaterializesSourceAndCsproj(t *testing.T) {
	dir := t.TempDir()
	f := Fixture{Name: "Sample", Source: "public class A { }\n"}

	csprojPath, err := WriteProject(dir, f)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "Sample.csproj"), csprojPath)

	source, err := os.ReadFile(filepath.Join(dir, "Sample.cs"))
	require.NoError(t, err)
	assert.Equal(t, f.Source, string(source))

	csproj, err := os.ReadFile(csprojPath)
	require.NoError(t, err)
	assert.Contains(t, string(csproj), "<Deterministic>true</Deterministic>")
	assert.Contains(t, string(csproj), `Include="Sample.cs"`)
}

func TestWriteProject_RejectsMalformedFixture(t *testing.T) {
	_, err := WriteProject(t.TempDir(), Fixture{Name: "Bad", Source: "public class {{{"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Bad")
}
