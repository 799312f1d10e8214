package fingerprint

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func writeJSON(t *testing.T, dir, name, content string) string {
	return writeFile(t, dir, name, content)
}

func baseFiles(t *testing.T, dir string) Files {
	return Files{
		GovernanceConfigPath: writeJSON(t, dir, "governance.json", `{"b":1,"a":2}`),
		RoleShapesPath:       writeJSON(t, dir, "roles.json", `{"x":true}`),
		DomainWeightsPath:    writeJSON(t, dir, "weights.json", `{"finance":1.0}`),
		DirectivePaths: []string{
			writeFile(t, dir, "strategist.md", "## Role: Strategist\n"),
			writeFile(t, dir, "analyst.md", "## Role: Analyst\n"),
		},
	}
}

func TestCompute_StableAcrossWhitespaceAndKeyOrder(t *testing.T) {
	dir := t.TempDir()
	files := baseFiles(t, dir)

	sum1, err := Compute(files)
	require.NoError(t, err)

	// Rewrite the same path's content with different whitespace/key
	// order; the path stays identical, only the bytes on disk change.
	require.NoError(t, os.WriteFile(files.GovernanceConfigPath, []byte("{\n  \"a\": 2,\n  \"b\": 1\n}\n"), 0o644))
	sum2, err := Compute(files)
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
	assert.Contains(t, sum1, "sha256:")
}

func TestCompute_StableAcrossDirectiveLineEndingsAndTrailingWhitespace(t *testing.T) {
	dir := t.TempDir()
	files := baseFiles(t, dir)

	sum1, err := Compute(files)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(files.DirectivePaths[0], []byte("## Role: Strategist   \r\n\r\n"), 0o644))
	sum2, err := Compute(files)
	require.NoError(t, err)

	assert.Equal(t, sum1, sum2)
}

func TestCompute_DirectiveContentChangeChangesDigest(t *testing.T) {
	dir := t.TempDir()
	files := baseFiles(t, dir)

	sum1, err := Compute(files)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(files.DirectivePaths[0], []byte("## Role: Strategist (tampered)\n"), 0o644))
	sum2, err := Compute(files)
	require.NoError(t, err)

	assert.NotEqual(t, sum1, sum2)
}

func TestCompute_MissingFileUsesSentinel(t *testing.T) {
	dir := t.TempDir()
	present := writeJSON(t, dir, "present.json", `{"a":1}`)

	files := Files{
		GovernanceConfigPath: present,
		RoleShapesPath:       filepath.Join(dir, "missing.json"),
		DomainWeightsPath:    present,
	}

	sum, err := Compute(files)
	require.NoError(t, err)
	assert.NotEmpty(t, sum)

	// Changing which file is missing changes the digest.
	files2 := Files{
		GovernanceConfigPath: filepath.Join(dir, "missing2.json"),
		RoleShapesPath:       present,
		DomainWeightsPath:    present,
	}
	sum2, err := Compute(files2)
	require.NoError(t, err)
	assert.NotEqual(t, sum, sum2)
}

func TestCompute_InvalidJSONErrors(t *testing.T) {
	dir := t.TempDir()
	bad := writeJSON(t, dir, "bad.json", `{not json`)

	_, err := Compute(Files{GovernanceConfigPath: bad, RoleShapesPath: bad, DomainWeightsPath: bad})
	assert.Error(t, err)
}

// TestCompute_PathIsBoundIntoDigest proves the fix directly: two files
// with byte-identical content produce different fingerprints when they
// occupy different path slots, because the path itself is part of each
// file's hashed contribution, not just its content.
func TestCompute_PathIsBoundIntoDigest(t *testing.T) {
	dir := t.TempDir()
	content := `{"shared":true}`
	pathA := writeJSON(t, dir, "a.json", content)
	pathB := writeJSON(t, dir, "b.json", content)

	filesA := Files{GovernanceConfigPath: pathA, RoleShapesPath: pathB, DomainWeightsPath: pathB}
	filesB := Files{GovernanceConfigPath: pathB, RoleShapesPath: pathA, DomainWeightsPath: pathB}

	sumA, err := Compute(filesA)
	require.NoError(t, err)
	sumB, err := Compute(filesB)
	require.NoError(t, err)

	assert.NotEqual(t, sumA, sumB, "swapping which path holds identical content must change the digest")
}
