package directive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeDirective(t *testing.T, dir, role, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, role+".md"), []byte(content), 0o644))
}

func TestCompose_PlainDirective(t *testing.T) {
	dir := t.TempDir()
	writeDirective(t, dir, RoleStrategist, "# Strategist Mandate\nProduce S artifacts.")

	c := NewComposer(dir)
	out, err := c.Compose(RoleStrategist)
	require.NoError(t, err)
	assert.Contains(t, out, "Strategist Mandate")
}

func TestCompose_ExtractsEmbeddedTable(t *testing.T) {
	dir := t.TempDir()
	content := `# Analyst Mandate

<table>
<tr><th>domain</th><th>weight</th></tr>
<tr><td>finance</td><td>1.2</td></tr>
</table>
`
	writeDirective(t, dir, RoleAnalyst, content)

	c := NewComposer(dir)
	out, err := c.Compose(RoleAnalyst)
	require.NoError(t, err)
	assert.Contains(t, out, "REFERENCE TABLES")
	assert.Contains(t, out, "finance")
	assert.Contains(t, out, "1.2")
}

func TestLoad_CachesAcrossCalls(t *testing.T) {
	dir := t.TempDir()
	writeDirective(t, dir, RoleCourier, "courier mandate v1")

	c := NewComposer(dir)
	first, err := c.Load(RoleCourier)
	require.NoError(t, err)

	// Mutate the file on disk; cached value should not change.
	writeDirective(t, dir, RoleCourier, "courier mandate v2")
	second, err := c.Load(RoleCourier)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	c := NewComposer(t.TempDir())
	_, err := c.Load(RoleProducer)
	assert.Error(t, err)
}
