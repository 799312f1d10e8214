package roleshapes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_DefaultBansFireForProducer(t *testing.T) {
	v := Check(nil, "producer", "We will schedule this for every Monday at 9am.")
	assert.NotEmpty(t, v)
}

func TestCheck_DefaultBansFireForCourier(t *testing.T) {
	v := Check(nil, "courier", "Here is a new asset: a fresh copy block for the campaign.")
	assert.NotEmpty(t, v)
}

func TestCheck_CleanTextHasNoViolations(t *testing.T) {
	assert.Empty(t, Check(nil, "producer", "Implements the API contract from A-1."))
}

func TestCheck_UnconfiguredRoleNeverFires(t *testing.T) {
	assert.Empty(t, Check(nil, "strategist", "schedule every monday"))
}

func TestLoadConfig_MissingFileIsNotAnError(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	assert.Nil(t, cfg)
}

func TestLoadConfig_OverridesDefaultBans(t *testing.T) {
	path := filepath.Join(t.TempDir(), "role_shapes.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"banned":{"analyst":["\\bforecast\\b"]}}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.NotEmpty(t, Check(cfg, "analyst", "our forecast is rosy"))
	// overriding "analyst" does not remove producer's hardcoded defaults
	assert.NotEmpty(t, Check(cfg, "producer", "we will schedule this weekly"))
}
