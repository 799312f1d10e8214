package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_BuildsBothModes(t *testing.T) {
	l, err := NewLogger(false, false)
	require.NoError(t, err)
	require.NotNil(t, l)

	l2, err := NewLogger(true, true)
	require.NoError(t, err)
	require.NotNil(t, l2)
}

func TestWithSessionAndRole_AddFields(t *testing.T) {
	l, err := NewLogger(false, false)
	require.NoError(t, err)

	sessioned := WithSession(l, "sess-1")
	roled := WithRole(sessioned, "strategist")

	assert.NotNil(t, roled)
}
