package kernelerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNew_NilErrReturnsNil(t *testing.T) {
	assert.NoError(t, New(KindParse, "strategist", nil))
}

func TestNew_WrapsAndUnwraps(t *testing.T) {
	base := errors.New("bad json")
	err := New(KindParse, "strategist", base)

	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "strategist")
	assert.Contains(t, err.Error(), "parse")
}

func TestKindOf(t *testing.T) {
	err := Newf(KindPolicyCap, "courier", "iv clamped below %v", 0.4)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindPolicyCap, kind)

	_, ok = KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestIs(t *testing.T) {
	err := New(KindIntegrity, "", errors.New("hash mismatch"))
	assert.True(t, Is(err, KindIntegrity))
	assert.False(t, Is(err, KindTimeout))
}
