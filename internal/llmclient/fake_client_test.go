package llmclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFakeClient_PopsResponsesInOrder(t *testing.T) {
	f := &FakeClient{Responses: []string{"first", "second"}}

	out, err := f.Generate(context.Background(), Request{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "first", out)

	out, err = f.Generate(context.Background(), Request{Model: "m", Prompt: "p2"})
	require.NoError(t, err)
	assert.Equal(t, "second", out)

	assert.Len(t, f.Calls, 2)
}

func TestFakeClient_ReturnsConfiguredErr(t *testing.T) {
	f := &FakeClient{Err: assert.AnError}
	_, err := f.Generate(context.Background(), Request{})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestFakeClient_ErrorsWhenExhausted(t *testing.T) {
	f := &FakeClient{Responses: []string{"only"}}
	_, err := f.Generate(context.Background(), Request{})
	assert.NoError(t, err)
	_, err = f.Generate(context.Background(), Request{})
	assert.Error(t, err)
}
