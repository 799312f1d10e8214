package roleexec

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govkernel/chain/internal/kernelerr"
	"github.com/govkernel/chain/internal/llmclient"
)

type fakeArtifact struct {
	ID   string   `json:"id"`
	Refs []string `json:"refs"`
}

func alwaysValid(fakeArtifact) error { return nil }

func TestExecute_DirectJSONSucceeds(t *testing.T) {
	client := &llmclient.FakeClient{Responses: []string{`{"id":"A-1","refs":["S-1"]}`}}

	res, err := Execute[fakeArtifact](context.Background(), client, "model", "prompt", "analyst", alwaysValid)
	require.NoError(t, err)
	assert.Equal(t, StateValidated, res.State)
	assert.Equal(t, "A-1", res.Artifact.ID)
	assert.Equal(t, 1, res.Attempts)
}

func TestExecute_FencedBlockFallback(t *testing.T) {
	raw := "Here is my answer:\n```json\n{\"id\": \"A-2\", \"refs\": [\"S-1\", \"S-2\"]}\n```\nThanks."
	client := &llmclient.FakeClient{Responses: []string{raw}}

	res, err := Execute[fakeArtifact](context.Background(), client, "model", "prompt", "analyst", alwaysValid)
	require.NoError(t, err)
	assert.Equal(t, "A-2", res.Artifact.ID)
}

func TestExecute_NullArrayRepaired(t *testing.T) {
	raw := "```json\n{\"id\": \"A-3\", \"refs\": null}\n```"
	client := &llmclient.FakeClient{Responses: []string{raw}}

	res, err := Execute[fakeArtifact](context.Background(), client, "model", "prompt", "analyst", alwaysValid)
	require.NoError(t, err)
	assert.Equal(t, "A-3", res.Artifact.ID)
	assert.Empty(t, res.Artifact.Refs)
}

func TestExecute_StrictRetryThenSucceeds(t *testing.T) {
	client := &llmclient.FakeClient{Responses: []string{"not json at all", `{"id":"A-4","refs":[]}`}}

	res, err := Execute[fakeArtifact](context.Background(), client, "model", "prompt", "analyst", alwaysValid)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
	assert.Equal(t, "A-4", res.Artifact.ID)
	require.Len(t, client.Calls, 2)
	assert.Contains(t, client.Calls[1].Prompt, "STRICT RETRY")
}

func TestExecute_FailsClosedAfterOneRetry(t *testing.T) {
	client := &llmclient.FakeClient{Responses: []string{"garbage", "still garbage"}}

	res, err := Execute[fakeArtifact](context.Background(), client, "model", "prompt", "analyst", alwaysValid)
	require.Error(t, err)
	assert.Equal(t, StateFailed, res.State)
	assert.True(t, kernelerr.Is(err, kernelerr.KindParse))
}

func TestExecute_ValidationFailureTriggersRetry(t *testing.T) {
	calls := 0
	validate := func(a fakeArtifact) error {
		calls++
		if calls == 1 {
			return errors.New("missing refs")
		}
		return nil
	}
	client := &llmclient.FakeClient{Responses: []string{`{"id":"A-5","refs":[]}`, `{"id":"A-5","refs":["S-1"]}`}}

	res, err := Execute[fakeArtifact](context.Background(), client, "model", "prompt", "analyst", validate)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Attempts)
}

func TestExtract_DirectUnmarshal(t *testing.T) {
	out, err := Extract[fakeArtifact](`{"id":"A-6","refs":["S-1"]}`, "analyst")
	require.NoError(t, err)
	assert.Equal(t, "A-6", out.ID)
}

func TestExtract_NoJSONFound(t *testing.T) {
	_, err := Extract[fakeArtifact]("no json here", "analyst")
	assert.Error(t, err)
}

func TestExtract_RoleLetterFencePriority(t *testing.T) {
	raw := "```A\n{\"id\": \"A-7\", \"refs\": [\"S-1\"]}\n```"
	out, err := Extract[fakeArtifact](raw, "analyst")
	require.NoError(t, err)
	assert.Equal(t, "A-7", out.ID)
}

func TestExtract_RoleLetterFenceRejectsTrailingNarrative(t *testing.T) {
	raw := "```A\n{\"id\": \"A-8\", \"refs\": []}\nhope that helps!\n```"
	_, err := Extract[fakeArtifact](raw, "analyst")
	assert.Error(t, err)
}

func TestExtract_BareArrayFallback(t *testing.T) {
	raw := "Sure thing, here it is: [\"a\", \"b\"] -- done"
	out, err := Extract[[]string](raw, "analyst")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, out)
}
