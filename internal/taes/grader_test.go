package taes

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govkernel/chain/internal/llmclient"
)

func TestHeuristicGrader_RewardsConcreteAcceptanceTests(t *testing.T) {
	g := HeuristicGrader{}
	graded, err := g.Grade(context.Background(), "The acceptance test verifies 42 units shipped without contradiction.")
	require.NoError(t, err)
	assert.Greater(t, graded.Scores.Practical, 0.5)
}

func TestHeuristicGrader_PenalizesHedgeDensity(t *testing.T) {
	g := HeuristicGrader{}
	graded, err := g.Grade(context.Background(), "maybe possibly could be perhaps might be not sure but")
	require.NoError(t, err)
	assert.Less(t, graded.Scores.Probable, 0.9)
}

func TestHeuristicGrader_RejectsEmptyText(t *testing.T) {
	g := HeuristicGrader{}
	_, err := g.Grade(context.Background(), "")
	assert.Error(t, err)
}

func TestLLMGrader_ParsesModelResponse(t *testing.T) {
	client := &llmclient.FakeClient{Responses: []string{
		`{"logical":0.8,"practical":0.6,"probable":0.7,"contradiction_count":1,"hedge_count":2}`,
	}}
	g := NewLLMGrader(client, "test-model")

	graded, err := g.Grade(context.Background(), "some role output")
	require.NoError(t, err)
	assert.Equal(t, 0.8, graded.Scores.Logical)
	assert.Equal(t, 1, graded.ContradictionCount)
	assert.Equal(t, 2, graded.HedgeCount)
}

func TestLLMGrader_FallsBackToHeuristicOnFailure(t *testing.T) {
	client := &llmclient.FakeClient{Responses: []string{"not json", "still not json"}}
	g := NewLLMGrader(client, "test-model")

	graded, err := g.Grade(context.Background(), "The acceptance test verifies 42 units shipped.")
	require.NoError(t, err)
	assert.Greater(t, graded.Scores.Practical, 0.0)
}
