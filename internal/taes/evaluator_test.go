package taes

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govkernel/chain/internal/models"
)

type fixedGrader struct {
	graded Graded
	err    error
}

func (f fixedGrader) Grade(context.Context, string) (Graded, error) {
	return f.graded, f.err
}

// capturingGrader records the text it was actually handed, so tests
// can assert on what Evaluate passes through after summarization.
type capturingGrader struct {
	fixedGrader
	gotText string
}

func (c *capturingGrader) Grade(_ context.Context, text string) (Graded, error) {
	c.gotText = text
	return c.graded, c.err
}

func TestEvaluate_SummarizesLongTextBeforeGrading(t *testing.T) {
	long := strings.Repeat("a", 3000)
	g := &capturingGrader{fixedGrader: fixedGrader{graded: Graded{Scores: Scores{Logical: 0.5, Practical: 0.5, Probable: 0.5}}}}
	e := NewEvaluator(g)

	_, err := e.Evaluate(context.Background(), "strategist", models.DomainMarketing, long)
	require.NoError(t, err)
	assert.Less(t, len(g.gotText), len(long))
	assert.LessOrEqual(t, len(g.gotText), summarizeHeadLen+len("...")+len("\n...\n")+summarizeTailLen)
}

func TestEvaluate_ShortTextUngraded(t *testing.T) {
	short := "a short role output"
	g := &capturingGrader{fixedGrader: fixedGrader{graded: Graded{Scores: Scores{Logical: 0.5, Practical: 0.5, Probable: 0.5}}}}
	e := NewEvaluator(g)

	_, err := e.Evaluate(context.Background(), "strategist", models.DomainMarketing, short)
	require.NoError(t, err)
	assert.Equal(t, short, g.gotText)
}

func TestEvaluate_LowRiskNoReconciliation(t *testing.T) {
	g := fixedGrader{graded: Graded{Scores: Scores{Logical: 0.9, Practical: 0.9, Probable: 0.9}}}
	e := NewEvaluator(g)

	rec, err := e.Evaluate(context.Background(), "strategist", models.DomainMarketing, "text")
	require.NoError(t, err)
	assert.False(t, rec.Reconciled)
	assert.InDelta(t, 0.9, rec.IV, 1e-9)
	assert.Greater(t, rec.DomainWeightedQuality, 0.0)
}

func TestEvaluate_HighRiskTriggersReconciliation(t *testing.T) {
	g := fixedGrader{graded: Graded{
		Scores:             Scores{Logical: 0.1, Practical: 0.1, Probable: 0.1},
		ContradictionCount: 3,
		HedgeCount:         5,
	}}
	e := NewEvaluator(g)

	rec, err := e.Evaluate(context.Background(), "analyst", models.DomainTechnical, "text")
	require.NoError(t, err)
	assert.True(t, rec.Reconciled)
	assert.NotEmpty(t, rec.ReconciliationNote)
	// canonical IV is unchanged by reconciliation
	assert.InDelta(t, ComputeIV(g.graded.Scores, CanonicalWeights), rec.IV, 1e-9)
}

func TestEvaluate_GraderErrorPropagates(t *testing.T) {
	g := fixedGrader{err: assertErr("boom")}
	e := NewEvaluator(g)

	_, err := e.Evaluate(context.Background(), "analyst", models.DomainTechnical, "text")
	assert.Error(t, err)
}

type assertErr string

func (e assertErr) Error() string { return string(e) }
