package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/govkernel/chain/internal/models"
)

func TestStrategies_RejectsBadID(t *testing.T) {
	err := Strategies([]models.Strategy{{ID: "bad-id", Title: "x", Audience: "y", Hooks: []string{"h"}, ThreeStepPlan: []string{"a"}, AcceptanceTests: []string{"t"}}})
	assert.ErrorContains(t, err, "does not match")
}

func TestStrategies_RejectsMissingAcceptanceTests(t *testing.T) {
	err := Strategies([]models.Strategy{{ID: "S-1", Title: "x", Audience: "y", Hooks: []string{"h"}, ThreeStepPlan: []string{"a"}}})
	assert.ErrorContains(t, err, "acceptance test")
}

func TestStrategies_RejectsDuplicateIDs(t *testing.T) {
	valid := models.Strategy{ID: "S-1", Title: "x", Audience: "y", Hooks: []string{"h"}, ThreeStepPlan: []string{"a"}, AcceptanceTests: []string{"t"}}
	err := Strategies([]models.Strategy{valid, valid})
	assert.ErrorContains(t, err, "duplicate")
}

func TestStrategies_Valid(t *testing.T) {
	err := Strategies([]models.Strategy{{ID: "S-1", Title: "x", Audience: "y", Hooks: []string{"h"}, ThreeStepPlan: []string{"a"}, AcceptanceTests: []string{"t"}}})
	assert.NoError(t, err)
}

func TestAnalyses_RejectsUnknownSRef(t *testing.T) {
	a := models.Analysis{ID: "A-1", SRefs: []string{"S-99"}, KPITable: []models.KPIRow{{Metric: "m", Target: "1", Unit: "u"}}, Falsifications: []string{"f"}}
	err := Analyses([]models.Analysis{a}, map[string]bool{"S-1": true})
	assert.ErrorContains(t, err, "S-99")
}

func TestAnalyses_Valid(t *testing.T) {
	a := models.Analysis{ID: "A-1", SRefs: []string{"S-1"}, KPITable: []models.KPIRow{{Metric: "m", Target: "1", Unit: "u"}}, Falsifications: []string{"f"}}
	err := Analyses([]models.Analysis{a}, map[string]bool{"S-1": true})
	assert.NoError(t, err)
}

func TestProductions_RejectsBadSpecType(t *testing.T) {
	p := models.Production{ID: "P-1", ARefs: []string{"A-1"}, SpecType: "bogus", Body: "x"}
	err := Productions([]models.Production{p}, map[string]bool{"A-1": true})
	assert.ErrorContains(t, err, "spec_type")
}

func TestCouriers_RejectsUndeclaredAssets(t *testing.T) {
	err := Couriers([]models.Courier{{PID: "P-4"}}, map[string]bool{"P-1": true, "P-2": true, "P-3": true})
	assert.ErrorContains(t, err, "P-4")
}

func TestCouriers_Valid(t *testing.T) {
	err := Couriers([]models.Courier{{PID: "P-1"}}, map[string]bool{"P-1": true})
	assert.NoError(t, err)
}

func TestCritiques_RejectsTooFewKinds(t *testing.T) {
	known := map[models.ArtifactKind]map[string]bool{
		models.KindStrategy: {"S-1": true},
		models.KindAnalysis: {"A-1": true},
	}
	x := models.Critique{XID: "X-1", Refs: []string{"S-1", "A-1"}, Severity: models.SeverityLow, ProofScores: models.ProofScores{}}
	err := Critiques([]models.Critique{x}, known)
	assert.ErrorContains(t, err, "at least 3")
}

func TestCritiques_RejectsOutOfRangeProofScore(t *testing.T) {
	known := map[models.ArtifactKind]map[string]bool{
		models.KindStrategy:   {"S-1": true},
		models.KindAnalysis:   {"A-1": true},
		models.KindProduction: {"P-1": true},
	}
	x := models.Critique{
		XID:         "X-1",
		Refs:        []string{"S-1", "A-1", "P-1"},
		Severity:    models.SeverityHigh,
		ProofScores: models.ProofScores{Logical: 1.5},
	}
	err := Critiques([]models.Critique{x}, known)
	assert.ErrorContains(t, err, "proof_scores.logical")
}

func TestCritiques_Valid(t *testing.T) {
	known := map[models.ArtifactKind]map[string]bool{
		models.KindStrategy:   {"S-1": true},
		models.KindAnalysis:   {"A-1": true},
		models.KindProduction: {"P-1": true},
	}
	x := models.Critique{
		XID:         "X-1",
		Refs:        []string{"S-1", "A-1", "P-1"},
		Severity:    models.SeverityHigh,
		ProofScores: models.ProofScores{Logical: 0.5, Practical: 0.5, Probable: 0.5, Coverage: 0.5, Confidence: 0.5},
	}
	assert.NoError(t, Critiques([]models.Critique{x}, known))
}
