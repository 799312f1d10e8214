// Package taes implements the Tri-Axis Evaluation Standard: every role
// artifact is scored on three axes (logical, practical, probable),
// combined into a single Integrity Value, and checked against an
// Integrity Risk Delta floor. A role whose IRD crosses the
// reconciliation threshold gets one Reality Reconciliation Pass with
// weights shifted toward the practical/probable axes, following the
// same "canonical score plus a reweighted re-check" shape the teacher
// uses for its heuristic-then-LLM two-pass analysis.
package taes

import (
	"fmt"

	"github.com/govkernel/chain/internal/models"
)

// Scores holds the three raw axis scores a Grader produces, each in
// [0,1].
type Scores struct {
	Logical   float64
	Practical float64
	Probable  float64
}

// Weights combine the three axes into a single Integrity Value.
type Weights struct {
	Logical   float64
	Practical float64
	Probable  float64
}

// CanonicalWeights is the ledger-of-record weighting: IV = 0.5*logical
// + 0.35*practical + 0.15*probable. This is the only IV that is ever
// written into a ledger entry; domain-weighted quality is reported
// alongside it but never replaces it.
var CanonicalWeights = Weights{Logical: 0.5, Practical: 0.35, Probable: 0.15}

// RRPWeights is the reweighting a Reality Reconciliation Pass applies
// once IRD crosses its trigger threshold, shifting emphasis toward
// whether the artifact is actually practical and probable rather than
// merely internally consistent.
var RRPWeights = Weights{Logical: 0.3, Practical: 0.3, Probable: 0.4}

// RRPTriggerIRD is the Integrity Risk Delta value above which an
// Evaluator runs a Reality Reconciliation Pass.
const RRPTriggerIRD = 0.5

// irdFloor is the baseline IV the IRD formula measures shortfall
// against: an artifact at or above this integrity value contributes no
// floor penalty to its own risk delta.
const irdFloor = 0.65

const (
	contradictionPenalty = 0.05
	hedgePenalty         = 0.02
)

// DomainWeights is the per-domain weighting table used only for the
// additional domain-weighted quality metric reported alongside the
// canonical IV — never for the ledger's IV itself.
var DomainWeights = map[models.Domain]Weights{
	models.DomainTechnical: {Logical: 0.60, Practical: 0.35, Probable: 0.05},
	models.DomainOps:       {Logical: 0.40, Practical: 0.45, Probable: 0.15},
	models.DomainMarketing: {Logical: 0.30, Practical: 0.20, Probable: 0.50},
	models.DomainCreative:  {Logical: 0.35, Practical: 0.25, Probable: 0.40},
	models.DomainEducation: {Logical: 0.45, Practical: 0.35, Probable: 0.20},
	models.DomainProduct:   {Logical: 0.40, Practical: 0.40, Probable: 0.20},
	models.DomainStrategy:  {Logical: 0.45, Practical: 0.35, Probable: 0.20},
	models.DomainResearch:  {Logical: 0.55, Practical: 0.30, Probable: 0.15},
	models.DomainFinance:   {Logical: 0.50, Practical: 0.35, Probable: 0.15},
}

// ComputeIV combines Scores with Weights into a single Integrity
// Value.
func ComputeIV(s Scores, w Weights) float64 {
	return w.Logical*s.Logical + w.Practical*s.Practical + w.Probable*s.Probable
}

// ComputeDomainWeighted reports the domain-weighted quality metric for
// a declared domain. It is never the ledger's authoritative IV — see
// CanonicalWeights.
func ComputeDomainWeighted(s Scores, domain models.Domain) (float64, error) {
	w, ok := DomainWeights[domain]
	if !ok {
		return 0, fmt.Errorf("taes: no domain weights registered for %q", domain)
	}
	return ComputeIV(s, w), nil
}

// ComputeIRD derives the Integrity Risk Delta from an IV and the
// contradiction/hedge counts a grader observed: IRD = max(0, 0.65-IV) +
// 0.05*contradictions + 0.02*hedges.
func ComputeIRD(iv float64, contradictionCount, hedgeCount int) float64 {
	shortfall := irdFloor - iv
	if shortfall < 0 {
		shortfall = 0
	}
	return shortfall + contradictionPenalty*float64(contradictionCount) + hedgePenalty*float64(hedgeCount)
}
