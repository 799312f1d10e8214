package taes

import (
	"context"
	"fmt"

	"github.com/govkernel/chain/internal/llm"
	"github.com/govkernel/chain/internal/models"
)

// Scoring-time summarization thresholds (spec §4.5 step 1): outputs
// longer than summarizeThreshold chars are reduced to their head and
// tail before being handed to the grader, so scoring stays cheap and
// stable while still seeing a role's framing and its conclusion.
const (
	summarizeThreshold = 2500
	summarizeHeadLen    = 1500
	summarizeTailLen    = 1000
)

// summarizeForScoring shortens text to head(summarizeHeadLen) +
// tail(summarizeTailLen) when it exceeds summarizeThreshold, using
// llm.TruncateString for the head half since it already does exactly
// this head-cut-with-marker trim.
func summarizeForScoring(text string) string {
	if len(text) <= summarizeThreshold {
		return text
	}
	head := llm.TruncateString(text, summarizeHeadLen)
	tail := text[len(text)-summarizeTailLen:]
	return head + "\n...\n" + tail
}

// Record is one role turn's full evaluation outcome, the shape that
// gets written to the IRD log and folded into the session ledger.
type Record struct {
	Role                  string
	Domain                models.Domain
	Scores                Scores
	IV                    float64
	DomainWeightedQuality float64
	IRD                   float64
	ContradictionCount    int
	HedgeCount            int
	Reconciled            bool
	ReconciliationNote    string
}

// Evaluator runs a Grader over a role's output and applies the
// canonical IV/IRD formulas, triggering a Reality Reconciliation Pass
// when IRD crosses RRPTriggerIRD.
type Evaluator struct {
	Grader Grader
}

// NewEvaluator builds an Evaluator around the given Grader.
func NewEvaluator(g Grader) *Evaluator {
	return &Evaluator{Grader: g}
}

// Evaluate grades text, computes the canonical IV and IRD, and — if
// IRD exceeds the RRP trigger — recomputes IV with RRPWeights and
// records the reconciliation. The canonical IV (pre-RRP) remains the
// value written to the ledger; RRP only ever adjusts IRD and adds a
// reconciliation note, it never re-emits the artifact.
func (e *Evaluator) Evaluate(ctx context.Context, role string, domain models.Domain, text string) (Record, error) {
	graded, err := e.Grader.Grade(ctx, summarizeForScoring(text))
	if err != nil {
		return Record{}, fmt.Errorf("taes: grade %s: %w", role, err)
	}

	iv := ComputeIV(graded.Scores, CanonicalWeights)
	ird := ComputeIRD(iv, graded.ContradictionCount, graded.HedgeCount)

	record := Record{
		Role:               role,
		Domain:             domain,
		Scores:             graded.Scores,
		IV:                 iv,
		IRD:                ird,
		ContradictionCount: graded.ContradictionCount,
		HedgeCount:         graded.HedgeCount,
	}

	if domain.Valid() {
		if dw, err := ComputeDomainWeighted(graded.Scores, domain); err == nil {
			record.DomainWeightedQuality = dw
		}
	}

	if ird > RRPTriggerIRD {
		record = e.reconcile(record, graded)
	}

	return record, nil
}

// reconcile applies the Reality Reconciliation Pass: IV is recomputed
// with RRPWeights (shifted toward practical/probable) and IRD is
// recomputed from that reconciled IV, using the same underlying
// contradiction/hedge counts. The canonical IV already written into
// record.IV is left untouched — RRP informs IRD, not the ledger's IV.
func (e *Evaluator) reconcile(record Record, graded Graded) Record {
	rrpIV := ComputeIV(graded.Scores, RRPWeights)
	record.IRD = ComputeIRD(rrpIV, graded.ContradictionCount, graded.HedgeCount)
	record.Reconciled = true
	record.ReconciliationNote = fmt.Sprintf(
		"RRP applied: canonical IV %.3f exceeded IRD trigger (IRD=%.3f); reweighted IV %.3f gives reconciled IRD %.3f",
		record.IV, ComputeIRD(record.IV, graded.ContradictionCount, graded.HedgeCount), rrpIV, record.IRD,
	)
	return record
}
