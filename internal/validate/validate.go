// Package validate implements the five artifact validators spec'd in
// the governance kernel's data model: schema and reference-integrity
// checks for Strategy, Analysis, Production, Courier, and Critique.
// Every failure names the offending id verbatim, so the orchestrator
// can feed the message straight back into a strict re-prompt.
package validate

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/govkernel/chain/internal/models"
)

var (
	strategyIDPattern   = regexp.MustCompile(`^S-\d+$`)
	analysisIDPattern   = regexp.MustCompile(`^A-\d+$`)
	productionIDPattern = regexp.MustCompile(`^P-\d+$`)
	critiqueIDPattern   = regexp.MustCompile(`^X-\d+$`)
)

// Strategies validates a batch of Strategy artifacts: id pattern,
// required non-empty fields, at least one acceptance test, and unique
// ids within the batch.
func Strategies(items []models.Strategy) error {
	seen := make(map[string]bool, len(items))
	for _, s := range items {
		if !strategyIDPattern.MatchString(s.ID) {
			return fmt.Errorf("strategy id %q does not match S-\\d+", s.ID)
		}
		if seen[s.ID] {
			return fmt.Errorf("duplicate strategy id %q", s.ID)
		}
		seen[s.ID] = true

		if strings.TrimSpace(s.Title) == "" {
			return fmt.Errorf("strategy %s: title is required", s.ID)
		}
		if strings.TrimSpace(s.Audience) == "" {
			return fmt.Errorf("strategy %s: audience is required", s.ID)
		}
		if len(s.Hooks) == 0 {
			return fmt.Errorf("strategy %s: at least one hook is required", s.ID)
		}
		if len(s.ThreeStepPlan) == 0 {
			return fmt.Errorf("strategy %s: three_step_plan is required", s.ID)
		}
		if len(s.AcceptanceTests) == 0 {
			return fmt.Errorf("strategy %s: at least one acceptance test is required", s.ID)
		}
	}
	return nil
}

// Analyses validates a batch of Analysis artifacts against the set of
// Strategy ids the session has already produced.
func Analyses(items []models.Analysis, knownStrategyIDs map[string]bool) error {
	seen := make(map[string]bool, len(items))
	for _, a := range items {
		if !analysisIDPattern.MatchString(a.ID) {
			return fmt.Errorf("analysis id %q does not match A-\\d+", a.ID)
		}
		if seen[a.ID] {
			return fmt.Errorf("duplicate analysis id %q", a.ID)
		}
		seen[a.ID] = true

		if missing := missingRefs(a.SRefs, knownStrategyIDs); len(missing) > 0 {
			return fmt.Errorf("analysis %s: s_refs reference unknown strategy ids: %s", a.ID, joinSorted(missing))
		}
		if len(a.KPITable) == 0 {
			return fmt.Errorf("analysis %s: kpi_table requires at least one row", a.ID)
		}
		for i, row := range a.KPITable {
			if strings.TrimSpace(row.Metric) == "" || strings.TrimSpace(row.Target) == "" || strings.TrimSpace(row.Unit) == "" {
				return fmt.Errorf("analysis %s: kpi_table row %d missing metric/target/unit", a.ID, i)
			}
		}
		if len(a.Falsifications) == 0 {
			return fmt.Errorf("analysis %s: at least one falsification is required", a.ID)
		}
	}
	return nil
}

// Productions validates a batch of Production artifacts against the
// set of Analysis ids the session has already produced.
func Productions(items []models.Production, knownAnalysisIDs map[string]bool) error {
	seen := make(map[string]bool, len(items))
	for _, p := range items {
		if !productionIDPattern.MatchString(p.ID) {
			return fmt.Errorf("production id %q does not match P-\\d+", p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate production id %q", p.ID)
		}
		seen[p.ID] = true

		if missing := missingRefs(p.ARefs, knownAnalysisIDs); len(missing) > 0 {
			return fmt.Errorf("production %s: a_refs reference unknown analysis ids: %s", p.ID, joinSorted(missing))
		}
		if !models.ValidSpecTypes[p.SpecType] {
			return fmt.Errorf("production %s: spec_type %q is not a recognized type", p.ID, p.SpecType)
		}
		if strings.TrimSpace(p.Body) == "" {
			return fmt.Errorf("production %s: body is required", p.ID)
		}
	}
	return nil
}

// Couriers validates a batch of Courier rows against the explicit set
// of Production ids Producer emitted this session (producerAssets),
// never the full registry — per the spec's requirement that the
// cross-reference be enforced explicitly rather than via the ambient
// production set.
func Couriers(items []models.Courier, producerAssets map[string]bool) error {
	missing := make(map[string]bool)
	for _, c := range items {
		if strings.TrimSpace(c.PID) == "" {
			return fmt.Errorf("courier row references no p_id")
		}
		if !producerAssets[c.PID] {
			missing[c.PID] = true
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("courier used undeclared assets: {%s}", joinSorted(missing))
	}
	return nil
}

// Critiques validates a batch of Critique findings: refs must span at
// least 3 of the 4 upstream kinds (S/A/P/C), severity must be valid,
// and proof_scores must carry all five numeric dimensions in [0,1].
func Critiques(items []models.Critique, knownByKind map[models.ArtifactKind]map[string]bool) error {
	seen := make(map[string]bool, len(items))
	for _, x := range items {
		if !critiqueIDPattern.MatchString(x.XID) {
			return fmt.Errorf("critique id %q does not match X-\\d+", x.XID)
		}
		if seen[x.XID] {
			return fmt.Errorf("duplicate critique id %q", x.XID)
		}
		seen[x.XID] = true

		kinds := refKinds(x.Refs)
		if len(kinds) < 3 {
			return fmt.Errorf("critique %s: refs must span at least 3 of S/A/P/C, got %d kind(s)", x.XID, len(kinds))
		}
		for _, ref := range x.Refs {
			kind := kindOf(ref)
			if kind == "" || !knownByKind[kind][ref] {
				return fmt.Errorf("critique %s: ref %q does not resolve to a known artifact", x.XID, ref)
			}
		}
		if !models.ValidSeverities[x.Severity] {
			return fmt.Errorf("critique %s: severity %q is not valid", x.XID, x.Severity)
		}
		if err := validateProofScores(x.ProofScores); err != nil {
			return fmt.Errorf("critique %s: %w", x.XID, err)
		}
	}
	return nil
}

func validateProofScores(p models.ProofScores) error {
	dims := map[string]float64{
		"logical":    p.Logical,
		"practical":  p.Practical,
		"probable":   p.Probable,
		"coverage":   p.Coverage,
		"confidence": p.Confidence,
	}
	for name, v := range dims {
		if v < 0 || v > 1 {
			return fmt.Errorf("proof_scores.%s must be in [0,1], got %v", name, v)
		}
	}
	return nil
}

func refKinds(refs []string) map[models.ArtifactKind]bool {
	kinds := make(map[models.ArtifactKind]bool)
	for _, ref := range refs {
		if kind := kindOf(ref); kind != "" {
			kinds[kind] = true
		}
	}
	return kinds
}

func kindOf(ref string) models.ArtifactKind {
	switch {
	case strategyIDPattern.MatchString(ref):
		return models.KindStrategy
	case analysisIDPattern.MatchString(ref):
		return models.KindAnalysis
	case productionIDPattern.MatchString(ref):
		return models.KindProduction
	case strings.HasPrefix(ref, "C-"):
		return models.KindCourier
	default:
		return ""
	}
}

func missingRefs(refs []string, known map[string]bool) map[string]bool {
	missing := make(map[string]bool)
	for _, ref := range refs {
		if !known[ref] {
			missing[ref] = true
		}
	}
	return missing
}

func joinSorted(set map[string]bool) string {
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}
