package models

// ObjectiveSpec is the immutable input to a chain run. It is captured
// once at session start and handed out in curated slices to each role;
// no role ever sees the full struct verbatim except the Strategist,
// which needs goal/audience/constraints directly.
type ObjectiveSpec struct {
	Text      string `json:"text"`
	Domain    Domain `json:"domain,omitempty"`
	SessionID string `json:"session_id"`
}

// StrategistSlice is the curated view of the objective the Strategist
// role receives: goal text plus any audience/constraint hints that can
// be parsed out of it. The orchestrator builds this; it never hands the
// Strategist the full ObjectiveSpec struct so that later additions to
// ObjectiveSpec don't silently leak into role prompts.
type StrategistSlice struct {
	Goal        string   `json:"goal"`
	Constraints []string `json:"constraints,omitempty"`
}
