package llm

import (
	"fmt"

	"github.com/govkernel/chain/internal/models"
)

// BuildCriticPrompt composes the Critic's prompt from the full session
// registry snapshot: unlike every other role, the Critic sees the
// whole artifact graph at once so it can cross-reference across kinds.
func BuildCriticPrompt(directive string, snapshot models.Snapshot) string {
	return fmt.Sprintf(
		`%s

### FULL SESSION ARTIFACT GRAPH
%s

### YOUR TASK
Produce an "items" array of one or more Critique ("X") findings. Each
finding must cross-reference ids spanning at least three of S, A, P, C.
Each Critique must have:
- a unique id matching "X-<n>"
- refs: ids spanning at least 3 of S/A/P/C
- issue: the concrete defect found
- fix: a specific, actionable correction
- severity: one of low, med, high
- proof_scores: logical, practical, probable, coverage, confidence (0.0-1.0 each)

Respond with a single JSON object of the shape {"items": [...]}, where
each element matches the Critique schema. Reference only ids that
appear in the artifact graph above; never invent an id. No prose
outside the JSON object.

EXAMPLE:
{
  "items": [
    {
      "x_id": "X-1",
      "refs": ["S-1", "A-1", "P-1"],
      "issue": "P-1's copy block promises a reply within 24h but C-1 schedules the send for Friday with no weekend follow-up",
      "fix": "add a Monday follow-up Courier row referencing P-1",
      "severity": "med",
      "proof_scores": {"logical": 0.8, "practical": 0.7, "probable": 0.6, "coverage": 0.5, "confidence": 0.75}
    }
  ]
}
`,
		directive,
		mustJSON(snapshot),
	)
}
