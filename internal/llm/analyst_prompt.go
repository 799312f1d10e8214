package llm

import (
	"fmt"

	"github.com/govkernel/chain/internal/models"
)

// BuildAnalystPrompt composes the Analyst's prompt from the upstream
// Strategy artifacts it was handed (never the raw objective).
func BuildAnalystPrompt(directive string, strategies []models.Strategy) string {
	return fmt.Sprintf(
		`%s

### UPSTREAM STRATEGY ARTIFACTS
%s

### YOUR TASK
Produce an "items" array of one or more Analysis ("A") artifacts, each
referencing a subset of the S ids above via s_refs. Each Analysis must
have:
- a unique id matching "A-<n>"
- s_refs: existing S ids this analysis builds on
- kpi_table: at least one row with metric, target, and unit
- falsifications: at least one falsification test
- risks (optional)

Respond with a single JSON object of the shape {"items": [...]}, where
each element matches the Analysis schema. Reference only s_refs that
appear above; never invent an S id. No prose outside the JSON object.

EXAMPLE:
{
  "items": [
    {
      "a_id": "A-1",
      "s_refs": ["S-1"],
      "kpi_table": [{"metric": "reply_rate", "target": "8", "unit": "percent"}],
      "falsifications": ["if reply rate stays below 3%% after 7 days, the hook is wrong"],
      "risks": ["audience segment may be smaller than assumed"]
    }
  ]
}
`,
		directive,
		mustJSON(strategies),
	)
}
