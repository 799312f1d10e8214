package llm

import (
	"fmt"

	"github.com/govkernel/chain/internal/models"
)

// BuildCourierPrompt composes the Courier's prompt from the upstream
// Production artifacts it schedules into concrete action rows.
func BuildCourierPrompt(directive string, productions []models.Production) string {
	return fmt.Sprintf(
		`%s

### UPSTREAM PRODUCTION ARTIFACTS
%s

### YOUR TASK
Produce an "items" array of one or more Courier ("C") rows, each
scheduling a concrete action that carries out one of the Production
artifacts above. Each Courier row must have:
- day and time the action runs
- channel the action runs through
- p_id: the Production id this action carries out (must be one of the ids above)
- kpi_target: the measurable target for this action
- owner_action: what the owning human or system does

Respond with a single JSON object of the shape {"items": [...]}, where
each element matches the Courier schema. Reference only p_id values
that appear above; never invent a P id. A Courier row schedules an
action; it never emits a new asset body of its own. No prose outside
the JSON object.

EXAMPLE:
{
  "items": [
    {
      "day": "Tue",
      "time": "09:00",
      "channel": "email",
      "p_id": "P-1",
      "kpi_target": "reply_rate >= 8%%",
      "owner_action": "send the copy_block to the churn-risk segment"
    }
  ]
}
`,
		directive,
		mustJSON(productions),
	)
}
