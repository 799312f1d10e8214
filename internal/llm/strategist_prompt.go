package llm

import (
	"fmt"

	"github.com/govkernel/chain/internal/models"
)

// BuildStrategistPrompt composes the first-turn prompt for the
// Strategist role. The Strategist sees only the curated objective
// slice, never the full ObjectiveSpec, per the session's
// objective-isolation policy.
func BuildStrategistPrompt(directive string, slice models.StrategistSlice, domain models.Domain) string {
	return fmt.Sprintf(
		`%s

### OBJECTIVE
Goal: %s
Constraints: %s
Domain: %s

### YOUR TASK
Produce an "items" array of one or more Strategy ("S") artifacts. Each
must have:
- a unique id matching "S-<n>"
- a title and an audience
- at least one hook/angle
- a three-step plan
- at least one falsifiable acceptance test

Respond with a single JSON object of the shape {"items": [...]}, where
each element matches the Strategy schema. Do not invent facts about the
objective beyond what is stated above. No prose outside the JSON object.

EXAMPLE:
{
  "items": [
    {
      "s_id": "S-1",
      "title": "Direct outreach to churn-risk accounts",
      "audience": "accounts inactive 30+ days",
      "hooks": ["renewed feature parity with top competitor"],
      "three_step_plan": ["segment inactive accounts", "send targeted re-engagement email", "offer a scoped call"],
      "acceptance_tests": ["reply rate >= 8%% within 7 days"]
    }
  ]
}
`,
		directive,
		slice.Goal,
		formatConstraints(slice.Constraints),
		domain,
	)
}

func formatConstraints(constraints []string) string {
	if len(constraints) == 0 {
		return "none stated"
	}
	out := ""
	for _, c := range constraints {
		out += "- " + c + "\n"
	}
	return out
}
