package llm

import (
	"fmt"

	"github.com/govkernel/chain/internal/models"
)

// BuildProducerPrompt composes the Producer's prompt from the upstream
// Analysis artifacts it is asked to turn into concrete build specs.
func BuildProducerPrompt(directive string, analyses []models.Analysis) string {
	return fmt.Sprintf(
		`%s

### UPSTREAM ANALYSIS ARTIFACTS
%s

### YOUR TASK
Produce an "items" array of one or more Production ("P") artifacts,
each referencing a subset of the A ids above via a_refs. Each
Production must have:
- a unique id matching "P-<n>"
- a_refs: existing A ids this production implements
- spec_type: one of api, ddl, config, copy_block, wiring, prompt_pack
- body: the concrete spec text

Respond with a single JSON object of the shape {"items": [...]}, where
each element matches the Production schema. Reference only a_refs that
appear above; never invent an A id. A Production body is a build spec,
never a delivery schedule — do not include day/time/channel fields; that
belongs to the Courier role downstream. No prose outside the JSON object.

EXAMPLE:
{
  "items": [
    {
      "p_id": "P-1",
      "a_refs": ["A-1"],
      "spec_type": "copy_block",
      "body": "Subject: We shipped what you asked for\n\nHi {{first_name}}, ..."
    }
  ]
}
`,
		directive,
		mustJSON(analyses),
	)
}
