package llm

import (
	"fmt"
	"strings"

	"github.com/govkernel/chain/internal/models"
)

// BuildMicroQAPrompt composes one of the two bounded micro Q&A turns a
// role may use to clarify an ambiguous upstream reference before
// producing its artifact. Kept to a single targeted question, never a
// second full-context re-submission.
func BuildMicroQAPrompt(directive, question string) string {
	var b strings.Builder
	b.WriteString(directive)
	b.WriteString("\n\n## Clarification Requested\n\n")
	b.WriteString(question)
	b.WriteString("\n\nAnswer in one or two sentences. Do not produce an artifact in this turn.\n")
	return b.String()
}

// BuildRRPPrompt composes the Reality Reconciliation Pass prompt: given
// a role's already-produced artifact and the Critic's findings against
// it, ask the role to reconcile the two into a short factual delta
// rather than regenerating the artifact from scratch.
func BuildRRPPrompt(directive string, artifact models.Artifact, critiques []models.Critique) string {
	var b strings.Builder
	b.WriteString(directive)
	b.WriteString("\n\n## Reality Reconciliation Pass\n\n")
	fmt.Fprintf(&b, "Your prior artifact:\n%s\n\n", mustJSON(artifact))
	b.WriteString("Critic findings against it:\n")
	for _, c := range critiques {
		fmt.Fprintf(&b, "- [%s, severity=%s] %s -> %s\n", c.XID, c.Severity, c.Issue, c.Fix)
	}
	b.WriteString(
		"\nState plainly, in two or three sentences, which findings reflect a real gap " +
			"between the artifact and the stated objective, and which do not. Do not " +
			"re-emit the artifact; this is a reconciliation statement only.\n",
	)
	return b.String()
}
