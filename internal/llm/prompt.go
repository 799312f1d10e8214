// Package llm builds the per-role prompts the kernel sends through
// internal/llmclient. Each Build*Prompt function composes a directive
// (loaded by internal/directive) with the curated upstream context a
// role is allowed to see, following the source's template style:
// fmt.Sprintf / strings.Builder assembly, a shared TruncateString
// helper, and worked examples embedded directly in the instructions.
package llm

import (
	"encoding/json"
	"fmt"
)

// TruncateString trims s to maxLen runes, appending "..." when it was
// cut. Carried over verbatim from the source's prompt helpers.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// mustJSON renders v as indented JSON for embedding in a prompt. Errors
// are swallowed into an inline marker rather than propagated, matching
// the source's `contextJson, _ := json.MarshalIndent(...)` idiom:
// prompt construction must never fail a role turn over a marshal error.
func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("<unserializable: %v>", err)
	}
	return string(b)
}
