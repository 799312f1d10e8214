// Package roleexec runs one role turn: build a prompt, call the LLM,
// extract and validate the JSON artifact it returns, and — on a single
// bounded retry — re-prompt strictly before giving up. It replaces the
// source's one-genkit-Flow-per-role pattern with a single generic state
// machine so every role shares identical retry semantics.
package roleexec

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/govkernel/chain/internal/kernelerr"
	"github.com/govkernel/chain/internal/llmclient"
)

// State names the executor's position in the bounded retry state
// machine.
type State string

const (
	StateInitial     State = "initial"
	StateAwaitingLLM State = "awaiting_llm"
	StateParsed      State = "parsed"
	StateValidated   State = "validated"
	StateStrictRetry State = "strict_retry"
	StateFailed      State = "failed"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\}|\\[.*?\\])\\s*```")

var firstJSONArray = regexp.MustCompile(`(?s)\[.*\]`)

// roleLetters maps a role's full directive name (as runrole.go passes
// it: "strategist", "analyst", ...) to the single-letter artifact tag
// the spec's ledger/item ids use (S-/A-/P-/C-/X-). It is how Extract
// recognizes a role-tagged fenced block such as ```S.
var roleLetters = map[string]string{
	"strategist": "S",
	"analyst":    "A",
	"producer":   "P",
	"courier":    "C",
	"critic":     "X",
}

// roleFence returns the compiled fence matcher for a role letter,
// tagged with that letter case-insensitively (```S, ```s, ...).
func roleFence(letter string) *regexp.Regexp {
	return regexp.MustCompile("(?is)```" + regexp.QuoteMeta(letter) + "\\s*\\n(.*?)```")
}

// Validator checks a parsed artifact for structural and cross-reference
// validity, returning a human-readable reason when it fails.
type Validator[T any] func(T) error

// Result carries the final state and artifact (if any) back to the
// orchestrator.
type Result[T any] struct {
	State    State
	Artifact T
	RawText  string
	Attempts int
}

// Execute runs one role turn to completion: call, parse, validate, and
// on the first failure of any kind, issue exactly one strict re-prompt
// before failing closed.
func Execute[T any](
	ctx context.Context,
	client llmclient.Client,
	model string,
	prompt string,
	role string,
	validate Validator[T],
) (Result[T], error) {
	state := StateInitial
	attempt := 0
	currentPrompt := prompt

	for {
		attempt++
		state = StateAwaitingLLM

		raw, err := client.Generate(ctx, llmclient.Request{Model: model, Prompt: currentPrompt})
		if err != nil {
			if attempt >= 2 {
				return Result[T]{State: StateFailed, Attempts: attempt}, kernelerr.New(kernelerr.KindTransport, role, err)
			}
			currentPrompt = strictRetryPrompt(prompt, fmt.Sprintf("the model call itself failed: %v", err))
			state = StateStrictRetry
			continue
		}

		artifact, perr := Extract[T](raw, role)
		if perr != nil {
			if attempt >= 2 {
				return Result[T]{State: StateFailed, RawText: raw, Attempts: attempt}, kernelerr.New(kernelerr.KindParse, role, perr)
			}
			currentPrompt = strictRetryPrompt(prompt, fmt.Sprintf("your last response did not contain valid JSON: %v", perr))
			state = StateStrictRetry
			continue
		}
		state = StateParsed

		if err := validate(artifact); err != nil {
			if attempt >= 2 {
				return Result[T]{State: StateFailed, RawText: raw, Attempts: attempt}, kernelerr.New(kernelerr.KindValidation, role, err)
			}
			currentPrompt = strictRetryPrompt(prompt, fmt.Sprintf("your last artifact failed validation: %v", err))
			state = StateStrictRetry
			continue
		}

		state = StateValidated
		return Result[T]{State: state, Artifact: artifact, RawText: raw, Attempts: attempt}, nil
	}
}

// Extract parses T out of raw model text for the given role. Per spec,
// the first fenced block tagged with the role's letter (e.g. ```S for
// the strategist) takes priority; within it, trailing narrative after
// the JSON value is rejected rather than silently discarded. Failing
// that, a direct unmarshal of the whole trimmed text is tried (also
// narrative-safe: encoding/json rejects trailing garbage at the top
// level), then a generic ```json fenced block, then the first bare
// JSON array found. Any candidate JSON object has its top-level null
// array fields patched to empty arrays with sjson, so a role's
// omission of an optional list does not fail unmarshaling into a
// non-pointer slice field.
func Extract[T any](raw string, role string) (T, error) {
	var out T

	if letter, ok := roleLetters[strings.ToLower(role)]; ok {
		if match := roleFence(letter).FindStringSubmatch(raw); match != nil {
			if artifact, err := decodeArtifact[T](match[1]); err == nil {
				return artifact, nil
			}
		}
	}

	trimmed := strings.TrimSpace(raw)
	if err := json.Unmarshal([]byte(trimmed), &out); err == nil {
		return out, nil
	}

	if match := fencedBlock.FindStringSubmatch(raw); match != nil {
		if artifact, err := decodeArtifact[T](match[1]); err == nil {
			return artifact, nil
		}
	}

	if match := firstJSONArray.FindString(raw); match != "" {
		if artifact, err := decodeArtifact[T](match); err == nil {
			return artifact, nil
		}
	}

	var zero T
	return zero, fmt.Errorf("no JSON object found in response")
}

// decodeArtifact validates candidate as JSON, rejects any trailing
// narrative after the JSON value ends, repairs null array fields, and
// unmarshals into T.
func decodeArtifact[T any](candidate string) (T, error) {
	var zero T
	candidate = strings.TrimSpace(candidate)

	if !gjson.Valid(candidate) {
		return zero, fmt.Errorf("fenced block is not valid JSON")
	}
	if trailing := trailingNarrative(candidate); trailing != "" {
		return zero, fmt.Errorf("trailing narrative after JSON value: %q", trailing)
	}

	repaired := repairNullArrays(candidate)

	var out T
	if err := json.Unmarshal([]byte(repaired), &out); err != nil {
		return zero, fmt.Errorf("unmarshal fenced block: %w", err)
	}
	return out, nil
}

// trailingNarrative decodes the first JSON value in s and returns
// whatever non-whitespace text follows it, if any. A non-empty result
// means the model appended prose after its JSON artifact inside the
// fenced block, which Extract treats as a parse failure rather than
// silently dropping.
func trailingNarrative(s string) string {
	dec := json.NewDecoder(strings.NewReader(s))
	var v any
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	return strings.TrimSpace(s[dec.InputOffset():])
}

// repairNullArrays walks the top-level keys of a JSON object and
// replaces any explicit null value with an empty array, using sjson.
// Role responses occasionally emit "risks": null instead of omitting
// the optional field; Go's json package accepts that into a []string
// as a nil slice, so this step matters only for fields the target type
// declares as a fixed-size or non-nullable shape upstream validators
// then reject outright.
func repairNullArrays(candidate string) string {
	result := gjson.Parse(candidate)
	if !result.IsObject() {
		return candidate
	}

	out := candidate
	result.ForEach(func(key, value gjson.Result) bool {
		if value.Type == gjson.Null {
			patched, err := sjson.Set(out, key.String(), []any{})
			if err == nil {
				out = patched
			}
		}
		return true
	})
	return out
}

func strictRetryPrompt(original, reason string) string {
	return fmt.Sprintf(
		"%s\n\n### STRICT RETRY\nYour previous attempt could not be used: %s\nRespond again, this time with ONLY the JSON object matching the required schema. No prose, no markdown fence unless the schema requires one.\n",
		original, reason,
	)
}
