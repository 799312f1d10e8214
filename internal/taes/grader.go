package taes

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/govkernel/chain/internal/detect"
	"github.com/govkernel/chain/internal/llmclient"
	"github.com/govkernel/chain/internal/roleexec"
)

// Graded is the full output of one grading pass: the three axis scores
// plus the raw contradiction/hedge counts the IRD formula needs.
type Graded struct {
	Scores             Scores
	ContradictionCount int
	HedgeCount         int
}

// Grader scores a role's raw text output.
type Grader interface {
	Grade(ctx context.Context, text string) (Graded, error)
}

// HeuristicGrader scores text with the same kind of pattern-driven
// heuristics the detectors use, for sessions run without a scoring
// LLM call (or as the fallback when the LLM grader's response fails to
// parse).
type HeuristicGrader struct{}

// Grade derives Logical from sentence-structure consistency (absence
// of contradictions), Practical from the presence of concrete
// anchors (numbers, named entities) and acceptance-test language, and
// Probable from hedge density (fewer hedges implies a more probable,
// less speculative claim).
func (HeuristicGrader) Grade(_ context.Context, text string) (Graded, error) {
	contradictions := detect.CountContradictions(text)
	hedges := detect.CountHedges(text)
	tokens := len(strings.Fields(text))
	if tokens == 0 {
		return Graded{}, fmt.Errorf("taes: empty text cannot be graded")
	}

	logical := clamp01(1 - 0.2*float64(contradictions))

	practical := 0.4
	if strings.Contains(strings.ToLower(text), "acceptance") || strings.Contains(strings.ToLower(text), "test") {
		practical += 0.3
	}
	if hasDigit(text) {
		practical += 0.3
	}
	practical = clamp01(practical)

	hedgeDensity := float64(hedges) / float64(tokens) * 1000
	probable := clamp01(1 - hedgeDensity/20)

	return Graded{
		Scores:             Scores{Logical: logical, Practical: practical, Probable: probable},
		ContradictionCount: contradictions,
		HedgeCount:         hedges,
	}, nil
}

func hasDigit(s string) bool {
	for _, r := range s {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// gradeResponse is the JSON shape the LLM grader asks the model to
// emit, reusing roleexec.Execute's parse/retry machinery rather than a
// bespoke call path.
type gradeResponse struct {
	Logical            float64 `json:"logical"`
	Practical          float64 `json:"practical"`
	Probable           float64 `json:"probable"`
	ContradictionCount int     `json:"contradiction_count"`
	HedgeCount         int     `json:"hedge_count"`
}

func validateGradeResponse(r gradeResponse) error {
	for name, v := range map[string]float64{"logical": r.Logical, "practical": r.Practical, "probable": r.Probable} {
		if v < 0 || v > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, v)
		}
	}
	return nil
}

// LLMGrader asks the configured model to score a role's output
// directly, falling back to HeuristicGrader if the model call or
// parse fails twice (roleexec.Execute already applies the one strict
// retry before that happens).
type LLMGrader struct {
	Client   llmclient.Client
	Model    string
	Fallback Grader
}

// NewLLMGrader builds an LLMGrader with HeuristicGrader as its
// fallback.
func NewLLMGrader(client llmclient.Client, model string) *LLMGrader {
	return &LLMGrader{Client: client, Model: model, Fallback: HeuristicGrader{}}
}

func (g *LLMGrader) Grade(ctx context.Context, text string) (Graded, error) {
	prompt := buildGradingPrompt(text)

	res, err := roleexec.Execute[gradeResponse](ctx, g.Client, g.Model, prompt, "taes-grader", validateGradeResponse)
	if err != nil {
		if g.Fallback != nil {
			return g.Fallback.Grade(ctx, text)
		}
		return Graded{}, err
	}

	return Graded{
		Scores: Scores{
			Logical:   res.Artifact.Logical,
			Practical: res.Artifact.Practical,
			Probable:  res.Artifact.Probable,
		},
		ContradictionCount: res.Artifact.ContradictionCount,
		HedgeCount:         res.Artifact.HedgeCount,
	}, nil
}

func buildGradingPrompt(text string) string {
	encoded, _ := json.Marshal(text)
	return fmt.Sprintf(`Score the following text on three axes, each a float in [0,1]:

- logical: internal consistency, absence of self-contradiction
- practical: groundedness in concrete, actionable detail
- probable: plausibility of any claims made, independent of hedging language

Also count contradiction_count (pairs of directly opposing claims) and
hedge_count (hedging phrases like "maybe", "possibly").

TEXT:
%s

Respond with ONLY a JSON object: {"logical": <float>, "practical": <float>, "probable": <float>, "contradiction_count": <int>, "hedge_count": <int>}`, string(encoded))
}
