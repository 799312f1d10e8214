// Package orchestrator sequences the five governance-kernel roles —
// Strategist, Analyst, Producer, Courier, Critic — over one objective,
// gating every role turn through validation, TAES scoring, governance
// coupling, and a signed ledger entry before the next role runs. It is
// the typed, single-session replacement for the source's ad hoc
// Flow-calls-Flow chaining: one generic runRole drives every role
// instead of five bespoke call sites.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/govkernel/chain/internal/detect"
	"github.com/govkernel/chain/internal/directive"
	"github.com/govkernel/chain/internal/governance"
	"github.com/govkernel/chain/internal/ledger"
	"github.com/govkernel/chain/internal/ledger/sqlmirror"
	"github.com/govkernel/chain/internal/ledgerstream"
	"github.com/govkernel/chain/internal/llm"
	"github.com/govkernel/chain/internal/llmclient"
	"github.com/govkernel/chain/internal/models"
	"github.com/govkernel/chain/internal/observability"
	"github.com/govkernel/chain/internal/roleshapes"
	"github.com/govkernel/chain/internal/taes"
	"github.com/govkernel/chain/internal/validate"
)

const maxQALen = 800

// Chain wires every collaborator one session needs. Zero-value fields
// that are safely nil-able (Mirror, RoleShapes, Governance, Logger)
// degrade gracefully rather than panic.
type Chain struct {
	Composer   *directive.Composer
	Client     llmclient.Client
	ModelFast  string
	ModelSmart string

	Evaluator  *taes.Evaluator
	Governance *governance.Config
	RoleShapes *roleshapes.Config

	Ledger *ledger.Ledger
	Mirror *sqlmirror.Mirror
	IRDLog *taes.IRDLog
	Stream *ledgerstream.Hub

	ConfigHash  string
	SessionsDir string
	Logger      *zap.Logger
}

// RoleOutcome summarizes one role turn for the session result object.
type RoleOutcome struct {
	Role        string              `json:"role"`
	Attempts    int                 `json:"attempts"`
	Failed      bool                `json:"failed"`
	FailureKind string              `json:"failure_kind,omitempty"`
	TAES        *taes.Record        `json:"taes,omitempty"`
	Governance  *governance.Outcome `json:"governance,omitempty"`
	BannedHits  []string            `json:"banned_shape_hits,omitempty"`
	Redundant   bool                `json:"redundant,omitempty"`
}

// Result is the chain API's return value: `(S, A, P, C, X, results)`
// flattened into one struct, per spec's run_chain contract.
type Result struct {
	SessionID   string             `json:"session_id"`
	Domain      models.Domain      `json:"domain,omitempty"`
	Strategist  []models.Strategy  `json:"strategist"`
	Analyst     []models.Analysis  `json:"analyst"`
	Producer    []models.Production `json:"producer"`
	Courier     []models.Courier  `json:"courier"`
	Critic      []models.Critique `json:"critic"`
	Registry    models.Snapshot   `json:"registry"`
	RoleResults []RoleOutcome     `json:"role_results"`
	ConfigHash  string            `json:"config_hash"`
	Errors      []string          `json:"errors,omitempty"`
}

// itemsWrapper is the wire shape every role responds with: a single
// JSON object carrying an "items" array of that role's artifact type.
type itemsWrapper[T any] struct {
	Items []T `json:"items"`
}

// Run executes the full five-role chain for one objective, writing a
// ledger entry after every role turn (including failures) and a final
// opaque session-artifact snapshot to SessionsDir.
func (c *Chain) Run(ctx context.Context, objective models.ObjectiveSpec) (Result, error) {
	sessionID := objective.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	registry := models.NewRegistry()
	result := Result{SessionID: sessionID, Domain: objective.Domain, ConfigHash: c.ConfigHash}

	logger := c.Logger
	if logger != nil {
		logger = observability.WithSession(logger, sessionID)
	}

	var strategistText, analystText, producerText, courierText string

	// --- Strategist ---
	sOut, sOutcome, sText, err := runRole(ctx, c, sessionID, directive.RoleStrategist, c.ModelFast, objective.Domain,
		func(banNote string) (string, error) {
			dtext, derr := c.Composer.Compose(directive.RoleStrategist)
			if derr != nil {
				return "", derr
			}
			slice := models.StrategistSlice{Goal: objective.Text}
			return llm.BuildStrategistPrompt(dtext, slice, objective.Domain) + banNote, nil
		},
		func(w itemsWrapper[models.Strategy]) error { return validate.Strategies(w.Items) },
		func(w itemsWrapper[models.Strategy]) bool {
			for _, s := range w.Items {
				if len(s.AcceptanceTests) > 0 {
					return true
				}
			}
			return false
		},
		nil,
		nil,
	)
	result.RoleResults = append(result.RoleResults, sOutcome)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("strategist: %v", err))
	} else {
		if aerr := registry.AddStrategies(sOut.Items); aerr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("strategist registry: %v", aerr))
		}
		result.Strategist = sOut.Items
		strategistText = sText
	}

	// --- Analyst ---
	aOut, aOutcome, aText, err := runRole(ctx, c, sessionID, directive.RoleAnalyst, c.ModelFast, objective.Domain,
		func(banNote string) (string, error) {
			dtext, derr := c.Composer.Compose(directive.RoleAnalyst)
			if derr != nil {
				return "", derr
			}
			return llm.BuildAnalystPrompt(dtext, registry.Strategies()) + banNote, nil
		},
		func(w itemsWrapper[models.Analysis]) error { return validate.Analyses(w.Items, registry.StrategyIDs()) },
		func(w itemsWrapper[models.Analysis]) bool {
			for _, a := range w.Items {
				if len(a.Falsifications) > 0 {
					return true
				}
			}
			return false
		},
		nil,
		[]string{strategistText},
	)
	result.RoleResults = append(result.RoleResults, aOutcome)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("analyst: %v", err))
	} else {
		if aerr := registry.AddAnalyses(aOut.Items); aerr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("analyst registry: %v", aerr))
		}
		result.Analyst = aOut.Items
		analystText = aText
	}

	// --- Micro Q&A-1: Analyst -> Producer ---
	qa1 := c.microQA(ctx, "Given the Analysis artifacts above, what single constraint should the build spec respect that isn't already stated?")

	// --- Producer ---
	pOut, pOutcome, pText, err := runRole(ctx, c, sessionID, directive.RoleProducer, c.ModelSmart, objective.Domain,
		func(banNote string) (string, error) {
			dtext, derr := c.Composer.Compose(directive.RoleProducer)
			if derr != nil {
				return "", derr
			}
			prompt := llm.BuildProducerPrompt(dtext, registry.Analyses())
			if qa1 != "" {
				prompt += "\n\n### ANALYST Q&A NOTE\n" + qa1 + "\n"
			}
			return prompt + banNote, nil
		},
		func(w itemsWrapper[models.Production]) error { return validate.Productions(w.Items, registry.AnalysisIDs()) },
		func(w itemsWrapper[models.Production]) bool { return len(w.Items) > 0 },
		nil,
		[]string{strategistText, analystText},
	)
	result.RoleResults = append(result.RoleResults, pOutcome)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("producer: %v", err))
	} else {
		if aerr := registry.AddProductions(pOut.Items); aerr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("producer registry: %v", aerr))
		}
		result.Producer = pOut.Items
		producerText = pText
	}

	// --- Micro Q&A-2: Producer -> Courier ---
	qa2 := c.microQA(ctx, "Given the Production build specs above, which one carries the tightest delivery deadline?")

	// --- Courier ---
	producerAssets := registry.ProducerAssetIDs()
	cOut, cOutcome, cText, err := runRole(ctx, c, sessionID, directive.RoleCourier, c.ModelFast, objective.Domain,
		func(banNote string) (string, error) {
			dtext, derr := c.Composer.Compose(directive.RoleCourier)
			if derr != nil {
				return "", derr
			}
			prompt := llm.BuildCourierPrompt(dtext, registry.Productions())
			if qa2 != "" {
				prompt += "\n\n### PRODUCER Q&A NOTE\n" + qa2 + "\n"
			}
			return prompt + banNote, nil
		},
		func(w itemsWrapper[models.Courier]) error { return validate.Couriers(w.Items, producerAssets) },
		func(w itemsWrapper[models.Courier]) bool { return len(w.Items) > 0 },
		nil,
		[]string{strategistText, analystText, producerText},
	)
	result.RoleResults = append(result.RoleResults, cOutcome)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("courier: %v", err))
	} else {
		if aerr := registry.AddCouriers(cOut.Items); aerr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("courier registry: %v", aerr))
		}
		result.Courier = cOut.Items
		courierText = cText
	}

	// --- Critic: sees the full registry, not a curated slice ---
	knownByKind := registry.AllIDsByKind()
	xOut, xOutcome, _, err := runRole(ctx, c, sessionID, directive.RoleCritic, c.ModelFast, objective.Domain,
		func(banNote string) (string, error) {
			dtext, derr := c.Composer.Compose(directive.RoleCritic)
			if derr != nil {
				return "", derr
			}
			return llm.BuildCriticPrompt(dtext, registry.Snapshot()) + banNote, nil
		},
		func(w itemsWrapper[models.Critique]) error { return validate.Critiques(w.Items, knownByKind) },
		func(w itemsWrapper[models.Critique]) bool { return len(w.Items) > 0 },
		func(w itemsWrapper[models.Critique]) []string {
			if detect.ObservabilityGap(w.Items).Fired {
				return []string{"observability_gap"}
			}
			return nil
		},
		[]string{strategistText, analystText, producerText, courierText},
	)
	result.RoleResults = append(result.RoleResults, xOutcome)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("critic: %v", err))
	} else {
		if aerr := registry.AddCritiques(xOut.Items); aerr != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("critic registry: %v", aerr))
		}
		result.Critic = xOut.Items
	}

	result.Registry = registry.Snapshot()

	if c.SessionsDir != "" {
		if err := c.writeSessionSnapshot(sessionID, result); err != nil && logger != nil {
			logger.Warn("orchestrator: failed to write session snapshot", zap.Error(err))
		}
	}

	return result, nil
}

func (c *Chain) microQA(ctx context.Context, question string) string {
	if len(question) > maxQALen {
		question = question[:maxQALen]
	}
	prompt := llm.BuildMicroQAPrompt("Answer the clarification question below in one or two sentences.", question)
	answer, err := c.Client.Generate(ctx, llmclient.Request{Model: c.ModelFast, Prompt: prompt})
	if err != nil {
		return ""
	}
	if len(answer) > maxQALen {
		answer = answer[:maxQALen]
	}
	return answer
}

// writeSessionSnapshot persists the opaque, non-trust-boundary session
// artifact file at <SessionsDir>/<session_id>.json.
func (c *Chain) writeSessionSnapshot(sessionID string, result Result) error {
	if err := os.MkdirAll(c.SessionsDir, 0o755); err != nil {
		return fmt.Errorf("orchestrator: create sessions dir: %w", err)
	}
	raw, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("orchestrator: marshal session snapshot: %w", err)
	}
	path := filepath.Join(c.SessionsDir, sessionID+".json")
	return os.WriteFile(path, raw, 0o644)
}

func payloadHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("sha256:%x", sum)
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
