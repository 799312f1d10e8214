package orchestrator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/govkernel/chain/internal/detect"
	"github.com/govkernel/chain/internal/governance"
	"github.com/govkernel/chain/internal/kernelerr"
	"github.com/govkernel/chain/internal/models"
	"github.com/govkernel/chain/internal/observability"
	"github.com/govkernel/chain/internal/roleexec"
	"github.com/govkernel/chain/internal/roleshapes"
	"github.com/govkernel/chain/internal/taes"
)

// runRole drives one role turn end to end: compose and call (via
// roleexec's own bounded parse/validate retry), then apply the
// orchestrator-level policies roleexec knows nothing about — banned
// role shapes (one additional strict retry) and the redundancy guard
// (a soft tag, never a retry) — before scoring and ledgering the turn.
//
// It is a free function, not a *Chain method, because Go does not
// allow type parameters on methods.
func runRole[T any](
	ctx context.Context,
	c *Chain,
	sessionID, role, model string,
	domain models.Domain,
	buildPrompt func(banNote string) (string, error),
	validator roleexec.Validator[T],
	hasAcceptanceOrFalsification func(T) bool,
	extraSignals func(T) []string,
	upstreamTexts []string,
) (T, RoleOutcome, string, error) {
	var zero T

	prompt, perr := buildPrompt("")
	if perr != nil {
		outcome := c.recordFailure(ctx, sessionID, role, "", kernelerr.New(kernelerr.KindConfig, role, perr))
		return zero, outcome, "", perr
	}

	res, err := roleexec.Execute[T](ctx, c.Client, model, prompt, role, validator)
	if err != nil {
		outcome := c.recordFailure(ctx, sessionID, role, res.RawText, err)
		return zero, outcome, "", err
	}

	text := res.RawText
	violations := roleshapes.Check(c.RoleShapes, role, text)
	var bannedHits []string
	if len(violations) > 0 {
		for _, v := range violations {
			bannedHits = append(bannedHits, v.Pattern)
		}

		retryPrompt, perr := buildPrompt(banNoteFor(violations))
		if perr != nil {
			outcome := c.recordFailure(ctx, sessionID, role, text, kernelerr.New(kernelerr.KindConfig, role, perr))
			return zero, outcome, "", perr
		}

		res2, err2 := roleexec.Execute[T](ctx, c.Client, model, retryPrompt, role, validator)
		if err2 != nil {
			outcome := c.recordFailure(ctx, sessionID, role, res2.RawText, err2)
			return zero, outcome, "", err2
		}

		if v2 := roleshapes.Check(c.RoleShapes, role, res2.RawText); len(v2) > 0 {
			shapeErr := fmt.Errorf("role %s: banned shape pattern persisted after strict re-prompt: %s", role, v2[0].Pattern)
			outcome := c.recordFailure(ctx, sessionID, role, res2.RawText, kernelerr.New(kernelerr.KindValidation, role, shapeErr))
			outcome.BannedHits = bannedHits
			return zero, outcome, "", shapeErr
		}

		res = res2
		text = res2.RawText
	}

	redundant := isRedundant(text, upstreamTexts...)

	var extra []string
	if extraSignals != nil {
		extra = extraSignals(res.Artifact)
	}

	outcome, gerr := c.evaluateAndLedger(ctx, sessionID, role, domain, text, redundant, bannedHits, hasAcceptanceOrFalsification(res.Artifact), extra)
	outcome.Attempts = res.Attempts
	if gerr != nil {
		return zero, outcome, text, gerr
	}
	return res.Artifact, outcome, text, nil
}

func banNoteFor(violations []roleshapes.Violation) string {
	note := "\n\n### STRICT RE-PROMPT: BANNED SHAPE\nYour previous response used phrasing that belongs to a different role ("
	for i, v := range violations {
		if i > 0 {
			note += ", "
		}
		note += fmt.Sprintf("%q", v.Snippet)
	}
	note += "). Rewrite your response without that phrasing, staying strictly within your own role's output shape.\n"
	return note
}

// recordFailure writes a role_failure/transport_error ledger entry and
// builds the corresponding RoleOutcome for a turn that never produced
// a valid artifact.
func (c *Chain) recordFailure(ctx context.Context, sessionID, role, rawText string, err error) RoleOutcome {
	_ = ctx
	action := "role_failure"
	kind := "validation"
	if k, ok := kernelerr.KindOf(err); ok {
		kind = string(k)
		switch k {
		case kernelerr.KindTransport:
			action = "transport_error"
		case kernelerr.KindConfig:
			action = "config_error"
		}
	}

	if c.Ledger != nil {
		hash := payloadHash(rawText)
		if _, lerr := c.Ledger.Append(sessionID, role, action, hash, c.ConfigHash, nil, nil); lerr != nil && c.Logger != nil {
			observability.WithRole(c.Logger, role).Error("orchestrator: failed to append failure ledger entry", zap.Error(lerr))
		}
	}

	return RoleOutcome{Role: role, Failed: true, FailureKind: kind}
}

// evaluateAndLedger runs TAES scoring, the signal detectors, governance
// coupling, and writes the role_complete ledger entry (mirroring to SQL
// when configured). Detector/scoring failures degrade silently to
// zero-value findings rather than abort an otherwise-successful role
// turn; a non-nil return here means the ledger append itself failed,
// which the caller treats as session-ending since the audit trail can
// no longer be trusted to be complete.
func (c *Chain) evaluateAndLedger(
	ctx context.Context,
	sessionID, role string,
	domain models.Domain,
	text string,
	redundant bool,
	bannedHits []string,
	hasAcceptanceOrFalsification bool,
	extraFiredSignals []string,
) (RoleOutcome, error) {
	outcome := RoleOutcome{Role: role, Redundant: redundant, BannedHits: bannedHits}

	record, firedSignals := c.scoreAndDetect(ctx, role, domain, text, hasAcceptanceOrFalsification)
	outcome.TAES = &record

	if redundant {
		firedSignals["redundancy"] = true
	}
	if len(bannedHits) > 0 {
		firedSignals["role_shape_ban"] = true
	}
	for _, sig := range extraFiredSignals {
		firedSignals[sig] = true
	}

	var govOutcome governance.Outcome
	if c.Governance == nil {
		govOutcome = governance.Unavailable(record.IV, record.IRD)
	} else {
		govOutcome = governance.Apply(c.Governance, record.IV, record.IRD, firedSignals)
	}
	outcome.Governance = &govOutcome

	if c.Ledger == nil {
		return outcome, nil
	}

	hash := payloadHash(text)
	entry, lerr := c.Ledger.Append(sessionID, role, "role_complete", hash, c.ConfigHash, govOutcome.SoftSignals, govOutcome.HardActions)
	if lerr != nil {
		return outcome, fmt.Errorf("orchestrator: ledger append for %s: %w", role, lerr)
	}

	if c.IRDLog != nil {
		if err := c.IRDLog.Append(sessionID, entry.Seq, record); err != nil && c.Logger != nil {
			observability.WithRole(c.Logger, role).Warn("orchestrator: ird log append failed", zap.Error(err))
		}
	}

	if c.Mirror != nil {
		if merr := c.Mirror.Record(ctx, entry); merr != nil && c.Logger != nil {
			observability.WithRole(c.Logger, role).Warn("orchestrator: sql mirror record failed", zap.Error(merr))
		}
	}

	if c.Stream != nil {
		c.Stream.Push(entry)
	}

	return outcome, nil
}

func (c *Chain) scoreAndDetect(ctx context.Context, role string, domain models.Domain, text string, hasAcceptanceOrFalsification bool) (taes.Record, map[string]bool) {
	firedSignals := make(map[string]bool)

	if detect.Sycophancy(text).Fired {
		firedSignals["sycophancy"] = true
	}
	if detect.Contradiction(text).Fired {
		firedSignals["contradiction"] = true
	}
	if detect.Ambiguity(text).Fired {
		firedSignals["ambiguity"] = true
	}
	if detect.Overconfidence(text, hasAcceptanceOrFalsification).Fired {
		firedSignals["overconfidence"] = true
	}
	if detect.Fabrication(text, detect.PlausibleNumericMax()).Fired {
		firedSignals["fabrication"] = true
	}
	if detect.Secrets(text).Fired {
		firedSignals["secrets"] = true
	}
	if domain.Valid() && detect.DomainMisrouting(text, domain).Fired {
		firedSignals["domain_misrouting"] = true
	}

	var record taes.Record
	if c.Evaluator != nil {
		if r, err := c.Evaluator.Evaluate(ctx, role, domain, text); err == nil {
			record = r
		}
	}
	return record, firedSignals
}
