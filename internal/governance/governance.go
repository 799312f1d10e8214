// Package governance converts TAES scores and detector signals into
// enforcement actions: a directive can be declared hard (it clamps IV
// down and floors IRD up) or soft (it only appends an audit tag). The
// mapping is config-driven so operators can retune enforcement without
// a redeploy, following the same YAML-with-hardcoded-fallback shape
// internal/detect uses — except governance fails closed to soft-only
// rather than falling back to a baked-in policy, since silently
// enforcing a hard gate the operator never configured would be worse
// than not enforcing one at all.
package governance

import (
	"encoding/json"
	"fmt"
	"os"
)

// Classification is whether a directive enforces (hard) or merely
// tags (soft).
type Classification string

const (
	ClassificationHard Classification = "hard"
	ClassificationSoft Classification = "soft"
)

// DirectivePolicy is one directive's enforcement policy: its id, its
// classification, and — for hard directives — the cap/floor it
// applies when triggered.
type DirectivePolicy struct {
	ID             string         `json:"id"`
	Classification Classification `json:"classification"`
	IVMax          *float64       `json:"iv_max,omitempty"`
	IRDMin         *float64       `json:"ird_min,omitempty"`
	// TriggerSignals names the detector signal names (see
	// internal/detect) that activate this directive. A directive with
	// no configured triggers never fires.
	TriggerSignals []string `json:"trigger_signals"`
}

// Config is the full directive-to-policy map loaded from the
// governance coupling JSON file.
type Config struct {
	Directives []DirectivePolicy `json:"directives"`
}

// CouplingUnavailableTag is appended to soft_signals whenever the
// coupling config could not be loaded, per the spec's fail-closed
// rule.
const CouplingUnavailableTag = "COUPLING_UNAVAILABLE"

// LoadConfig reads the governance coupling JSON at path. Callers that
// get an error here must fail closed to soft-only enforcement rather
// than treat it as fatal — see Unavailable.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("governance: read coupling config: %w", err)
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("governance: parse coupling config: %w", err)
	}
	return &cfg, nil
}

// Outcome is what Apply decided for one role turn: the (possibly
// clamped) IV and IRD, which directives fired hard, and which fired
// soft.
type Outcome struct {
	IV           float64
	IRD          float64
	HardActions  []string
	SoftSignals  []string
	ConfigError  bool
}

// Apply evaluates every directive in cfg against the fired signal set
// and returns the resulting Outcome. Precedence: when multiple hard
// directives trigger, the strictest cap (lowest iv_max) and strictest
// floor (highest ird_min) across all of them win.
func Apply(cfg *Config, iv, ird float64, firedSignals map[string]bool) Outcome {
	if cfg == nil {
		return Unavailable(iv, ird)
	}

	out := Outcome{IV: iv, IRD: ird}
	haveCap, haveFloor := false, false
	var cap_, floor float64

	for _, d := range cfg.Directives {
		if !directiveTriggered(d, firedSignals) {
			continue
		}

		switch d.Classification {
		case ClassificationHard:
			out.HardActions = append(out.HardActions, d.ID)
			if d.IVMax != nil {
				if !haveCap || *d.IVMax < cap_ {
					cap_ = *d.IVMax
					haveCap = true
				}
			}
			if d.IRDMin != nil {
				if !haveFloor || *d.IRDMin > floor {
					floor = *d.IRDMin
					haveFloor = true
				}
			}
		case ClassificationSoft:
			out.SoftSignals = append(out.SoftSignals, d.ID)
		}
	}

	if haveCap && out.IV > cap_ {
		out.IV = cap_
	}
	if haveFloor && out.IRD < floor {
		out.IRD = floor
	}

	return out
}

func directiveTriggered(d DirectivePolicy, firedSignals map[string]bool) bool {
	for _, signal := range d.TriggerSignals {
		if firedSignals[signal] {
			return true
		}
	}
	return false
}

// Unavailable builds the fail-closed Outcome used whenever the
// coupling config could not be loaded: no hard actions are ever
// applied, IV/IRD pass through unchanged, and a COUPLING_UNAVAILABLE
// soft tag is recorded so the ledger entry and operator dashboards
// both surface the degraded state.
func Unavailable(iv, ird float64) Outcome {
	return Outcome{
		IV:          iv,
		IRD:         ird,
		SoftSignals: []string{CouplingUnavailableTag},
		ConfigError: true,
	}
}
