// Package roleshapes enforces the per-role "banned shape" policy: a
// role's raw text must not contain phrase patterns that belong to a
// different role's job (e.g. Producer emitting a delivery schedule,
// Courier emitting a new asset body). It follows the same
// config-with-hardcoded-fallback shape as internal/detect and
// internal/governance: an operator-supplied JSON file overrides the
// built-in defaults, and a missing file is not an error.
package roleshapes

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"
)

// Config maps a role name to the set of banned phrase patterns checked
// against that role's raw output text.
type Config struct {
	Banned map[string][]string `json:"banned"`
}

var defaultBanned = map[string][]string{
	"strategist": {},
	"analyst":    {},
	"producer": {
		`\bschedule(d)?\b`,
		`\bevery (monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`,
		`\bsend (it |this )?(on|at) \d`,
	},
	"courier": {
		`\bcopy block\b`,
		`\bddl\b`,
		`\bwiring diagram\b`,
		`\bnew asset\b`,
	},
	"critic": {},
}

// Violation names the pattern that matched and the snippet it matched
// against, so the caller can build a strict re-prompt reason.
type Violation struct {
	Pattern string
	Snippet string
}

// Check reports every banned pattern for role that fires against text.
// An unconfigured role has no bans and always returns nil.
func Check(cfg *Config, role, text string) []Violation {
	patterns := bannedFor(cfg, role)
	if len(patterns) == 0 {
		return nil
	}

	var out []Violation
	for _, p := range patterns {
		re, err := regexp.Compile(`(?i)` + p)
		if err != nil {
			continue
		}
		if loc := re.FindStringIndex(text); loc != nil {
			out = append(out, Violation{Pattern: p, Snippet: strings.TrimSpace(text[loc[0]:loc[1]])})
		}
	}
	return out
}

func bannedFor(cfg *Config, role string) []string {
	if cfg != nil {
		if patterns, ok := cfg.Banned[role]; ok {
			return patterns
		}
	}
	return defaultBanned[role]
}

// LoadConfig reads a role-shapes JSON file. A missing file is not an
// error: the caller falls back to Check(nil, ...), which uses the
// hardcoded defaults.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
