// Package limits bounds how many artifacts a single chain session may
// accumulate per kind, guarding the registry against a runaway or
// adversarial role response that emits an unbounded array. Adapted
// from the source's per-host context limiter: the same shape
// (defaults, validated updates, a too-large ceiling check) now guards
// artifact counts per session instead of request/form counts per host.
package limits

import "fmt"

// RegistryLimits caps the number of artifacts a session's registry may
// hold per kind. These are generous ceilings, not typical-case targets:
// a well-behaved run produces a handful of S/A/P entries, seven C rows,
// and a few X findings.
type RegistryLimits struct {
	MaxStrategies  int
	MaxAnalyses    int
	MaxProductions int
	MaxCouriers    int
	MaxCritiques   int
}

// DefaultRegistryLimits returns the limits applied when a session does
// not override them.
func DefaultRegistryLimits() *RegistryLimits {
	return &RegistryLimits{
		MaxStrategies:  20,
		MaxAnalyses:    20,
		MaxProductions: 40,
		MaxCouriers:    60,
		MaxCritiques:   40,
	}
}

// RegistryLimiter validates and reports on a set of RegistryLimits.
type RegistryLimiter struct {
	limits *RegistryLimits
}

// NewRegistryLimiter wraps limits, falling back to the defaults when
// limits is nil.
func NewRegistryLimiter(limits *RegistryLimits) *RegistryLimiter {
	if limits == nil {
		limits = DefaultRegistryLimits()
	}
	return &RegistryLimiter{limits: limits}
}

// GetLimits returns the current limits.
func (l *RegistryLimiter) GetLimits() *RegistryLimits {
	return l.limits
}

// UpdateLimits replaces the limiter's limits after validating them.
func (l *RegistryLimiter) UpdateLimits(limits *RegistryLimits) error {
	if limits.MaxStrategies <= 0 {
		return fmt.Errorf("MaxStrategies must be positive")
	}
	if limits.MaxAnalyses <= 0 {
		return fmt.Errorf("MaxAnalyses must be positive")
	}
	if limits.MaxProductions <= 0 {
		return fmt.Errorf("MaxProductions must be positive")
	}
	if limits.MaxCouriers <= 0 {
		return fmt.Errorf("MaxCouriers must be positive")
	}
	if limits.MaxCritiques <= 0 {
		return fmt.Errorf("MaxCritiques must be positive")
	}
	l.limits = limits
	return nil
}

// ValidateLimits reports whether the current limits are sane, rejecting
// ceilings so large a single malicious role response could exhaust
// memory.
func (l *RegistryLimiter) ValidateLimits() error {
	if l.limits.MaxStrategies > 1000 {
		return fmt.Errorf("MaxStrategies too large (> 1000)")
	}
	if l.limits.MaxAnalyses > 1000 {
		return fmt.Errorf("MaxAnalyses too large (> 1000)")
	}
	if l.limits.MaxProductions > 1000 {
		return fmt.Errorf("MaxProductions too large (> 1000)")
	}
	if l.limits.MaxCouriers > 1000 {
		return fmt.Errorf("MaxCouriers too large (> 1000)")
	}
	if l.limits.MaxCritiques > 1000 {
		return fmt.Errorf("MaxCritiques too large (> 1000)")
	}
	return nil
}
