package models

import (
	"fmt"
	"sort"
	"sync"

	"github.com/govkernel/chain/internal/limits"
)

// Registry is the session-scoped, exclusively-owned-by-the-orchestrator
// store of artifacts. It is the typed replacement for the source's
// dynamic per-kind dictionaries: each kind lives in its own slice, and
// ids are indexed for O(1) reference resolution.
type Registry struct {
	mu sync.RWMutex

	strategies  []Strategy
	analyses    []Analysis
	productions []Production
	couriers    []Courier
	critiques   []Critique

	// producerAssets is the explicit set of P ids Producer emitted this
	// session. Courier validation checks against this set rather than
	// against registry.productions directly, per the data model's
	// requirement that Courier cross-refs be enforced explicitly.
	producerAssets map[string]bool

	limiter *limits.RegistryLimiter
}

// NewRegistry creates an empty registry with default limits.
func NewRegistry() *Registry {
	return NewRegistryWithLimits(nil)
}

// NewRegistryWithLimits creates an empty registry with custom limits.
func NewRegistryWithLimits(l *limits.RegistryLimits) *Registry {
	return &Registry{
		producerAssets: make(map[string]bool),
		limiter:        limits.NewRegistryLimiter(l),
	}
}

// AddStrategies appends newly validated Strategy artifacts.
func (r *Registry) AddStrategies(items []Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.strategies)+len(items) > r.limiter.GetLimits().MaxStrategies {
		return fmt.Errorf("registry: strategy limit exceeded (%d)", r.limiter.GetLimits().MaxStrategies)
	}
	r.strategies = append(r.strategies, items...)
	return nil
}

// AddAnalyses appends newly validated Analysis artifacts.
func (r *Registry) AddAnalyses(items []Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.analyses)+len(items) > r.limiter.GetLimits().MaxAnalyses {
		return fmt.Errorf("registry: analysis limit exceeded (%d)", r.limiter.GetLimits().MaxAnalyses)
	}
	r.analyses = append(r.analyses, items...)
	return nil
}

// AddProductions appends newly validated Production artifacts and
// records their ids as the session's producer asset set.
func (r *Registry) AddProductions(items []Production) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.productions)+len(items) > r.limiter.GetLimits().MaxProductions {
		return fmt.Errorf("registry: production limit exceeded (%d)", r.limiter.GetLimits().MaxProductions)
	}
	r.productions = append(r.productions, items...)
	for _, p := range items {
		r.producerAssets[p.ID] = true
	}
	return nil
}

// AddCouriers appends newly validated Courier rows.
func (r *Registry) AddCouriers(items []Courier) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.couriers)+len(items) > r.limiter.GetLimits().MaxCouriers {
		return fmt.Errorf("registry: courier limit exceeded (%d)", r.limiter.GetLimits().MaxCouriers)
	}
	r.couriers = append(r.couriers, items...)
	return nil
}

// AddCritiques appends newly validated Critique findings.
func (r *Registry) AddCritiques(items []Critique) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.critiques)+len(items) > r.limiter.GetLimits().MaxCritiques {
		return fmt.Errorf("registry: critique limit exceeded (%d)", r.limiter.GetLimits().MaxCritiques)
	}
	r.critiques = append(r.critiques, items...)
	return nil
}

// Strategies returns a copy of the strategy slice.
func (r *Registry) Strategies() []Strategy {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Strategy, len(r.strategies))
	copy(out, r.strategies)
	return out
}

// Analyses returns a copy of the analysis slice.
func (r *Registry) Analyses() []Analysis {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Analysis, len(r.analyses))
	copy(out, r.analyses)
	return out
}

// Productions returns a copy of the production slice.
func (r *Registry) Productions() []Production {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Production, len(r.productions))
	copy(out, r.productions)
	return out
}

// Couriers returns a copy of the courier slice.
func (r *Registry) Couriers() []Courier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Courier, len(r.couriers))
	copy(out, r.couriers)
	return out
}

// Critiques returns a copy of the critique slice.
func (r *Registry) Critiques() []Critique {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Critique, len(r.critiques))
	copy(out, r.critiques)
	return out
}

// StrategyIDs returns the set of known S ids.
func (r *Registry) StrategyIDs() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make(map[string]bool, len(r.strategies))
	for _, s := range r.strategies {
		ids[s.ID] = true
	}
	return ids
}

// AnalysisIDs returns the set of known A ids.
func (r *Registry) AnalysisIDs() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make(map[string]bool, len(r.analyses))
	for _, a := range r.analyses {
		ids[a.ID] = true
	}
	return ids
}

// ProducerAssetIDs returns the explicit set of P ids Producer emitted
// this session, the only ids Courier rows may legally reference.
func (r *Registry) ProducerAssetIDs() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]bool, len(r.producerAssets))
	for k := range r.producerAssets {
		out[k] = true
	}
	return out
}

// AllIDsByKind returns every known id, grouped by kind, for Critic
// cross-reference validation. Courier rows are represented as a
// synthetic "C-<n>" id for positional addressing only; that id never
// appears on the wire.
func (r *Registry) AllIDsByKind() map[ArtifactKind]map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := map[ArtifactKind]map[string]bool{
		KindStrategy:   {},
		KindAnalysis:   {},
		KindProduction: {},
		KindCourier:    {},
		KindCritic:     {},
	}
	for _, s := range r.strategies {
		out[KindStrategy][s.ID] = true
	}
	for _, a := range r.analyses {
		out[KindAnalysis][a.ID] = true
	}
	for _, p := range r.productions {
		out[KindProduction][p.ID] = true
	}
	for i := range r.couriers {
		out[KindCourier][fmt.Sprintf("C-%d", i)] = true
	}
	for _, x := range r.critiques {
		out[KindCritic][x.XID] = true
	}
	return out
}

// Snapshot is an immutable, JSON-friendly view of the full registry,
// used for the opaque session artifacts file and the Critic's input.
type Snapshot struct {
	Strategies  []Strategy  `json:"strategies"`
	Analyses    []Analysis  `json:"analyses"`
	Productions []Production `json:"productions"`
	Couriers    []Courier   `json:"couriers"`
	Critiques   []Critique  `json:"critiques"`
}

// Snapshot returns a deep, consistent copy of the registry contents.
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap := Snapshot{
		Strategies:  make([]Strategy, len(r.strategies)),
		Analyses:    make([]Analysis, len(r.analyses)),
		Productions: make([]Production, len(r.productions)),
		Couriers:    make([]Courier, len(r.couriers)),
		Critiques:   make([]Critique, len(r.critiques)),
	}
	copy(snap.Strategies, r.strategies)
	copy(snap.Analyses, r.analyses)
	copy(snap.Productions, r.productions)
	copy(snap.Couriers, r.couriers)
	copy(snap.Critiques, r.critiques)
	return snap
}

// Stats reports simple counts, used for logging and health endpoints.
func (r *Registry) Stats() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return map[string]int{
		"strategies":  len(r.strategies),
		"analyses":    len(r.analyses),
		"productions": len(r.productions),
		"couriers":    len(r.couriers),
		"critiques":   len(r.critiques),
	}
}

// sortedKeys is a small helper used by validators that need
// deterministic error messages listing offending ids.
func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
