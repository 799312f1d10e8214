package models

// ArtifactKind identifies one of the five typed variants a role produces.
type ArtifactKind string

const (
	KindStrategy   ArtifactKind = "S"
	KindAnalysis   ArtifactKind = "A"
	KindProduction ArtifactKind = "P"
	KindCourier    ArtifactKind = "C"
	KindCritic     ArtifactKind = "X"
)

// Artifact is the sum type every S/A/P/C/X payload implements. It
// replaces the source's dynamic, mixed-kind dictionaries with a typed
// variant the registry can index and the validators can switch on.
type Artifact interface {
	Kind() ArtifactKind
}

// IdentifiedArtifact is implemented by the kinds that carry their own
// id (S, A, P, X). Courier rows have no id of their own per the data
// model and are addressed by position instead.
type IdentifiedArtifact interface {
	Artifact
	ArtifactID() string
}

// Strategy is the "S" artifact: a go-to-market or action plan produced
// by the Strategist role.
type Strategy struct {
	ID              string   `json:"s_id" jsonschema:"description=Unique id matching S-<n>"`
	Title           string   `json:"title"`
	Audience        string   `json:"audience"`
	Hooks           []string `json:"hooks" jsonschema:"description=At least one hook/angle"`
	ThreeStepPlan   []string `json:"three_step_plan"`
	AcceptanceTests []string `json:"acceptance_tests" jsonschema:"description=At least one falsifiable acceptance test"`
}

func (Strategy) Kind() ArtifactKind    { return KindStrategy }
func (s Strategy) ArtifactID() string  { return s.ID }

// KPIRow is a single row of an Analysis artifact's KPI table.
type KPIRow struct {
	Metric string `json:"metric"`
	Target string `json:"target"`
	Unit   string `json:"unit"`
}

// Analysis is the "A" artifact: the Analyst's feasibility and KPI read
// on one or more upstream Strategy artifacts.
type Analysis struct {
	ID             string   `json:"a_id" jsonschema:"description=Unique id matching A-<n>"`
	SRefs          []string `json:"s_refs" jsonschema:"description=Subset of existing S ids"`
	KPITable       []KPIRow `json:"kpi_table" jsonschema:"description=At least one row with metric and target"`
	Falsifications []string `json:"falsifications" jsonschema:"description=At least one falsification test"`
	Risks          []string `json:"risks,omitempty"`
}

func (Analysis) Kind() ArtifactKind   { return KindAnalysis }
func (a Analysis) ArtifactID() string { return a.ID }

// SpecType enumerates the allowed Production artifact bodies.
type SpecType string

const (
	SpecAPI        SpecType = "api"
	SpecDDL        SpecType = "ddl"
	SpecConfig     SpecType = "config"
	SpecCopyBlock  SpecType = "copy_block"
	SpecWiring     SpecType = "wiring"
	SpecPromptPack SpecType = "prompt_pack"
)

// ValidSpecTypes is the closed enum Validators check spec_type against.
var ValidSpecTypes = map[SpecType]bool{
	SpecAPI:        true,
	SpecDDL:        true,
	SpecConfig:     true,
	SpecCopyBlock:  true,
	SpecWiring:     true,
	SpecPromptPack: true,
}

// Production is the "P" artifact: a concrete build spec produced by the
// Producer role from one or more upstream Analysis artifacts.
type Production struct {
	ID       string   `json:"p_id" jsonschema:"description=Unique id matching P-<n>"`
	ARefs    []string `json:"a_refs" jsonschema:"description=Subset of existing A ids"`
	SpecType SpecType `json:"spec_type" jsonschema:"description=One of api, ddl, config, copy_block, wiring, prompt_pack"`
	Body     string   `json:"body"`
}

func (Production) Kind() ArtifactKind   { return KindProduction }
func (p Production) ArtifactID() string { return p.ID }

// Courier is the "C" artifact: a single scheduled action row produced
// by the Courier role. Courier rows have no id of their own; they are
// addressed by their position in the registry and by the P id they
// reference.
type Courier struct {
	Day         string `json:"day"`
	Time        string `json:"time"`
	Channel     string `json:"channel"`
	PID         string `json:"p_id" jsonschema:"description=Must reference a Production id the same session produced"`
	KPITarget   string `json:"kpi_target"`
	OwnerAction string `json:"owner_action"`
}

func (Courier) Kind() ArtifactKind { return KindCourier }

// ProofScores is the Critic's five numeric proof dimensions.
type ProofScores struct {
	Logical    float64 `json:"logical"`
	Practical  float64 `json:"practical"`
	Probable   float64 `json:"probable"`
	Coverage   float64 `json:"coverage"`
	Confidence float64 `json:"confidence"`
}

// Severity is the closed enum Critic findings use.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "med"
	SeverityHigh   Severity = "high"
)

var ValidSeverities = map[Severity]bool{
	SeverityLow:    true,
	SeverityMedium: true,
	SeverityHigh:   true,
}

// Critique is the "X" artifact: a Critic finding that cross-references
// artifacts spanning at least three of S/A/P/C.
type Critique struct {
	XID         string      `json:"x_id" jsonschema:"description=Unique id matching X-<n>"`
	Refs        []string    `json:"refs" jsonschema:"description=Ids spanning at least 3 of S,A,P,C"`
	Issue       string      `json:"issue"`
	Fix         string      `json:"fix"`
	Severity    Severity    `json:"severity"`
	ProofScores ProofScores `json:"proof_scores"`
}

func (Critique) Kind() ArtifactKind   { return KindCritic }
func (x Critique) ArtifactID() string { return x.XID }
