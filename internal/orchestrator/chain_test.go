package orchestrator

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govkernel/chain/internal/directive"
	"github.com/govkernel/chain/internal/ledger"
	"github.com/govkernel/chain/internal/llmclient"
	"github.com/govkernel/chain/internal/models"
	"github.com/govkernel/chain/internal/taes"
)

const minimalDirective = "## Role\n\nDo the role's job. Respond with {\"items\": [...]}.\n"

func writeDirectives(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, role := range []string{
		directive.RoleStrategist, directive.RoleAnalyst, directive.RoleProducer,
		directive.RoleCourier, directive.RoleCritic,
	} {
		path := filepath.Join(dir, role+".md")
		require.NoError(t, os.WriteFile(path, []byte(minimalDirective), 0o644))
	}
	return dir
}

func newTestChain(t *testing.T, client llmclient.Client) *Chain {
	t.Helper()
	dir := writeDirectives(t)

	ledgerPath := filepath.Join(t.TempDir(), "ledger.jsonl")
	led, err := ledger.Open(ledgerPath, ledger.NewHMACSigner([]byte("test-secret")))
	require.NoError(t, err)

	return &Chain{
		Composer:    directive.NewComposer(dir),
		Client:      client,
		ModelFast:   "fast-model",
		ModelSmart:  "smart-model",
		Evaluator:   taes.NewEvaluator(taes.HeuristicGrader{}),
		Ledger:      led,
		ConfigHash:  "test-config-hash",
		SessionsDir: t.TempDir(),
	}
}

func strategyJSON(id string) string {
	return `{"items":[{"s_id":"` + id + `","title":"Book 5 local jobs","audience":"homeowners within 10 miles",` +
		`"hooks":["storm cleanup special"],"three_step_plan":["post on nextdoor","run faq","follow up"],` +
		`"acceptance_tests":["5 booked jobs within 7 days"]}]}`
}

func analysisJSON(id, sRef string) string {
	return `{"items":[{"a_id":"` + id + `","s_refs":["` + sRef + `"],` +
		`"kpi_table":[{"metric":"booked_jobs","target":"5","unit":"count"}],` +
		`"falsifications":["fewer than 5 booked jobs after 7 days falsifies the plan"]}]}`
}

func productionJSON(id, aRef, body string) string {
	return `{"items":[{"p_id":"` + id + `","a_refs":["` + aRef + `"],"spec_type":"copy_block","body":"` + body + `"}]}`
}

func courierJSON(pRef string) string {
	return `{"items":[{"day":"Mon","time":"09:00","channel":"email","p_id":"` + pRef + `",` +
		`"kpi_target":"5 booked jobs","owner_action":"send the campaign"}]}`
}

func critiqueJSON(id string, refs []string) string {
	refsJSON, _ := json.Marshal(refs)
	return `{"items":[{"x_id":"` + id + `","refs":` + string(refsJSON) + `,` +
		`"issue":"timeline is tight","fix":"extend to 10 days",` +
		`"severity":"low","proof_scores":{"logical":0.8,"practical":0.8,"probable":0.8,"coverage":0.8,"confidence":0.8}}]}`
}

func objectiveFor(text string, domain models.Domain) models.ObjectiveSpec {
	return models.ObjectiveSpec{Text: text, Domain: domain}
}

func TestRun_HappyPathProducesAllFiveArtifacts(t *testing.T) {
	client := &llmclient.FakeClient{Responses: []string{
		strategyJSON("S-1"),
		analysisJSON("A-1", "S-1"),
		"Respect the customer's existing CRM tags.",
		productionJSON("P-1", "A-1", "three social posts and a flyer"),
		"P-1 carries the tightest delivery deadline.",
		courierJSON("P-1"),
		critiqueJSON("X-1", []string{"S-1", "A-1", "P-1"}),
	}}
	chain := newTestChain(t, client)

	result, err := chain.Run(context.Background(), objectiveFor("Book 5 local jobs in 7 days for a tree service", models.DomainMarketing))
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	require.Len(t, result.Strategist, 1)
	assert.Equal(t, "S-1", result.Strategist[0].ID)
	require.Len(t, result.Analyst, 1)
	require.Len(t, result.Producer, 1)
	require.Len(t, result.Courier, 1)
	require.Len(t, result.Critic, 1)

	require.Len(t, result.RoleResults, 5)
	for _, r := range result.RoleResults {
		assert.False(t, r.Failed, "role %s should not have failed", r.Role)
		assert.NotNil(t, r.TAES)
		assert.NotNil(t, r.Governance)
	}

	assert.NotEmpty(t, result.SessionID)
	snapshotPath := filepath.Join(chain.SessionsDir, result.SessionID+".json")
	_, statErr := os.Stat(snapshotPath)
	assert.NoError(t, statErr)
}

func TestRun_CourierCrossRefViolationFailsCourierRoleOnly(t *testing.T) {
	badCourier := courierJSON("P-9") // P-9 was never produced
	client := &llmclient.FakeClient{Responses: []string{
		strategyJSON("S-1"),
		analysisJSON("A-1", "S-1"),
		"Respect the customer's existing CRM tags.",
		productionJSON("P-1", "A-1", "three social posts and a flyer"),
		"P-1 carries the tightest delivery deadline.",
		badCourier, // roleexec strict retry attempt 1
		badCourier, // roleexec strict retry attempt 2 (final)
		critiqueJSON("X-1", []string{"S-1", "A-1", "P-1"}),
	}}
	chain := newTestChain(t, client)

	result, err := chain.Run(context.Background(), objectiveFor("Book 5 local jobs in 7 days for a tree service", models.DomainMarketing))
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "courier")
	assert.Empty(t, result.Courier)

	require.Len(t, result.RoleResults, 5)
	courierOutcome := result.RoleResults[3]
	assert.Equal(t, directive.RoleCourier, courierOutcome.Role)
	assert.True(t, courierOutcome.Failed)
	assert.Equal(t, "validation", courierOutcome.FailureKind)

	// Critic still ran despite the upstream Courier failure.
	require.Len(t, result.Critic, 1)
}

func TestRun_ProducerBannedShapeTriggersStrictReprompt(t *testing.T) {
	bannedProduction := productionJSON("P-1", "A-1", "we will schedule this weekly for the client")
	cleanProduction := productionJSON("P-1", "A-1", "three social posts and a flyer")
	client := &llmclient.FakeClient{Responses: []string{
		strategyJSON("S-1"),
		analysisJSON("A-1", "S-1"),
		"Respect the customer's existing CRM tags.",
		bannedProduction,
		cleanProduction,
		"P-1 carries the tightest delivery deadline.",
		courierJSON("P-1"),
		critiqueJSON("X-1", []string{"S-1", "A-1", "P-1"}),
	}}
	chain := newTestChain(t, client)

	result, err := chain.Run(context.Background(), objectiveFor("Book 5 local jobs in 7 days for a tree service", models.DomainMarketing))
	require.NoError(t, err)

	assert.Empty(t, result.Errors)
	require.Len(t, result.Producer, 1)

	producerOutcome := result.RoleResults[2]
	assert.Equal(t, directive.RoleProducer, producerOutcome.Role)
	assert.False(t, producerOutcome.Failed)
	assert.NotEmpty(t, producerOutcome.BannedHits)
}

func TestRun_DefaultsSessionIDWhenObjectiveOmitsOne(t *testing.T) {
	client := &llmclient.FakeClient{Responses: []string{
		strategyJSON("S-1"),
		analysisJSON("A-1", "S-1"),
		"",
		productionJSON("P-1", "A-1", "three social posts and a flyer"),
		"",
		courierJSON("P-1"),
		critiqueJSON("X-1", []string{"S-1", "A-1", "P-1"}),
	}}
	chain := newTestChain(t, client)

	result, err := chain.Run(context.Background(), models.ObjectiveSpec{Text: "grow a newsletter"})
	require.NoError(t, err)
	assert.NotEmpty(t, result.SessionID)
}
