package verifier

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/govkernel/chain/internal/ledger"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	dir := t.TempDir()
	ledgerPath := filepath.Join(dir, "audit.jsonl")
	reportsDir := filepath.Join(dir, "reports")

	signer := ledger.NewHMACSigner([]byte("secret"))
	writeLedgerWithEntries(t, ledgerPath, signer, 1)

	return &Server{
		LedgerPath: ledgerPath,
		ReportsDir: reportsDir,
		Keys:       StaticKeys{HMACSecret: []byte("secret")},
		Domains:    []string{"marketing", "technical"},
	}, reportsDir
}

func TestHandleHealth_ReportsOK(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestHandleVerify_WritesReportAndReturnsIt(t *testing.T) {
	s, reportsDir := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/verify", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var report Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Verified)

	entries, err := readDirNames(reportsDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestHandleReports_EmptyBeforeAnyVerifyRuns(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	var summaries []reportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	assert.Empty(t, summaries)
}

func TestHandleReports_ListsAfterVerify(t *testing.T) {
	s, _ := newTestServer(t)
	s.Handler().ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/verify", nil))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/reports", nil))

	var summaries []reportSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summaries))
	require.Len(t, summaries, 1)
	assert.True(t, summaries[0].Verified)
}

func TestHandleDomains_ReturnsConfiguredSet(t *testing.T) {
	s, _ := newTestServer(t)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/domains", nil))

	var domains []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &domains))
	assert.Equal(t, []string{"marketing", "technical"}, domains)
}

func readDirNames(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names, nil
}
