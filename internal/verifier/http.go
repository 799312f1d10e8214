package verifier

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/govkernel/chain/internal/ledgerstream"
)

// Version is stamped at build time via -ldflags; it defaults to "dev"
// so local builds still answer /health sensibly.
var Version = "dev"

// Server exposes the read-only verifier HTTP surface: /health,
// /verify, /reports, /domains. It never needs write access to the
// ledger directory, only to its own ReportsDir.
type Server struct {
	LedgerPath string
	ReportsDir string
	Keys       KeyMaterial
	Domains    []string
	Logger     *zap.Logger

	// Stream is optional: when set, GET /stream upgrades to a websocket
	// that receives each ledger entry as the orchestrator appends it.
	// It carries no trust properties of its own; /verify remains the
	// only authoritative check.
	Stream *ledgerstream.Hub
}

// Handler builds the verifier's http.Handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/verify", s.handleVerify)
	mux.HandleFunc("/reports", s.handleReports)
	mux.HandleFunc("/domains", s.handleDomains)
	if s.Stream != nil {
		mux.HandleFunc("/stream", s.Stream.ServeHTTP)
	}
	return mux
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"ledger_path":  s.LedgerPath,
		"reports_path": s.ReportsDir,
		"version":      Version,
	})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	report, err := Verify(s.LedgerPath, s.Keys)
	if err != nil {
		s.logError("verify", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	if err := s.writeReport(report); err != nil {
		s.logError("write report", err)
	}

	writeJSON(w, http.StatusOK, report)
	_ = r
}

func (s *Server) writeReport(report Report) error {
	if err := os.MkdirAll(s.ReportsDir, 0o755); err != nil {
		return fmt.Errorf("verifier: create reports dir: %w", err)
	}
	name := fmt.Sprintf("verify_%s.json", time.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(s.ReportsDir, name)
	raw, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("verifier: marshal report: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}

// reportSummary is one entry in the /reports listing.
type reportSummary struct {
	Name     string `json:"name"`
	TS       string `json:"ts"`
	Verified bool   `json:"verified"`
}

func (s *Server) handleReports(w http.ResponseWriter, _ *http.Request) {
	entries, err := os.ReadDir(s.ReportsDir)
	if err != nil {
		if os.IsNotExist(err) {
			writeJSON(w, http.StatusOK, []reportSummary{})
			return
		}
		s.logError("list reports", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), "verify_") {
			names = append(names, e.Name())
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	if len(names) > 30 {
		names = names[:30]
	}

	summaries := make([]reportSummary, 0, len(names))
	for _, name := range names {
		summaries = append(summaries, s.summarizeReport(name))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) summarizeReport(name string) reportSummary {
	ts := strings.TrimSuffix(strings.TrimPrefix(name, "verify_"), ".json")
	summary := reportSummary{Name: name, TS: ts}

	raw, err := os.ReadFile(filepath.Join(s.ReportsDir, name))
	if err != nil {
		return summary
	}
	var report Report
	if err := json.Unmarshal(raw, &report); err != nil {
		return summary
	}
	summary.Verified = report.Verified
	return summary
}

func (s *Server) handleDomains(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Domains)
}

func (s *Server) logError(op string, err error) {
	if s.Logger == nil {
		return
	}
	s.Logger.Error("verifier http error", zap.String("op", op), zap.Error(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
