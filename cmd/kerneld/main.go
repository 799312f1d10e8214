// Command kerneld runs the governance-kernel daemon: it loads
// configuration, wires every collaborator the orchestrator needs, and
// serves the independent verifier's read-only HTTP surface alongside
// the live ledger-tail stream. It replaces the source's broken
// cmd/main.go, which never got past stubbing out NewSecurityProxyWithGenkit.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/govkernel/chain/internal/config"
	"github.com/govkernel/chain/internal/directive"
	"github.com/govkernel/chain/internal/fingerprint"
	"github.com/govkernel/chain/internal/governance"
	"github.com/govkernel/chain/internal/ledger"
	"github.com/govkernel/chain/internal/ledger/sqlmirror"
	"github.com/govkernel/chain/internal/ledgerstream"
	"github.com/govkernel/chain/internal/llmclient"
	"github.com/govkernel/chain/internal/models"
	"github.com/govkernel/chain/internal/observability"
	"github.com/govkernel/chain/internal/orchestrator"
	"github.com/govkernel/chain/internal/roleshapes"
	"github.com/govkernel/chain/internal/scheduler"
	"github.com/govkernel/chain/internal/storage"
	"github.com/govkernel/chain/internal/taes"
	"github.com/govkernel/chain/internal/verifier"
)

func main() {
	opConfigPath := flag.String("config", "./config/operation.yaml", "path to the operation YAML config")
	verbose := flag.Bool("verbose", false, "enable debug-level logging")
	flag.Parse()

	if err := run(*opConfigPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "kerneld:", err)
		os.Exit(1)
	}
}

func run(opConfigPath string, verbose bool) error {
	logger, err := observability.NewLogger(verbose, true)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	cfg, err := config.Load(opConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	op := cfg.Operation

	for _, dir := range []string{op.LedgerDir, op.ReportsDir, op.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	genkitApp := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.LLM.ApiKey}),
		genkit.WithDefaultModel(cfg.LLM.Model),
	)
	client := llmclient.NewGenkitClient(genkitApp, logger)

	signer, err := buildSigner(op)
	if err != nil {
		return fmt.Errorf("build signer: %w", err)
	}

	led, err := ledger.Open(fmt.Sprintf("%s/ledger.jsonl", op.LedgerDir), signer)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}

	irdLog, err := taes.NewIRDLog(fmt.Sprintf("%s/ird.csv", op.LogsDir))
	if err != nil {
		logger.Warn("ird log unavailable, continuing without it", zap.Error(err))
		irdLog = nil
	}

	mirror, err := sqlmirror.Open(op.SQLiteMirrorPath)
	if err != nil {
		logger.Warn("sqlite mirror unavailable, continuing without it", zap.Error(err))
		mirror = nil
	}

	govCfg, err := governance.LoadConfig(op.GovernanceConfig)
	if err != nil {
		logger.Warn("governance config unavailable, coupling disabled", zap.Error(err))
		govCfg = nil
	}

	shapesCfg, err := roleshapes.LoadConfig(op.RoleShapesConfig)
	if err != nil {
		logger.Warn("role shapes config unavailable, using built-in defaults", zap.Error(err))
		shapesCfg = nil
	}

	configHash, err := fingerprint.Compute(fingerprint.Files{
		GovernanceConfigPath: op.GovernanceConfig,
		RoleShapesPath:       op.RoleShapesConfig,
		DomainWeightsPath:    op.DomainWeightsFile,
		DirectivePaths:       directive.Files(op.DirectivesDir),
	})
	if err != nil {
		return fmt.Errorf("compute config fingerprint: %w", err)
	}

	stream := ledgerstream.NewHub(logger)
	go stream.Run()

	chain := &orchestrator.Chain{
		Composer:    directive.NewComposer(op.DirectivesDir),
		Client:      client,
		ModelFast:   cfg.LLM.LLMModelFast,
		ModelSmart:  cfg.LLM.LLMModelSmart,
		Evaluator:   taes.NewEvaluator(taes.HeuristicGrader{}),
		Governance:  govCfg,
		RoleShapes:  shapesCfg,
		Ledger:      led,
		Mirror:      mirror,
		IRDLog:      irdLog,
		Stream:      stream,
		ConfigHash:  configHash,
		SessionsDir: fmt.Sprintf("%s/sessions", op.LedgerDir),
		Logger:      logger,
	}

	pool := scheduler.New(scheduler.DefaultOptions())
	sessions := storage.NewSessionStore()

	keys, err := verifier.LoadStaticKeys(op.SigningKeyPath+".pub", "")
	if err != nil {
		logger.Warn("static verifier keys unavailable", zap.Error(err))
	}
	if secret := hmacFallbackSecret(op); len(secret) > 0 {
		keys.HMACSecret = secret
	}

	srv := &verifier.Server{
		LedgerPath: fmt.Sprintf("%s/ledger.jsonl", op.LedgerDir),
		ReportsDir: op.ReportsDir,
		Keys:       keys,
		Domains:    domainStrings(),
		Logger:     logger,
		Stream:     stream,
	}

	httpServer := &http.Server{Addr: op.HTTPAddr, Handler: withRunChain(srv.Handler(), chain, pool, sessions, logger)}

	go func() {
		logger.Info("kerneld: listening", zap.String("addr", op.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	logger.Info("kerneld: shutting down")
	cancel()
	pool.Stop()
	_ = httpServer.Close()
	if mirror != nil {
		_ = mirror.Close()
	}
	if irdLog != nil {
		_ = irdLog.Close()
	}
	return nil
}

func buildSigner(op config.OperationConfig) (ledger.Signer, error) {
	if signer, err := ledger.NewEd25519Signer(op.SigningKeyPath); err == nil {
		return signer, nil
	}
	secret := hmacFallbackSecret(op)
	if len(secret) == 0 {
		return nil, fmt.Errorf("no ed25519 key at %s and no hmac fallback secret configured", op.SigningKeyPath)
	}
	return ledger.NewHMACSigner(secret), nil
}

// hmacFallbackSecret resolves the HMAC signing secret named (as an
// environment variable) by OperationConfig.HMACFallbackSecret. It is
// the fallback path when no Ed25519 key file is provisioned.
func hmacFallbackSecret(op config.OperationConfig) []byte {
	if op.HMACFallbackSecret == "" {
		return nil
	}
	if v := os.Getenv(op.HMACFallbackSecret); v != "" {
		return []byte(v)
	}
	return nil
}

func domainStrings() []string {
	out := make([]string, 0, len(models.Domains))
	for _, d := range models.Domains {
		out = append(out, string(d))
	}
	return out
}

// withRunChain mounts POST /run alongside the verifier's read-only
// surface: the one write endpoint that actually drives the chain.
func withRunChain(base http.Handler, chain *orchestrator.Chain, pool *scheduler.Pool, sessions *storage.SessionStore, logger *zap.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", base)
	mux.HandleFunc("/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		var objective models.ObjectiveSpec
		if err := json.NewDecoder(r.Body).Decode(&objective); err != nil {
			http.Error(w, "decode objective: "+err.Error(), http.StatusBadRequest)
			return
		}
		if objective.SessionID == "" {
			objective.SessionID = uuid.NewString()
		}

		pool.Submit(objective.SessionID, func(ctx context.Context) error {
			result, err := chain.Run(ctx, objective)
			sessions.Store(result.SessionID, result)
			if err != nil {
				logger.Error("chain run failed", zap.String("session_id", result.SessionID), zap.Error(err))
			}
			return err
		})

		writeJSON(w, http.StatusAccepted, map[string]string{"session_id": objective.SessionID, "status": "queued"})
	})
	mux.HandleFunc("/sessions/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/sessions/"):]
		if result, ok := sessions.Get(id); ok {
			writeJSON(w, http.StatusOK, result)
			return
		}
		if handle, ok := pool.Status(id); ok {
			writeJSON(w, http.StatusOK, handle)
			return
		}
		http.Error(w, "session not found", http.StatusNotFound)
	})
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
