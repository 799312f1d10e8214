// Command verify is the operator-facing CLI: it can drive a single
// chain session to completion (run) or independently recheck a
// ledger's hash chain and signatures (check), each exiting with the
// code spec'd for scripted/CI use: 0 success, 2 config error, 3 role
// failure, 4 verifier integrity failure.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/govkernel/chain/internal/config"
	"github.com/govkernel/chain/internal/directive"
	"github.com/govkernel/chain/internal/fingerprint"
	"github.com/govkernel/chain/internal/governance"
	"github.com/govkernel/chain/internal/ledger"
	"github.com/govkernel/chain/internal/llmclient"
	"github.com/govkernel/chain/internal/models"
	"github.com/govkernel/chain/internal/observability"
	"github.com/govkernel/chain/internal/orchestrator"
	"github.com/govkernel/chain/internal/roleshapes"
	"github.com/govkernel/chain/internal/taes"
	"github.com/govkernel/chain/internal/verifier"
)

const (
	exitSuccess         = 0
	exitConfigError     = 2
	exitRoleFailure     = 3
	exitIntegrityFailed = 4
)

func main() {
	root := &cobra.Command{
		Use:   "verify",
		Short: "Drive and independently audit governance-kernel chain sessions",
	}
	root.AddCommand(newRunCmd(), newCheckCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "verify:", err)
		os.Exit(exitConfigError)
	}
}

func newRunCmd() *cobra.Command {
	var (
		opConfigPath string
		objective    string
		domain       string
		sessionID    string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one chain session to completion against the objective text",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := observability.NewLogger(false, true)
			if err != nil {
				os.Exit(exitConfigError)
			}
			defer logger.Sync()

			cfg, err := config.Load(opConfigPath)
			if err != nil {
				fmt.Fprintln(os.Stderr, "config error:", err)
				os.Exit(exitConfigError)
			}

			chain, err := buildChain(cfg, logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, "config error:", err)
				os.Exit(exitConfigError)
			}

			result, err := chain.Run(context.Background(), models.ObjectiveSpec{
				Text:      objective,
				Domain:    models.Domain(domain),
				SessionID: sessionID,
			})

			raw, _ := json.MarshalIndent(result, "", "  ")
			fmt.Println(string(raw))

			if err != nil || len(result.Errors) > 0 {
				os.Exit(exitRoleFailure)
			}
			os.Exit(exitSuccess)
			return nil
		},
	}

	cmd.Flags().StringVar(&opConfigPath, "config", "./config/operation.yaml", "path to the operation YAML config")
	cmd.Flags().StringVar(&objective, "objective", "", "objective text to drive the chain with")
	cmd.Flags().StringVar(&domain, "domain", "", "objective domain, one of the closed domain set")
	cmd.Flags().StringVar(&sessionID, "session-id", "", "session id; generated if omitted")
	_ = cmd.MarkFlagRequired("objective")

	return cmd
}

func newCheckCmd() *cobra.Command {
	var (
		ledgerPath string
		pubKeyPath string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Independently recheck a ledger's hash chain and signatures",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := verifier.LoadStaticKeys(pubKeyPath, "")
			if err != nil {
				fmt.Fprintln(os.Stderr, "config error:", err)
				os.Exit(exitConfigError)
			}

			report, err := verifier.Verify(ledgerPath, keys)
			if err != nil {
				fmt.Fprintln(os.Stderr, "config error:", err)
				os.Exit(exitConfigError)
			}

			raw, _ := json.MarshalIndent(report, "", "  ")
			fmt.Println(string(raw))

			if !report.Verified {
				os.Exit(exitIntegrityFailed)
			}
			os.Exit(exitSuccess)
			return nil
		},
	}

	cmd.Flags().StringVar(&ledgerPath, "ledger", "./data/ledger/ledger.jsonl", "path to the ledger JSONL file")
	cmd.Flags().StringVar(&pubKeyPath, "public-key", "./config/ledger_signing.key.pub", "path to the ledger's published Ed25519 public key")

	return cmd
}

// buildChain assembles a Chain for a single foreground run: no HTTP
// surface, no session pool, just the collaborators run_chain needs.
func buildChain(cfg *config.Config, logger *zap.Logger) (*orchestrator.Chain, error) {
	op := cfg.Operation

	for _, dir := range []string{op.LedgerDir, op.ReportsDir, op.LogsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir %s: %w", dir, err)
		}
	}

	ctx := context.Background()
	genkitApp := genkit.Init(ctx,
		genkit.WithPlugins(&googlegenai.GoogleAI{APIKey: cfg.LLM.ApiKey}),
		genkit.WithDefaultModel(cfg.LLM.Model),
	)
	client := llmclient.NewGenkitClient(genkitApp, logger)

	signer, err := buildSigner(op)
	if err != nil {
		return nil, err
	}

	led, err := ledger.Open(fmt.Sprintf("%s/ledger.jsonl", op.LedgerDir), signer)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	govCfg, _ := governance.LoadConfig(op.GovernanceConfig)
	shapesCfg, _ := roleshapes.LoadConfig(op.RoleShapesConfig)

	configHash, err := fingerprint.Compute(fingerprint.Files{
		GovernanceConfigPath: op.GovernanceConfig,
		RoleShapesPath:       op.RoleShapesConfig,
		DomainWeightsPath:    op.DomainWeightsFile,
		DirectivePaths:       directive.Files(op.DirectivesDir),
	})
	if err != nil {
		return nil, fmt.Errorf("compute config fingerprint: %w", err)
	}

	return &orchestrator.Chain{
		Composer:    directive.NewComposer(op.DirectivesDir),
		Client:      client,
		ModelFast:   cfg.LLM.LLMModelFast,
		ModelSmart:  cfg.LLM.LLMModelSmart,
		Evaluator:   taes.NewEvaluator(taes.HeuristicGrader{}),
		Governance:  govCfg,
		RoleShapes:  shapesCfg,
		Ledger:      led,
		ConfigHash:  configHash,
		SessionsDir: fmt.Sprintf("%s/sessions", op.LedgerDir),
		Logger:      logger,
	}, nil
}

func buildSigner(op config.OperationConfig) (ledger.Signer, error) {
	if signer, err := ledger.NewEd25519Signer(op.SigningKeyPath); err == nil {
		return signer, nil
	}
	if op.HMACFallbackSecret != "" {
		if v := os.Getenv(op.HMACFallbackSecret); v != "" {
			return ledger.NewHMACSigner([]byte(v)), nil
		}
	}
	return nil, fmt.Errorf("no ed25519 key at %s and no hmac fallback secret configured", op.SigningKeyPath)
}
