// Package config loads the kernel's two configuration surfaces: secrets
// and provider selection from the environment (.env via godotenv, as
// the source did), and operational settings from a YAML file the
// source's unused yaml struct tags were always meant for.
package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the merged configuration: environment-sourced secrets plus
// the YAML-sourced operational settings.
type Config struct {
	LLM       LLMConfig
	Operation OperationConfig `yaml:"operation"`
}

// LLMConfig holds provider selection and credentials, always sourced
// from the environment so secrets never land in a committed file.
type LLMConfig struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	ApiKey   string `yaml:"apiKey"`

	LLMModelFast  string `yaml:"llmModelFast"`
	LLMModelSmart string `yaml:"llmModelSmart"`

	BaseURL string `yaml:"baseUrl"`
	Format  string `yaml:"format"`
}

// OperationConfig is the non-secret, non-fingerprinted operational
// settings file: where things live on disk, how big the session pool
// is, what the HTTP surface listens on. It is deliberately separate
// from the three governance documents that fingerprint.go hashes,
// which stay JSON per their own canonicalization rule.
type OperationConfig struct {
	LedgerDir          string `yaml:"ledgerDir"`
	ReportsDir         string `yaml:"reportsDir"`
	LogsDir            string `yaml:"logsDir"`
	DirectivesDir      string `yaml:"directivesDir"`
	GovernanceConfig   string `yaml:"governanceConfigPath"`
	RoleShapesConfig   string `yaml:"roleShapesConfigPath"`
	DomainWeightsFile  string `yaml:"domainWeightsPath"`
	HTTPAddr           string `yaml:"httpAddr"`
	SessionPoolSize    int    `yaml:"sessionPoolSize"`
	DefaultDomain      string `yaml:"defaultDomain"`
	SigningKeyPath     string `yaml:"signingKeyPath"`
	HMACFallbackSecret string `yaml:"hmacFallbackSecretEnv"`
	SQLiteMirrorPath   string `yaml:"sqliteMirrorPath"`
}

func defaultOperationConfig() OperationConfig {
	return OperationConfig{
		LedgerDir:         "./data/ledger",
		ReportsDir:        "./data/reports",
		LogsDir:           "./data/logs",
		DirectivesDir:     "./directives",
		GovernanceConfig:  "./config/governance.json",
		RoleShapesConfig:  "./config/role_shapes.json",
		DomainWeightsFile: "./config/domain_weights.json",
		HTTPAddr:          ":8787",
		SessionPoolSize:   4,
		DefaultDomain:     "technical",
		SigningKeyPath:    "./config/ledger_signing.key",
		SQLiteMirrorPath:  "./data/ledger/mirror.db",
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// Load reads .env for secrets/provider selection and opConfigPath for
// operational settings, merging the latter over sane defaults.
func Load(opConfigPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	llmModelFast := os.Getenv("LLM_MODEL_FAST")
	llmModelSmart := os.Getenv("LLM_MODEL_SMART")

	if llmModelFast == "" {
		return nil, errors.New("LLM_MODEL_FAST environment variable is required but not set")
	}
	if llmModelSmart == "" {
		return nil, errors.New("LLM_MODEL_SMART environment variable is required but not set")
	}

	op := defaultOperationConfig()
	if opConfigPath != "" {
		raw, err := os.ReadFile(opConfigPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read operation config %s: %w", opConfigPath, err)
			}
		} else {
			wrapper := struct {
				Operation OperationConfig `yaml:"operation"`
			}{Operation: op}
			if err := yaml.Unmarshal(raw, &wrapper); err != nil {
				return nil, fmt.Errorf("parse operation config %s: %w", opConfigPath, err)
			}
			op = wrapper.Operation
		}
	}

	return &Config{
		LLM: LLMConfig{
			Provider:      getEnvOrDefault("LLM_PROVIDER", "gemini"),
			Model:         os.Getenv("LLM_MODEL"),
			ApiKey:        os.Getenv("API_KEY"),
			LLMModelFast:  llmModelFast,
			LLMModelSmart: llmModelSmart,
			BaseURL:       os.Getenv("LLM_BASE_URL"),
			Format:        getEnvOrDefault("LLM_FORMAT", "openai"),
		},
		Operation: op,
	}, nil
}
