// Package observability builds the kernel's structured logger. The
// setup mirrors the cobra CLI pattern in the codenerd reference repo:
// a zap production config, switched to debug level under -v, built
// once at process start and threaded down to every component.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a zap.Logger writing structured JSON to stdout
// (suitable for ingestion), or a human-readable console encoder when
// human is true.
func NewLogger(verbose, human bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	if human {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// WithSession returns a child logger tagged with the session id, used
// by the orchestrator and ledger so every log line from one chain run
// can be grepped together.
func WithSession(l *zap.Logger, sessionID string) *zap.Logger {
	return l.With(zap.String("session_id", sessionID))
}

// WithRole returns a child logger additionally tagged with the active
// role name.
func WithRole(l *zap.Logger, role string) *zap.Logger {
	return l.With(zap.String("role", role))
}
