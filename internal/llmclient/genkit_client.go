package llmclient

import (
	"context"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"go.uber.org/zap"
)

// GenkitClient routes role calls through a configured genkit.Genkit
// instance, the same genkit.Generate / ai.WithModelName / ai.WithPrompt
// pattern the source's per-role Flow functions used, minus the Flow
// wrapper itself: roleexec owns retry and state, so the client stays a
// single call, not a Flow.
type GenkitClient struct {
	g      *genkit.Genkit
	logger *zap.Logger
}

// NewGenkitClient wraps an initialized genkit app.
func NewGenkitClient(g *genkit.Genkit, logger *zap.Logger) *GenkitClient {
	return &GenkitClient{g: g, logger: logger}
}

// Generate issues one text completion through genkit.Generate.
func (c *GenkitClient) Generate(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("context cancelled before generation: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("llm call starting", zap.String("model", req.Model), zap.Int("prompt_len", len(req.Prompt)))
	}

	resp, err := genkit.Generate(
		ctx,
		c.g,
		ai.WithModelName(req.Model),
		ai.WithPrompt(req.Prompt),
	)
	if err != nil {
		if c.logger != nil {
			c.logger.Warn("llm call failed", zap.Error(err))
		}
		return "", fmt.Errorf("genkit generate failed: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("llm call finished")
	}
	return resp.Text(), nil
}
