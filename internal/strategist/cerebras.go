package strategist

import (
	"context"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"aether/internal/domain/models"
	"aether/pkg/config"
	applogger "aether/pkg/logger"
)

// unavailablePrefix marks a narrative produced locally because the reasoning
// service call failed. Callers treat such narratives as informational text,
// never as a request failure.
const unavailablePrefix = "Strategic analysis unavailable: "

const systemPrompt = "You are a senior financial strategist at a trading desk. " +
	"A local statistical engine has flagged a market anomaly and you must brief the desk. " +
	"Respond with exactly three labeled sections: 'Event' (one sentence on what happened), " +
	"'Potential Causes' (two or three plausible drivers), and 'Strategic Action' " +
	"(one concrete, risk-aware recommendation). Be concise."

// Client calls a Cerebras OpenAI-compatible chat-completions endpoint to turn
// an anomaly report into a short strategic narrative.
type Client struct {
	oa     openai.Client
	model  string
	logger *applogger.Logger
}

// New creates a strategist client from configuration.
func New(cfg *config.Config, l *applogger.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.Strategist.APIKey),
		option.WithBaseURL(cfg.Strategist.BaseURL),
	}
	timeout := cfg.Strategist.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	opts = append(opts, option.WithRequestTimeout(timeout))

	return &Client{
		oa:     openai.NewClient(opts...),
		model:  cfg.Strategist.Model,
		logger: l,
	}
}

// Analyze invokes the reasoning service exactly once and returns its
// completion text. Any failure collapses into a recoverable placeholder
// narrative: the anomaly result is still valuable without it.
func (c *Client) Analyze(ctx context.Context, details *models.AnomalyDetails) string {
	start := time.Now()

	completion, err := c.oa.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt(details)),
		},
	})
	if err != nil {
		c.logger.Warn("strategist call failed",
			applogger.String("model", c.model),
			applogger.Error(err),
		)
		return unavailablePrefix + "the reasoning service could not be reached"
	}
	if len(completion.Choices) == 0 {
		c.logger.Warn("strategist returned no choices", applogger.String("model", c.model))
		return unavailablePrefix + "the reasoning service returned an empty response"
	}

	c.logger.Info("strategist narrative received",
		applogger.String("model", c.model),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return completion.Choices[0].Message.Content
}

// userPrompt embeds the report fields verbatim.
func userPrompt(d *models.AnomalyDetails) string {
	return fmt.Sprintf(
		"Our engine flagged the following anomaly.\nSymbol: %s\nType: %s\nDetails: %s\nProvide your briefing.",
		d.Symbol, d.Type, d.Message,
	)
}

// IsUnavailableNarrative reports whether a narrative is a locally produced
// placeholder rather than reasoning-service output.
func IsUnavailableNarrative(s string) bool {
	return len(s) >= len(unavailablePrefix) && s[:len(unavailablePrefix)] == unavailablePrefix
}
