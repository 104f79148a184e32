package completion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/fsmiamoto/tasker/internal/logging"
)

// DefaultAnthropicModel is used when no model is configured.
const DefaultAnthropicModel = anthropic.ModelClaudeSonnet4_20250514

// Anthropic completes prompts through the Anthropic Messages API.
type Anthropic struct {
	opts Options
}

func NewAnthropic(opts Options) *Anthropic {
	if opts.Model == "" {
		opts.Model = string(DefaultAnthropicModel)
	}
	return &Anthropic{opts: opts}
}

func (a *Anthropic) Complete(ctx context.Context, prompt string, cred Credential) (string, error) {
	ctx, cancel := a.opts.withTimeout(ctx)
	defer cancel()

	reqOpts := []option.RequestOption{
		option.WithAPIKey(string(cred)),
		option.WithMaxRetries(0),
	}
	if a.opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(a.opts.BaseURL))
	}
	client := anthropic.NewClient(reqOpts...)

	start := time.Now()
	msg, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.opts.Model),
		MaxTokens: int64(a.opts.maxTokens()),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		err = classifyAnthropic(err)
		logging.Error().Err(err).Str("provider", ProviderAnthropic).Msg("completion failed")
		return "", err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	if text.Len() == 0 {
		return "", fmt.Errorf("%w: anthropic response has no text", ErrTransport)
	}

	if msg.StopReason == anthropic.StopReasonMaxTokens {
		logging.Warn().
			Int64("outputTokens", msg.Usage.OutputTokens).
			Msg("response truncated at max_tokens")
	}
	logging.Debug().
		Str("provider", ProviderAnthropic).
		Str("model", a.opts.Model).
		Int64("inputTokens", msg.Usage.InputTokens).
		Int64("outputTokens", msg.Usage.OutputTokens).
		Dur("latency", time.Since(start)).
		Msg("completion done")

	return text.String(), nil
}

func classifyAnthropic(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: anthropic status %d", classifyStatus(apiErr.StatusCode), apiErr.StatusCode)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
