package completion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/fsmiamoto/tasker/internal/logging"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI completes prompts through the OpenAI chat completions API.
type OpenAI struct {
	opts Options
}

// NewOpenAI returns an OpenAI backend. A client is built per call because
// the key is only known when the user acts.
func NewOpenAI(opts Options) *OpenAI {
	if opts.Model == "" {
		opts.Model = DefaultOpenAIModel
	}
	return &OpenAI{opts: opts}
}

func (o *OpenAI) Complete(ctx context.Context, prompt string, cred Credential) (string, error) {
	ctx, cancel := o.opts.withTimeout(ctx)
	defer cancel()

	cfg := openai.DefaultConfig(string(cred))
	if o.opts.BaseURL != "" {
		cfg.BaseURL = o.opts.BaseURL
	}
	client := openai.NewClientWithConfig(cfg)

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.opts.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens: o.opts.maxTokens(),
	})
	if err != nil {
		err = classifyOpenAI(err)
		logging.Error().Err(err).Str("provider", ProviderOpenAI).Msg("completion failed")
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: openai response has no choices", ErrTransport)
	}

	choice := resp.Choices[0]
	if choice.Message.Content == "" {
		return "", fmt.Errorf("%w: openai response has no text", ErrTransport)
	}
	if choice.FinishReason == openai.FinishReasonLength {
		logging.Warn().
			Int("completionTokens", resp.Usage.CompletionTokens).
			Msg("response truncated at max_tokens")
	}
	logging.Debug().
		Str("provider", ProviderOpenAI).
		Str("model", o.opts.Model).
		Int("promptTokens", resp.Usage.PromptTokens).
		Int("completionTokens", resp.Usage.CompletionTokens).
		Dur("latency", time.Since(start)).
		Msg("completion done")

	return choice.Message.Content, nil
}

// classifyOpenAI keeps only the status code of API errors: OpenAI echoes a
// masked key in its "invalid key" messages.
func classifyOpenAI(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: openai status %d", classifyStatus(apiErr.HTTPStatusCode), apiErr.HTTPStatusCode)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("%w: openai status %d", classifyStatus(reqErr.HTTPStatusCode), reqErr.HTTPStatusCode)
	}
	return fmt.Errorf("%w: %v", ErrTransport, err)
}
