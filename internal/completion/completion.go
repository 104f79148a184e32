// Package completion talks to the text-completion service that turns
// prompts into plan text.
package completion

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Failure classes returned by every Completer. Backends wrap them with %w
// so callers can match with errors.Is.
var (
	ErrAuth      = errors.New("credential rejected")
	ErrRateLimit = errors.New("rate limit or quota exceeded")
	ErrTransport = errors.New("completion transport failure")
)

// DefaultMaxTokens caps the length of a single response.
const DefaultMaxTokens = 4000

// Credential is the user's API key. It is held in memory only and redacts
// itself when formatted.
type Credential string

func (c Credential) String() string {
	if c == "" {
		return ""
	}
	return "[redacted]"
}

// GoString keeps %#v from leaking the key.
func (c Credential) GoString() string { return c.String() }

// Empty reports whether no key has been entered.
func (c Credential) Empty() bool { return c == "" }

// Completer sends one prompt and returns the raw response text.
type Completer interface {
	Complete(ctx context.Context, prompt string, cred Credential) (string, error)
}

// Func adapts an ordinary function to Completer.
type Func func(ctx context.Context, prompt string, cred Credential) (string, error)

func (f Func) Complete(ctx context.Context, prompt string, cred Credential) (string, error) {
	return f(ctx, prompt, cred)
}

// Options configures a backend.
type Options struct {
	Model     string
	MaxTokens int
	BaseURL   string
	Timeout   time.Duration // 0 leaves the SDK's own behaviour in place
}

func (o Options) maxTokens() int {
	if o.MaxTokens <= 0 {
		return DefaultMaxTokens
	}
	return o.MaxTokens
}

func (o Options) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.Timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, o.Timeout)
}

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// New returns the backend for provider.
func New(provider string, opts Options) (Completer, error) {
	switch provider {
	case "", ProviderOpenAI:
		return NewOpenAI(opts), nil
	case ProviderAnthropic:
		return NewAnthropic(opts), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", provider)
	}
}

// classifyStatus maps an HTTP status from the remote service onto one of
// the failure classes.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuth
	case status == http.StatusTooManyRequests:
		return ErrRateLimit
	default:
		return ErrTransport
	}
}

// Class returns the failure class of err, or nil if err is nil.
func Class(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrAuth):
		return ErrAuth
	case errors.Is(err, ErrRateLimit):
		return ErrRateLimit
	default:
		return ErrTransport
	}
}
