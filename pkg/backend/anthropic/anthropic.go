// Package anthropic serves translations from Claude when no IndicTrans2
// sidecar is deployed.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/liushuangls/go-anthropic/v2"
	"golang.org/x/time/rate"

	"github.com/nguyenvanduocit/indictrans/pkg/backend"
	"github.com/nguyenvanduocit/indictrans/pkg/languages"
)

var ErrMissingAPIKey = errors.New("missing ANTHROPIC_KEY")

type Config struct {
	APIKey            string
	Model             string
	Temperature       float32
	RequestsPerMinute int
}

type Backend struct {
	config Config
	// newClient is replaced in tests.
	newClient func(apiKey string) messagesClient
}

type messagesClient interface {
	CreateMessages(ctx context.Context, req anthropic.MessagesRequest) (anthropic.MessagesResponse, error)
}

func New(cfg Config) *Backend {
	if cfg.Model == "" {
		cfg.Model = anthropic.ModelClaude3Dot5Sonnet20240620
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 50
	}
	return &Backend{
		config: cfg,
		newClient: func(apiKey string) messagesClient {
			return anthropic.NewClient(apiKey)
		},
	}
}

func (b *Backend) Name() string {
	return "anthropic"
}

func (b *Backend) Available(ctx context.Context) error {
	if b.config.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Load ignores the model directory; the weights live behind the API.
func (b *Backend) Load(ctx context.Context, opts backend.LoadOptions) (backend.Handle, error) {
	if err := b.Available(ctx); err != nil {
		return nil, err
	}
	return &Handle{
		client:  b.newClient(b.config.APIKey),
		config:  b.config,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(b.config.RequestsPerMinute)), 1),
	}, nil
}

type Handle struct {
	client  messagesClient
	config  Config
	limiter *rate.Limiter
}

func createTranslationSystem(source, target string) string {
	sourceName, _ := languages.DisplayName(source)
	targetName, _ := languages.DisplayName(target)
	return fmt.Sprintf(`You are a translation engine for Indian languages.
The input starts with a source language tag "%[1]s: " followed by %[2]s text.
Translate the text after the tag into %[3]s.
- Preserve meaning, tone, numbers and named entities
- Use the standard script for %[3]s
Return only the translation, without the tag, explanations or quotes.`, source, sourceName, targetName)
}

func (h *Handle) Generate(ctx context.Context, input string, opts backend.GenerateOptions) (backend.Sequence, error) {
	if err := h.limiter.Wait(ctx); err != nil {
		return backend.Sequence{}, fmt.Errorf("rate limiter: %w", err)
	}

	maxTokens := opts.MaxLength
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	resp, err := h.createMessageWithRetry(ctx, anthropic.MessagesRequest{
		Model:       h.config.Model,
		System:      createTranslationSystem(opts.SourceLang, opts.TargetLang),
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(input)},
		Temperature: &h.config.Temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return backend.Sequence{}, fmt.Errorf("createMessageWithRetry: %w", err)
	}

	if len(resp.Content) == 0 {
		return backend.Sequence{}, errors.New("no translation received")
	}

	return backend.Sequence{Tokens: []string{resp.GetFirstContentText()}}, nil
}

// Decode keeps the model's own line breaks and only drops control tokens.
func (h *Handle) Decode(seq backend.Sequence) string {
	var b strings.Builder
	for _, tok := range seq.Tokens {
		if backend.IsControlToken(tok) {
			continue
		}
		b.WriteString(tok)
	}
	return strings.TrimSpace(b.String())
}

func (h *Handle) Close() error {
	return nil
}

func (h *Handle) createMessageWithRetry(ctx context.Context, req anthropic.MessagesRequest) (*anthropic.MessagesResponse, error) {
	var resp anthropic.MessagesResponse
	var err error

	for retries := 0; retries < 3; retries++ {
		resp, err = h.client.CreateMessages(ctx, req)
		if err == nil {
			return &resp, nil
		}

		var apiErr *anthropic.APIError
		if errors.As(err, &apiErr) && apiErr.IsRateLimitErr() {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(time.Duration(retries+1) * time.Second):
				slog.Warn("retrying after rate limit error", "attempt", retries+1)
				continue
			}
		}

		return nil, err
	}

	return nil, fmt.Errorf("max retries reached: %w", err)
}
