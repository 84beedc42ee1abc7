// Package remote talks to an inference sidecar that hosts the IndicTrans2
// weights and runs tokenisation and beam search.
package remote

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/nguyenvanduocit/indictrans/pkg/backend"
)

const (
	DefaultBaseURL = "http://localhost:5000"
	DefaultTimeout = 120 * time.Second
)

type Config struct {
	BaseURL string
	Timeout time.Duration
}

type Backend struct {
	http *resty.Client
}

func New(cfg Config) *Backend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	c := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json")
	return &Backend{http: c}
}

func (b *Backend) Name() string {
	return "remote"
}

func (b *Backend) Available(ctx context.Context) error {
	r, err := b.http.R().SetContext(ctx).Get("/health")
	if err != nil {
		return fmt.Errorf("inference sidecar not available: %w", err)
	}
	if r.IsError() {
		return fmt.Errorf("inference sidecar health: %s", r.Status())
	}
	return nil
}

type loadRequest struct {
	ModelDir string `json:"model_dir"`
	Device   string `json:"device"`
}

type loadResponse struct {
	ModelID string `json:"model_id"`
	Error   string `json:"error,omitempty"`
}

func (b *Backend) Load(ctx context.Context, opts backend.LoadOptions) (backend.Handle, error) {
	var resp loadResponse
	r, err := b.http.R().SetContext(ctx).
		SetBody(loadRequest{ModelDir: opts.ModelDir, Device: opts.Device}).
		SetResult(&resp).
		SetError(&resp).
		Post("/load")
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	if r.IsError() || resp.Error != "" {
		return nil, fmt.Errorf("load model: %s", errorText(r, resp.Error))
	}

	return &Handle{http: b.http, modelID: resp.ModelID}, nil
}

type Handle struct {
	http    *resty.Client
	modelID string
	closed  atomic.Bool
}

type generateParameters struct {
	SourceLang     string `json:"src_lang"`
	TargetLang     string `json:"tgt_lang"`
	MaxLength      int    `json:"max_length"`
	NumBeams       int    `json:"num_beams"`
	EarlyStopping  bool   `json:"early_stopping"`
	Truncation     bool   `json:"truncation"`
	MaxInputLength int    `json:"max_input_length"`
}

type generateRequest struct {
	ModelID    string             `json:"model_id,omitempty"`
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateResponse struct {
	Tokens []string `json:"tokens"`
	Error  string   `json:"error,omitempty"`
}

func (h *Handle) Generate(ctx context.Context, input string, opts backend.GenerateOptions) (backend.Sequence, error) {
	if h.closed.Load() {
		return backend.Sequence{}, backend.ErrClosed
	}

	body := generateRequest{
		ModelID: h.modelID,
		Inputs:  input,
		Parameters: generateParameters{
			SourceLang:     opts.SourceLang,
			TargetLang:     opts.TargetLang,
			MaxLength:      opts.MaxLength,
			NumBeams:       opts.NumBeams,
			EarlyStopping:  opts.EarlyStopping,
			Truncation:     opts.MaxInputTokens > 0,
			MaxInputLength: opts.MaxInputTokens,
		},
	}

	var resp generateResponse
	r, err := h.http.R().SetContext(ctx).
		SetBody(body).
		SetResult(&resp).
		SetError(&resp).
		Post("/generate")
	if err != nil {
		return backend.Sequence{}, fmt.Errorf("generate: %w", err)
	}
	if r.IsError() || resp.Error != "" {
		return backend.Sequence{}, fmt.Errorf("generate: %s", errorText(r, resp.Error))
	}

	return backend.Sequence{Tokens: resp.Tokens}, nil
}

func (h *Handle) Decode(seq backend.Sequence) string {
	return backend.DecodePieces(seq.Tokens)
}

func (h *Handle) Close() error {
	h.closed.Store(true)
	return nil
}

func errorText(r *resty.Response, msg string) string {
	if msg != "" {
		return msg
	}
	return fmt.Sprintf("%s; body: %s", r.Status(), r.String())
}
