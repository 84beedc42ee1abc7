// Package api turns translation results and model state into the JSON
// envelopes returned to callers.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nguyenvanduocit/indictrans/pkg/languages"
	"github.com/nguyenvanduocit/indictrans/pkg/translation"
)

const (
	textRequiredMessage  = "Text parameter is required and cannot be empty"
	langsRequiredMessage = "source_lang and target_lang parameters are required"
	initFailedMessage    = "Failed to initialize translation model"
)

// ErrFault marks an unexpected failure while building an envelope.
var ErrFault = errors.New("internal fault")

// Envelope is the uniform response shape. It always carries "success".
type Envelope map[string]any

func (e Envelope) Success() bool {
	ok, _ := e["success"].(bool)
	return ok
}

func failure(msg string) Envelope {
	return Envelope{"success": false, "error": msg}
}

// FaultEnvelope renders an error returned alongside a nil Envelope.
func FaultEnvelope(err error) Envelope {
	msg := err.Error()
	var f *Fault
	if errors.As(err, &f) {
		msg = f.Message
	}
	return failure(msg)
}

type Fault struct {
	Message string
}

func (f *Fault) Error() string { return f.Message }

func (f *Fault) Unwrap() error { return ErrFault }

type TranslateRequest struct {
	Text       string `json:"text"`
	SourceLang string `json:"source_lang"`
	TargetLang string `json:"target_lang"`
	MaxLength  int    `json:"max_length,omitempty"`
	NumBeams   int    `json:"num_beams,omitempty"`
}

// Session is the model lifecycle seen by the handler. *model.Session implements it.
type Session interface {
	Ready() bool
	Load(ctx context.Context) error
	Info() map[string]any
}

type Translator interface {
	Translate(ctx context.Context, req translation.Request) translation.Result
}

type Handler struct {
	session    Session
	translator Translator
	logger     *slog.Logger
}

func NewHandler(session Session, translator Translator, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		session:    session,
		translator: translator,
		logger:     logger.With("component", "api"),
	}
}

// Translate returns a nil Envelope and a *Fault when something panics.
func (h *Handler) Translate(ctx context.Context, req TranslateRequest) (env Envelope, err error) {
	defer h.recoverFault(&env, &err)

	text := strings.TrimSpace(req.Text)
	// codes are case-folded only; padded codes fail validation
	source := strings.ToLower(req.SourceLang)
	target := strings.ToLower(req.TargetLang)

	if text == "" {
		return failure(textRequiredMessage), nil
	}
	if source == "" || target == "" {
		return failure(langsRequiredMessage), nil
	}

	if !h.session.Ready() {
		if err := h.session.Load(ctx); err != nil {
			h.logger.Error("Model initialization failed", "error", err)
			return failure(initFailedMessage), nil
		}
	}

	res := h.translator.Translate(ctx, translation.Request{
		Text:       text,
		SourceLang: source,
		TargetLang: target,
		MaxLength:  req.MaxLength,
		NumBeams:   req.NumBeams,
	})
	return Envelope(res.Fields()), nil
}

func (h *Handler) Languages() (env Envelope, err error) {
	defer h.recoverFault(&env, &err)

	return Envelope{
		"success":   true,
		"languages": languages.All(),
		"count":     languages.Len(),
	}, nil
}

// Status never loads the model.
func (h *Handler) Status() (env Envelope, err error) {
	defer h.recoverFault(&env, &err)

	status := "not_initialized"
	if h.session.Ready() {
		status = "ready"
	}
	return Envelope{
		"success":    true,
		"status":     status,
		"model_info": h.session.Info(),
	}, nil
}

// Warm loads the model ahead of the first request.
func (h *Handler) Warm(ctx context.Context) error {
	start := time.Now()
	if err := h.session.Load(ctx); err != nil {
		return err
	}
	h.logger.Info("Model warm", "duration", time.Since(start).Round(time.Millisecond))
	return nil
}

func (h *Handler) recoverFault(env *Envelope, err *error) {
	if r := recover(); r != nil {
		h.logger.Error("Recovered from panic", "panic", r)
		*env = nil
		*err = &Fault{Message: fmt.Sprint(r)}
	}
}
