package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nguyenvanduocit/indictrans/pkg/backend"
	"github.com/nguyenvanduocit/indictrans/pkg/model"
)

const (
	DefaultMaxLength      = 256
	DefaultNumBeams       = 4
	DefaultMaxInputTokens = 512

	notLoadedMessage = "Model not loaded. Call load_model() first."
)

// Request is one translation call. Zero MaxLength or NumBeams use the service defaults.
type Request struct {
	Text       string
	SourceLang string
	TargetLang string
	MaxLength  int
	NumBeams   int
}

// Generator is the loaded model. *model.Session implements it.
type Generator interface {
	Ready() bool
	Generate(ctx context.Context, input string, opts backend.GenerateOptions) (string, error)
}

// Recorder stores finished translations.
type Recorder interface {
	Record(ctx context.Context, req Request, res Result) error
}

type Options struct {
	MaxWords       int
	MaxLength      int
	NumBeams       int
	MaxInputTokens int
}

type Deps struct {
	Model    Generator
	Recorder Recorder
	Logger   *slog.Logger
}

type Service struct {
	model    Generator
	recorder Recorder
	logger   *slog.Logger
	opts     Options
}

func New(deps Deps, opts Options) *Service {
	if opts.MaxWords <= 0 {
		opts.MaxWords = DefaultMaxWords
	}
	if opts.MaxLength <= 0 {
		opts.MaxLength = DefaultMaxLength
	}
	if opts.NumBeams <= 0 {
		opts.NumBeams = DefaultNumBeams
	}
	if opts.MaxInputTokens <= 0 {
		opts.MaxInputTokens = DefaultMaxInputTokens
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		model:    deps.Model,
		recorder: deps.Recorder,
		logger:   logger.With("component", "translation"),
		opts:     opts,
	}
}

// Translate never returns an error: every failure is folded into the Result.
func (s *Service) Translate(ctx context.Context, req Request) Result {
	res := s.translate(ctx, req)
	s.record(ctx, req, res)
	return res
}

func (s *Service) translate(ctx context.Context, req Request) Result {
	start := time.Now()

	if err := Validate(req.Text, req.SourceLang, req.TargetLang, s.opts.MaxWords); err != nil {
		return Failed(err.Error(), time.Since(start))
	}

	if s.model == nil || !s.model.Ready() {
		return Failed(notLoadedMessage, time.Since(start))
	}

	maxLength := req.MaxLength
	if maxLength <= 0 {
		maxLength = s.opts.MaxLength
	}
	numBeams := req.NumBeams
	if numBeams <= 0 {
		numBeams = s.opts.NumBeams
	}

	input := fmt.Sprintf("%s: %s", req.SourceLang, req.Text)
	translated, err := s.generate(ctx, input, backend.GenerateOptions{
		SourceLang:     req.SourceLang,
		TargetLang:     req.TargetLang,
		MaxLength:      maxLength,
		NumBeams:       numBeams,
		MaxInputTokens: s.opts.MaxInputTokens,
		EarlyStopping:  true,
	})
	if err != nil {
		if errors.Is(err, model.ErrNotLoaded) {
			return Failed(notLoadedMessage, time.Since(start))
		}
		s.logger.Error("Translation error", "source", req.SourceLang, "target", req.TargetLang, "error", err)
		return Failed(err.Error(), time.Since(start))
	}

	elapsed := time.Since(start)
	wordCount := CountWords(req.Text)
	s.logger.Info(fmt.Sprintf("Translation completed: %s -> %s (%d words, %dms)",
		req.SourceLang, req.TargetLang, wordCount, elapsed.Milliseconds()))

	return Succeeded(translated, req.SourceLang, req.TargetLang, elapsed, wordCount)
}

func (s *Service) generate(ctx context.Context, input string, opts backend.GenerateOptions) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("backend panic: %v", r)
		}
	}()
	return s.model.Generate(ctx, input, opts)
}

func (s *Service) record(ctx context.Context, req Request, res Result) {
	if s.recorder == nil {
		return
	}
	if err := s.recorder.Record(ctx, req, res); err != nil {
		s.logger.Warn("failed to record translation", "error", err)
	}
}

// BatchTranslate translates texts one after another with default limits.
// Results line up with texts; a failed text does not stop the batch.
func (s *Service) BatchTranslate(ctx context.Context, texts []string, sourceLang, targetLang string) []Result {
	results := make([]Result, 0, len(texts))
	for _, text := range texts {
		results = append(results, s.Translate(ctx, Request{
			Text:       text,
			SourceLang: sourceLang,
			TargetLang: targetLang,
		}))
	}
	return results
}
