// Package model owns the lifecycle of the loaded translation model.
package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/nguyenvanduocit/indictrans/pkg/backend"
	"github.com/nguyenvanduocit/indictrans/pkg/languages"
	"github.com/nguyenvanduocit/indictrans/pkg/util"
)

var (
	ErrNotLoaded          = errors.New("model not loaded")
	ErrBackendUnavailable = errors.New("required backend not available")
	ErrModelNotFound      = errors.New("model directory not found")
	ErrMissingArtifact    = errors.New("missing model file")
)

var (
	requiredFiles = []string{"config.json"}
	weightFiles   = []string{"pytorch_model.bin", "model.safetensors"}
)

type State int

const (
	Uninitialized State = iota
	Ready
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Capabilities is resolved once at startup and handed to the session.
type Capabilities struct {
	BackendAvailable bool
	Reason           string
}

func ResolveCapabilities(ctx context.Context, b backend.Backend) Capabilities {
	if err := b.Available(ctx); err != nil {
		return Capabilities{Reason: err.Error()}
	}
	return Capabilities{BackendAvailable: true}
}

type Config struct {
	Dir    string
	Device string
	// ProbeArtifacts checks Dir for config and weight files before loading.
	ProbeArtifacts bool
}

type Session struct {
	backend backend.Backend
	config  Config
	caps    Capabilities
	logger  *slog.Logger

	loadMu sync.Mutex

	mu       sync.RWMutex
	state    State
	handle   backend.Handle
	loadErr  error
	loadTime time.Duration
}

func NewSession(b backend.Backend, cfg Config, caps Capabilities, logger *slog.Logger) *Session {
	if cfg.Device == "" {
		cfg.Device = "cpu"
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		backend: b,
		config:  cfg,
		caps:    caps,
		logger:  logger.With("component", "model"),
	}
}

func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Ready() bool {
	return s.State() == Ready
}

// Load loads the model once. Calls after a successful load are no-ops;
// calls after a failed load try again.
func (s *Session) Load(ctx context.Context) error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	if s.Ready() {
		s.logger.Info("Model already loaded")
		return nil
	}

	if !s.caps.BackendAvailable {
		return s.fail(fmt.Errorf("%w: %s", ErrBackendUnavailable, s.caps.Reason))
	}

	if s.config.ProbeArtifacts {
		if err := probeArtifacts(s.config.Dir); err != nil {
			return s.fail(err)
		}
	}

	start := time.Now()
	s.logger.Info("Loading model", "dir", s.config.Dir, "backend", s.backend.Name(), "device", s.config.Device)

	h, err := s.backend.Load(ctx, backend.LoadOptions{ModelDir: s.config.Dir, Device: s.config.Device})
	if err != nil {
		return s.fail(fmt.Errorf("failed to load model: %w", err))
	}

	elapsed := time.Since(start)
	s.mu.Lock()
	s.state = Ready
	s.handle = h
	s.loadErr = nil
	s.loadTime = elapsed
	s.mu.Unlock()

	s.logger.Info("Model loaded successfully", "duration", elapsed.Round(10*time.Millisecond))
	return nil
}

func (s *Session) fail(err error) error {
	s.mu.Lock()
	s.state = Failed
	s.loadErr = err
	s.mu.Unlock()

	s.logger.Error("Failed to load model", "error", err)
	return err
}

func probeArtifacts(dir string) error {
	if err := util.ValidateModelDir(dir); err != nil {
		return fmt.Errorf("%w: %v", ErrModelNotFound, err)
	}
	for _, name := range requiredFiles {
		if _, ok := util.FirstExisting(dir, name); !ok {
			return fmt.Errorf("%w: %s", ErrMissingArtifact, name)
		}
	}
	if _, ok := util.FirstExisting(dir, weightFiles...); !ok {
		return fmt.Errorf("%w: one of %v", ErrMissingArtifact, weightFiles)
	}
	return nil
}

// Generate runs the backend and decodes its output.
func (s *Session) Generate(ctx context.Context, input string, opts backend.GenerateOptions) (string, error) {
	s.mu.RLock()
	h, state := s.handle, s.state
	s.mu.RUnlock()

	if state != Ready || h == nil {
		return "", ErrNotLoaded
	}

	seq, err := h.Generate(ctx, input, opts)
	if err != nil {
		return "", err
	}
	return h.Decode(seq), nil
}

// Info describes the session for status reporting.
func (s *Session) Info() map[string]any {
	s.mu.RLock()
	state, loadErr, loadTime := s.state, s.loadErr, s.loadTime
	s.mu.RUnlock()

	info := map[string]any{
		"model_dir":           s.config.Dir,
		"model_loaded":        state == Ready,
		"device":              s.config.Device,
		"backend":             s.backend.Name(),
		"state":               state.String(),
		"supported_languages": languages.Len(),
		"languages":           languages.Codes(),
	}
	if state == Ready {
		info["load_time_ms"] = loadTime.Milliseconds()
	}
	if loadErr != nil {
		info["load_error"] = loadErr.Error()
	}

	if s.config.Dir != "" && util.ValidateModelDir(s.config.Dir) == nil {
		size, err := util.DirSize(s.config.Dir)
		if err != nil {
			s.logger.Warn("Could not calculate model size", "error", err)
		} else {
			info["total_size_gb"] = math.Round(float64(size)/(1<<30)*100) / 100
		}
	}

	return info
}

func (s *Session) Close() error {
	s.loadMu.Lock()
	defer s.loadMu.Unlock()

	s.mu.Lock()
	h := s.handle
	s.handle = nil
	s.state = Uninitialized
	s.mu.Unlock()

	if h == nil {
		return nil
	}
	return h.Close()
}
