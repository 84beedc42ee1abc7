package backend

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// avgEntryCost is the expected token count of one cached sequence.
const avgEntryCost = 32

type CacheConfig struct {
	TTL     time.Duration
	MaxCost int64
	// NumCounters sizes the admission sketch. Zero derives ten counters per
	// expected entry from MaxCost.
	NumCounters int64
}

// Cached wraps a Backend so that every loaded Handle answers repeated
// generations from an in-memory cache.
type Cached struct {
	Backend
	config CacheConfig
}

func NewCached(b Backend, cfg CacheConfig) *Cached {
	if cfg.TTL <= 0 {
		cfg.TTL = 15 * time.Minute
	}
	if cfg.MaxCost <= 0 {
		cfg.MaxCost = 1e7
	}
	if cfg.NumCounters <= 0 {
		cfg.NumCounters = max(cfg.MaxCost/avgEntryCost, 1) * 10
	}
	return &Cached{Backend: b, config: cfg}
}

func (c *Cached) Load(ctx context.Context, opts LoadOptions) (Handle, error) {
	h, err := c.Backend.Load(ctx, opts)
	if err != nil {
		return nil, err
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: c.config.NumCounters,
		MaxCost:     c.config.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	return &cachedHandle{Handle: h, cache: cache, ttl: c.config.TTL}, nil
}

type cachedHandle struct {
	Handle
	cache *ristretto.Cache
	ttl   time.Duration
}

func (h *cachedHandle) Generate(ctx context.Context, input string, opts GenerateOptions) (Sequence, error) {
	key := generateCacheKey(input, opts)
	if cached, found := h.cache.Get(key); found {
		return cached.(Sequence), nil
	}

	seq, err := h.Handle.Generate(ctx, input, opts)
	if err != nil {
		return Sequence{}, err
	}

	h.cache.SetWithTTL(key, seq, int64(len(seq.Tokens))+1, h.ttl)
	return seq, nil
}

func (h *cachedHandle) Close() error {
	h.cache.Close()
	return h.Handle.Close()
}

func generateCacheKey(input string, opts GenerateOptions) string {
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s:%s:%d:%d:%d:%s", opts.SourceLang, opts.TargetLang,
		opts.MaxLength, opts.NumBeams, opts.MaxInputTokens, input)))
	return hex.EncodeToString(hash[:])
}
