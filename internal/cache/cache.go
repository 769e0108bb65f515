// Package cache stores analyzer results keyed by a digest of their input.
// Analyzers are referentially transparent, so a cached result is always equal
// to a recomputed one.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCacheMiss is returned by Get when the key is absent or expired.
	ErrCacheMiss = errors.New("cache miss")
	// ErrCacheUnavailable wraps backend failures, including an open breaker.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// Cache is implemented by every result cache tier.
type Cache interface {
	// Get decodes the cached value for key into dest.
	Get(ctx context.Context, key string, dest any) error
	// Set stores value under key. A zero ttl uses the tier default.
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Close() error
}

// Key returns the hex sha256 of "kind::json(input)".
func Key(kind string, input any) (string, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("failed to encode cache key input: %w", err)
	}

	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte("::"))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Noop never stores anything. It is used when caching is disabled.
type Noop struct{}

// Get always reports a miss.
func (Noop) Get(context.Context, string, any) error { return ErrCacheMiss }

// Set discards the value.
func (Noop) Set(context.Context, string, any, time.Duration) error { return nil }

// Close is a no-op.
func (Noop) Close() error { return nil }
