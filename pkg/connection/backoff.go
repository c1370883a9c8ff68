package connection

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"
)

// Backoff defaults, sized to fit several retries inside one discovery window.
const (
	InitialBackoff    = 250 * time.Millisecond
	MaxBackoff        = 2 * time.Second
	BackoffMultiplier = 2.0

	// JitterFactor is the maximum jitter as a fraction of the base delay.
	JitterFactor = 0.25
)

// ErrRetriesExhausted is returned by Wait once MaxRetries delays were spent.
var ErrRetriesExhausted = errors.New("retries exhausted")

// BackoffConfig shapes a Backoff. Zero fields take the package defaults.
type BackoffConfig struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64

	// MaxRetries caps how many delays Wait hands out. Zero is unlimited.
	MaxRetries int
}

// DefaultBackoffConfig returns the default pacing with no retry cap.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		Initial:    InitialBackoff,
		Max:        MaxBackoff,
		Multiplier: BackoffMultiplier,
		Jitter:     JitterFactor,
	}
}

// Backoff paces retries with exponentially growing, jittered delays.
// It is safe for concurrent use.
type Backoff struct {
	mu       sync.Mutex
	cfg      BackoffConfig
	current  time.Duration
	attempts int
}

// NewBackoff returns a Backoff with the default pacing.
func NewBackoff() *Backoff {
	return NewBackoffWithConfig(DefaultBackoffConfig())
}

// NewBackoffWithConfig returns a Backoff for cfg.
func NewBackoffWithConfig(cfg BackoffConfig) *Backoff {
	if cfg.Initial <= 0 {
		cfg.Initial = InitialBackoff
	}
	if cfg.Max < cfg.Initial {
		cfg.Max = max(MaxBackoff, cfg.Initial)
	}
	if cfg.Multiplier <= 1 {
		cfg.Multiplier = BackoffMultiplier
	}
	cfg.Jitter = max(cfg.Jitter, 0)
	cfg.MaxRetries = max(cfg.MaxRetries, 0)

	return &Backoff{cfg: cfg, current: cfg.Initial}
}

// Next returns the jittered delay for this retry and grows the base delay.
func (b *Backoff) Next() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	delay := b.jittered(b.current)
	b.attempts++
	b.current = min(time.Duration(float64(b.current)*b.cfg.Multiplier), b.cfg.Max)
	return delay
}

// Peek returns a jittered sample of the next delay without advancing.
func (b *Backoff) Peek() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.jittered(b.current)
}

// Exhausted reports whether the retry cap has been reached.
func (b *Backoff) Exhausted() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cfg.MaxRetries > 0 && b.attempts >= b.cfg.MaxRetries
}

// Wait sleeps for the next delay. It returns ErrRetriesExhausted without
// sleeping once the cap is reached, or ctx's error if ctx ends first.
func (b *Backoff) Wait(ctx context.Context) error {
	if b.Exhausted() {
		return ErrRetriesExhausted
	}

	timer := time.NewTimer(b.Next())
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Reset restores the initial delay and clears the retry count.
// Call this after a successful attempt.
func (b *Backoff) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = b.cfg.Initial
	b.attempts = 0
}

// Attempts returns the number of delays handed out since the last reset.
func (b *Backoff) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// Current returns the base delay of the next retry, without jitter.
func (b *Backoff) Current() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}

func (b *Backoff) jittered(d time.Duration) time.Duration {
	if b.cfg.Jitter == 0 {
		return d
	}
	return d + time.Duration(float64(d)*b.cfg.Jitter*rand.Float64())
}
