// Package resilient wraps an EmbeddingService with rate limiting,
// bounded concurrency and retry of transient failures.
package resilient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/custodia-labs/studymate/internal/core/domain"
	"github.com/custodia-labs/studymate/internal/core/ports/driven"
	"github.com/custodia-labs/studymate/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultMaxAttempts       = 3
	DefaultConcurrency       = 4
	DefaultRequestsPerSecond = 5.0
	DefaultBaseDelay         = 500 * time.Millisecond
	DefaultMaxDelay          = 10 * time.Second
)

// Config controls retry and throttling.
type Config struct {
	// MaxAttempts includes the first call.
	MaxAttempts int

	// Concurrency caps in-flight requests to the inner service.
	Concurrency int

	// RequestsPerSecond is the sustained request rate. Burst defaults to Concurrency.
	RequestsPerSecond float64
	Burst             int

	// BaseDelay and MaxDelay bound the exponential backoff.
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// EmbeddingService decorates another EmbeddingService.
type EmbeddingService struct {
	inner   driven.EmbeddingService
	cfg     Config
	limiter *rate.Limiter
	sem     *semaphore.Weighted
}

// Wrap decorates inner. Zero config fields take defaults.
func Wrap(inner driven.EmbeddingService, cfg Config) *EmbeddingService {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = cfg.Concurrency
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = DefaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}

	return &EmbeddingService{
		inner:   inner,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		sem:     semaphore.NewWeighted(int64(cfg.Concurrency)),
	}
}

func (s *EmbeddingService) backoff() retry.Backoff {
	b := retry.NewExponential(s.cfg.BaseDelay)
	b = retry.WithCappedDuration(s.cfg.MaxDelay, b)
	b = retry.WithJitterPercent(20, b)
	return retry.WithMaxRetries(uint64(s.cfg.MaxAttempts-1), b) // #nosec G115 -- MaxAttempts is positive
}

// call runs fn under the concurrency and rate limits, retrying transient
// and rate-limit failures. Exhausted retries wrap domain.ErrEmbeddingUnavailable.
func (s *EmbeddingService) call(ctx context.Context, fn func(context.Context) error) error {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.sem.Release(1)

	attempts := 0
	err := retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if err := s.limiter.Wait(ctx); err != nil {
			return err
		}
		attempts++
		err := fn(ctx)
		if err != nil && domain.IsRetryable(err) {
			logger.Debug("embedding attempt %d/%d failed: %v", attempts, s.cfg.MaxAttempts, err)
			return retry.RetryableError(err)
		}
		return err
	})

	switch {
	case err == nil:
		return nil
	case ctx.Err() != nil:
		return errors.Join(ctx.Err(), err)
	case domain.IsRetryable(err):
		return fmt.Errorf("%w after %d attempts: %w", domain.ErrEmbeddingUnavailable, attempts, err)
	default:
		return err
	}
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		vec, err = s.inner.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts as one retried request.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		vecs, err = s.inner.EmbedBatch(ctx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// Dimensions returns the inner service's vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.inner.Dimensions()
}

// ModelName returns the inner service's model.
func (s *EmbeddingService) ModelName() string {
	return s.inner.ModelName()
}

// Ping checks the inner service without retry.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	return s.inner.Ping(ctx)
}

// Close closes the inner service.
func (s *EmbeddingService) Close() error {
	return s.inner.Close()
}
