package embedding

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryingProvider retries transient upstream failures with exponential backoff.
// It sits below CachedProvider, at the transport edge.
type RetryingProvider struct {
	next       EmbeddingProvider
	maxTries   uint
	maxElapsed time.Duration
	initial    time.Duration
}

func NewRetryingProvider(next EmbeddingProvider, maxTries uint, maxElapsed time.Duration) *RetryingProvider {
	if maxTries == 0 {
		maxTries = 3
	}
	return &RetryingProvider{
		next:       next,
		maxTries:   maxTries,
		maxElapsed: maxElapsed,
		initial:    200 * time.Millisecond,
	}
}

func (p *RetryingProvider) Generate(ctx context.Context, text string, taskType string) (*EmbeddingResponse, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.maxTries),
	}
	if p.maxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.maxElapsed))
	}

	return backoff.Retry(ctx, func() (*EmbeddingResponse, error) {
		resp, err := p.next.Generate(ctx, text, taskType)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.Retryable() {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return resp, nil
	}, opts...)
}
