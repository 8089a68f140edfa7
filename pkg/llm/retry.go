package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
)

// RetryingProvider retries transient transport failures with exponential backoff.
type RetryingProvider struct {
	next       LLMProvider
	maxTries   uint
	maxElapsed time.Duration
	initial    time.Duration
}

var _ LLMProvider = &RetryingProvider{}

func NewRetryingProvider(next LLMProvider, maxTries uint, maxElapsed time.Duration) *RetryingProvider {
	if maxTries == 0 {
		maxTries = 3
	}
	return &RetryingProvider{
		next:       next,
		maxTries:   maxTries,
		maxElapsed: maxElapsed,
		initial:    500 * time.Millisecond,
	}
}

func (p *RetryingProvider) Chat(ctx context.Context, history []Message, options ...Option) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = p.initial

	opts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxTries(p.maxTries),
	}
	if p.maxElapsed > 0 {
		opts = append(opts, backoff.WithMaxElapsedTime(p.maxElapsed))
	}

	return backoff.Retry(ctx, func() (string, error) {
		out, err := p.next.Chat(ctx, history, options...)
		if err != nil {
			var statusErr *StatusError
			if errors.As(err, &statusErr) && !statusErr.Retryable() {
				return "", backoff.Permanent(err)
			}
			return "", err
		}
		return out, nil
	}, opts...)
}

func (p *RetryingProvider) Generate(ctx context.Context, prompt string, options ...Option) (string, error) {
	return p.Chat(ctx, []Message{{Role: "user", Content: prompt}}, options...)
}
