package llm

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sethvargo/go-retry"

	llmclient "catalognorm/internal/llm/client"
	"catalognorm/internal/upstream"
)

// Retry retries GenerateJSON up to maxAttempts with exponential backoff
// starting at baseDelay. Only transient upstream failures are retried;
// refusals and malformed output are returned immediately. When the inner
// client reports rate-limit headers, their wait is honored if longer.
func Retry(maxAttempts int, baseDelay time.Duration) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 300 * time.Millisecond
	}
	return func(next llmclient.LLMClient) llmclient.LLMClient {
		return &retrying{next: next, max: maxAttempts, base: baseDelay}
	}
}

type retrying struct {
	next llmclient.LLMClient
	max  int
	base time.Duration
}

func (r *retrying) Name() string { return r.next.Name() }
func (r *retrying) Close() error { return r.next.Close() }

func (r *retrying) GenerateJSON(ctx context.Context, req llmclient.Request) (json.RawMessage, error) {
	var out json.RawMessage
	backoff := retry.WithMaxRetries(uint64(r.max-1), retry.NewExponential(r.base))
	backoff = r.headerAware(backoff)
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		raw, err := r.next.GenerateJSON(ctx, req)
		if err != nil {
			if upstream.IsTransient(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		out = raw
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// headerAware stretches each delay to the provider's advertised wait.
func (r *retrying) headerAware(next retry.Backoff) retry.Backoff {
	aware, ok := r.next.(llmclient.RateLimitHeaderAwareClient)
	if !ok {
		return next
	}
	return retry.BackoffFunc(func() (time.Duration, bool) {
		d, stop := next.Next()
		if stop {
			return 0, true
		}
		if h, ok := aware.LastRateLimitHeaders(); ok {
			if w := h.NextWait(); w > d {
				d = w
			}
		}
		return d, false
	})
}
