package pipeline

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"catalognorm/internal/record"
	"catalognorm/internal/upstream"
)

// Policy configures Retry.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Retry re-runs t on transient upstream failures, including enrichment
// lookups that wrap them. Refusals, schema violations and cancellation are
// returned as is. MaxAttempts below 2 returns t.
func Retry(t Transformer, p Policy) Transformer {
	if p.MaxAttempts < 2 {
		return t
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 200 * time.Millisecond
	}
	return TransformerFunc(func(ctx context.Context, raw record.RawRecord) (Outcome, error) {
		var out Outcome
		backoff := retry.WithMaxRetries(uint64(p.MaxAttempts-1), retry.NewExponential(p.BaseDelay))
		err := retry.Do(ctx, backoff, func(ctx context.Context) error {
			o, err := t.Run(ctx, raw)
			if err != nil {
				if upstream.IsTransient(err) && ctx.Err() == nil {
					return retry.RetryableError(err)
				}
				return err
			}
			out = o
			return nil
		})
		if err != nil {
			return Outcome{}, err
		}
		return out, nil
	})
}
