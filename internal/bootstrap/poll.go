package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/K-Pomian/synthetify-protocol/internal/exchange"
	"github.com/K-Pomian/synthetify-protocol/internal/metrics"
)

// PollPolicy controls how long PollState waits for the exchange state.
// MaxAttempts of zero retries until the context is cancelled.
type PollPolicy struct {
	Interval    time.Duration
	MaxInterval time.Duration
	Multiplier  float64
	MaxAttempts int
}

// DefaultPollPolicy matches the config defaults.
func DefaultPollPolicy() PollPolicy {
	return PollPolicy{Interval: 2 * time.Second, MaxInterval: 15 * time.Second, Multiplier: 1.5, MaxAttempts: 30}
}

func (p PollPolicy) backOff(ctx context.Context) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = p.Interval
	eb.MaxInterval = p.MaxInterval
	if eb.MaxInterval < eb.InitialInterval {
		eb.MaxInterval = eb.InitialInterval
	}
	eb.Multiplier = p.Multiplier
	if eb.Multiplier < 1 {
		eb.Multiplier = 1
	}
	eb.RandomizationFactor = 0
	eb.MaxElapsedTime = 0

	var b backoff.BackOff = eb
	if p.MaxAttempts > 0 {
		b = backoff.WithMaxRetries(b, uint64(p.MaxAttempts-1))
	}
	return backoff.WithContext(b, ctx)
}

// PollState reads the exchange state until it is visible.
// A bounded policy that runs out surfaces exchange.ErrStateTimeout.
func PollState(ctx context.Context, ledger Ledger, policy PollPolicy, log zerolog.Logger) (*exchange.State, error) {
	var (
		state    *exchange.State
		attempts int
	)
	op := func() error {
		attempts++
		st, err := ledger.State(ctx)
		switch {
		case err == nil:
			metrics.StatePollsTotal.WithLabelValues("ok").Inc()
			state = st
			return nil
		case ctx.Err() != nil:
			return backoff.Permanent(ctx.Err())
		case errors.Is(err, exchange.ErrNotFound):
			metrics.StatePollsTotal.WithLabelValues("not_found").Inc()
		default:
			metrics.StatePollsTotal.WithLabelValues("error").Inc()
		}
		log.Debug().Err(err).Int("attempt", attempts).Msg("exchange state not readable yet")
		return err
	}

	if err := backoff.Retry(op, policy.backOff(ctx)); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w after %d attempts: %v", exchange.ErrStateTimeout, attempts, err)
	}
	return state, nil
}
