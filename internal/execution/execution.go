// Package execution runs named bootstrap steps with logging, metrics and error wrapping.
package execution

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/K-Pomian/synthetify-protocol/internal/metrics"
)

// Status labels a finished step.
type Status string

const (
	// Done indicates the step ran and succeeded.
	Done Status = "done"
	// Skipped indicates a resumed run found the step already complete.
	Skipped Status = "skipped"
	// Failed indicates the step returned an error.
	Failed Status = "failed"
)

// Executor runs steps in order, pausing settle after every mutating step.
type Executor struct {
	log    zerolog.Logger
	settle time.Duration
}

// NewExecutor wraps a zerolog logger; settle may be zero.
func NewExecutor(log zerolog.Logger, settle time.Duration) *Executor {
	return &Executor{log: log, settle: settle}
}

// Run executes fn as step name. The returned error is wrapped with the step name.
func (e *Executor) Run(ctx context.Context, name string, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("step %s: %w", name, err)
	}
	start := time.Now()
	e.log.Info().Str("step", name).Msg("step start")
	if err := fn(ctx); err != nil {
		metrics.StepsTotal.WithLabelValues(name, string(Failed)).Inc()
		e.log.Error().Err(err).Str("step", name).Dur("took", time.Since(start)).Msg("step failed")
		return fmt.Errorf("step %s: %w", name, err)
	}
	metrics.StepsTotal.WithLabelValues(name, string(Done)).Inc()
	e.log.Info().Str("step", name).Dur("took", time.Since(start)).Msg("step done")
	return e.pause(ctx)
}

// Skip records that name was satisfied by an earlier run.
func (e *Executor) Skip(name, reason string) {
	metrics.StepsTotal.WithLabelValues(name, string(Skipped)).Inc()
	e.log.Info().Str("step", name).Str("reason", reason).Msg("step skipped")
}

func (e *Executor) pause(ctx context.Context) error {
	if e.settle <= 0 {
		return nil
	}
	t := time.NewTimer(e.settle)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
