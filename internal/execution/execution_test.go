package execution

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"

	"github.com/K-Pomian/synthetify-protocol/internal/metrics"
)

func TestRunLogsStep(t *testing.T) {
	var buf bytes.Buffer
	exec := NewExecutor(zerolog.New(&buf), 0)

	before := testutil.ToFloat64(metrics.StepsTotal.WithLabelValues("create-mint", string(Done)))
	err := exec.Run(context.Background(), "create-mint", func(context.Context) error { return nil })
	if err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if !strings.Contains(buf.String(), "create-mint") {
		t.Fatalf("log does not contain step: %s", buf.String())
	}
	if got := testutil.ToFloat64(metrics.StepsTotal.WithLabelValues("create-mint", string(Done))); got != before+1 {
		t.Fatalf("steps counter = %v, want %v", got, before+1)
	}
}

func TestRunWrapsError(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), 0)
	sentinel := errors.New("boom")
	err := exec.Run(context.Background(), "init-exchange", func(context.Context) error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped sentinel, got %v", err)
	}
	if !strings.Contains(err.Error(), "step init-exchange") {
		t.Fatalf("error does not name the step: %v", err)
	}
}

func TestSettleHonorsCancel(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	err := exec.Run(ctx, "add-asset", func(context.Context) error {
		cancel()
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation during settle, got %v", err)
	}
}

func TestRunSkipsWhenCancelled(t *testing.T) {
	exec := NewExecutor(zerolog.Nop(), 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	_ = exec.Run(ctx, "x", func(context.Context) error { called = true; return nil })
	if called {
		t.Fatalf("step ran on a cancelled context")
	}
}
