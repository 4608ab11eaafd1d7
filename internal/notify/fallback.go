package notify

import (
	"context"
	"log/slog"

	"sigcerh/pkg/platform/circuit"
)

// FallbackDispatcher sends through a primary dispatcher and switches to a
// fallback once the primary keeps failing. The primary is still tried on
// every call so the circuit can close again when it recovers.
type FallbackDispatcher struct {
	primary  Dispatcher
	fallback Dispatcher
	breaker  *circuit.Breaker
	logger   *slog.Logger
}

func NewFallbackDispatcher(primary, fallback Dispatcher, breaker *circuit.Breaker, logger *slog.Logger) *FallbackDispatcher {
	if breaker == nil {
		breaker = circuit.New("notify")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackDispatcher{primary: primary, fallback: fallback, breaker: breaker, logger: logger}
}

func (d *FallbackDispatcher) Dispatch(ctx context.Context, n Notification) error {
	err := d.primary.Dispatch(ctx, n)
	if err == nil {
		if _, change := d.breaker.RecordSuccess(); change.Closed {
			d.logger.InfoContext(ctx, "notification circuit closed", "breaker", d.breaker.Name())
		}
		return nil
	}

	useFallback, change := d.breaker.RecordFailure()
	if change.Opened {
		d.logger.WarnContext(ctx, "notification circuit opened", "breaker", d.breaker.Name(), "error", err)
	}
	if !useFallback {
		return err
	}
	return d.fallback.Dispatch(ctx, n)
}
