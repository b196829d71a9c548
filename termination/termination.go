// Package termination turns process termination signals into an error
// returned from a blocking call, so system shutdown can flow through the
// normal error path.
package termination

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cadencehq/mongoconn/o11y"
)

var ErrTerminated = errors.New("terminated")

// Handle blocks until the process receives SIGINT or SIGTERM, then waits
// delay before returning ErrTerminated. If ctx is cancelled first it
// returns nil.
func Handle(ctx context.Context, delay time.Duration) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		o11y.Log(ctx, "termination: signal received",
			o11y.Field("signal", sig.String()),
			o11y.Field("delay", delay),
		)
		wait(ctx, delay)
		return ErrTerminated
	case <-ctx.Done():
		return nil
	}
}

func wait(ctx context.Context, delay time.Duration) {
	if delay <= 0 {
		return
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
