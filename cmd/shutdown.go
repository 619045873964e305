package cmd

import (
	"context"
	"os/signal"
)

// setupShutdownHandler returns a context canceled on the first of
// shutdownSignals. Later signals fall back to the default behaviour so a
// second Ctrl+C still kills a stuck process.
func setupShutdownHandler() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals...)
	go func() {
		<-ctx.Done()
		stop()
	}()
	return ctx, stop
}
