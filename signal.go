package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

var shutdownSignals = []os.Signal{syscall.SIGINT, syscall.SIGTERM}

// shutdownContext is canceled by the first SIGINT or SIGTERM, which aborts
// the in-flight request and lets an interrupted download remove its temp
// file. A second signal exits immediately.
func shutdownContext(parent context.Context, logger *slog.Logger) context.Context {
	ctx, cancel := context.WithCancel(parent)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, shutdownSignals...)

	go func() {
		defer signal.Stop(sigs)

		for n := 0; ; n++ {
			select {
			case sig := <-sigs:
				if n > 0 {
					logger.Warn("second signal, exiting", slog.String("signal", sig.String()))
					os.Exit(1)
				}

				logger.Info("signal received, canceling", slog.String("signal", sig.String()))
				cancel()
			case <-parent.Done():
				cancel()
				return
			}
		}
	}()

	return ctx
}
