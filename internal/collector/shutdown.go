package collector

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/smrichards/dota2-llm/internal/logging"
)

// SetupSignalHandler returns a context cancelled on the first SIGINT or
// SIGTERM. onShutdown, when set, runs before the cancel. A second signal
// exits the process. The handler stops listening once parent is done.
func SetupSignalHandler(parent context.Context, onShutdown func()) (context.Context, context.CancelFunc) {
	ctx, cancel, _ := setupSignalHandler(parent, onShutdown, os.Exit)
	return ctx, cancel
}

// setupSignalHandler is SetupSignalHandler with the exit call injected. The
// returned channel is closed when the handler goroutine has returned.
func setupSignalHandler(parent context.Context, onShutdown func(), exit func(int)) (context.Context, context.CancelFunc, <-chan struct{}) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	go func() {
		defer close(done)
		defer signal.Stop(sigCh)
		logger := logging.For("signal")

		select {
		case sig := <-sigCh:
			logger.Warn().Str("signal", sig.String()).Msg("stopping after current request")
		case <-ctx.Done():
			return
		}
		if onShutdown != nil {
			onShutdown()
		}
		cancel()

		select {
		case sig := <-sigCh:
			logger.Error().Str("signal", sig.String()).Msg("second signal, forcing exit")
			exit(1)
		case <-parent.Done():
		}
	}()

	return ctx, cancel, done
}
