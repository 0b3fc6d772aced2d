package internal

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
)

// NotifyShutdown returns a context that is cancelled on SIGINT or SIGTERM.
// The returned cancel function also stops listening for signals.
func NotifyShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		defer signal.Stop(signals)
		select {
		case sig := <-signals:
			Shutdown(ctx, "Received signal for "+sig.String(), cancel)
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}

// Shutdown logs the shutdown reason and cancels the running command.
func Shutdown(ctx context.Context, message string, cancel context.CancelFunc) {
	zlog.Ctx(ctx).Info("Shutdown initiated", zap.String("reason", message))
	cancel()
}
