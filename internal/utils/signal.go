package utils

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// WithShutdown returns a context cancelled on SIGINT/SIGTERM so
// in-flight requests can unwind before the process exits.
func WithShutdown(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
