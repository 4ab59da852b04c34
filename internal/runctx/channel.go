package runctx

import (
	"context"

	"vsa-launcher/internal/logging"
)

// SendOrDone sends value on out unless ctx is canceled first, logging the
// shutdown under name. Reports whether the send happened.
func SendOrDone[T any](ctx context.Context, name string, logger *logging.Logger, out chan<- T, value T) bool {
	if logger == nil {
		panic("runctx.SendOrDone: logger must not be nil")
	}
	select {
	case <-ctx.Done():
		logger.Debug("stopping "+name+": context canceled before send", logging.Field("error", ctx.Err()))
		return false
	case out <- value:
		return true
	}
}
