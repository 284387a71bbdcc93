// Package logging provides structured logging utilities with context propagation.
//
// Example usage:
//
//	logger := logging.NewLogger()
//	slog.SetDefault(logger)
//
//	ctx = logging.WithCycleID(ctx, cycleID)
//	logging.FromContext(ctx).Info("cycle started")
package logging
