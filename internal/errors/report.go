// internal/errors/report.go
package errors

import (
	"context"
	"log/slog"

	"github.com/getsentry/sentry-go"
)

// Report sends an unexpected error to Sentry and logs it with the resulting event ID.
// Capturing is a no-op when Sentry was never initialised.
func Report(ctx context.Context, logger *slog.Logger, msg string, err error) {
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("kind", KindOf(err).String())
	})
	evID := hub.CaptureException(err)

	attrs := []any{"error", err}
	if evID != nil {
		attrs = append(attrs, "sentry.EventID", *evID)
	}
	logger.ErrorContext(ctx, msg, attrs...)
}
