package transport

import (
	"context"
	"log/slog"
	"time"

	"github.com/skizzehq/skizze/pkg/api"
)

// Logging returns middleware that emits structured log entries for
// each generation request. The entry includes the request ID (from
// context), model, provider, duration, and whether the request
// succeeded or failed.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next FragmentCreator) FragmentCreator {
		return FragmentCreatorFunc(func(ctx context.Context, req *api.CreateFragmentRequest, w StreamWriter) error {
			start := time.Now()
			requestID := RequestIDFromContext(ctx)

			err := next.CreateFragment(ctx, req, w)

			attrs := []slog.Attr{
				slog.String("request_id", requestID),
				slog.String("model", req.Model.ID),
				slog.String("provider", req.Model.Provider),
				slog.Duration("duration", time.Since(start)),
			}

			if err != nil {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(ctx, slog.LevelError, "generation request failed", attrs...)
			} else {
				logger.LogAttrs(ctx, slog.LevelInfo, "generation request completed", attrs...)
			}

			return err
		})
	}
}
