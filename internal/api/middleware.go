package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// NewLoggingMiddleware logs HTTP requests with a level derived from the status code.
func NewLoggingMiddleware(logger *slog.Logger) func(huma.Context, func(huma.Context)) {
	return func(ctx huma.Context, next func(huma.Context)) {
		start := time.Now()

		method := ctx.Method()
		logAttrs := []slog.Attr{
			slog.String("method", method),
			slog.String("path", ctx.URL().Path),
			slog.String("remote_addr", ctx.RemoteAddr()),
		}
		if userAgent := ctx.Header("User-Agent"); userAgent != "" {
			logAttrs = append(logAttrs, slog.String("user_agent", userAgent))
		}

		next(ctx)

		status := ctx.Status()
		logAttrs = append(logAttrs,
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
		)

		message := "HTTP request completed"
		switch {
		case method == http.MethodOptions, ctx.Operation() != nil && ctx.Operation().OperationID == "events-stream":
			logger.LogAttrs(ctx.Context(), slog.LevelDebug, message, logAttrs...)
		case status >= 500:
			logger.LogAttrs(ctx.Context(), slog.LevelError, message, logAttrs...)
		case status >= 400:
			logger.LogAttrs(ctx.Context(), slog.LevelWarn, message, logAttrs...)
		default:
			logger.LogAttrs(ctx.Context(), slog.LevelInfo, message, logAttrs...)
		}
	}
}
