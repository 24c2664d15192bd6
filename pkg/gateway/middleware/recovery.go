package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"quizhub/aggregator/pkg/gateway"
)

// Recovery turns a panicking handler into the gateway's generic failure
// envelope. Callers always receive JSON; the panic and stack go to the log.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					if err == http.ErrAbortHandler {
						panic(err)
					}

					logger.ErrorContext(r.Context(), "panic in handler",
						"error", err,
						"method", r.Method,
						"path", r.URL.Path,
						"stack", string(debug.Stack()),
					)

					gateway.WriteEnvelope(w, http.StatusOK,
						gateway.NewEnvelope(gateway.MsgFetchFailed, fmt.Sprintf("internal error: %v", err)))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
