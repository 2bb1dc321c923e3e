package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// routeLogger returns the request scoped logger, or base when the request
// did not pass through RequestLogger, tagged with the handler name, the
// matched route pattern and the acting principal.
func routeLogger(r *http.Request, base *slog.Logger, handler string) *slog.Logger {
	logger := LoggerFromContext(r.Context())
	if logger == nil {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}

	attrs := []any{"handler", handler}
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			attrs = append(attrs, "route", pattern)
		}
	}
	if principal, ok := PrincipalFromContext(r.Context()); ok && principal.UserID != "" {
		attrs = append(attrs, "principal_id", principal.UserID, "role", string(principal.Role))
	}
	return logger.With(attrs...)
}
