// internal/api/errors.go
package api

import (
	"net/http"

	custom_errors "github-repo-proxy/internal/errors"
)

const (
	rateLimitMessage  = "API rate limit exceeded. Please try again later."
	unexpectedMessage = "An unexpected error occurred"
)

// handlerFunc is an http.HandlerFunc that may return an error for the error mapper.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts fn so that any error it returns is written by writeError.
func (h *Handler) handle(fn handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			h.writeError(w, r, err)
		}
	}
}

// writeError maps an error that escaped a route handler onto a JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := h.mapError(r, err)
	respondWithError(w, status, message)
}

func (h *Handler) mapError(r *http.Request, err error) (int, string) {
	switch custom_errors.KindOf(err) {
	case custom_errors.KindUserNotFound:
		return http.StatusNotFound, err.Error()

	case custom_errors.KindUpstream:
		upstream, _ := custom_errors.AsUpstream(err)
		h.logger.WarnContext(r.Context(), "GitHub request failed",
			"status", upstream.StatusCode,
			"error", err,
		)
		switch {
		case upstream.IsRateLimited():
			return http.StatusForbidden, rateLimitMessage
		case upstream.IsNetwork():
			return http.StatusInternalServerError, upstream.Message
		default:
			return upstream.StatusCode, upstream.Body
		}

	default:
		custom_errors.Report(r.Context(), h.logger, "Unexpected error while handling request", err)
		return http.StatusInternalServerError, unexpectedMessage
	}
}
