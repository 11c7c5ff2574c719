// internal/api/handler.go
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	custom_errors "github-repo-proxy/internal/errors"
	"github-repo-proxy/internal/model"
)

const (
	jsonContentType   = "application/json"
	notAcceptableBody = "Accept header must be 'application/json'"
)

// RepositoryService is what the handler needs from the aggregation layer.
type RepositoryService interface {
	ListRepositoriesWithBranches(ctx context.Context, username string) ([]model.Repository, error)
}

// Handler is the container for API dependencies.
type Handler struct {
	repos  RepositoryService
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with all API routes.
func NewRouter(repos RepositoryService, logger *slog.Logger, timeout time.Duration) http.Handler {
	h := &Handler{
		repos:  repos,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(requestTimeout(timeout))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/api", func(r chi.Router) {
		r.Get("/repositories/{username}", h.handle(h.getRepositories))
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// getRepositories returns the non-fork repositories of a user with their branches.
// GET /api/repositories/{username}
func (h *Handler) getRepositories(w http.ResponseWriter, r *http.Request) error {
	if r.Header.Get("Accept") != jsonContentType {
		respondWithText(w, http.StatusNotAcceptable, notAcceptableBody)
		return nil
	}

	username := chi.URLParam(r, "username")

	repos, err := h.repos.ListRepositoriesWithBranches(r.Context(), username)
	if err != nil {
		if custom_errors.KindOf(err) == custom_errors.KindUserNotFound {
			respondWithError(w, http.StatusNotFound, "User not found")
			return nil
		}
		return err
	}

	respondWithJSON(w, http.StatusOK, repos)
	return nil
}
