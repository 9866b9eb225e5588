// internal/api/handler.go
package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5"

	"github.com/sonnibytes/aura-github-sync/internal/database"
	"github.com/sonnibytes/aura-github-sync/internal/model"
)

// Handler is the container for API dependencies.
type Handler struct {
	db     database.Querier
	logger *slog.Logger
}

// NewRouter creates and configures a new chi router with the read-only
// routes over synced data.
func NewRouter(db database.Querier, logger *slog.Logger) http.Handler {
	h := &Handler{
		db:     db,
		logger: logger,
	}

	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger) // Chi's default logger
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// API Routes
	r.Get("/health", h.healthCheck)
	r.Route("/v1", func(r chi.Router) {
		r.Get("/repos", h.listRepositories)
		r.Get("/repos/{owner}/{name}", h.getRepository)
		r.Get("/repos/{owner}/{name}/weeks", h.getCommitWeeks)
		r.Get("/repos/{owner}/{name}/languages", h.getLanguages)
	})

	return r
}

// healthCheck is a simple health endpoint.
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// listRepositories returns every synced repository.
// GET /v1/repos
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.db.ListRepositories(r.Context())
	if err != nil {
		h.logger.Error("Failed to list repositories", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// getRepository returns one repository with its synced summary fields.
// GET /v1/repos/{owner}/{name}
func (h *Handler) getRepository(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookupRepo(w, r)
	if !ok {
		return
	}
	respondWithJSON(w, http.StatusOK, repo)
}

// getCommitWeeks returns the stored weekly series, most recent first.
// GET /v1/repos/{owner}/{name}/weeks
func (h *Handler) getCommitWeeks(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookupRepo(w, r)
	if !ok {
		return
	}

	weeks, err := h.db.ListCommitWeeks(r.Context(), repo.ID)
	if err != nil {
		h.logger.Error("Failed to get commit weeks", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, weeks)
}

// getLanguages returns the language breakdown, largest first.
// GET /v1/repos/{owner}/{name}/languages
func (h *Handler) getLanguages(w http.ResponseWriter, r *http.Request) {
	repo, ok := h.lookupRepo(w, r)
	if !ok {
		return
	}

	langs, err := h.db.ListLanguages(r.Context(), repo.ID)
	if err != nil {
		h.logger.Error("Failed to get languages", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	respondWithJSON(w, http.StatusOK, langs)
}

// lookupRepo resolves the {owner}/{name} path params, writing the error
// response itself when the repository is unknown.
func (h *Handler) lookupRepo(w http.ResponseWriter, r *http.Request) (*model.Repository, bool) {
	owner := chi.URLParam(r, "owner")
	name := chi.URLParam(r, "name")

	found, err := h.db.GetRepositoryByFullName(r.Context(), owner+"/"+name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			respondWithError(w, http.StatusNotFound, "Repository not found")
			return nil, false
		}
		h.logger.Error("Failed to get repository", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
		return nil, false
	}
	return found, true
}
