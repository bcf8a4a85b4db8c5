// Package handlers implements the admin job-control surface. Authentication
// is handled by the upstream gateway; these handlers trust the caller.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"importer/internal/adapter/repo"
	"importer/internal/domain"
	"importer/internal/storage"
)

type App struct {
	Jobs   *repo.JobRepository
	Store  storage.Store
	Logger zerolog.Logger
}

func NewApp(jobs *repo.JobRepository, store storage.Store, logger zerolog.Logger) *App {
	return &App{Jobs: jobs, Store: store, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) jsonError(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}

// fail maps domain errors onto HTTP status codes.
func (a *App) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		a.jsonError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, domain.ErrInvalidTransition):
		a.jsonError(w, http.StatusConflict, "job is not in a state that allows this operation")
	case errors.Is(err, domain.ErrNoResult):
		a.jsonError(w, http.StatusConflict, "job has no result archive")
	default:
		a.Logger.Error().Err(err).Msg("handlers: internal error")
		a.jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
