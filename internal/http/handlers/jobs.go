package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"importer/internal/adapter/repo"
	"importer/internal/domain"
	"importer/internal/slug"
)

type createJobRequest struct {
	RestaurantName  string `json:"restaurant_name"`
	LocationHint    string `json:"location_hint"`
	WebsiteOverride string `json:"website_override"`
}

// CreateJob enqueues a new import.
func (a *App) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.RestaurantName == "" {
		a.jsonError(w, http.StatusBadRequest, "restaurant_name is required")
		return
	}

	job, err := a.Jobs.Create(r.Context(), repo.CreateParams{
		RestaurantName:  req.RestaurantName,
		LocationHint:    req.LocationHint,
		WebsiteOverride: req.WebsiteOverride,
		CreatedBy:       r.Header.Get("X-Admin-User"),
	})
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusCreated, job)
}

// ListJobs returns jobs newest first, optionally filtered by status.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if status != "" && !domain.ValidStatus(status) {
		a.jsonError(w, http.StatusBadRequest, "unknown status filter")
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	jobs, err := a.Jobs.List(r.Context(), status, limit)
	if err != nil {
		a.fail(w, err)
		return
	}
	if jobs == nil {
		jobs = []*domain.ImportJob{}
	}
	a.json(w, http.StatusOK, map[string]any{"jobs": jobs})
}

// GetJob returns one job including its full log and metadata.
func (a *App) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

// CancelJob cancels a QUEUED or RUNNING job. The worker notices at its next
// stage boundary and abandons the run.
func (a *App) CancelJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

// RetryJob resets a terminal or needs-input job back to QUEUED.
func (a *App) RetryJob(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.Retry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	a.json(w, http.StatusOK, job)
}

// DownloadResult streams the result archive of a COMPLETED job.
func (a *App) DownloadResult(w http.ResponseWriter, r *http.Request) {
	job, err := a.Jobs.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		a.fail(w, err)
		return
	}
	if job.Status != domain.JobStatusCompleted || job.ResultZipKey == nil {
		a.fail(w, domain.ErrNoResult)
		return
	}

	data, err := a.Store.Read(r.Context(), *job.ResultZipKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.jsonError(w, http.StatusNotFound, "result archive is missing from storage")
			return
		}
		a.fail(w, err)
		return
	}

	filename := slug.Make(job.RestaurantName) + ".zip"
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
