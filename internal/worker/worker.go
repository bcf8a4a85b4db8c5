// Package worker runs the import pipeline: it polls the job table, claims the
// oldest queued job, and drives it through resolution, extraction, enrichment,
// imaging, and packaging, recording progress as it goes.
package worker

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"importer/internal/adapter/repo"
	"importer/internal/domain"
	"importer/internal/enhance"
	"importer/internal/extractor"
	"importer/internal/infra"
	"importer/internal/providers/genai"
	"importer/internal/providers/search"
	"importer/internal/storage"
)

// Options wires the worker's collaborators. Provider fields may be nil; the
// stages that depend on them degrade to their heuristic/local fallbacks.
type Options struct {
	Repo   *repo.JobRepository
	Store  storage.Store
	Config *infra.Config
	Logger zerolog.Logger

	Completer genai.Completer
	OCR       extractor.OCR
	Places    *search.PlacesClient
	Serp      *search.SerpClient
	Remote    enhance.RemoteEnhancer

	// HTTPClient overrides the transport the per-job crawl client uses.
	// Nil means a default client.
	HTTPClient *http.Client
}

// Worker is the single serial job processor.
type Worker struct {
	opts   Options
	logger zerolog.Logger
}

func New(opts Options) *Worker {
	return &Worker{opts: opts, logger: opts.Logger}
}

// Run processes jobs until the context is canceled. Exactly one job runs at a
// time; when the queue is empty the worker sleeps for the poll interval.
func (w *Worker) Run(ctx context.Context) error {
	w.requeueStale(ctx)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		job, err := w.opts.Repo.Claim(ctx)
		switch {
		case errors.Is(err, domain.ErrNoJobAvailable):
			w.sleep(ctx, w.opts.Config.PollInterval)
			continue
		case err != nil:
			w.logger.Error().Err(err).Msg("worker: claim failed")
			w.sleep(ctx, w.opts.Config.PollInterval)
			continue
		}

		w.runJob(ctx, job)
	}
}

// requeueStale returns RUNNING jobs orphaned by a previous crash to the
// queue. Runs once at startup; while this process lives, it owns every
// RUNNING row.
func (w *Worker) requeueStale(ctx context.Context) {
	age := fmt.Sprintf("%d seconds", int(w.opts.Config.StaleJobAge.Seconds()))
	ids, err := w.opts.Repo.RequeueStale(ctx, age)
	if err != nil {
		w.logger.Error().Err(err).Msg("worker: stale job sweep failed")
		return
	}
	for _, id := range ids {
		w.logger.Warn().Str("job_id", id).Msg("worker: requeued stale job")
	}
}

func (w *Worker) runJob(parent context.Context, job *domain.ImportJob) {
	ctx, cancel := context.WithTimeout(parent, w.opts.Config.JobTimeout)
	defer cancel()

	logger := w.logger.With().Str("job_id", job.ID).Str("restaurant", job.RestaurantName).Logger()
	logger.Info().Msg("worker: job claimed")
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			logger.Error().Interface("panic", r).Msg("worker: pipeline panicked")
			w.markDetached(job.ID, fmt.Sprintf("internal error: %v", r))
		}
	}()

	p := newPipeline(w.opts, job, logger)
	err := p.execute(ctx)

	switch {
	case err == nil:
		logger.Info().Dur("elapsed", time.Since(started)).Msg("worker: job completed")
	case errors.Is(err, errCanceled):
		logger.Info().Msg("worker: job canceled mid-run")
	case errors.Is(err, context.Canceled):
		// Shutdown, not failure: the row stays RUNNING and the startup
		// requeue sweep returns it to the queue.
		logger.Warn().Msg("worker: shutdown interrupted job, leaving it for requeue")
	case errors.Is(err, domain.ErrNoWebsite):
		logger.Warn().Msg("worker: no website resolved")
		w.markNeedsInputDetached(job.ID,
			"Could not determine a website for this restaurant. Add a website override and retry.")
	case errors.Is(err, domain.ErrNoMenuItems):
		logger.Warn().Msg("worker: extraction found no items")
		w.markDetached(job.ID,
			"No menu items could be extracted from the website. Check the site or supply a different override.")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error().Msg("worker: job timed out")
		w.markDetached(job.ID, "Import timed out.")
	default:
		logger.Error().Err(err).Msg("worker: job failed")
		w.markDetached(job.ID, err.Error())
	}
}

// markDetached records a failure on its own context, so a job that died from
// timeout or cancellation can still be marked.
func (w *Worker) markDetached(jobID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.opts.Repo.MarkFailed(ctx, jobID, message); err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: mark failed errored")
	}
}

func (w *Worker) markNeedsInputDetached(jobID, message string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := w.opts.Repo.MarkNeedsInput(ctx, jobID, message); err != nil {
		w.logger.Error().Err(err).Str("job_id", jobID).Msg("worker: mark needs-input errored")
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}
