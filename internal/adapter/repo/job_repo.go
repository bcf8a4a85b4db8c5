package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"importer/internal/domain"
	"importer/internal/infra"
	"importer/internal/sqlinline"
)

// JobRepository persists import jobs. All statements go through the marker-tagged
// SQL runner so queries show up in logs with a stable identifier.
type JobRepository struct {
	runner infra.SQLExecutor
}

func NewJobRepository(runner infra.SQLExecutor) *JobRepository {
	return &JobRepository{runner: runner}
}

// CreateParams carries the user-supplied inputs for a new job.
type CreateParams struct {
	RestaurantName  string
	LocationHint    string
	WebsiteOverride string
	CreatedBy       string
}

func (r *JobRepository) Create(ctx context.Context, p CreateParams) (*domain.ImportJob, error) {
	name := strings.TrimSpace(p.RestaurantName)
	if name == "" {
		return nil, fmt.Errorf("restaurant name is required")
	}
	row := r.runner.QueryRow(ctx, sqlinline.QCreateJob,
		uuid.NewString(),
		name,
		nullable(strings.TrimSpace(p.LocationHint)),
		nullable(strings.TrimSpace(p.WebsiteOverride)),
		p.CreatedBy,
	)
	return scanJob(row)
}

func (r *JobRepository) GetByID(ctx context.Context, id string) (*domain.ImportJob, error) {
	job, err := scanJob(r.runner.QueryRow(ctx, sqlinline.QGetJob, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return job, nil
}

// List returns jobs newest first, optionally filtered by status.
func (r *JobRepository) List(ctx context.Context, status string, limit int) ([]*domain.ImportJob, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var filter *string
	if status != "" && domain.ValidStatus(status) {
		filter = &status
	}
	rows, err := r.runner.Query(ctx, sqlinline.QListJobs, filter, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.ImportJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// Claim atomically marks the oldest QUEUED job RUNNING and returns it.
// Returns domain.ErrNoJobAvailable when the queue is empty.
func (r *JobRepository) Claim(ctx context.Context) (*domain.ImportJob, error) {
	job, err := scanJob(r.runner.QueryRow(ctx, sqlinline.QClaimJob))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNoJobAvailable
		}
		return nil, err
	}
	return job, nil
}

// Status returns just the lifecycle state of one job.
func (r *JobRepository) Status(ctx context.Context, id string) (domain.JobStatus, error) {
	var s string
	if err := r.runner.QueryRow(ctx, sqlinline.QJobStatus, id).Scan(&s); err != nil {
		if infra.IsNoRows(err) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return domain.JobStatus(s), nil
}

// Checkpoint atomically records progress, a step label, and a log line.
// Progress never decreases within a run; pass an empty step or message to
// leave that part untouched.
func (r *JobRepository) Checkpoint(ctx context.Context, id string, progress int, step, message string) error {
	_, err := r.runner.Exec(ctx, sqlinline.QCheckpoint, id, progress, step, message)
	return err
}

func (r *JobRepository) AppendLog(ctx context.Context, id, message string) error {
	_, err := r.runner.Exec(ctx, sqlinline.QAppendLog, id, message)
	return err
}

// MergeMetadata shallow-merges fields into the job's metadata map.
func (r *JobRepository) MergeMetadata(ctx context.Context, id string, fields map[string]any) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = r.runner.Exec(ctx, sqlinline.QSetMetadata, id, raw)
	return err
}

func (r *JobRepository) MarkCompleted(ctx context.Context, id, zipKey string) error {
	_, err := r.runner.Exec(ctx, sqlinline.QMarkCompleted, id, zipKey)
	return err
}

func (r *JobRepository) MarkFailed(ctx context.Context, id, message string) error {
	_, err := r.runner.Exec(ctx, sqlinline.QMarkFailed, id, message)
	return err
}

func (r *JobRepository) MarkNeedsInput(ctx context.Context, id, message string) error {
	_, err := r.runner.Exec(ctx, sqlinline.QMarkNeedsInput, id, message)
	return err
}

// Cancel transitions a QUEUED or RUNNING job to CANCELED. The guard lives in
// the statement itself; a no-op update means the transition was invalid.
func (r *JobRepository) Cancel(ctx context.Context, id string) (*domain.ImportJob, error) {
	job, err := scanJob(r.runner.QueryRow(ctx, sqlinline.QCancelJob, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, r.transitionError(ctx, id)
		}
		return nil, err
	}
	return job, nil
}

// Retry resets a terminal or needs-input job back to QUEUED, clearing error
// and timestamps while preserving the id and prior log entries.
func (r *JobRepository) Retry(ctx context.Context, id string) (*domain.ImportJob, error) {
	job, err := scanJob(r.runner.QueryRow(ctx, sqlinline.QRetryJob, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, r.transitionError(ctx, id)
		}
		return nil, err
	}
	return job, nil
}

// RequeueStale returns the ids of RUNNING jobs older than age that were
// reset to QUEUED. Intended for worker startup only.
func (r *JobRepository) RequeueStale(ctx context.Context, age string) ([]string, error) {
	rows, err := r.runner.Query(ctx, sqlinline.QRequeueStale, age)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// transitionError distinguishes "no such job" from "wrong state" after a
// guarded update matched nothing.
func (r *JobRepository) transitionError(ctx context.Context, id string) error {
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrInvalidTransition
}

func scanJob(row pgx.Row) (*domain.ImportJob, error) {
	var (
		job           domain.ImportJob
		locationHint  *string
		override      *string
		status        string
		logsRaw       []byte
		metadataRaw   []byte
	)
	if err := row.Scan(
		&job.ID,
		&job.RestaurantName,
		&locationHint,
		&override,
		&status,
		&job.Progress,
		&job.CurrentStep,
		&job.ErrorMessage,
		&job.ResultZipKey,
		&logsRaw,
		&metadataRaw,
		&job.CreatedBy,
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.StartedAt,
		&job.FinishedAt,
	); err != nil {
		return nil, err
	}
	job.Status = domain.JobStatus(status)
	if locationHint != nil {
		job.LocationHint = *locationHint
	}
	if override != nil {
		job.WebsiteOverride = *override
	}
	job.Logs = []domain.LogEntry{}
	if len(logsRaw) > 0 {
		if err := json.Unmarshal(logsRaw, &job.Logs); err != nil {
			return nil, fmt.Errorf("decode job logs: %w", err)
		}
	}
	job.Metadata = map[string]any{}
	if len(metadataRaw) > 0 {
		if err := json.Unmarshal(metadataRaw, &job.Metadata); err != nil {
			return nil, fmt.Errorf("decode job metadata: %w", err)
		}
	}
	return &job, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
