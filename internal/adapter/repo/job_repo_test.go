package repo

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"importer/internal/domain"
)

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type fakeExecutor struct {
	queryRow func(query string, args []any) pgx.Row
}

func (f *fakeExecutor) Exec(_ context.Context, _ string, _ ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeExecutor) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	if f.queryRow == nil {
		return simpleRow{}
	}
	return f.queryRow(query, args)
}

func (f *fakeExecutor) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

// jobRow fills scanJob's destination list for one job record.
func jobRow(id string, status domain.JobStatus) simpleRow {
	now := time.Now()
	return simpleRow{scan: func(dest ...any) error {
		*(dest[0].(*string)) = id
		*(dest[1].(*string)) = "The Gilded Fork"
		*(dest[2].(**string)) = nil
		*(dest[3].(**string)) = nil
		*(dest[4].(*string)) = string(status)
		*(dest[5].(*int)) = 0
		*(dest[6].(*string)) = "Queued"
		*(dest[7].(**string)) = nil
		*(dest[8].(**string)) = nil
		*(dest[9].(*[]byte)) = []byte("[]")
		*(dest[10].(*[]byte)) = []byte("{}")
		*(dest[11].(*string)) = "admin"
		*(dest[12].(*time.Time)) = now
		*(dest[13].(*time.Time)) = now
		*(dest[14].(**time.Time)) = nil
		*(dest[15].(**time.Time)) = nil
		return nil
	}}
}

func TestClaimEmptyQueue(t *testing.T) {
	r := NewJobRepository(&fakeExecutor{})
	if _, err := r.Claim(context.Background()); !errors.Is(err, domain.ErrNoJobAvailable) {
		t.Fatalf("Claim = %v, want ErrNoJobAvailable", err)
	}
}

func TestCreateRequiresName(t *testing.T) {
	r := NewJobRepository(&fakeExecutor{})
	if _, err := r.Create(context.Background(), CreateParams{RestaurantName: "   "}); err == nil {
		t.Fatal("Create accepted a blank name")
	}
}

func TestGetByIDNotFound(t *testing.T) {
	r := NewJobRepository(&fakeExecutor{})
	if _, err := r.GetByID(context.Background(), "nope"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID = %v, want ErrNotFound", err)
	}
}

func TestRetryRejectsQueuedJob(t *testing.T) {
	// The guarded update matches nothing for a QUEUED row; the follow-up
	// lookup finds the job, so the error is a transition conflict, not 404.
	exec := &fakeExecutor{queryRow: func(query string, args []any) pgx.Row {
		if strings.Contains(query, "status in ('FAILED', 'CANCELED', 'NEEDS_INPUT', 'COMPLETED')") {
			return simpleRow{}
		}
		return jobRow("job-1", domain.JobStatusQueued)
	}}
	r := NewJobRepository(exec)
	if _, err := r.Retry(context.Background(), "job-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Retry = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelRejectsCompletedJob(t *testing.T) {
	exec := &fakeExecutor{queryRow: func(query string, args []any) pgx.Row {
		if strings.Contains(query, "status in ('QUEUED', 'RUNNING')") {
			return simpleRow{}
		}
		return jobRow("job-1", domain.JobStatusCompleted)
	}}
	r := NewJobRepository(exec)
	if _, err := r.Cancel(context.Background(), "job-1"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("Cancel = %v, want ErrInvalidTransition", err)
	}
}

func TestCancelRunningJob(t *testing.T) {
	exec := &fakeExecutor{queryRow: func(query string, args []any) pgx.Row {
		return jobRow("job-1", domain.JobStatusCanceled)
	}}
	r := NewJobRepository(exec)
	job, err := r.Cancel(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if job.Status != domain.JobStatusCanceled {
		t.Errorf("status = %q, want CANCELED", job.Status)
	}
}
