package worker

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"importer/internal/adapter/repo"
	"importer/internal/domain"
	"importer/internal/infra"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

type simpleRow struct {
	scan func(dest ...any) error
}

func (r simpleRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

type execCall struct {
	query string
	args  []any
}

// recordingExecutor captures every statement so tests can assert which state
// transitions a pipeline run issued. Status gate queries answer with the
// configured status.
type recordingExecutor struct {
	status string
	execs  []execCall
}

func (f *recordingExecutor) Exec(_ context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, execCall{query: query, args: args})
	return pgconn.CommandTag{}, nil
}

func (f *recordingExecutor) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	if strings.Contains(query, "select status") {
		return simpleRow{scan: func(dest ...any) error {
			*(dest[0].(*string)) = f.status
			return nil
		}}
	}
	return simpleRow{}
}

func (f *recordingExecutor) Query(_ context.Context, _ string, _ ...any) (pgx.Rows, error) {
	return nil, pgx.ErrNoRows
}

func (f *recordingExecutor) executed(fragment string) *execCall {
	for i := range f.execs {
		if strings.Contains(f.execs[i].query, fragment) {
			return &f.execs[i]
		}
	}
	return nil
}

func notFoundTransport(_ *http.Request) (*http.Response, error) {
	return &http.Response{StatusCode: 404, Body: io.NopCloser(strings.NewReader(""))}, nil
}

func testWorker(exec *recordingExecutor, rt roundTripFunc) *Worker {
	return New(Options{
		Repo: repo.NewJobRepository(exec),
		Config: &infra.Config{
			PollInterval:  time.Millisecond,
			JobTimeout:    time.Minute,
			StaleJobAge:   time.Hour,
			FetchParallel: 2,
		},
		Logger:     zerolog.New(io.Discard),
		HTTPClient: &http.Client{Transport: rt},
	})
}

func TestRunJobMarksNeedsInputWhenSiteUnresolved(t *testing.T) {
	// No override and no lookup providers: the resolver comes back empty and
	// the job needs operator input rather than a retry.
	exec := &recordingExecutor{status: "RUNNING"}
	w := testWorker(exec, notFoundTransport)

	w.runJob(context.Background(), &domain.ImportJob{ID: "job-1", RestaurantName: "The Gilded Fork"})

	call := exec.executed("'NEEDS_INPUT'")
	if call == nil {
		t.Fatal("job was not marked NEEDS_INPUT")
	}
	if msg, _ := call.args[1].(string); !strings.Contains(msg, "website") {
		t.Errorf("needs-input message = %q", msg)
	}
	if exec.executed("'FAILED'") != nil {
		t.Error("job was marked FAILED")
	}
}

func TestRunJobFailsWhenNoMenuItems(t *testing.T) {
	// Every fetch 404s, so extraction yields zero items and the job fails.
	exec := &recordingExecutor{status: "RUNNING"}
	w := testWorker(exec, notFoundTransport)

	w.runJob(context.Background(), &domain.ImportJob{
		ID:              "job-2",
		RestaurantName:  "The Gilded Fork",
		WebsiteOverride: "https://fork.example/",
	})

	call := exec.executed("'FAILED'")
	if call == nil {
		t.Fatal("job was not marked FAILED")
	}
	if msg, _ := call.args[1].(string); !strings.Contains(msg, "No menu items") {
		t.Errorf("failure message = %q", msg)
	}
	if exec.executed("'COMPLETED'") != nil {
		t.Error("job was marked COMPLETED")
	}
}

func TestRunJobLeavesRowOnShutdown(t *testing.T) {
	// A canceled worker context means shutdown, not job failure: the row must
	// stay RUNNING so the startup sweep can requeue it.
	exec := &recordingExecutor{status: "RUNNING"}
	w := testWorker(exec, notFoundTransport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.runJob(ctx, &domain.ImportJob{
		ID:              "job-3",
		RestaurantName:  "The Gilded Fork",
		WebsiteOverride: "https://fork.example/",
	})

	if exec.executed("'FAILED'") != nil {
		t.Error("shutdown marked the job FAILED")
	}
	if exec.executed("'NEEDS_INPUT'") != nil {
		t.Error("shutdown marked the job NEEDS_INPUT")
	}
}

func TestRunJobStopsWhenRowCanceled(t *testing.T) {
	exec := &recordingExecutor{status: "CANCELED"}
	w := testWorker(exec, notFoundTransport)

	w.runJob(context.Background(), &domain.ImportJob{
		ID:              "job-4",
		RestaurantName:  "The Gilded Fork",
		WebsiteOverride: "https://fork.example/",
	})

	if exec.executed("greatest(progress") == nil {
		t.Error("initial checkpoint was not recorded")
	}
	if exec.executed("'FAILED'") != nil || exec.executed("'NEEDS_INPUT'") != nil {
		t.Error("canceled job was re-marked")
	}
}

func TestSweep(t *testing.T) {
	tests := []struct {
		start, end, done, total, want int
	}{
		{45, 80, 0, 10, 45},
		{45, 80, 5, 10, 62},
		{45, 80, 10, 10, 80},
		{45, 80, 12, 10, 80}, // overshoot clamps
		{80, 90, 1, 4, 82},
		{80, 90, 4, 4, 90},
		{45, 80, 1, 0, 80}, // no items: jump to end
		{45, 80, 1, 1, 80},
	}
	for _, tt := range tests {
		if got := sweep(tt.start, tt.end, tt.done, tt.total); got != tt.want {
			t.Errorf("sweep(%d, %d, %d, %d) = %d, want %d",
				tt.start, tt.end, tt.done, tt.total, got, tt.want)
		}
	}
}

func TestSweepMonotonic(t *testing.T) {
	prev := 45
	for done := 0; done <= 37; done++ {
		got := sweep(45, 80, done, 37)
		if got < prev {
			t.Fatalf("sweep regressed at done=%d: %d < %d", done, got, prev)
		}
		prev = got
	}
	if prev != 80 {
		t.Errorf("final sweep = %d, want 80", prev)
	}
}
