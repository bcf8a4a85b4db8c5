package domain

import "time"

// JobStatus enumerates import job lifecycle states.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "QUEUED"
	JobStatusRunning    JobStatus = "RUNNING"
	JobStatusNeedsInput JobStatus = "NEEDS_INPUT"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusCanceled   JobStatus = "CANCELED"
)

// ValidStatus reports whether s is a known job status.
func ValidStatus(s string) bool {
	switch JobStatus(s) {
	case JobStatusQueued, JobStatusRunning, JobStatusNeedsInput,
		JobStatusFailed, JobStatusCompleted, JobStatusCanceled:
		return true
	}
	return false
}

// CanCancel reports whether a job in this status may be canceled.
func (s JobStatus) CanCancel() bool {
	return s == JobStatusQueued || s == JobStatusRunning
}

// CanRetry reports whether a job in this status may be reset to QUEUED.
func (s JobStatus) CanRetry() bool {
	switch s {
	case JobStatusFailed, JobStatusCanceled, JobStatusNeedsInput, JobStatusCompleted:
		return true
	}
	return false
}

// LogEntry is one timestamped line in a job's append-only audit log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

// ImportJob is the persisted record and state machine for one end-to-end
// menu-import attempt.
type ImportJob struct {
	ID              string         `json:"id"`
	RestaurantName  string         `json:"restaurant_name"`
	LocationHint    string         `json:"location_hint,omitempty"`
	WebsiteOverride string         `json:"website_override,omitempty"`
	Status          JobStatus      `json:"status"`
	Progress        int            `json:"progress"`
	CurrentStep     string         `json:"current_step"`
	ErrorMessage    *string        `json:"error_message"`
	ResultZipKey    *string        `json:"result_zip_key"`
	Logs            []LogEntry     `json:"logs"`
	Metadata        map[string]any `json:"metadata"`
	CreatedBy       string         `json:"created_by"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	StartedAt       *time.Time     `json:"started_at"`
	FinishedAt      *time.Time     `json:"finished_at"`
}
