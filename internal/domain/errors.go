package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrNoJobAvailable    = errors.New("no job available")
	ErrInvalidTransition = errors.New("invalid job status transition")
	ErrNoWebsite         = errors.New("website not resolved")
	ErrNoMenuItems       = errors.New("no menu items extracted")
	ErrNoResult          = errors.New("job has no downloadable result")
)
