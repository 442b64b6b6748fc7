package domain

import "errors"

var (
	ErrJobNotFound         = errors.New("job not found")
	ErrApplicationNotFound = errors.New("application not found")
	ErrNotPending          = errors.New("application is not pending")
	ErrForbidden           = errors.New("forbidden")
	ErrPayloadConflict     = errors.New("audio_url and notes are mutually exclusive")
)
