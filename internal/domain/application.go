package domain

import (
	"strings"
	"time"
)

// ApplicationStatus is the review state of an application
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

// Statuses lists every status in display order
var Statuses = []ApplicationStatus{StatusPending, StatusAccepted, StatusRejected}

// Valid reports whether s is a known status
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transition is possible from s
func (s ApplicationStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// CanTransition reports whether an application may move from s to next.
// Only pending applications move, and only to accepted or rejected.
func (s ApplicationStatus) CanTransition(next ApplicationStatus) bool {
	return s == StatusPending && next.Terminal()
}

// StatusFilter selects applications by status; FilterAll selects everything
type StatusFilter string

const (
	FilterAll      StatusFilter = "all"
	FilterPending  StatusFilter = StatusFilter(StatusPending)
	FilterAccepted StatusFilter = StatusFilter(StatusAccepted)
	FilterRejected StatusFilter = StatusFilter(StatusRejected)
)

// Filters lists every filter in tab order
var Filters = []StatusFilter{FilterAll, FilterPending, FilterAccepted, FilterRejected}

// ParseStatusFilter converts user input into a filter. Empty input means FilterAll.
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch f := StatusFilter(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FilterAll:
		return FilterAll, true
	case FilterPending, FilterAccepted, FilterRejected:
		return f, true
	default:
		return "", false
	}
}

// Status returns the status selected by the filter, or "" for FilterAll
func (f StatusFilter) Status() ApplicationStatus {
	if f == FilterAll {
		return ""
	}
	return ApplicationStatus(f)
}

// Matches reports whether an application with status s passes the filter
func (f StatusFilter) Matches(s ApplicationStatus) bool {
	return f == FilterAll || ApplicationStatus(f) == s
}

// Application is a worker's application to a job, denormalized for display
type Application struct {
	ID          int64             `json:"id"`
	JobID       int64             `json:"job_id"`
	JobTitle    string            `json:"job_title"`
	WorkerID    *string           `json:"worker_id,omitempty"`
	WorkerName  *string           `json:"worker_name,omitempty"`
	WorkerPhone *string           `json:"worker_phone,omitempty"`
	Status      ApplicationStatus `json:"status"`
	AudioURL    *string           `json:"audio_url,omitempty"`
	Notes       *string           `json:"notes,omitempty"`
	SubmittedAt *time.Time        `json:"submitted_at,omitempty"`
	GrowerID    *string           `json:"grower_id,omitempty"`
	FarmName    *string           `json:"farm_name,omitempty"`
}

// HasAudio reports whether the application carries a voice recording
func (a Application) HasAudio() bool {
	return a.AudioURL != nil && *a.AudioURL != ""
}

// HasNotes reports whether the application carries a text note
func (a Application) HasNotes() bool {
	return a.Notes != nil && *a.Notes != ""
}

// ReviewActions returns the transitions a reviewer may trigger.
// Only pending applications expose accept and reject.
func (a Application) ReviewActions() []ApplicationStatus {
	if a.Status != StatusPending {
		return nil
	}
	return []ApplicationStatus{StatusAccepted, StatusRejected}
}

// ApplicationSubmission is what a worker sends when applying to a job.
// A submission with neither audio nor notes is a quick-apply.
type ApplicationSubmission struct {
	JobID    int64   `json:"job_id"`
	AudioURL *string `json:"audio_url,omitempty"`
	Notes    *string `json:"notes,omitempty"`
}

// QuickApply reports whether the submission carries no payload
func (s ApplicationSubmission) QuickApply() bool {
	return (s.AudioURL == nil || *s.AudioURL == "") && (s.Notes == nil || *s.Notes == "")
}

// StatusUpdate is the body of a status transition request
type StatusUpdate struct {
	Status ApplicationStatus `json:"status"`
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}
