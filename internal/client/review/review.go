// Package review is the grower/admin applications dashboard: it loads
// applications by status, accepts or rejects pending ones, and plays voice
// applications one at a time.
package review

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/client/backend"
	"github.com/cuongbtq/farmhand/internal/client/playback"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// Alert messages shown to the reviewer
const (
	AlertUpdateFailed   = "Error updating application. Please try again."
	AlertPlaybackFailed = "Error playing audio. Please try downloading it instead."
)

var (
	// ErrNotSignedIn is returned when loading without a signed-in user
	ErrNotSignedIn = errors.New("not signed in")
	// ErrRoleNotPermitted is returned for roles that do not review applications
	ErrRoleNotPermitted = errors.New("role may not review applications")
	// ErrInvalidTransition is returned for a status change that is not pending to accepted/rejected
	ErrInvalidTransition = errors.New("invalid status transition")
)

// API is the part of the backend client the review uses
type API interface {
	ListApplications(ctx context.Context, s auth.Session, q backend.ApplicationQuery) ([]domain.Application, error)
	UpdateApplicationStatus(ctx context.Context, s auth.Session, id int64, status domain.ApplicationStatus) error
}

// Alerter shows a blocking message to the reviewer
type Alerter interface {
	Alert(msg string)
}

// AlertFunc adapts a function to Alerter
type AlertFunc func(msg string)

// Alert implements Alerter
func (f AlertFunc) Alert(msg string) { f(msg) }

// Option configures a Review
type Option func(*Review)

// WithOnChange registers fn to run after every state change. fn may be
// called from a playback goroutine.
func WithOnChange(fn func()) Option {
	return func(r *Review) { r.onChange = fn }
}

// Counts holds the number of loaded applications per status
type Counts struct {
	All      int
	Pending  int
	Accepted int
	Rejected int
}

// For returns the count shown on the tab for f
func (c Counts) For(f domain.StatusFilter) int {
	switch f {
	case domain.FilterPending:
		return c.Pending
	case domain.FilterAccepted:
		return c.Accepted
	case domain.FilterRejected:
		return c.Rejected
	default:
		return c.All
	}
}

// Review holds the loaded applications and the single playback slot
type Review struct {
	api      API
	player   playback.Player
	alerter  Alerter
	logger   *slog.Logger
	onChange func()

	mu      sync.Mutex
	apps    []domain.Application
	filter  domain.StatusFilter
	loading bool
	loadSeq uint64

	playing string
	current playback.Playback
	playSeq uint64
}

// New returns a review showing every status
func New(api API, player playback.Player, alerter Alerter, logger *slog.Logger, opts ...Option) *Review {
	r := &Review{
		api:     api,
		player:  player,
		alerter: alerter,
		logger:  logger,
		filter:  domain.FilterAll,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// BuildQuery composes the application query for a session and filter.
// Growers only see applications to their own jobs; admins see everything.
func BuildQuery(s auth.Session, filter domain.StatusFilter) (backend.ApplicationQuery, error) {
	if !s.SignedIn() {
		return backend.ApplicationQuery{}, ErrNotSignedIn
	}

	q := backend.ApplicationQuery{Status: filter.Status()}
	switch s.Role {
	case domain.RoleGrower:
		q.GrowerID = s.UserID
	case domain.RoleAdmin:
	default:
		return backend.ApplicationQuery{}, ErrRoleNotPermitted
	}

	return q, nil
}

// Load fetches applications for filter and replaces the loaded set. When
// loads overlap, only the most recently started one is applied.
func (r *Review) Load(ctx context.Context, s auth.Session, filter domain.StatusFilter) error {
	q, err := BuildQuery(s, filter)
	if err != nil {
		r.logger.Error("Failed to load applications",
			slog.String("role", string(s.Role)),
			slog.Any("error", err),
		)
		return err
	}

	r.mu.Lock()
	r.loadSeq++
	seq := r.loadSeq
	r.filter = filter
	r.loading = true
	r.mu.Unlock()
	r.changed()

	apps, err := r.api.ListApplications(ctx, s, q)

	r.mu.Lock()
	if seq != r.loadSeq {
		r.mu.Unlock()
		r.logger.Debug("Discarding superseded applications load",
			slog.String("filter", string(filter)),
		)
		return nil
	}
	r.loading = false
	if err == nil {
		r.apps = apps
	}
	r.mu.Unlock()
	r.changed()

	if err != nil {
		r.logger.Error("Failed to load applications",
			slog.String("filter", string(filter)),
			slog.Any("error", err),
		)
		return err
	}

	return nil
}

// UpdateStatus accepts or rejects an application, then reloads the current
// filter. Failures are logged and alerted; nothing is retried.
func (r *Review) UpdateStatus(ctx context.Context, s auth.Session, id int64, next domain.ApplicationStatus) error {
	if !next.Terminal() {
		return ErrInvalidTransition
	}

	r.mu.Lock()
	filter := r.filter
	for _, app := range r.apps {
		if app.ID == id && !app.Status.CanTransition(next) {
			r.mu.Unlock()
			return ErrInvalidTransition
		}
	}
	r.mu.Unlock()

	if err := r.api.UpdateApplicationStatus(ctx, s, id, next); err != nil {
		r.logger.Error("Failed to update application status",
			slog.Int64("application_id", id),
			slog.String("status", string(next)),
			slog.Any("error", err),
		)
		r.alert(AlertUpdateFailed)
		return err
	}

	r.logger.Info("Application status updated",
		slog.Int64("application_id", id),
		slog.String("status", string(next)),
	)

	return r.Load(ctx, s, filter)
}

// Actions returns the decisions offered for app
func (r *Review) Actions(app domain.Application) []domain.ApplicationStatus {
	return app.ReviewActions()
}

// Visible returns the loaded applications passing the current filter
func (r *Review) Visible() []domain.Application {
	r.mu.Lock()
	defer r.mu.Unlock()

	visible := make([]domain.Application, 0, len(r.apps))
	for _, app := range r.apps {
		if r.filter.Matches(app.Status) {
			visible = append(visible, app)
		}
	}
	return visible
}

// Application returns a loaded application by id
func (r *Review) Application(id int64) (domain.Application, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, app := range r.apps {
		if app.ID == id {
			return app, true
		}
	}
	return domain.Application{}, false
}

// Counts tallies the loaded applications per status
func (r *Review) Counts() Counts {
	r.mu.Lock()
	defer r.mu.Unlock()

	var c Counts
	for _, app := range r.apps {
		c.All++
		switch app.Status {
		case domain.StatusPending:
			c.Pending++
		case domain.StatusAccepted:
			c.Accepted++
		case domain.StatusRejected:
			c.Rejected++
		}
	}
	return c
}

// Loading reports whether a load is in flight
func (r *Review) Loading() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loading
}

// Filter returns the filter of the latest load
func (r *Review) Filter() domain.StatusFilter {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filter
}

func (r *Review) alert(msg string) {
	if r.alerter != nil {
		r.alerter.Alert(msg)
	}
}

func (r *Review) changed() {
	if r.onChange != nil {
		r.onChange()
	}
}
