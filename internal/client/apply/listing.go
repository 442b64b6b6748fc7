package apply

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/client/storage"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// API is the part of the backend client the listing uses
type API interface {
	ListJobs(ctx context.Context, s auth.Session) ([]domain.Job, error)
	SubmitApplication(ctx context.Context, s auth.Session, sub domain.ApplicationSubmission) (domain.Application, error)
}

// Listing holds the open jobs a worker browses and applies to
type Listing struct {
	api      API
	uploader storage.Uploader
	bucket   string
	logger   *slog.Logger

	mu   sync.RWMutex
	jobs []domain.Job
}

// NewListing returns an empty listing
func NewListing(api API, uploader storage.Uploader, bucket string, logger *slog.Logger) *Listing {
	return &Listing{api: api, uploader: uploader, bucket: bucket, logger: logger}
}

// Refresh replaces the job set with the backend's current one
func (l *Listing) Refresh(ctx context.Context, s auth.Session) error {
	jobs, err := l.api.ListJobs(ctx, s)
	if err != nil {
		l.logger.Error("Failed to load jobs",
			slog.Any("error", err),
		)
		return err
	}

	l.mu.Lock()
	l.jobs = jobs
	l.mu.Unlock()

	return nil
}

// Jobs returns a copy of the current job set
func (l *Listing) Jobs() []domain.Job {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]domain.Job(nil), l.jobs...)
}

// Job looks a job up by id in the current set
func (l *Listing) Job(id int64) (domain.Job, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, j := range l.jobs {
		if j.ID == id {
			return j, true
		}
	}
	return domain.Job{}, false
}

// Apply uploads audio when present, then submits the application
func (l *Listing) Apply(ctx context.Context, s auth.Session, jobID int64, audio []byte, notes *string) (domain.Application, error) {
	sub := domain.ApplicationSubmission{JobID: jobID, Notes: notes}

	if len(audio) > 0 {
		publicURL, err := l.uploader.Upload(ctx, s, audio, storage.DefaultName, l.bucket)
		if err != nil {
			l.logger.Error("Failed to upload voice application",
				slog.Int64("job_id", jobID),
				slog.Any("error", err),
			)
			return domain.Application{}, fmt.Errorf("failed to upload audio: %w", err)
		}
		sub.AudioURL = &publicURL
	}

	app, err := l.api.SubmitApplication(ctx, s, sub)
	if err != nil {
		l.logger.Error("Failed to submit application",
			slog.Int64("job_id", jobID),
			slog.Bool("quick_apply", sub.QuickApply()),
			slog.Any("error", err),
		)
		return domain.Application{}, err
	}

	l.logger.Info("Application submitted",
		slog.Int64("job_id", jobID),
		slog.Int64("application_id", app.ID),
		slog.Bool("voice", sub.AudioURL != nil),
		slog.Bool("quick_apply", sub.QuickApply()),
	)

	return app, nil
}

// SubmitFunc adapts Apply for a Submission. Failures are logged by Apply;
// a successful submission refreshes the listing.
func (l *Listing) SubmitFunc(ctx context.Context, s auth.Session) SubmitFunc {
	return func(jobID int64, audio []byte, notes *string) {
		if _, err := l.Apply(ctx, s, jobID, audio, notes); err != nil {
			return
		}
		_ = l.Refresh(ctx, s)
	}
}
