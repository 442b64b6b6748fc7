package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	apidomain "github.com/cuongbtq/farmhand/internal/api/domain"
	"github.com/cuongbtq/farmhand/internal/api/model"
	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/domain"
	"github.com/cuongbtq/farmhand/shared/postgresql"
)

// Storage is the API's PostgreSQL access layer
type Storage struct {
	pg *postgresql.Client
	db *sqlx.DB
}

func NewStorage(pg *postgresql.Client) *Storage {
	return &Storage{
		pg: pg,
		db: pg.DB(),
	}
}

// Ping checks the database
func (s *Storage) Ping(ctx context.Context) error {
	return s.pg.HealthCheck(ctx)
}

// UpsertProfile records the latest role and contact details of a user
func (s *Storage) UpsertProfile(ctx context.Context, u auth.User) error {
	query := `
		INSERT INTO profiles (id, role, full_name, phone, farm_name, updated_at)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''), now())
		ON CONFLICT (id) DO UPDATE SET
			role = EXCLUDED.role,
			full_name = COALESCE(EXCLUDED.full_name, profiles.full_name),
			phone = COALESCE(EXCLUDED.phone, profiles.phone),
			farm_name = COALESCE(EXCLUDED.farm_name, profiles.farm_name),
			updated_at = now()
	`

	if _, err := s.db.ExecContext(ctx, query, u.ID, string(u.Role), u.Name, u.Phone, u.FarmName); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// NewJob carries the columns of a job insert
type NewJob struct {
	GrowerID         string
	Title            string
	Pay              string
	Location         string
	Date             string
	Description      *string
	CropType         *string
	WorkersRequested *int
}

const jobColumns = `
	j.id, j.grower_id, p.farm_name, j.title, j.pay, j.location, j.date,
	j.description, j.crop_type, j.workers_requested, j.created_at
`

func (s *Storage) CreateJob(ctx context.Context, job NewJob) (*model.Job, error) {
	query := `
		INSERT INTO jobs (
			grower_id, title, pay, location, date,
			description, crop_type, workers_requested
		) VALUES (
			$1, $2, $3, $4, $5,
			NULLIF($6, ''), NULLIF($7, ''), $8
		)
		RETURNING id
	`

	var id int64
	err := s.db.GetContext(ctx, &id, query,
		job.GrowerID,
		job.Title,
		job.Pay,
		job.Location,
		job.Date,
		job.Description,
		job.CropType,
		job.WorkersRequested,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	return s.GetJobByID(ctx, id)
}

func (s *Storage) GetJobByID(ctx context.Context, id int64) (*model.Job, error) {
	var job model.Job
	query := `SELECT ` + jobColumns + `
		FROM jobs j
		LEFT JOIN profiles p ON p.id = j.grower_id
		WHERE j.id = $1
	`

	err := s.db.GetContext(ctx, &job, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apidomain.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return &job, nil
}

type JobFilter struct {
	GrowerID string
	PageSize int
	Cursor   *JobCursor
}

// JobCursor marks the last job of a page in (created_at, id) order
type JobCursor struct {
	CreatedAt time.Time
	ID        int64
}

// ListJobs returns jobs newest first. With a page size it fetches one extra
// row so the caller can tell whether another page exists.
func (s *Storage) ListJobs(ctx context.Context, filter JobFilter) ([]model.Job, error) {
	query := `SELECT ` + jobColumns + `
		FROM jobs j
		LEFT JOIN profiles p ON p.id = j.grower_id
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.GrowerID != "" {
		query += fmt.Sprintf(" AND j.grower_id = $%d", argIdx)
		args = append(args, filter.GrowerID)
		argIdx++
	}

	if filter.Cursor != nil {
		query += fmt.Sprintf(" AND (j.created_at, j.id) < ($%d, $%d)", argIdx, argIdx+1)
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.ID)
		argIdx += 2
	}

	query += " ORDER BY j.created_at DESC, j.id DESC"

	if filter.PageSize > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, filter.PageSize+1)
	}

	jobs := []model.Job{}
	if err := s.db.SelectContext(ctx, &jobs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	return jobs, nil
}

const applicationColumns = `
	a.id, a.job_id, j.title AS job_title, j.grower_id, gp.farm_name,
	a.worker_id, wp.full_name AS worker_name, wp.phone AS worker_phone,
	a.status, a.audio_url, a.notes, a.submitted_at
`

const applicationFrom = `
	FROM applications a
	JOIN jobs j ON j.id = a.job_id
	LEFT JOIN profiles gp ON gp.id = j.grower_id
	LEFT JOIN profiles wp ON wp.id = a.worker_id
`

// CreateApplication inserts a pending application for workerID
func (s *Storage) CreateApplication(ctx context.Context, workerID string, sub domain.ApplicationSubmission) (*model.Application, error) {
	if _, err := s.GetJobByID(ctx, sub.JobID); err != nil {
		return nil, err
	}

	query := `
		INSERT INTO applications (job_id, worker_id, status, audio_url, notes)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING id
	`

	var id int64
	err := s.db.GetContext(ctx, &id, query, sub.JobID, workerID, string(domain.StatusPending), sub.AudioURL, sub.Notes)
	if err != nil {
		return nil, fmt.Errorf("failed to create application: %w", err)
	}

	return s.GetApplication(ctx, id)
}

func (s *Storage) GetApplication(ctx context.Context, id int64) (*model.Application, error) {
	var app model.Application
	query := `SELECT ` + applicationColumns + applicationFrom + ` WHERE a.id = $1`

	err := s.db.GetContext(ctx, &app, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apidomain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return &app, nil
}

type ApplicationFilter struct {
	Status   domain.ApplicationStatus
	GrowerID string
	WorkerID string
}

// ListApplications returns matching applications, newest first
func (s *Storage) ListApplications(ctx context.Context, filter ApplicationFilter) ([]model.Application, error) {
	query := `SELECT ` + applicationColumns + applicationFrom + ` WHERE 1=1`
	args := []interface{}{}
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(" AND a.status = $%d", argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}

	if filter.GrowerID != "" {
		query += fmt.Sprintf(" AND j.grower_id = $%d", argIdx)
		args = append(args, filter.GrowerID)
		argIdx++
	}

	if filter.WorkerID != "" {
		query += fmt.Sprintf(" AND a.worker_id = $%d", argIdx)
		args = append(args, filter.WorkerID)
	}

	query += " ORDER BY a.submitted_at DESC, a.id DESC"

	apps := []model.Application{}
	if err := s.db.SelectContext(ctx, &apps, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}

	return apps, nil
}

// DecideApplication moves a pending application to status. onDecided runs
// inside the transaction; if it fails the decision is rolled back.
func (s *Storage) DecideApplication(ctx context.Context, id int64, status domain.ApplicationStatus, decidedBy string, onDecided func(*model.Application) error) (*model.Application, error) {
	tx, err := s.pg.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE applications
		SET status = $2, decided_at = now(), decided_by = $3
		WHERE id = $1 AND status = $4
	`, id, string(status), decidedBy, string(domain.StatusPending))
	if err != nil {
		return nil, fmt.Errorf("failed to update application: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}

	if n == 0 {
		var exists bool
		if err := tx.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM applications WHERE id = $1)`, id); err != nil {
			return nil, fmt.Errorf("failed to check application: %w", err)
		}
		if !exists {
			return nil, apidomain.ErrApplicationNotFound
		}
		return nil, apidomain.ErrNotPending
	}

	var app model.Application
	query := `SELECT ` + applicationColumns + applicationFrom + ` WHERE a.id = $1`
	if err := tx.GetContext(ctx, &app, query, id); err != nil {
		return nil, fmt.Errorf("failed to reload application: %w", err)
	}

	if onDecided != nil {
		if err := onDecided(&app); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit decision: %w", err)
	}

	return &app, nil
}

type ContractFilter struct {
	WorkerID string
	GrowerID string
}

func (s *Storage) ListContracts(ctx context.Context, filter ContractFilter) ([]model.Contract, error) {
	query := `
		SELECT id, application_id, job_id, job_title, pay, start_date,
			worker_id, grower_id, farm_name, status, created_at
		FROM contracts
		WHERE 1=1
	`
	args := []interface{}{}
	argIdx := 1

	if filter.WorkerID != "" {
		query += fmt.Sprintf(" AND worker_id = $%d", argIdx)
		args = append(args, filter.WorkerID)
		argIdx++
	}

	if filter.GrowerID != "" {
		query += fmt.Sprintf(" AND grower_id = $%d", argIdx)
		args = append(args, filter.GrowerID)
	}

	query += " ORDER BY created_at DESC"

	contracts := []model.Contract{}
	if err := s.db.SelectContext(ctx, &contracts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list contracts: %w", err)
	}

	return contracts, nil
}
