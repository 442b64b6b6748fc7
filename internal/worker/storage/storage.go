package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"

	core "github.com/cuongbtq/farmhand/internal/domain"
	"github.com/cuongbtq/farmhand/internal/worker/domain"
)

// Storage handles all database operations for the worker
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// GetDecidedApplication loads an application together with the job terms a contract copies
func (s *Storage) GetDecidedApplication(ctx context.Context, applicationID int64) (*domain.DecidedApplication, error) {
	query := `
		SELECT a.id AS application_id, j.id AS job_id, j.title AS job_title, j.pay,
			j.date AS start_date, a.worker_id, j.grower_id, p.farm_name, a.status
		FROM applications a
		JOIN jobs j ON j.id = a.job_id
		LEFT JOIN profiles p ON p.id = j.grower_id
		WHERE a.id = $1
	`

	var app domain.DecidedApplication
	if err := s.db.GetContext(ctx, &app, query, applicationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}

	return &app, nil
}

// IssueContract inserts a contract for the application. It reports false when a
// contract for the same application already exists.
func (s *Storage) IssueContract(ctx context.Context, contract core.Contract, eventID string) (bool, error) {
	query := `
		INSERT INTO contracts (id, application_id, job_id, job_title, pay, start_date,
			worker_id, grower_id, farm_name, status, event_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (application_id) DO NOTHING
	`

	var farmName *string
	if contract.FarmName != "" {
		farmName = &contract.FarmName
	}

	result, err := s.db.ExecContext(ctx, query,
		contract.ID,
		contract.ApplicationID,
		contract.JobID,
		contract.JobTitle,
		contract.Pay,
		contract.StartDate,
		contract.WorkerID,
		contract.GrowerID,
		farmName,
		contract.Status,
		eventID,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert contract: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Contract already issued for application",
			slog.Int64("application_id", contract.ApplicationID),
		)
		return false, nil
	}

	s.logger.Info("Contract issued",
		slog.String("contract_id", contract.ID),
		slog.Int64("application_id", contract.ApplicationID),
	)

	return true, nil
}
