package model

import (
	"database/sql"
	"time"

	"github.com/cuongbtq/farmhand/internal/domain"
)

// Job is a row of the jobs table
type Job struct {
	ID               int64          `db:"id"`
	GrowerID         string         `db:"grower_id"`
	FarmName         sql.NullString `db:"farm_name"`
	Title            string         `db:"title"`
	Pay              string         `db:"pay"`
	Location         string         `db:"location"`
	Date             string         `db:"date"`
	Description      sql.NullString `db:"description"`
	CropType         sql.NullString `db:"crop_type"`
	WorkersRequested sql.NullInt32  `db:"workers_requested"`
	CreatedAt        time.Time      `db:"created_at"`
}

// ToDomain converts the row to the API representation
func (j Job) ToDomain() domain.Job {
	job := domain.Job{
		ID:          j.ID,
		Title:       j.Title,
		Pay:         j.Pay,
		Location:    j.Location,
		Date:        j.Date,
		Description: nullString(j.Description),
		CropType:    nullString(j.CropType),
		GrowerID:    j.GrowerID,
		FarmName:    j.FarmName.String,
	}
	if j.WorkersRequested.Valid {
		n := int(j.WorkersRequested.Int32)
		job.WorkersRequested = &n
	}
	return job
}

// Application is an applications row joined with its job and worker profile
type Application struct {
	ID          int64          `db:"id"`
	JobID       int64          `db:"job_id"`
	JobTitle    string         `db:"job_title"`
	GrowerID    string         `db:"grower_id"`
	FarmName    sql.NullString `db:"farm_name"`
	WorkerID    string         `db:"worker_id"`
	WorkerName  sql.NullString `db:"worker_name"`
	WorkerPhone sql.NullString `db:"worker_phone"`
	Status      string         `db:"status"`
	AudioURL    sql.NullString `db:"audio_url"`
	Notes       sql.NullString `db:"notes"`
	SubmittedAt time.Time      `db:"submitted_at"`
}

// ToDomain converts the row to the API representation
func (a Application) ToDomain() domain.Application {
	submitted := a.SubmittedAt
	return domain.Application{
		ID:          a.ID,
		JobID:       a.JobID,
		JobTitle:    a.JobTitle,
		WorkerID:    &a.WorkerID,
		WorkerName:  nullString(a.WorkerName),
		WorkerPhone: nullString(a.WorkerPhone),
		Status:      domain.ApplicationStatus(a.Status),
		AudioURL:    nullString(a.AudioURL),
		Notes:       nullString(a.Notes),
		SubmittedAt: &submitted,
		GrowerID:    &a.GrowerID,
		FarmName:    nullString(a.FarmName),
	}
}

// Contract is a row of the contracts table
type Contract struct {
	ID            string         `db:"id"`
	ApplicationID int64          `db:"application_id"`
	JobID         int64          `db:"job_id"`
	JobTitle      string         `db:"job_title"`
	Pay           string         `db:"pay"`
	StartDate     string         `db:"start_date"`
	WorkerID      string         `db:"worker_id"`
	GrowerID      string         `db:"grower_id"`
	FarmName      sql.NullString `db:"farm_name"`
	Status        string         `db:"status"`
	CreatedAt     time.Time      `db:"created_at"`
}

// ToDomain converts the row to the API representation
func (c Contract) ToDomain() domain.Contract {
	return domain.Contract{
		ID:            c.ID,
		ApplicationID: c.ApplicationID,
		JobID:         c.JobID,
		JobTitle:      c.JobTitle,
		Pay:           c.Pay,
		StartDate:     c.StartDate,
		WorkerID:      c.WorkerID,
		GrowerID:      c.GrowerID,
		FarmName:      c.FarmName.String,
		Status:        c.Status,
		CreatedAt:     c.CreatedAt,
	}
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	s := ns.String
	return &s
}
