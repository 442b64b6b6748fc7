package backend

import "github.com/cuongbtq/farmhand/internal/domain"

// wireJob accepts both spellings some backends use for the optional fields.
// normalize is the only place the alternates are consulted.
type wireJob struct {
	ID                  int64   `json:"id"`
	Title               string  `json:"title"`
	Pay                 string  `json:"pay"`
	Location            string  `json:"location"`
	Date                string  `json:"date"`
	Description         *string `json:"description"`
	CropType            *string `json:"crop_type"`
	CropTypeAlt         *string `json:"cropType"`
	WorkersRequested    *int    `json:"workers_requested"`
	WorkersRequestedAlt *int    `json:"workersRequested"`
	GrowerID            string  `json:"grower_id"`
	FarmName            string  `json:"farm_name"`
}

func (w wireJob) normalize() domain.Job {
	job := domain.Job{
		ID:               w.ID,
		Title:            w.Title,
		Pay:              w.Pay,
		Location:         w.Location,
		Date:             w.Date,
		Description:      w.Description,
		CropType:         w.CropType,
		WorkersRequested: w.WorkersRequested,
		GrowerID:         w.GrowerID,
		FarmName:         w.FarmName,
	}
	if job.CropType == nil {
		job.CropType = w.CropTypeAlt
	}
	if job.WorkersRequested == nil {
		job.WorkersRequested = w.WorkersRequestedAlt
	}
	if job.Description != nil && *job.Description == "" {
		job.Description = nil
	}
	return job
}
