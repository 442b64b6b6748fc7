package dto

// CreateJobRequest is the body of POST /jobs
type CreateJobRequest struct {
	Title            string  `json:"title" binding:"required"`
	Pay              string  `json:"pay" binding:"required"`
	Location         string  `json:"location" binding:"required"`
	Date             string  `json:"date" binding:"required"`
	Description      *string `json:"description"`
	CropType         *string `json:"crop_type"`
	WorkersRequested *int    `json:"workers_requested" binding:"omitempty,gt=0"`
}

// ListJobsRequest holds GET /jobs query parameters. Without page_size every
// job is returned.
type ListJobsRequest struct {
	GrowerID string `form:"grower_id"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// SubmitApplicationRequest is the body of POST /applications
type SubmitApplicationRequest struct {
	JobID    int64   `json:"job_id" binding:"required,gt=0"`
	AudioURL *string `json:"audio_url"`
	Notes    *string `json:"notes"`
}

// ListApplicationsRequest holds GET /applications query parameters
type ListApplicationsRequest struct {
	Status   string `form:"status"`
	GrowerID string `form:"grower_id"`
}

// UpdateStatusRequest is the body of PATCH /applications/:id
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
