package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/farmhand/internal/api/dto"
	"github.com/cuongbtq/farmhand/internal/api/storage"
	"github.com/cuongbtq/farmhand/internal/domain"
)

const (
	// NextCursorHeader carries the cursor of the following page of jobs
	NextCursorHeader = "X-Next-Cursor"

	maxPageSize = 100
)

// CreateJob handles POST /jobs
func (h *Handler) CreateJob(c *gin.Context) {
	user, ok := requireUser(c, domain.RoleGrower, domain.RoleAdmin)
	if !ok {
		return
	}

	var req dto.CreateJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid job request", slog.Any("error", err))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "title, pay, location and date are required",
		})
		return
	}

	job, err := h.store.CreateJob(c.Request.Context(), storage.NewJob{
		GrowerID:         user.ID,
		Title:            req.Title,
		Pay:              req.Pay,
		Location:         req.Location,
		Date:             req.Date,
		Description:      req.Description,
		CropType:         req.CropType,
		WorkersRequested: req.WorkersRequested,
	})
	if err != nil {
		h.respondError(c, err, "Failed to create job")
		return
	}

	h.logger.Info("Job created",
		slog.Int64("job_id", job.ID),
		slog.String("grower_id", user.ID),
	)

	c.JSON(http.StatusCreated, job.ToDomain())
}

// GetJob handles GET /jobs/:id
func (h *Handler) GetJob(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	job, err := h.store.GetJobByID(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to get job")
		return
	}

	c.JSON(http.StatusOK, job.ToDomain())
}

// ListJobs handles GET /jobs. With page_size the response is one page and
// the next page's cursor is returned in NextCursorHeader.
func (h *Handler) ListJobs(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}

	var req dto.ListJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	if req.PageSize < 0 {
		req.PageSize = 0
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid cursor"})
		return
	}

	rows, err := h.store.ListJobs(c.Request.Context(), storage.JobFilter{
		GrowerID: req.GrowerID,
		PageSize: req.PageSize,
		Cursor:   cursor,
	})
	if err != nil {
		h.respondError(c, err, "Failed to list jobs")
		return
	}

	if req.PageSize > 0 && len(rows) > req.PageSize {
		rows = rows[:req.PageSize]
		last := rows[len(rows)-1]
		c.Header(NextCursorHeader, EncodeJobCursor(storage.JobCursor{CreatedAt: last.CreatedAt, ID: last.ID}))
	}

	jobs := make([]domain.Job, len(rows))
	for i, row := range rows {
		jobs[i] = row.ToDomain()
	}

	c.JSON(http.StatusOK, jobs)
}
