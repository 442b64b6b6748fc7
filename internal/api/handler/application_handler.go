package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apidomain "github.com/cuongbtq/farmhand/internal/api/domain"
	"github.com/cuongbtq/farmhand/internal/api/dto"
	"github.com/cuongbtq/farmhand/internal/api/model"
	"github.com/cuongbtq/farmhand/internal/api/storage"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// SubmitApplication handles POST /applications
func (h *Handler) SubmitApplication(c *gin.Context) {
	user, ok := requireUser(c, domain.RoleWorker)
	if !ok {
		return
	}

	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "job_id is required"})
		return
	}

	sub := domain.ApplicationSubmission{
		JobID:    req.JobID,
		AudioURL: nonBlank(req.AudioURL),
		Notes:    nonBlank(req.Notes),
	}
	if sub.AudioURL != nil && sub.Notes != nil {
		h.respondError(c, apidomain.ErrPayloadConflict, "")
		return
	}

	app, err := h.store.CreateApplication(c.Request.Context(), user.ID, sub)
	if err != nil {
		h.respondError(c, err, "Failed to submit application")
		return
	}

	h.logger.Info("Application submitted",
		slog.Int64("application_id", app.ID),
		slog.Int64("job_id", app.JobID),
		slog.String("worker_id", user.ID),
		slog.Bool("quick_apply", sub.QuickApply()),
	)

	c.JSON(http.StatusCreated, app.ToDomain())
}

// ListApplications handles GET /applications. Growers only see
// applications to their own jobs, workers only their own applications.
func (h *Handler) ListApplications(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var req dto.ListApplicationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	status, valid := domain.ParseStatusFilter(req.Status)
	if !valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be one of pending, accepted, rejected"})
		return
	}

	filter := storage.ApplicationFilter{Status: status.Status()}
	switch user.Role {
	case domain.RoleAdmin:
		filter.GrowerID = req.GrowerID
	case domain.RoleGrower:
		if req.GrowerID != "" && req.GrowerID != user.ID {
			h.respondError(c, apidomain.ErrForbidden, "")
			return
		}
		filter.GrowerID = user.ID
	default:
		if req.GrowerID != "" {
			h.respondError(c, apidomain.ErrForbidden, "")
			return
		}
		filter.WorkerID = user.ID
	}

	rows, err := h.store.ListApplications(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "Failed to list applications")
		return
	}

	apps := make([]domain.Application, len(rows))
	for i, row := range rows {
		apps[i] = row.ToDomain()
	}

	c.JSON(http.StatusOK, apps)
}

// UpdateApplicationStatus handles PATCH /applications/:id. Only a pending
// application moves, and the decision event is published before commit.
func (h *Handler) UpdateApplicationStatus(c *gin.Context) {
	user, ok := requireUser(c, domain.RoleGrower, domain.RoleAdmin)
	if !ok {
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id must be a positive integer"})
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}

	next := domain.ApplicationStatus(req.Status)
	if !next.Terminal() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status must be accepted or rejected"})
		return
	}

	ctx := c.Request.Context()

	current, err := h.store.GetApplication(ctx, id)
	if err != nil {
		h.respondError(c, err, "Failed to load application")
		return
	}
	if user.Role == domain.RoleGrower && current.GrowerID != user.ID {
		h.respondError(c, apidomain.ErrForbidden, "")
		return
	}

	event := domain.DecisionEvent{
		EventID:       uuid.NewString(),
		ApplicationID: id,
		Status:        next,
		DecidedBy:     user.ID,
		DecidedAt:     time.Now().UTC(),
	}

	app, err := h.store.DecideApplication(ctx, id, next, user.ID, func(*model.Application) error {
		return h.publisher.PublishJSON(ctx, event.EventID, event)
	})
	if err != nil {
		h.respondError(c, err, "Failed to update application")
		return
	}

	h.logger.Info("Application decided",
		slog.Int64("application_id", id),
		slog.String("status", string(next)),
		slog.String("decided_by", user.ID),
		slog.String("event_id", event.EventID),
	)

	c.JSON(http.StatusOK, app.ToDomain())
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
