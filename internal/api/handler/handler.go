package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apidomain "github.com/cuongbtq/farmhand/internal/api/domain"
	"github.com/cuongbtq/farmhand/internal/api/model"
	"github.com/cuongbtq/farmhand/internal/api/storage"
	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// userContextKey holds the authenticated auth.User on the gin context
const userContextKey = "farmhand.user"

// Store is the persistence the handlers need
type Store interface {
	Ping(ctx context.Context) error
	CreateJob(ctx context.Context, job storage.NewJob) (*model.Job, error)
	GetJobByID(ctx context.Context, id int64) (*model.Job, error)
	ListJobs(ctx context.Context, filter storage.JobFilter) ([]model.Job, error)
	CreateApplication(ctx context.Context, workerID string, sub domain.ApplicationSubmission) (*model.Application, error)
	GetApplication(ctx context.Context, id int64) (*model.Application, error)
	ListApplications(ctx context.Context, filter storage.ApplicationFilter) ([]model.Application, error)
	DecideApplication(ctx context.Context, id int64, status domain.ApplicationStatus, decidedBy string, onDecided func(*model.Application) error) (*model.Application, error)
	ListContracts(ctx context.Context, filter storage.ContractFilter) ([]model.Contract, error)
}

// Publisher sends decision events to the worker
type Publisher interface {
	PublishJSON(ctx context.Context, messageID string, v any) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger      *slog.Logger
	Store       Store
	Publisher   Publisher
	ServiceName string
}

// Handler serves the jobs, applications and contracts endpoints
type Handler struct {
	logger    *slog.Logger
	store     Store
	publisher Publisher
	service   string
}

// New creates a Handler
func New(deps *Dependencies) *Handler {
	return &Handler{
		logger:    deps.Logger,
		store:     deps.Store,
		publisher: deps.Publisher,
		service:   deps.ServiceName,
	}
}

// SetUser stores the authenticated user on the request context
func SetUser(c *gin.Context, u auth.User) {
	c.Set(userContextKey, u)
}

// CurrentUser returns the authenticated user of the request
func CurrentUser(c *gin.Context) (auth.User, bool) {
	v, ok := c.Get(userContextKey)
	if !ok {
		return auth.User{}, false
	}
	u, ok := v.(auth.User)
	return u, ok
}

// requireUser aborts with 401 when no user is attached, and with 403 when
// roles are given and the user holds none of them.
func requireUser(c *gin.Context, roles ...domain.Role) (auth.User, bool) {
	u, ok := CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return auth.User{}, false
	}
	if len(roles) == 0 {
		return u, true
	}
	for _, r := range roles {
		if u.Role == r {
			return u, true
		}
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "role not permitted"})
	return auth.User{}, false
}

// respondError maps storage and domain errors to status codes
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, apidomain.ErrJobNotFound), errors.Is(err, apidomain.ErrApplicationNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apidomain.ErrNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apidomain.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, apidomain.ErrPayloadConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error(fallback,
			slog.String("path", c.Request.URL.Path),
			slog.Any("error", err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}

// Health handles GET /health
func (h *Handler) Health(c *gin.Context) {
	if err := h.store.Ping(c.Request.Context()); err != nil {
		h.logger.Error("Health check failed", slog.Any("error", err))
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unhealthy",
			"service": h.service,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": h.service,
	})
}
