package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/farmhand/internal/api/storage"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// ListContracts handles GET /contracts
func (h *Handler) ListContracts(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}

	var filter storage.ContractFilter
	switch user.Role {
	case domain.RoleAdmin:
	case domain.RoleGrower:
		filter.GrowerID = user.ID
	default:
		filter.WorkerID = user.ID
	}

	rows, err := h.store.ListContracts(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err, "Failed to list contracts")
		return
	}

	contracts := make([]domain.Contract, len(rows))
	for i, row := range rows {
		contracts[i] = row.ToDomain()
	}

	c.JSON(http.StatusOK, contracts)
}
