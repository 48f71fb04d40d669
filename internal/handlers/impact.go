package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/services"
)

type ImpactHandler struct {
	log           *logger.Logger
	impactService services.ImpactService
}

func NewImpactHandler(log *logger.Logger, impactService services.ImpactService) *ImpactHandler {
	return &ImpactHandler{
		log:           log.With("handler", "ImpactHandler"),
		impactService: impactService,
	}
}

func (h *ImpactHandler) GetImpact(c *gin.Context) {
	measureID, err := uuid.Parse(c.Param("measureID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_measure_id", err)
		return
	}
	rows, err := h.impactService.GetImpact(c.Request.Context(), measureID)
	if err != nil {
		h.log.Error("GetImpact failed", "error", err, "measure_id", measureID)
		RespondAppError(c, "get_impact_failed", err)
		return
	}
	RespondOK(c, gin.H{"impacts": rows})
}
