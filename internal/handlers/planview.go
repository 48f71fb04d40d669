package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/services"
)

type PlanViewHandler struct {
	log             *logger.Logger
	planViewService services.PlanViewService
}

func NewPlanViewHandler(log *logger.Logger, planViewService services.PlanViewService) *PlanViewHandler {
	return &PlanViewHandler{
		log:             log.With("handler", "PlanViewHandler"),
		planViewService: planViewService,
	}
}

func (h *PlanViewHandler) GetPlanView(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	view, err := h.planViewService.GetPlanView(c.Request.Context(), linkID)
	if err != nil {
		h.log.Error("GetPlanView failed", "error", err, "link_id", linkID)
		RespondAppError(c, "get_plan_view_failed", err)
		return
	}
	RespondOK(c, view)
}
