package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/planning"
	"github.com/stridehq/stride-backend/internal/requestdata"
	"github.com/stridehq/stride-backend/internal/services"
)

type ReplanHandler struct {
	log           *logger.Logger
	replanService services.ReplanService
}

func NewReplanHandler(log *logger.Logger, replanService services.ReplanService) *ReplanHandler {
	return &ReplanHandler{
		log:           log.With("handler", "ReplanHandler"),
		replanService: replanService,
	}
}

type customSeriesPoint struct {
	Date  time.Time `json:"date" binding:"required"`
	Value float64   `json:"value"`
}

type adjustRequest struct {
	Strategy     string              `json:"strategy" binding:"required"`
	CustomSeries []customSeriesPoint `json:"custom_series"`
	Reason       string              `json:"reason"`
}

func (h *ReplanHandler) Adjust(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	var req adjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	custom := make([]planning.SeriesPoint, 0, len(req.CustomSeries))
	for _, p := range req.CustomSeries {
		custom = append(custom, planning.SeriesPoint{Date: p.Date, Value: p.Value})
	}
	result, err := h.replanService.Adjust(c.Request.Context(), linkID, services.AdjustInput{
		Strategy:     req.Strategy,
		CustomSeries: custom,
		Reason:       req.Reason,
		ActorID:      rd.PersonID,
	})
	if err != nil {
		h.log.Error("Adjust failed", "error", err, "link_id", linkID, "strategy", req.Strategy)
		RespondAppError(c, "replan_adjust_failed", err)
		return
	}
	RespondOK(c, result)
}

type dismissRequest struct {
	Reason string `json:"reason"`
}

func (h *ReplanHandler) Dismiss(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	var req dismissRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	if err := h.replanService.Dismiss(c.Request.Context(), linkID, req.Reason, rd.PersonID); err != nil {
		h.log.Error("Dismiss failed", "error", err, "link_id", linkID)
		RespondAppError(c, "replan_dismiss_failed", err)
		return
	}
	RespondOK(c, gin.H{"dismissed": true})
}

func (h *ReplanHandler) History(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	adjustments, err := h.replanService.History(c.Request.Context(), linkID)
	if err != nil {
		h.log.Error("History failed", "error", err, "link_id", linkID)
		RespondAppError(c, "replan_history_failed", err)
		return
	}
	RespondOK(c, gin.H{"adjustments": adjustments})
}
