package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/requestdata"
	"github.com/stridehq/stride-backend/internal/services"
)

type DataPointHandler struct {
	log              *logger.Logger
	dataPointService services.DataPointService
}

func NewDataPointHandler(log *logger.Logger, dataPointService services.DataPointService) *DataPointHandler {
	return &DataPointHandler{
		log:              log.With("handler", "DataPointHandler"),
		dataPointService: dataPointService,
	}
}

type createTargetRequest struct {
	Subtype       string    `json:"subtype" binding:"required"`
	Value         float64   `json:"value"`
	EffectiveDate time.Time `json:"effective_date" binding:"required"`
	Label         string    `json:"label"`
	Rationale     string    `json:"rationale"`
	Confidence    *int      `json:"confidence"`
}

func (h *DataPointHandler) CreateTarget(c *gin.Context) {
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
	var req createTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	point, err := h.dataPointService.CreateTarget(c.Request.Context(), linkID, services.CreateTargetInput{
		Subtype:       req.Subtype,
		Value:         req.Value,
		EffectiveDate: req.EffectiveDate,
		Label:         req.Label,
		Rationale:     req.Rationale,
		Confidence:    req.Confidence,
		RecordedBy:    rd.PersonID,
	})
	if err != nil {
		h.log.Error("CreateTarget failed", "error", err, "link_id", linkID)
		RespondAppError(c, "create_target_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"point": point})
}

type targetUpsertItemRequest struct {
	ID            *uuid.UUID `json:"id"`
	Subtype       string     `json:"subtype" binding:"required"`
	Value         float64    `json:"value"`
	EffectiveDate time.Time  `json:"effective_date" binding:"required"`
	Label         string     `json:"label"`
	Rationale     string     `json:"rationale"`
	Confidence    *int       `json:"confidence"`
}

type batchUpsertTargetsRequest struct {
	Items []targetUpsertItemRequest `json:"items" binding:"required"`
}

func (h *DataPointHandler) BatchUpsertTargets(c *gin.Context) {
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
	var req batchUpsertTargetsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	items := make([]services.TargetUpsertItem, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, services.TargetUpsertItem{
			ID:            it.ID,
			Subtype:       it.Subtype,
			Value:         it.Value,
			EffectiveDate: it.EffectiveDate,
			Label:         it.Label,
			Rationale:     it.Rationale,
			Confidence:    it.Confidence,
		})
	}
	points, err := h.dataPointService.BatchUpsertTargets(c.Request.Context(), linkID, items, rd.PersonID)
	if err != nil {
		h.log.Error("BatchUpsertTargets failed", "error", err, "link_id", linkID)
		RespondAppError(c, "batch_upsert_targets_failed", err)
		return
	}
	RespondOK(c, gin.H{"points": points})
}

type recordActualRequest struct {
	Subtype       string     `json:"subtype"`
	Value         float64    `json:"value"`
	EffectiveDate time.Time  `json:"effective_date" binding:"required"`
	PeriodStart   *time.Time `json:"period_start"`
	Label         string     `json:"label"`
	Source        string     `json:"source"`
}

func (h *DataPointHandler) RecordActual(c *gin.Context) {
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
	var req recordActualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	result, err := h.dataPointService.RecordActual(c.Request.Context(), linkID, services.RecordActualInput{
		Subtype:       req.Subtype,
		Value:         req.Value,
		EffectiveDate: req.EffectiveDate,
		PeriodStart:   req.PeriodStart,
		Label:         req.Label,
		Source:        req.Source,
		RecordedBy:    rd.PersonID,
	})
	if err != nil {
		h.log.Error("RecordActual failed", "error", err, "link_id", linkID)
		RespondAppError(c, "record_actual_failed", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *DataPointHandler) GetSeries(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	q := repos.SeriesQuery{
		LinkID:   linkID,
		Category: c.Query("category"),
		Subtype:  c.Query("subtype"),
	}
	if v := c.Query("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_from", err)
			return
		}
		q.From = &t
	}
	if v := c.Query("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_to", err)
			return
		}
		q.To = &t
	}
	points, err := h.dataPointService.GetSeries(c.Request.Context(), q)
	if err != nil {
		h.log.Error("GetSeries failed", "error", err, "link_id", linkID)
		RespondAppError(c, "get_series_failed", err)
		return
	}
	RespondOK(c, gin.H{"points": points})
}

type updateTargetRequest struct {
	Value     float64 `json:"value"`
	Rationale *string `json:"rationale"`
}

func (h *DataPointHandler) UpdateTarget(c *gin.Context) {
	pointID, err := uuid.Parse(c.Param("pointID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_point_id", err)
		return
	}
	var req updateTargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	point, err := h.dataPointService.UpdateTarget(c.Request.Context(), pointID, req.Value, req.Rationale)
	if err != nil {
		h.log.Error("UpdateTarget failed", "error", err, "point_id", pointID)
		RespondAppError(c, "update_target_failed", err)
		return
	}
	RespondOK(c, gin.H{"point": point})
}

type updateActualRequest struct {
	Value           float64 `json:"value"`
	OverrideComment string  `json:"override_comment"`
}

func (h *DataPointHandler) UpdateActual(c *gin.Context) {
	pointID, err := uuid.Parse(c.Param("pointID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_point_id", err)
		return
	}
	var req updateActualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	point, err := h.dataPointService.UpdateActual(c.Request.Context(), pointID, req.Value, req.OverrideComment)
	if err != nil {
		h.log.Error("UpdateActual failed", "error", err, "point_id", pointID)
		RespondAppError(c, "update_actual_failed", err)
		return
	}
	RespondOK(c, gin.H{"point": point})
}
