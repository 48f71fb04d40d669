package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/stridehq/stride-backend/internal/logger"
	"github.com/stridehq/stride-backend/internal/repos"
	"github.com/stridehq/stride-backend/internal/requestdata"
	"github.com/stridehq/stride-backend/internal/services"
)

type LinkHandler struct {
	log         *logger.Logger
	linkService services.LinkService
}

func NewLinkHandler(log *logger.Logger, linkService services.LinkService) *LinkHandler {
	return &LinkHandler{
		log:         log.With("handler", "LinkHandler"),
		linkService: linkService,
	}
}

type createLinkRequest struct {
	MeasureID           uuid.UUID  `json:"measure_id" binding:"required"`
	PersonID            *uuid.UUID `json:"person_id"`
	GoalID              *uuid.UUID `json:"goal_id"`
	StrategyID          *uuid.UUID `json:"strategy_id"`
	ThresholdPct        *float64   `json:"threshold_pct"`
	Weight              *float64   `json:"weight"`
	LinkType            string     `json:"link_type"`
	DisplayOrder        int        `json:"display_order"`
	InterpolationMethod string     `json:"interpolation_method"`
	Direction           string     `json:"direction"`
	ReplanRequiredCount int        `json:"replan_required_count"`
}

func (h *LinkHandler) CreateLink(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil || rd.PersonID == uuid.Nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	personID := rd.PersonID
	if req.PersonID != nil {
		personID = *req.PersonID
	}
	link, err := h.linkService.CreateLink(c.Request.Context(), rd.TenantID, services.CreateLinkInput{
		MeasureID:           req.MeasureID,
		PersonID:            personID,
		GoalID:              req.GoalID,
		StrategyID:          req.StrategyID,
		ThresholdPct:        req.ThresholdPct,
		Weight:              req.Weight,
		LinkType:            req.LinkType,
		DisplayOrder:        req.DisplayOrder,
		InterpolationMethod: req.InterpolationMethod,
		Direction:           req.Direction,
		ReplanRequiredCount: req.ReplanRequiredCount,
	})
	if err != nil {
		h.log.Error("CreateLink failed", "error", err, "measure_id", req.MeasureID)
		RespondAppError(c, "create_link_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"link": link})
}

func (h *LinkHandler) GetLink(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	link, err := h.linkService.GetLink(c.Request.Context(), linkID)
	if err != nil {
		RespondAppError(c, "get_link_failed", err)
		return
	}
	RespondOK(c, gin.H{"link": link})
}

func (h *LinkHandler) ListLinks(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	filter := repos.LinkFilter{}
	if v := c.Query("measure_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_measure_id", err)
			return
		}
		filter.MeasureID = &id
	}
	if v := c.Query("goal_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_goal_id", err)
			return
		}
		filter.GoalID = &id
	}
	if v := c.Query("strategy_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_strategy_id", err)
			return
		}
		filter.StrategyID = &id
	}
	if v := c.Query("person_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_person_id", err)
			return
		}
		filter.PersonID = &id
	}
	if c.Query("personal_only") == "true" {
		filter.PersonalOnly = true
	}
	links, err := h.linkService.ListLinks(c.Request.Context(), rd.TenantID, filter)
	if err != nil {
		h.log.Error("ListLinks failed", "error", err, "tenant_id", rd.TenantID)
		RespondAppError(c, "list_links_failed", err)
		return
	}
	RespondOK(c, gin.H{"links": links})
}

type unlinkRequest struct {
	NewPrimaryLinkID *uuid.UUID `json:"new_primary_link_id"`
}

func (h *LinkHandler) Unlink(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	var req unlinkRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	if err := h.linkService.Unlink(c.Request.Context(), linkID, req.NewPrimaryLinkID); err != nil {
		h.log.Error("Unlink failed", "error", err, "link_id", linkID)
		RespondAppError(c, "unlink_failed", err)
		return
	}
	RespondOK(c, gin.H{"deleted": true})
}

type setPrimaryRequest struct {
	GoalID uuid.UUID `json:"goal_id" binding:"required"`
}

func (h *LinkHandler) SetPrimary(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	var req setPrimaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if err := h.linkService.SetPrimary(c.Request.Context(), linkID, req.GoalID); err != nil {
		h.log.Error("SetPrimary failed", "error", err, "link_id", linkID, "goal_id", req.GoalID)
		RespondAppError(c, "set_primary_failed", err)
		return
	}
	RespondOK(c, gin.H{"primary": true})
}

type updateLinkRequest struct {
	ThresholdPct *float64   `json:"threshold_pct"`
	Weight       *float64   `json:"weight"`
	DisplayOrder *int       `json:"display_order"`
	LinkType     *string    `json:"link_type"`
	PersonID     *uuid.UUID `json:"person_id"`
}

func (h *LinkHandler) UpdateMetadata(c *gin.Context) {
	linkID, err := uuid.Parse(c.Param("linkID"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_link_id", err)
		return
	}
	var req updateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	link, err := h.linkService.UpdateMetadata(c.Request.Context(), linkID, services.UpdateLinkMetadataInput{
		ThresholdPct: req.ThresholdPct,
		Weight:       req.Weight,
		DisplayOrder: req.DisplayOrder,
		LinkType:     req.LinkType,
		PersonID:     req.PersonID,
	})
	if err != nil {
		h.log.Error("UpdateMetadata failed", "error", err, "link_id", linkID)
		RespondAppError(c, "update_link_failed", err)
		return
	}
	RespondOK(c, gin.H{"link": link})
}
