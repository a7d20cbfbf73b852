package handler

import (
	"net/http"
	"time"

	"lead_engine_backend/internal/leads/actionlog"
	"lead_engine_backend/internal/leads/domain"
	"lead_engine_backend/internal/leads/lifecycle"
	"lead_engine_backend/internal/leads/statistics"
	"lead_engine_backend/internal/leads/transport"
	"lead_engine_backend/platform/httpkit"
	"lead_engine_backend/platform/logger"
	"lead_engine_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidID        = "invalid id"
)

type Handler struct {
	leads   *lifecycle.Service
	actions *actionlog.Service
	stats   *statistics.Service
	val     *validator.Validator
}

func New(leads *lifecycle.Service, actions *actionlog.Service, stats *statistics.Service, val *validator.Validator) *Handler {
	return &Handler{leads: leads, actions: actions, stats: stats, val: val}
}

// RegisterDealerRoutes mounts the dealer-scoped endpoints under /dealers/:dealerId.
func (h *Handler) RegisterDealerRoutes(rg *gin.RouterGroup) {
	rg.GET("/leads", h.List)
	rg.POST("/leads", h.Create)
	rg.GET("/leads/statistics", h.Statistics)
	rg.POST("/interactions", h.RecordInteraction)
}

// RegisterLeadRoutes mounts the lead endpoints under /leads.
func (h *Handler) RegisterLeadRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.GetByID)
	rg.PUT("/:id/status", h.UpdateStatus)
	rg.GET("/:id/actions", h.ListActions)
	rg.POST("/:id/actions", h.RecordAction)
	rg.GET("/:id/status-history", h.StatusHistory)
	rg.POST("/:id/recompute", h.Recompute)
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidID, name)
		return uuid.Nil, false
	}
	return id, true
}

// dealerContext tags the request context with the dealer for log enrichment.
func dealerContext(c *gin.Context, dealerID uuid.UUID) {
	ctx := logger.ContextWithDealerID(c.Request.Context(), dealerID.String())
	c.Request = c.Request.WithContext(ctx)
}

func (h *Handler) validate(c *gin.Context, req interface{}) bool {
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, validator.FieldErrors(err))
		return false
	}
	return true
}

func (h *Handler) List(c *gin.Context) {
	dealerID, ok := parseUUIDParam(c, "dealerId")
	if !ok {
		return
	}
	dealerContext(c, dealerID)

	var req transport.ListLeadsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	params := lifecycle.ListParams{
		DealerID: dealerID,
		Page:     req.Page,
		PageSize: req.PageSize,
		Search:   req.Search,
	}
	if temp, ok := domain.ParseTemperature(req.Temperature); ok {
		params.Temperature = &temp
	}
	if status, ok := domain.ParseStatus(req.Status); ok {
		params.Status = &status
	}

	result, err := h.leads.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}

	leads := make([]transport.LeadResponse, 0, len(result.Leads))
	for _, view := range result.Leads {
		leads = append(leads, toLeadResponse(view))
	}
	httpkit.OK(c, transport.LeadListResponse{
		Leads:      leads,
		TotalCount: result.TotalCount,
		TotalPages: result.TotalPages,
		Page:       result.Page,
		PageSize:   result.PageSize,
	})
}

func (h *Handler) Create(c *gin.Context) {
	dealerID, ok := parseUUIDParam(c, "dealerId")
	if !ok {
		return
	}
	dealerContext(c, dealerID)

	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	lead, created, err := h.leads.CreateOrGet(c.Request.Context(), lifecycle.CreateParams{
		DealerID:     dealerID,
		VehicleID:    req.VehicleID,
		BuyerID:      req.BuyerID,
		UserFullName: req.UserFullName,
		UserEmail:    req.UserEmail,
		UserPhone:    req.UserPhone,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	httpkit.JSON(c, status, toLeadResponse(lifecycle.LeadView{Lead: lead}))
}

func (h *Handler) Statistics(c *gin.Context) {
	dealerID, ok := parseUUIDParam(c, "dealerId")
	if !ok {
		return
	}
	dealerContext(c, dealerID)

	summary, err := h.stats.Summarize(c.Request.Context(), dealerID)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, summary)
}

func (h *Handler) RecordInteraction(c *gin.Context) {
	dealerID, ok := parseUUIDParam(c, "dealerId")
	if !ok {
		return
	}
	dealerContext(c, dealerID)

	var req transport.RecordInteractionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	actionType, _ := domain.ParseActionType(req.ActionType)
	result, err := h.actions.Ingest(c.Request.Context(), actionlog.InteractionParams{
		DealerID:     dealerID,
		VehicleID:    req.VehicleID,
		BuyerID:      req.BuyerID,
		UserFullName: req.UserFullName,
		UserEmail:    req.UserEmail,
		UserPhone:    req.UserPhone,
		ActionType:   actionType,
		Context:      req.Context,
		OccurredAt:   derefTime(req.OccurredAt),
	})
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.JSON(c, http.StatusCreated, transport.InteractionResponse{
		Lead:    toLeadResponse(lifecycle.LeadView{Lead: result.Lead}),
		Action:  toActionResponse(result.Action),
		Created: result.Created,
	})
}

func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	view, err := h.leads.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(view))
}

func (h *Handler) UpdateStatus(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	status, _ := domain.ParseStatus(req.Status)
	view, err := h.leads.UpdateStatus(c.Request.Context(), id, status, req.DealerNotes)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(view))
}

func (h *Handler) ListActions(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.ListActionsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	actions, err := h.actions.List(c.Request.Context(), id, req.Limit)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.ActionListResponse{Items: toActionResponses(actions)})
}

func (h *Handler) RecordAction(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req transport.RecordActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if !h.validate(c, req) {
		return
	}

	actionType, _ := domain.ParseActionType(req.ActionType)
	action, err := h.actions.Record(c.Request.Context(), actionlog.RecordParams{
		LeadID:     id,
		ActionType: actionType,
		OccurredAt: derefTime(req.OccurredAt),
		Context:    req.Context,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.JSON(c, http.StatusCreated, toActionResponse(action))
}

func (h *Handler) StatusHistory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	history, err := h.leads.StatusHistory(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.StatusHistoryResponse{Items: toStatusChangeResponses(history)})
}

// Recompute refreshes a lead's derived fields synchronously.
func (h *Handler) Recompute(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if _, err := h.leads.RecomputeDerived(c.Request.Context(), id); httpkit.HandleError(c, err) {
		return
	}

	view, err := h.leads.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, toLeadResponse(view))
}

func derefTime(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
