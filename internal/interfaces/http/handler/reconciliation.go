package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	financeapp "github.com/stitchwork/backend/internal/application/finance"
)

// ReconciliationHandler handles bank reconciliation API endpoints
type ReconciliationHandler struct {
	BaseHandler
	service *financeapp.ReconciliationService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(service *financeapp.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{service: service}
}

// RegisterRoutes registers reconciliation routes on the given group
func (h *ReconciliationHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sessions := rg.Group("/reconciliation/sessions")
	{
		sessions.POST("", h.Create)
		sessions.GET("", h.List)
		sessions.GET("/:id", h.GetByID)
		sessions.POST("/:id/lines", h.ImportLines)
		sessions.POST("/:id/items", h.ImportItems)
		sessions.POST("/:id/auto-match", h.AutoMatch)
		sessions.POST("/:id/match", h.MatchItem)
		sessions.DELETE("/:id/match/:lineID", h.UnmatchItem)
		sessions.POST("/:id/close", h.Close)
	}
}

// Create opens a new reconciliation session for one bank account and period
func (h *ReconciliationHandler) Create(c *gin.Context) {
	var req financeapp.CreateSessionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.CreateSession(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, session)
}

// GetByID returns one session with its lines and items
func (h *ReconciliationHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	session, err := h.service.GetSession(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// List returns sessions for one bank account
func (h *ReconciliationHandler) List(c *gin.Context) {
	bankAccountID, err := uuid.Parse(c.Query("bank_account_id"))
	if err != nil {
		h.BadRequest(c, "Query parameter 'bank_account_id' must be a valid UUID")
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	sessions, err := h.service.ListSessions(c.Request.Context(), bankAccountID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, sessions)
}

// ImportLinesRequest is a batch of bank statement lines
type ImportLinesRequest struct {
	Lines []financeapp.ImportLineRequest `json:"lines" binding:"required,dive"`
}

// ImportLines adds bank statement lines to a session
func (h *ReconciliationHandler) ImportLines(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	var req ImportLinesRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.ImportLines(c.Request.Context(), id, req.Lines)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// ImportItemsRequest is a batch of internal ledger references
type ImportItemsRequest struct {
	Items []financeapp.ImportItemRequest `json:"items" binding:"required,dive"`
}

// ImportItems adds internal ledger references to a session
func (h *ReconciliationHandler) ImportItems(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	var req ImportItemsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	session, err := h.service.ImportItems(c.Request.Context(), id, req.Items)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// AutoMatch runs the automatic matching pass over unmatched lines and items
func (h *ReconciliationHandler) AutoMatch(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	result, err := h.service.AutoMatch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// MatchItem pairs one line with one item manually
func (h *ReconciliationHandler) MatchItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	var req financeapp.ManualMatchRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.MatchItem(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// UnmatchItem dissolves the pairing on one line
func (h *ReconciliationHandler) UnmatchItem(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		h.BadRequest(c, "Invalid line ID format")
		return
	}

	session, err := h.service.UnmatchItem(c.Request.Context(), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}

// Close finalizes a session once every bank statement line is matched
func (h *ReconciliationHandler) Close(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid session ID format")
		return
	}

	session, err := h.service.Close(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, session)
}
