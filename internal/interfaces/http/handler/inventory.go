package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	inventoryapp "github.com/stitchwork/backend/internal/application/inventory"
)

// InventoryHandler handles quantity ledger API endpoints
type InventoryHandler struct {
	BaseHandler
	service *inventoryapp.LedgerService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(service *inventoryapp.LedgerService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// RegisterRoutes registers inventory routes on the given group
func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	subjects := rg.Group("/subjects")
	{
		subjects.POST("", h.Create)
		subjects.GET("/:id", h.GetByID)
		subjects.GET("/code/:code", h.GetByCode)
		subjects.PUT("/:id/reserved", h.SetReserved)
		subjects.POST("/:id/events", h.AppendEvent)
		subjects.GET("/:id/balance", h.GetBalance)
		subjects.GET("/:id/events", h.GetHistory)
	}
}

// Create registers a new tracked quantity
func (h *InventoryHandler) Create(c *gin.Context) {
	var req inventoryapp.CreateSubjectRequest
	if !h.BindJSON(c, &req) {
		return
	}

	subject, err := h.service.CreateSubject(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, subject)
}

// GetByID returns one subject
func (h *InventoryHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subject ID format")
		return
	}

	subject, err := h.service.GetSubject(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, subject)
}

// GetByCode returns one subject by its unique code
func (h *InventoryHandler) GetByCode(c *gin.Context) {
	code := c.Param("code")

	subject, err := h.service.GetSubjectByCode(c.Request.Context(), code)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, subject)
}

// SetReservedRequest toggles the reserved flag on a subject
type SetReservedRequest struct {
	Reserved *bool `json:"reserved" binding:"required"`
}

// SetReserved marks a subject as reserved or releases it
func (h *InventoryHandler) SetReserved(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subject ID format")
		return
	}

	var req SetReservedRequest
	if !h.BindJSON(c, &req) {
		return
	}

	subject, err := h.service.SetReserved(c.Request.Context(), id, *req.Reserved)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, subject)
}

// AppendEvent records one quantity movement against a subject
func (h *InventoryHandler) AppendEvent(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subject ID format")
		return
	}

	var req inventoryapp.AppendEventRequest
	if !h.BindJSON(c, &req) {
		return
	}

	balance, err := h.service.AppendEvent(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, balance)
}

// GetBalance returns the subject's derived balance
func (h *InventoryHandler) GetBalance(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subject ID format")
		return
	}

	balance, err := h.service.GetBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, balance)
}

// GetHistory returns the subject's full movement log in occurrence order
func (h *InventoryHandler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid subject ID format")
		return
	}

	events, err := h.service.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, events)
}
