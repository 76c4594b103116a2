package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	documentapp "github.com/stitchwork/backend/internal/application/document"
	"github.com/stitchwork/backend/internal/domain/document"
)

// DocumentHandler handles document workflow API endpoints
type DocumentHandler struct {
	BaseHandler
	service *documentapp.TransitionService
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(service *documentapp.TransitionService) *DocumentHandler {
	return &DocumentHandler{service: service}
}

// RegisterRoutes registers document routes on the given group
func (h *DocumentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	docs := rg.Group("/documents")
	{
		docs.POST("", h.Create)
		docs.GET("", h.List)
		docs.GET("/:id", h.GetByID)
		docs.POST("/:id/transition", h.Transition)
		docs.GET("/:id/history", h.GetHistory)
	}
	workflows := rg.Group("/workflows")
	{
		workflows.GET("/:kind", h.DescribeWorkflow)
	}
}

// Create registers a new document at its workflow's initial state
func (h *DocumentHandler) Create(c *gin.Context) {
	var req documentapp.CreateDocumentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.CreateDocument(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, doc)
}

// GetByID returns one document with its current state
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	doc, err := h.service.GetDocument(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, doc)
}

// List returns documents of one kind
func (h *DocumentHandler) List(c *gin.Context) {
	kind := document.DocumentKind(c.Query("kind"))
	if kind == "" {
		h.BadRequest(c, "Query parameter 'kind' is required")
		return
	}

	filter, err := parseFilter(c)
	if err != nil {
		h.BadRequest(c, "Invalid list parameters")
		return
	}

	docs, err := h.service.ListDocuments(c.Request.Context(), kind, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, docs)
}

// Transition moves a document to a new state
func (h *DocumentHandler) Transition(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	var req documentapp.TransitionRequest
	if !h.BindJSON(c, &req) {
		return
	}

	doc, err := h.service.Transition(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, doc)
}

// GetHistory returns a document's state change audit trail
func (h *DocumentHandler) GetHistory(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid document ID format")
		return
	}

	history, err := h.service.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, history)
}

// DescribeWorkflow returns the full state table for a document kind
func (h *DocumentHandler) DescribeWorkflow(c *gin.Context) {
	kind := document.DocumentKind(c.Param("kind"))

	states, err := h.service.DescribeWorkflow(kind)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, states)
}
