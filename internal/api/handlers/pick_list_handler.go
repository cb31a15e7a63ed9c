package handlers

import (
	"net/http"

	"github.com/andresuchdata/butcherline/backend-go/internal/api/middleware"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PickListHandler struct {
	pickLists *service.PickListService
}

func NewPickListHandler(pickLists *service.PickListService) *PickListHandler {
	return &PickListHandler{pickLists: pickLists}
}

func (h *PickListHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	pl, err := h.pickLists.Get(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pl)
}

type assignRequest struct {
	AssignedTo uuid.UUID `json:"assigned_to" binding:"required"`
}

func (h *PickListHandler) Assign(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req assignRequest
	if !bindJSON(c, &req) {
		return
	}
	pl, err := h.pickLists.Assign(c.Request.Context(), middleware.TenantFrom(c), id, req.AssignedTo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, pl)
}

func (h *PickListHandler) PickItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var input service.PickItemInput
	if !bindJSON(c, &input) {
		return
	}
	item, err := h.pickLists.PickItem(c.Request.Context(), middleware.TenantFrom(c), id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *PickListHandler) UnpickItem(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	item, err := h.pickLists.UnpickItem(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *PickListHandler) Complete(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.pickLists.Complete(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
