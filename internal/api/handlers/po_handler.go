// backend-go/internal/api/handlers/po_handler.go
package handlers

import (
	"net/http"

	"github.com/andresuchdata/butcherline/backend-go/internal/api/middleware"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/gin-gonic/gin"
)

type POHandler struct {
	poService *service.PurchaseOrderService
}

func NewPOHandler(poService *service.PurchaseOrderService) *POHandler {
	return &POHandler{poService: poService}
}

// CreatePO answers 201 even when line items failed to save; the body then
// carries a warning with the PO number.
func (h *POHandler) CreatePO(c *gin.Context) {
	var input service.CreatePOInput
	if !bindJSON(c, &input) {
		return
	}
	res, err := h.poService.CreatePO(c.Request.Context(), middleware.TenantFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// GetPO returns a purchase order with its lines
func (h *POHandler) GetPO(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	po, err := h.poService.GetPO(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *POHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	po, err := h.poService.UpdatePOStatus(c.Request.Context(), middleware.TenantFrom(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

// ReceivePO marks the PO received and reports how many lots were created.
func (h *POHandler) ReceivePO(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	res, err := h.poService.ReceivePO(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
