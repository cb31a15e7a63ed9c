package handlers

import (
	"net/http"

	"github.com/andresuchdata/butcherline/backend-go/internal/api/middleware"
	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const defaultOrderListLimit = 50

type OrderHandler struct {
	orders    *service.OrderService
	pickLists *service.PickListService
}

func NewOrderHandler(orders *service.OrderService, pickLists *service.PickListService) *OrderHandler {
	return &OrderHandler{orders: orders, pickLists: pickLists}
}

// PlaceOrder answers 201 even when line items failed to save; the body then
// carries a warning with the order number.
func (h *OrderHandler) PlaceOrder(c *gin.Context) {
	var input service.PlaceOrderInput
	if !bindJSON(c, &input) {
		return
	}
	res, err := h.orders.PlaceOrder(c.Request.Context(), middleware.TenantFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ListOrders accepts ?status=pending,confirmed&limit=20.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	var statuses []domain.OrderStatus
	for _, raw := range splitQuery(c, "status") {
		s, ok := domain.ParseOrderStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown order status " + raw})
			return
		}
		statuses = append(statuses, s)
	}
	limit := parsePositiveIntWithDefault(c.Query("limit"), defaultOrderListLimit)

	orders, err := h.orders.ListOrders(c.Request.Context(), middleware.TenantFrom(c), statuses, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) PendingOrders(c *gin.Context) {
	orders, err := h.orders.PendingOrders(c.Request.Context(), middleware.TenantFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), middleware.TenantFrom(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) RecalculateTotal(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	total, err := h.orders.RecalculateTotal(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"actual_total": total})
}

func (h *OrderHandler) UpdateItemWeight(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req weightRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.orders.UpdateItemWeight(c.Request.Context(), middleware.TenantFrom(c), id, req.Weight)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

type generatePickListRequest struct {
	AssignedTo *uuid.UUID `json:"assigned_to"`
}

func (h *OrderHandler) GeneratePickList(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req generatePickListRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	pl, err := h.pickLists.Generate(c.Request.Context(), middleware.TenantFrom(c), id, req.AssignedTo)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pl)
}
