package handlers

import (
	"net/http"

	"github.com/andresuchdata/butcherline/backend-go/internal/api/middleware"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type DeliveryHandler struct {
	delivery *service.DeliveryService
}

func NewDeliveryHandler(delivery *service.DeliveryService) *DeliveryHandler {
	return &DeliveryHandler{delivery: delivery}
}

type createRouteRequest struct {
	Name      string     `json:"name"`
	RouteDate string     `json:"route_date" binding:"required"`
	DriverID  *uuid.UUID `json:"driver_id"`
}

func (h *DeliveryHandler) CreateRoute(c *gin.Context) {
	var req createRouteRequest
	if !bindJSON(c, &req) {
		return
	}
	day, err := parseDate(req.RouteDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid route_date"})
		return
	}
	route, err := h.delivery.CreateRoute(c.Request.Context(), middleware.TenantFrom(c), service.CreateRouteInput{
		Name:      req.Name,
		RouteDate: day,
		DriverID:  req.DriverID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, route)
}

func (h *DeliveryHandler) GetRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	route, err := h.delivery.GetRoute(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}

func (h *DeliveryHandler) DeleteRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.delivery.DeleteRoute(c.Request.Context(), middleware.TenantFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *DeliveryHandler) AddStop(c *gin.Context) {
	routeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var input service.AddStopInput
	if !bindJSON(c, &input) {
		return
	}
	stop, err := h.delivery.AddStop(c.Request.Context(), middleware.TenantFrom(c), routeID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, stop)
}

func (h *DeliveryHandler) RemoveStop(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.delivery.RemoveStop(c.Request.Context(), middleware.TenantFrom(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reorderRequest struct {
	StopIDs []uuid.UUID `json:"stop_ids"`
}

// ReorderStops answers 207 when only some stops were renumbered, listing
// which ones so the client can retry the rest.
func (h *DeliveryHandler) ReorderStops(c *gin.Context) {
	routeID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req reorderRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.delivery.ReorderStops(c.Request.Context(), middleware.TenantFrom(c), routeID, req.StopIDs)
	if err != nil {
		if res != nil {
			c.JSON(http.StatusMultiStatus, gin.H{"error": err.Error(), "updated": res.Updated, "failed": res.Failed})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type deliverRequest struct {
	Notes *string `json:"notes"`
}

func (h *DeliveryHandler) MarkStopDelivered(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req deliverRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}
	res, err := h.delivery.MarkStopDelivered(c.Request.Context(), middleware.TenantFrom(c), id, req.Notes)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *DeliveryHandler) CompleteRoute(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	route, err := h.delivery.CompleteRoute(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, route)
}
