package handlers

import (
	"net/http"

	"github.com/andresuchdata/butcherline/backend-go/internal/api/middleware"
	"github.com/andresuchdata/butcherline/backend-go/internal/domain"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	inventory *service.InventoryService
	cutting   *service.CuttingService
}

func NewInventoryHandler(inventory *service.InventoryService, cutting *service.CuttingService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, cutting: cutting}
}

func (h *InventoryHandler) CreateLot(c *gin.Context) {
	var input service.CreateLotInput
	if !bindJSON(c, &input) {
		return
	}
	lot, err := h.inventory.CreateLot(c.Request.Context(), middleware.TenantFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, lot)
}

func (h *InventoryHandler) GetLot(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	lot, err := h.inventory.GetLot(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

// ListLots accepts ?status=aging,available.
func (h *InventoryHandler) ListLots(c *gin.Context) {
	var statuses []domain.LotStatus
	for _, raw := range splitQuery(c, "status") {
		s, ok := domain.ParseLotStatus(raw)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown lot status " + raw})
			return
		}
		statuses = append(statuses, s)
	}
	lots, err := h.inventory.ListLots(c.Request.Context(), middleware.TenantFrom(c), statuses)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lots)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *InventoryHandler) UpdateLotStatus(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !bindJSON(c, &req) {
		return
	}
	lot, err := h.inventory.UpdateLotStatus(c.Request.Context(), middleware.TenantFrom(c), id, domain.LotStatus(req.Status))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

type weightRequest struct {
	Weight decimal.Decimal `json:"weight_lb"`
}

func (h *InventoryHandler) CorrectLotWeight(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req weightRequest
	if !bindJSON(c, &req) {
		return
	}
	lot, err := h.inventory.CorrectLotWeight(c.Request.Context(), middleware.TenantFrom(c), id, req.Weight)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lot)
}

type cuttingRequest struct {
	SourceLotID uuid.UUID                  `json:"source_lot_id"`
	InputWeight decimal.Decimal            `json:"input_weight_lb"`
	SessionDate string                     `json:"session_date" binding:"required"`
	Notes       *string                    `json:"notes"`
	Items       []service.CuttingItemInput `json:"items"`
}

func (h *InventoryHandler) RecordCuttingSession(c *gin.Context) {
	var req cuttingRequest
	if !bindJSON(c, &req) {
		return
	}
	day, err := parseDate(req.SessionDate)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session_date"})
		return
	}
	res, err := h.cutting.RecordCuttingSession(c.Request.Context(), middleware.TenantFrom(c), service.RecordCuttingInput{
		SourceLotID: req.SourceLotID,
		InputWeight: req.InputWeight,
		SessionDate: day,
		Notes:       req.Notes,
		Items:       req.Items,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *InventoryHandler) GetCuttingSession(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	session, err := h.cutting.GetSession(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, session)
}
