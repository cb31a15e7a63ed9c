package handlers

import (
	"net/http"

	"github.com/andresuchdata/butcherline/backend-go/internal/api/middleware"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var input service.CreateProductInput
	if !bindJSON(c, &input) {
		return
	}
	product, err := h.catalog.CreateProduct(c.Request.Context(), middleware.TenantFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *CatalogHandler) CreateVariant(c *gin.Context) {
	var input service.CreateVariantInput
	if !bindJSON(c, &input) {
		return
	}
	variant, err := h.catalog.CreateVariant(c.Request.Context(), middleware.TenantFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, variant)
}

func (h *CatalogHandler) GetVariant(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	variant, err := h.catalog.GetVariant(c.Request.Context(), middleware.TenantFrom(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, variant)
}

func (h *CatalogHandler) CreateCustomer(c *gin.Context) {
	var input service.CreateCustomerInput
	if !bindJSON(c, &input) {
		return
	}
	customer, err := h.catalog.CreateCustomer(c.Request.Context(), middleware.TenantFrom(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, customer)
}

// ListCatalog returns the active variants priced for the customer.
func (h *CatalogHandler) ListCatalog(c *gin.Context) {
	customerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	entries, err := h.catalog.ListCatalog(c.Request.Context(), middleware.TenantFrom(c), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func (h *CatalogHandler) ResolvePrice(c *gin.Context) {
	customerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := uuidParam(c, "variantId")
	if !ok {
		return
	}
	price, override, err := h.catalog.ResolvePrice(c.Request.Context(), middleware.TenantFrom(c), customerID, variantID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price_per_unit": price, "customer_price": override})
}

func (h *CatalogHandler) ListPricing(c *gin.Context) {
	customerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	rows, err := h.catalog.ListPricing(c.Request.Context(), middleware.TenantFrom(c), customerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rows)
}

type upsertPricingRequest struct {
	VariantID    uuid.UUID       `json:"variant_id"`
	PricePerUnit decimal.Decimal `json:"price_per_unit"`
}

func (h *CatalogHandler) UpsertPricing(c *gin.Context) {
	customerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req upsertPricingRequest
	if !bindJSON(c, &req) {
		return
	}
	row, err := h.catalog.UpsertPricing(c.Request.Context(), middleware.TenantFrom(c), service.UpsertPricingInput{
		CustomerID:   customerID,
		VariantID:    req.VariantID,
		PricePerUnit: req.PricePerUnit,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, row)
}

func (h *CatalogHandler) RemovePricing(c *gin.Context) {
	customerID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	variantID, ok := uuidParam(c, "variantId")
	if !ok {
		return
	}
	if err := h.catalog.RemovePricing(c.Request.Context(), middleware.TenantFrom(c), customerID, variantID); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type copyPricingRequest struct {
	SourceCustomerID uuid.UUID `json:"source_customer_id" binding:"required"`
}

func (h *CatalogHandler) CopyPricing(c *gin.Context) {
	targetID, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req copyPricingRequest
	if !bindJSON(c, &req) {
		return
	}
	copied, err := h.catalog.CopyPricing(c.Request.Context(), middleware.TenantFrom(c), targetID, req.SourceCustomerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"copied": copied})
}
