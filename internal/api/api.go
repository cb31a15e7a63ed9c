// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/butcherline/backend-go/internal/api/handlers"
	"github.com/andresuchdata/butcherline/backend-go/internal/api/middleware"
	"github.com/andresuchdata/butcherline/backend-go/internal/metrics"
	"github.com/andresuchdata/butcherline/backend-go/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	AllowedOrigins []string
	// Metrics, when set, instruments every request and serves /metrics.
	Metrics *metrics.Metrics
}

func NewRouter(services *service.Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Add middleware
	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	if cfg.Metrics != nil {
		router.Use(middleware.Metrics(cfg.Metrics))
	}
	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.TenantHeader, middleware.UserHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	if services == nil {
		return router
	}

	apiGroup := router.Group("/api/v1", middleware.Tenant())

	catalogHandler := handlers.NewCatalogHandler(services.Catalog)
	{
		apiGroup.POST("/products", catalogHandler.CreateProduct)
		apiGroup.POST("/variants", catalogHandler.CreateVariant)
		apiGroup.GET("/variants/:id", catalogHandler.GetVariant)
		apiGroup.POST("/customers", catalogHandler.CreateCustomer)

		customerGroup := apiGroup.Group("/customers/:id")
		customerGroup.GET("/catalog", catalogHandler.ListCatalog)
		customerGroup.GET("/pricing", catalogHandler.ListPricing)
		customerGroup.PUT("/pricing", catalogHandler.UpsertPricing)
		customerGroup.POST("/pricing/copy", catalogHandler.CopyPricing)
		customerGroup.GET("/pricing/:variantId", catalogHandler.ResolvePrice)
		customerGroup.DELETE("/pricing/:variantId", catalogHandler.RemovePricing)
	}

	inventoryHandler := handlers.NewInventoryHandler(services.Inventory, services.Cutting)
	lotGroup := apiGroup.Group("/lots")
	{
		lotGroup.POST("", inventoryHandler.CreateLot)
		lotGroup.GET("", inventoryHandler.ListLots)
		lotGroup.GET("/:id", inventoryHandler.GetLot)
		lotGroup.PATCH("/:id/status", inventoryHandler.UpdateLotStatus)
		lotGroup.PATCH("/:id/weight", inventoryHandler.CorrectLotWeight)
	}
	cuttingGroup := apiGroup.Group("/cutting-sessions")
	{
		cuttingGroup.POST("", inventoryHandler.RecordCuttingSession)
		cuttingGroup.GET("/:id", inventoryHandler.GetCuttingSession)
	}

	orderHandler := handlers.NewOrderHandler(services.Orders, services.PickLists)
	orderGroup := apiGroup.Group("/orders")
	{
		orderGroup.POST("", orderHandler.PlaceOrder)
		orderGroup.GET("", orderHandler.ListOrders)
		orderGroup.GET("/pending", orderHandler.PendingOrders)
		orderGroup.GET("/:id", orderHandler.GetOrder)
		orderGroup.PATCH("/:id/status", orderHandler.UpdateStatus)
		orderGroup.POST("/:id/recalculate", orderHandler.RecalculateTotal)
		orderGroup.POST("/:id/pick-list", orderHandler.GeneratePickList)
	}
	apiGroup.PATCH("/order-items/:id/weight", orderHandler.UpdateItemWeight)

	pickListHandler := handlers.NewPickListHandler(services.PickLists)
	pickGroup := apiGroup.Group("/pick-lists")
	{
		pickGroup.GET("/:id", pickListHandler.Get)
		pickGroup.PATCH("/:id/assign", pickListHandler.Assign)
		pickGroup.POST("/:id/complete", pickListHandler.Complete)
	}
	apiGroup.POST("/pick-list-items/:id/pick", pickListHandler.PickItem)
	apiGroup.POST("/pick-list-items/:id/unpick", pickListHandler.UnpickItem)

	deliveryHandler := handlers.NewDeliveryHandler(services.Delivery)
	routeGroup := apiGroup.Group("/routes")
	{
		routeGroup.POST("", deliveryHandler.CreateRoute)
		routeGroup.GET("/:id", deliveryHandler.GetRoute)
		routeGroup.DELETE("/:id", deliveryHandler.DeleteRoute)
		routeGroup.POST("/:id/stops", deliveryHandler.AddStop)
		routeGroup.PUT("/:id/stops/order", deliveryHandler.ReorderStops)
		routeGroup.POST("/:id/complete", deliveryHandler.CompleteRoute)
	}
	apiGroup.DELETE("/stops/:id", deliveryHandler.RemoveStop)
	apiGroup.POST("/stops/:id/deliver", deliveryHandler.MarkStopDelivered)

	poHandler := handlers.NewPOHandler(services.PurchaseOrders)
	poGroup := apiGroup.Group("/purchase-orders")
	{
		poGroup.POST("", poHandler.CreatePO)
		poGroup.GET("/:id", poHandler.GetPO)
		poGroup.PATCH("/:id/status", poHandler.UpdateStatus)
		poGroup.POST("/:id/receive", poHandler.ReceivePO)
	}

	return router
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
