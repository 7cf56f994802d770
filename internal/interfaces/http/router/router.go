package router

import (
	"github.com/booksync/backend/internal/infrastructure/logger"
	"github.com/booksync/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handlers bundles the handlers the router wires up
type Handlers struct {
	System  *handler.SystemHandler
	Auth    *handler.AuthHandler
	Sync    *handler.SyncHandler
	Vendor  *handler.VendorHandler
	Product *handler.ProductHandler
	Invoice *handler.InvoiceHandler
}

// New builds the gin engine with all routes registered
func New(log *zap.Logger, h Handlers) *gin.Engine {
	engine := gin.New()
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))

	engine.GET("/healthz", h.System.Health)
	engine.GET("/readyz", h.System.Ready)

	api := engine.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.GET("/:platform/callback", h.Auth.Callback)
			auth.GET("/:platform", h.Auth.Status)
			auth.DELETE("/:platform", h.Auth.Disconnect)
		}

		sync := api.Group("/sync")
		{
			sync.POST("/vendors", h.Sync.SyncVendors)
			sync.POST("/accounts", h.Sync.SyncAccounts)
			sync.POST("/products", h.Sync.SyncProducts)
			sync.POST("/invoices/:platform", h.Sync.SyncInvoices)
			sync.POST("/bills", h.Sync.SyncBills)
		}

		vendors := api.Group("/vendors")
		{
			vendors.GET("/:platform/:remote_id", h.Vendor.Get)
			vendors.PUT("/:platform/:remote_id", h.Vendor.Update)
		}

		products := api.Group("/products")
		{
			products.GET("/:platform/:remote_id", h.Product.Get)
			products.PUT("/:platform/:remote_id/price-override", h.Product.SetPriceOverride)
		}

		invoices := api.Group("/invoices")
		{
			invoices.GET("/:platform/:remote_id", h.Invoice.Get)
			invoices.PUT("/:platform/:remote_id", h.Invoice.Update)
			invoices.POST("/:platform/:remote_id/void", h.Invoice.Void)
		}
	}

	return engine
}
