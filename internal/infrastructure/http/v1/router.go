// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"tiendero/internal/domain/auth"
	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/domain/catalogs/store"
	"tiendero/internal/domain/catalogs/supplier"
	"tiendero/internal/domain/documents/cashregister"
	"tiendero/internal/domain/documents/credit"
	"tiendero/internal/domain/documents/purchaseorder"
	"tiendero/internal/domain/documents/returns"
	"tiendero/internal/domain/documents/sale"
	"tiendero/internal/domain/documents/transfer"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/domain/reports"
	"tiendero/internal/infrastructure/http/v1/handlers"
	"tiendero/internal/infrastructure/http/v1/middleware"
	"tiendero/internal/infrastructure/storage/postgres"
	"tiendero/pkg/logger"
)

// RouterConfig carries everything the router needs wired up.
type RouterConfig struct {
	Pool   *postgres.Pool
	Logger *logger.Logger

	JWTValidator middleware.JWTValidator

	AuthService         *auth.Service
	StoreService        *store.Service
	ProductService      *product.Service
	SupplierService     *supplier.Service
	InventoryService    *inventory.Service
	SaleService         *sale.Service
	CreditService       *credit.Service
	TransferService     *transfer.Service
	PurchaseService     *purchaseorder.Service
	ReturnService       *returns.Service
	CashRegisterService *cashregister.Service
	ReportService       *reports.Service
	BackupService       handlers.SnapshotWriter
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Order matters: recovery outermost, then trace so every log line
	// carries a request id.
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	authHandler := handlers.NewAuthHandler(cfg.AuthService)

	v1 := router.Group("/api/v1")
	{
		// Public auth endpoints.
		v1.POST("/auth/login", authHandler.Login)
		v1.POST("/auth/refresh", authHandler.Refresh)

		protected := v1.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))

		registerAuthRoutes(protected, authHandler)
		registerCatalogRoutes(protected, cfg)
		registerStoreRoutes(protected, cfg)
		registerDocumentRoutes(protected, cfg)

		backupHandler := handlers.NewBackupHandler(cfg.BackupService)
		protected.GET("/backup", middleware.RequireAdmin(), backupHandler.Export)
	}

	return router
}

func registerAuthRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	rg.POST("/auth/logout", h.Logout)
	rg.POST("/auth/password", h.ChangePassword)
	rg.GET("/auth/me", h.Me)

	users := rg.Group("/users")
	users.Use(middleware.RequireAdmin())
	{
		users.POST("", h.Register)
		users.GET("", h.ListUsers)
		users.PUT("/:id/active", h.SetActive)
	}
}

// registerCatalogRoutes wires stores, products and suppliers. Reads are
// open to every authenticated user; mutations are admin-only.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	admin := middleware.RequireAdmin()

	storeHandler := handlers.NewStoreHandler(cfg.StoreService)
	stores := rg.Group("/stores")
	{
		stores.POST("", admin, storeHandler.Create)
		stores.GET("", storeHandler.List)
		stores.GET("/:id", storeHandler.Get)
		stores.PUT("/:id", admin, storeHandler.Update)
		stores.DELETE("/:id", admin, storeHandler.Delete)
	}

	productHandler := handlers.NewProductHandler(cfg.ProductService)
	inventoryHandler := handlers.NewInventoryHandler(cfg.InventoryService, cfg.ReportService)
	products := rg.Group("/products")
	{
		products.POST("", admin, productHandler.Create)
		products.GET("", productHandler.List)
		products.GET("/sku/:sku", productHandler.GetBySKU)
		products.GET("/barcode/:barcode", productHandler.GetByBarcode)
		products.GET("/:id", productHandler.Get)
		products.PUT("/:id", admin, productHandler.Update)
		products.PUT("/:id/price", admin, productHandler.SetPrice)
		products.GET("/:id/price-history", productHandler.PriceHistory)
		products.GET("/:id/movements", inventoryHandler.History)
		products.DELETE("/:id", admin, productHandler.Delete)
	}

	supplierHandler := handlers.NewSupplierHandler(cfg.SupplierService)
	suppliers := rg.Group("/suppliers")
	{
		suppliers.POST("", admin, supplierHandler.Create)
		suppliers.GET("", supplierHandler.List)
		suppliers.GET("/:id", supplierHandler.Get)
		suppliers.PUT("/:id", admin, supplierHandler.Update)
		suppliers.DELETE("/:id", admin, supplierHandler.Delete)
	}
}

// registerStoreRoutes wires the store-nested resources: inventory, the
// cash register and reports. The scope middleware rejects users
// assigned to a different store.
func registerStoreRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	inventoryHandler := handlers.NewInventoryHandler(cfg.InventoryService, cfg.ReportService)
	registerHandler := handlers.NewCashRegisterHandler(cfg.CashRegisterService)
	reportsHandler := handlers.NewReportsHandler(cfg.ReportService)

	scoped := rg.Group("/stores/:id")
	scoped.Use(middleware.StoreScope("id"))
	{
		scoped.POST("/inventory", inventoryHandler.Assign)
		scoped.GET("/inventory", inventoryHandler.List)
		scoped.GET("/inventory/low-stock", inventoryHandler.LowStock)
		scoped.PUT("/inventory/:productId/thresholds", inventoryHandler.SetThresholds)
		scoped.POST("/inventory/:productId/adjust", inventoryHandler.Adjust)

		scoped.POST("/register/open", registerHandler.Open)
		scoped.POST("/register/movements", registerHandler.AddMovement)
		scoped.POST("/register/close", registerHandler.Close)
		scoped.GET("/register", registerHandler.Current)

		scoped.GET("/reports/sales", reportsHandler.Sales)
		scoped.GET("/reports/valuation", reportsHandler.Valuation)
		scoped.GET("/reports/credits", reportsHandler.Credits)
		scoped.GET("/dashboard", reportsHandler.Dashboard)
	}

	sessions := rg.Group("/register-sessions")
	{
		sessions.GET("", registerHandler.List)
		sessions.GET("/:id", registerHandler.Get)
	}
}

// registerDocumentRoutes wires sales, credits, transfers, purchase
// orders and returns. Store access is checked per document inside the
// handlers since the store comes from the body or the document itself.
func registerDocumentRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	admin := middleware.RequireAdmin()

	saleHandler := handlers.NewSaleHandler(cfg.SaleService, cfg.ReportService)
	sales := rg.Group("/sales")
	{
		sales.POST("", saleHandler.Create)
		sales.GET("", saleHandler.List)
		sales.GET("/:id", saleHandler.Get)
		sales.POST("/:id/cancel", admin, saleHandler.Cancel)
	}

	creditHandler := handlers.NewCreditHandler(cfg.CreditService, cfg.ReportService)
	credits := rg.Group("/credits")
	{
		credits.POST("", creditHandler.Create)
		credits.GET("", creditHandler.List)
		credits.GET("/:id", creditHandler.Get)
		credits.POST("/:id/payments", creditHandler.AddPayment)
		credits.POST("/:id/cancel", admin, creditHandler.Cancel)
	}

	transferHandler := handlers.NewTransferHandler(cfg.TransferService, cfg.ReportService)
	transfers := rg.Group("/transfers")
	{
		transfers.POST("", transferHandler.Create)
		transfers.GET("", transferHandler.List)
		transfers.GET("/:id", transferHandler.Get)
		transfers.POST("/:id/send", transferHandler.Send)
		transfers.POST("/:id/receive", transferHandler.Receive)
		transfers.POST("/:id/cancel", admin, transferHandler.Cancel)
	}

	purchaseHandler := handlers.NewPurchaseOrderHandler(cfg.PurchaseService, cfg.ReportService)
	orders := rg.Group("/purchase-orders")
	{
		orders.POST("", purchaseHandler.Create)
		orders.GET("", purchaseHandler.List)
		orders.GET("/:id", purchaseHandler.Get)
		orders.POST("/:id/receive", purchaseHandler.Receive)
		orders.POST("/:id/cancel", admin, purchaseHandler.Cancel)
	}

	returnHandler := handlers.NewReturnHandler(cfg.ReturnService, cfg.ReportService)
	rets := rg.Group("/returns")
	{
		rets.POST("", returnHandler.Create)
		rets.GET("", returnHandler.List)
		rets.GET("/:id", returnHandler.Get)
		rets.POST("/:id/approve", returnHandler.Approve)
		rets.POST("/:id/reject", returnHandler.Reject)
		rets.POST("/:id/complete", returnHandler.Complete)
	}
}
