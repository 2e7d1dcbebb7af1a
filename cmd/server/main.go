// Package main is the entry point for the tiendero API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiendero/internal/config"
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
	"tiendero/internal/infrastructure/cache"
	v1 "tiendero/internal/infrastructure/http/v1"
	"tiendero/internal/infrastructure/storage/postgres"
	"tiendero/internal/infrastructure/storage/postgres/auth_repo"
	"tiendero/internal/infrastructure/storage/postgres/catalog_repo"
	"tiendero/internal/infrastructure/storage/postgres/document_repo"
	"tiendero/internal/infrastructure/storage/postgres/inventory_repo"
	"tiendero/internal/infrastructure/storage/postgres/report_repo"
	"tiendero/pkg/logger"
	"tiendero/pkg/numerator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Development: cfg.IsDevelopment(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	ctx := context.Background()
	log.Infow("starting tiendero server", "env", cfg.App.Environment)

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.Database.DSN)
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	num := numerator.New(postgres.NewNumeratorQuerier(txManager))

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to init audit service", "error", err)
	}

	// --- Report cache ---
	// Redis is optional: without it reports are computed on every
	// request.
	var reportCache reports.Cache
	redisCache, err := cache.NewRedisCache(ctx, cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warnw("redis unavailable, report caching disabled", "error", err)
	} else {
		reportCache = redisCache
		defer redisCache.Close()
	}

	// --- Repositories ---
	storeRepo := catalog_repo.NewStoreRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	supplierRepo := catalog_repo.NewSupplierRepo(txManager)
	ledgerRepo := inventory_repo.NewLedgerRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager, auditService)
	creditRepo := document_repo.NewCreditRepo(txManager, auditService)
	transferRepo := document_repo.NewTransferRepo(txManager, auditService)
	purchaseRepo := document_repo.NewPurchaseOrderRepo(txManager, auditService)
	returnRepo := document_repo.NewReturnRepo(txManager, auditService)
	registerRepo := document_repo.NewCashRegisterRepo(txManager, auditService)
	reportRepo := report_repo.NewReportRepo(txManager)
	userRepo := auth_repo.NewUserRepo(txManager)
	tokenRepo := auth_repo.NewTokenRepo(txManager)

	// --- Services ---
	inventoryService := inventory.NewService(ledgerRepo)
	storeService := store.NewService(storeRepo, num, txManager)
	productService := product.NewService(productRepo, txManager)
	supplierService := supplier.NewService(supplierRepo, num, txManager)
	saleService := sale.NewService(saleRepo, inventoryService, productRepo, num, txManager)
	creditService := credit.NewService(creditRepo, inventoryService, productRepo, num, txManager)
	transferService := transfer.NewService(transferRepo, inventoryService, num, txManager)
	purchaseService := purchaseorder.NewService(purchaseRepo, inventoryService, productRepo, num, txManager)
	returnService := returns.NewService(returnRepo, saleRepo, inventoryService, num, txManager)
	registerService := cashregister.NewService(registerRepo, saleRepo, num, txManager)
	reportService := reports.NewService(reportRepo, reportCache, cfg.Redis.ReportTTL)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})
	authService := auth.NewService(userRepo, tokenRepo, txManager, jwtService, auth.DefaultServiceConfig())

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:                pool,
		Logger:              log,
		JWTValidator:        jwtService,
		AuthService:         authService,
		StoreService:        storeService,
		ProductService:      productService,
		SupplierService:     supplierService,
		InventoryService:    inventoryService,
		SaleService:         saleService,
		CreditService:       creditService,
		TransferService:     transferService,
		PurchaseService:     purchaseService,
		ReturnService:       returnService,
		CashRegisterService: registerService,
		ReportService:       reportService,
		BackupService:       postgres.NewBackupService(txManager),
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "port", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
