// Package main provides a CLI tool for seeding the database with
// initial data: an admin user and, optionally, a demo store with a few
// products on the shelf.
package main

import (
	"context"
	"fmt"
	"os"

	"golang.org/x/crypto/bcrypt"

	"tiendero/internal/core/types"
	"tiendero/internal/domain/auth"
	"tiendero/internal/domain/catalogs/product"
	"tiendero/internal/domain/catalogs/store"
	"tiendero/internal/domain/inventory"
	"tiendero/internal/infrastructure/storage/postgres"
	"tiendero/internal/infrastructure/storage/postgres/auth_repo"
	"tiendero/internal/infrastructure/storage/postgres/catalog_repo"
	"tiendero/internal/infrastructure/storage/postgres/inventory_repo"
	"tiendero/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(dbURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	txManager := postgres.NewTxManager(pool)

	if err := seedAdminUser(ctx, txManager, log); err != nil {
		log.Fatalw("failed to seed admin user", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		if err := seedDemoData(ctx, txManager, log); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	log.Info("seeding completed successfully")
}

func seedAdminUser(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	if adminEmail == "" {
		adminEmail = "admin@tiendero.local"
	}
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "Admin123!"
	}

	userRepo := auth_repo.NewUserRepo(txManager)

	exists, err := userRepo.Exists(ctx, adminEmail)
	if err != nil {
		return fmt.Errorf("check admin exists: %w", err)
	}
	if exists {
		log.Infow("admin user already exists", "email", adminEmail)
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	admin := auth.NewAdmin(adminEmail, string(hash))
	admin.Name = "System Admin"
	if err := userRepo.Create(ctx, admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	log.Infow("admin user created", "email", adminEmail, "user_id", admin.ID)
	return nil
}

type demoProduct struct {
	sku      string
	name     string
	category string
	price    string
	cost     string
	quantity int64
}

func seedDemoData(ctx context.Context, txManager *postgres.TxManager, log *logger.Logger) error {
	storeRepo := catalog_repo.NewStoreRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	ledgerRepo := inventory_repo.NewLedgerRepo(txManager)

	return txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := storeRepo.ExistsByName(ctx, "Tienda Centro")
		if err != nil {
			return fmt.Errorf("check demo store: %w", err)
		}
		if exists {
			log.Info("demo data already present, skipping")
			return nil
		}

		st := store.NewStore("MAIN", "Tienda Centro")
		address := "Av. Juárez 123, Centro"
		st.Address = &address
		if err := storeRepo.Create(ctx, st); err != nil {
			return fmt.Errorf("create demo store: %w", err)
		}

		demo := []demoProduct{
			{"REF-600", "Refresco Cola 600ml", "bebidas", "18.00", "12.50", 120},
			{"SAB-45", "Papas Fritas 45g", "botanas", "17.00", "11.00", 80},
			{"LECHE-1L", "Leche Entera 1L", "lacteos", "26.50", "21.00", 40},
			{"PAN-BCO", "Pan Blanco Grande", "panaderia", "42.00", "31.00", 25},
			{"JAB-200", "Jabón de Tocador 200g", "limpieza", "24.00", "15.50", 60},
		}

		for _, d := range demo {
			price, err := types.NewMoneyFromString(d.price)
			if err != nil {
				return fmt.Errorf("parse price %q: %w", d.price, err)
			}
			cost, err := types.NewMoneyFromString(d.cost)
			if err != nil {
				return fmt.Errorf("parse cost %q: %w", d.cost, err)
			}

			p := product.NewProduct(d.sku, d.name, d.category, price, cost)
			if err := productRepo.Create(ctx, p); err != nil {
				return fmt.Errorf("create product %s: %w", d.sku, err)
			}

			ledger := inventory.NewLedger(st.ID, p.ID, types.Quantity(d.quantity))
			if err := ledgerRepo.Create(ctx, ledger); err != nil {
				return fmt.Errorf("assign inventory for %s: %w", d.sku, err)
			}
		}

		log.Infow("demo data created", "store_id", st.ID, "products", len(demo))
		return nil
	})
}
