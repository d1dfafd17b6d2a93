// Command seed creates the admin user and a set of demo records. It goes
// through the service layer, so budgets only ever hold what their expenses
// add up to.
package main

import (
	"context"
	"errors"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/config"
	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/memory"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/mysql"
	"github.com/duncun-ubuntu/financial-backend/internal/infra/observability"
	"github.com/duncun-ubuntu/financial-backend/internal/port"
	"github.com/duncun-ubuntu/financial-backend/internal/service"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	adminUsername = "admin"
	adminPassword = "admin123"
)

type seedExpense struct {
	category string
	amount   int64
	date     string
}

type seedBudget struct {
	category  string
	allocated int64
	expenses  []seedExpense
}

var earnings = []struct {
	project string
	amount  int64
	date    string
}{
	{"Website Redesign", 25000, "2025-04-10"},
	{"SEO Campaign", 18000, "2025-03-15"},
	{"Social Media Marketing", 12000, "2025-02-20"},
	{"E-commerce Development", 30000, "2025-01-10"},
}

var budgets = []seedBudget{
	{"Operations", 40000, []seedExpense{
		{"Salaries", 30000, "2025-04-01"},
		{"Office Rent", 5000, "2025-04-05"},
		{"Utilities", 2000, "2025-04-10"},
	}},
	{"Marketing", 10000, []seedExpense{
		{"Marketing Tools", 4000, "2025-03-20"},
		{"Travel", 1500, "2025-03-25"},
	}},
	{"Development", 15000, nil},
	{"Research", 5000, nil},
}

var investments = []struct {
	kind   string
	amount int64
}{
	{"Stocks", 5000},
	{"Bonds", 3000},
	{"Real Estate", 4000},
	{"Crypto", 2500},
}

func main() {
	_ = config.LoadDotEnv(".env")
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	var store port.Store
	switch cfg.StoreBackend {
	case config.StoreMySQL:
		if err := mysql.RunMigrations(cfg.DatabaseDSN); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
		db, err := mysql.Open(cfg.DatabaseDSN, mysql.Options{MaxOpenConns: 4}, logger)
		if err != nil {
			logger.Fatal("failed to open database", zap.Error(err))
		}
		defer db.Close()
		store = db
	default:
		logger.Warn("seeding the in-memory store: nothing is persisted")
		store = memory.New()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := seed(ctx, store, cfg, logger); err != nil {
		logger.Fatal("seed failed", zap.Error(err))
	}
	logger.Info("data seeded successfully")
}

func seed(ctx context.Context, store port.Store, cfg *config.Config, logger *zap.Logger) error {
	metrics := observability.NewMetrics()
	auth := service.NewAuthService(store, cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, logger)
	profiles := service.NewProfileService(store, cfg.DefaultPhoneRegion, logger)
	ledger := service.NewLedgerService(store, nil, metrics, logger)
	records := service.NewRecordsService(store, store, logger)

	reg, err := auth.Register(ctx, &domain.RegisterRequest{
		Username: adminUsername,
		Password: adminPassword,
		Email:    "john.doe@example.com",
	})
	var conflict *domain.ErrConflict
	if errors.As(err, &conflict) {
		logger.Info("admin user already exists, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}
	owner := reg.UserID

	dob := mustDate("1990-05-15")
	if _, err := profiles.Update(ctx, owner, &domain.UpdateProfileRequest{
		Name:        ptr("John Doe"),
		Phone:       ptr("+255 754 123 456"),
		Address:     ptr("1234 Elm Street, Dar es Salaam"),
		DateOfBirth: &dob,
	}); err != nil {
		return err
	}

	for _, e := range earnings {
		if _, err := records.CreateEarning(ctx, &domain.Earning{
			OwnerID: owner,
			Project: e.project,
			Amount:  decimal.NewFromInt(e.amount),
			Date:    mustDate(e.date),
		}); err != nil {
			return err
		}
	}

	for _, b := range budgets {
		created, err := ledger.CreateBudget(ctx, &domain.Budget{
			OwnerID:   owner,
			Category:  b.category,
			Allocated: decimal.NewFromInt(b.allocated),
		})
		if err != nil {
			return err
		}
		for _, e := range b.expenses {
			if _, err := ledger.CreateExpense(ctx, &domain.Expense{
				OwnerID:  owner,
				BudgetID: created.ID,
				Category: e.category,
				Amount:   decimal.NewFromInt(e.amount),
				Date:     mustDate(e.date),
			}); err != nil {
				return err
			}
		}
	}

	for _, i := range investments {
		if _, err := records.CreateInvestment(ctx, &domain.Investment{
			OwnerID: owner,
			Type:    i.kind,
			Amount:  decimal.NewFromInt(i.amount),
		}); err != nil {
			return err
		}
	}

	logger.Info("seeded demo data",
		zap.Int64("owner_id", owner),
		zap.Int("earnings", len(earnings)),
		zap.Int("budgets", len(budgets)),
		zap.Int("investments", len(investments)),
	)
	return nil
}

func mustDate(s string) domain.Date {
	d, err := domain.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func ptr[T any](v T) *T { return &v }
