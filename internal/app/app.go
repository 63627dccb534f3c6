package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"capebiz_backend/internal/auth"
	"capebiz_backend/internal/config"
	"capebiz_backend/internal/email"
	"capebiz_backend/internal/handlers"
	"capebiz_backend/internal/logger"
	"capebiz_backend/internal/middleware"
	"capebiz_backend/internal/models"
	"capebiz_backend/internal/payments"
	"capebiz_backend/internal/repositories"
	"capebiz_backend/internal/routes"
	"capebiz_backend/internal/services"
	"capebiz_backend/internal/workers"
)

// Run boots the whole application: config, database, services, HTTP.
func Run() error {
	config.LoadConfig()
	cfg := config.GetConfig()

	logger.Init(cfg.Server.Env)

	db, err := gorm.Open(postgres.Open(cfg.Database.DSN), &gorm.Config{})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Business{},
		&models.SubscriptionPlan{},
		&models.Payment{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := seedPlans(db); err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}
	if err := seedFirstAdmin(db, cfg); err != nil {
		return fmt.Errorf("failed to seed first admin: %w", err)
	}

	emailProvider, err := email.NewSMTPProvider(email.Config{
		SMTPHost:  cfg.Email.SMTPHost,
		SMTPPort:  cfg.Email.SMTPPort,
		Username:  cfg.Email.SMTPUsername,
		Password:  cfg.Email.SMTPPassword,
		FromEmail: cfg.Email.FromEmail,
		FromName:  cfg.Email.FromName,
	})
	if err != nil {
		logger.WithError(err).Warn("email disabled, continuing without a provider")
		emailProvider = nil
	}

	router := SetupRouter(db, cfg, emailProvider)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	workers.NewSubscriptionWorker(db, time.Hour).Start(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting", "addr", addr, "env", cfg.Server.Env)
	return router.Run(addr)
}

// SetupRouter assembles the engine with all dependencies injected. Split out
// from Run so tests can build the full stack against their own database and
// providers.
func SetupRouter(db *gorm.DB, cfg *config.Config, emailProvider email.Provider) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store := repositories.NewStore(db)

	client := payments.NewClient(payments.Config{
		MerchantID:  cfg.PayFast.MerchantID,
		MerchantKey: cfg.PayFast.MerchantKey,
		Passphrase:  cfg.PayFast.Passphrase,
		Sandbox:     cfg.PayFast.Sandbox,
	})

	authService := services.NewAuthService(store)
	businessService := services.NewBusinessService(store, emailProvider)
	planService := services.NewPlanService(store)
	paymentService := services.NewPaymentService(store, client, emailProvider, services.CallbackURLs{
		Return: cfg.PayFast.ReturnURL,
		Cancel: cfg.PayFast.CancelURL,
		Notify: cfg.PayFast.NotifyURL,
	})

	appHandlers := handlers.NewAppHandlers(authService, businessService, planService, paymentService)

	router := gin.New()
	router.Use(
		middleware.RecoveryMiddleware(),
		middleware.RequestIDMiddleware(),
		middleware.LoggingMiddleware(),
	)

	routes.RegisterRoutes(router, appHandlers)
	return router
}

type planSeed struct {
	Code         string
	Name         string
	Price        float64
	DurationDays int
	Features     []string
}

// The default catalog. Existing rows win; seeding never overwrites a plan an
// admin has edited.
var defaultPlans = []planSeed{
	{"free", "Free", 0, 30, []string{"Basic listing", "Contact details"}},
	{"starter", "Starter", 199, 30, []string{"Basic listing", "Contact details", "Photo gallery"}},
	{"professional", "Professional", 499, 30, []string{"Everything in Starter", "Priority placement", "Analytics"}},
	{"premium", "Premium", 999, 30, []string{"Everything in Professional", "Homepage feature", "Social promotion"}},
	{"enterprise", "Enterprise", 1599, 30, []string{"Everything in Premium", "Dedicated support", "Multiple listings"}},
}

func seedPlans(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		for _, seed := range defaultPlans {
			var existing models.SubscriptionPlan
			err := tx.Where("code = ?", seed.Code).First(&existing).Error
			if err == nil {
				continue
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			features, err := json.Marshal(seed.Features)
			if err != nil {
				return err
			}

			plan := models.SubscriptionPlan{
				Code:         seed.Code,
				Name:         seed.Name,
				Price:        seed.Price,
				Currency:     "ZAR",
				DurationDays: seed.DurationDays,
				Features:     datatypes.JSON(features),
				IsActive:     true,
			}
			if err := tx.Create(&plan).Error; err != nil {
				return err
			}
			logger.Info("seeded subscription plan", "code", seed.Code, "price", seed.Price)
		}
		return nil
	})
}

// seedFirstAdmin creates the bootstrap admin account when configured and no
// admin exists yet.
func seedFirstAdmin(db *gorm.DB, cfg *config.Config) error {
	if cfg.FirstAdminEmail == "" || cfg.FirstAdminPassword == "" {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		hash, err := auth.HashPassword(cfg.FirstAdminPassword)
		if err != nil {
			return err
		}

		admin := models.User{
			Name:         "Administrator",
			Email:        cfg.FirstAdminEmail,
			PasswordHash: hash,
			Role:         models.UserRoleAdmin,
			Status:       models.UserStatusActive,
		}
		if err := tx.Create(&admin).Error; err != nil {
			return err
		}

		logger.Info("seeded first admin", "email", cfg.FirstAdminEmail)
		return nil
	})
}
