//go:build ignore

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/harper/dealdesk/internal/auth"
	"github.com/harper/dealdesk/internal/database"
	"github.com/harper/dealdesk/internal/database/models"
	"github.com/harper/dealdesk/internal/seats"
	"github.com/harper/dealdesk/pkg/config"
	"github.com/harper/dealdesk/pkg/util"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := util.NewLogger(cfg.Server.Env)

	db, err := database.Connect(&cfg.Database, logger)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())
	authService := auth.NewService(db, jwtService)
	seatService := seats.NewService(db, cfg.Billing, nil, logger)

	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_PASSWORD")
	name := os.Getenv("ADMIN_NAME")
	plan := os.Getenv("ADMIN_PLAN")

	if email == "" {
		email = "admin@example.com"
	}
	if password == "" {
		password = "admin123!"
	}
	if name == "" {
		name = "Admin"
	}
	if plan == "" {
		plan = "team"
	}

	ctx := context.Background()

	resp, err := authService.Register(ctx, auth.RegisterInput{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		log.Fatalf("failed to register admin: %v", err)
	}

	// Provision a paid plan so the admin lands in an active org.
	user, err := seatService.ConfirmPayment(ctx, email, plan)
	if err != nil {
		log.Fatalf("failed to provision plan: %v", err)
	}

	// A company and a deal so the dashboard is not empty.
	company := models.Company{
		OrganizationID: *user.OrganizationID,
		Name:           "Acme Corp",
		Domain:         "acme.example.com",
		Industry:       "manufacturing",
	}
	if err := db.Create(&company).Error; err != nil {
		log.Fatalf("failed to create company: %v", err)
	}

	deal := models.Deal{
		OrganizationID: *user.OrganizationID,
		CompanyID:      company.ID,
		OwnerID:        &user.ID,
		Title:          "Acme pilot",
		Stage:          models.DealStageQualified,
		ValueCents:     2500000,
		Currency:       "USD",
	}
	if err := db.Create(&deal).Error; err != nil {
		log.Fatalf("failed to create deal: %v", err)
	}

	fmt.Printf("seeded admin %s (org %s, plan %s)\n", resp.User.Email, user.OrganizationID, plan)
}
