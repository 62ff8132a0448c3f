package main

import (
	"context"
	"log"
	"time"

	"claims-intake-platform/internal/config"
	"claims-intake-platform/models"
	"claims-intake-platform/services"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	mongoClient, err := config.ConnectMongoDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to MongoDB:", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	defer mongoClient.Disconnect(ctx)
	db := mongoClient.Database(cfg.DBName)

	userService := services.NewUserService(db)
	if _, err := userService.Create(ctx, "admin", "changeme", models.RoleAdmin); err != nil {
		log.Printf("Skipping admin user: %v", err)
	} else {
		log.Println("Created admin user (username: admin)")
	}

	claimService := services.NewClaimService(db)
	date := func(s string) *time.Time {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			log.Fatal("bad seed date:", err)
		}
		return &t
	}

	seedClaims := []models.Claim{
		{
			ClaimNumber:       "WC-2024-1001",
			Name:              "Michael Thompson",
			Date:              date("2024-03-04"),
			Adjuster:          "Dana Reyes",
			EmployerName:      "Acme Manufacturing",
			PhysicianName:     "Dr. Sarah Chen",
			InjuryDescription: "lower back strain from lifting",
		},
		{
			ClaimNumber:       "WC-2024-1002",
			Name:              "Maria Gonzalez",
			Date:              date("2024-05-17"),
			Adjuster:          "Dana Reyes",
			EmployerName:      "Northside Logistics",
			PhysicianName:     "Dr. Omar Patel",
			InjuryDescription: "right wrist fracture from forklift accident",
		},
		{
			ClaimNumber:       "WC-2024-1003",
			Name:              "James O'Connor",
			Date:              date("2024-06-02"),
			Adjuster:          "Lisa Park",
			EmployerName:      "Summit Construction Group",
			PhysicianName:     "Dr. Sarah Chen",
			InjuryDescription: "laceration to left hand from saw",
		},
	}

	for i := range seedClaims {
		claim, err := claimService.Create(ctx, &seedClaims[i])
		if err != nil {
			log.Printf("Skipping claim %s: %v", seedClaims[i].ClaimNumber, err)
			continue
		}
		log.Printf("Created claim %s (%s)", claim.ClaimNumber, claim.ID.Hex())
	}

	log.Println("Seed complete")
}
