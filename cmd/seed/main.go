package main

import (
	"context"
	"log"
	"os"

	"rentgear/internal/database"
	"rentgear/internal/domain"
	"rentgear/internal/repository"
)

func main() {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "rentgear.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	repo := repository.NewEquipmentRepository(db)

	log.Println("Running AutoMigrate...")
	if err := repo.Migrate(); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	log.Println("Seeding equipment catalog...")
	items := []domain.Equipment{
		{ID: 1, Name: "ARRI SkyPanel S60-C", Category: "lighting", DailyRate: 3500, WeeklyRate: 17500, MonthlyRate: 56000, DeliveryFee: 1500, SetupFee: 2000, MinRentalDays: 1, Available: 6, Total: 8, Availability: domain.AvailabilityAvailable},
		{ID: 2, Name: "RED Komodo 6K", Category: "camera", DailyRate: 9000, WeeklyRate: 45000, MonthlyRate: 144000, DeliveryFee: 2000, SetupFee: 3000, MinRentalDays: 2, Available: 3, Total: 4, Availability: domain.AvailabilityAvailable},
		{ID: 3, Name: "Sennheiser MKH 416", Category: "audio", DailyRate: 1000, WeeklyRate: 5000, MonthlyRate: 16000, DeliveryFee: 500, SetupFee: 0, MinRentalDays: 1, Available: 10, Total: 10, Availability: domain.AvailabilityAvailable},
		{ID: 4, Name: "Dana Dolly Rental Kit", Category: "grip", DailyRate: 2500, WeeklyRate: 12500, MonthlyRate: 40000, DeliveryFee: 2500, SetupFee: 2500, MinRentalDays: 1, Available: 2, Total: 3, Availability: domain.AvailabilityLimited},
		{ID: 5, Name: "Aputure 600d Pro", Category: "lighting", DailyRate: 2000, WeeklyRate: 10000, MonthlyRate: 32000, DeliveryFee: 1000, SetupFee: 1500, MinRentalDays: 1, Available: 0, Total: 5, Availability: domain.AvailabilityUnavailable},
		{ID: 6, Name: "DJI Ronin 2", Category: "grip", DailyRate: 4000, WeeklyRate: 20000, MonthlyRate: 64000, DeliveryFee: 1500, SetupFee: 2000, MinRentalDays: 1, Available: 4, Total: 4, Availability: domain.AvailabilityAvailable},
	}

	if err := repo.Seed(context.Background(), items); err != nil {
		log.Fatal("Seed failed:", err)
	}

	log.Printf("Seeded %d equipment records", len(items))
}
