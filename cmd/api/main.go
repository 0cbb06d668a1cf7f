package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"rentgear/internal/config"
	"rentgear/internal/database"
	"rentgear/internal/domain"
	"rentgear/internal/kvstore"
	"rentgear/internal/modules/cart"
	"rentgear/internal/modules/catalog"
	"rentgear/internal/modules/checkout"
	"rentgear/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is empty")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}

	equipmentRepo := repository.NewEquipmentRepository(db)
	if err := equipmentRepo.Migrate(); err != nil {
		log.Fatal(err)
	}

	kv := kvstore.NewGormStore(db, cfg.KVPollInterval)
	if err := kv.Migrate(); err != nil {
		log.Fatal(err)
	}

	hub := cart.NewHub()
	defer hub.Close()

	manager := cart.NewManager(cfg, equipmentRepo, kv, cart.NewTimerScheduler(),
		func(cartID string, c domain.Cart) {
			hub.Broadcast(cartID, c)
		})
	defer manager.Close()

	cartHandler := cart.NewHandler(manager, hub)

	catalogService := catalog.NewService(equipmentRepo)
	catalogHandler := catalog.NewHandler(catalogService)

	checkoutService := checkout.NewService(manager)
	checkoutHandler := checkout.NewHandler(checkoutService)

	r := gin.Default()

	v1 := r.Group("/api/v1")
	{
		catalogHandler.RegisterRoutes(v1)
		cartHandler.RegisterRoutes(v1)
		checkoutHandler.RegisterRoutes(v1)
	}

	r.GET("/ws/cart", cartHandler.ServeWS)

	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatal(err)
	}
}
