package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/transitbook/journey-reservation/internal/booking"
	"github.com/transitbook/journey-reservation/internal/config"
	"github.com/transitbook/journey-reservation/internal/database"
	"github.com/transitbook/journey-reservation/internal/handler"
	"github.com/transitbook/journey-reservation/internal/inventory"
	"github.com/transitbook/journey-reservation/internal/middleware"
	"github.com/transitbook/journey-reservation/internal/queue"
	"github.com/transitbook/journey-reservation/internal/repository"
	"github.com/transitbook/journey-reservation/internal/router"
)

func main() {
	// Load .env when present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories.
	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	journeyRepo := repository.NewJourneyRepo(db)
	slotRepo := repository.NewSlotRepo(db)
	classRepo := repository.NewSeatClassRepo(db)
	ruleRepo := repository.NewRuleRepo(db)
	bookingRepo := repository.NewBookingRepo(db)

	// Seat inventory, primed lazily per slot from the bookings table.
	seats := inventory.New(slotRepo.CapacityAndReserved)

	// Booking lifecycle service with the RabbitMQ event publisher.
	svc := &booking.Service{
		Journeys:        journeyRepo,
		Slots:           slotRepo,
		Classes:         classRepo,
		Rules:           ruleRepo,
		Bookings:        bookingRepo,
		Seats:           seats,
		Events:          queue.NewPublisher(queue.BrokerURL()),
		ReleaseOnCancel: cfg.ReleaseOnCancel,
	}

	// Background consumer that turns booking events into notification log
	// lines.  It reconnects on its own; a returned error is fatal only at
	// startup.
	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance

	// Redis backs rate limiting and response caching on public routes.
	// Both degrade to no-ops when Redis is unreachable.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response caching disabled")
	}
	rateLimit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	respCache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	e.Use(rateLimit)

	router.RegisterRoutes(e) // Health check
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, userRepo, tokenRepo), cfg.JWTSecret)
	router.RegisterPublic(e, &handler.PublicHandler{
		JourneyRepo: journeyRepo,
		SlotRepo:    slotRepo,
		ClassRepo:   classRepo,
		Seats:       seats,
	}, respCache)
	router.RegisterCustomer(e, handler.NewBookingHandler(svc), cfg.JWTSecret)
	router.RegisterAdmin(e, handler.NewAdminHandler(journeyRepo, slotRepo, classRepo, ruleRepo, bookingRepo, seats), cfg.JWTSecret)

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
