// Package server wires the account service and its HTTP surface.
package server

import (
	"context"
	"fmt"
	"io"
	"log"
	"time"

	"accounts/internal/cache"
	"accounts/internal/config"
	"accounts/internal/credentials"
	"accounts/internal/database"
	"accounts/internal/handlers"
	"accounts/internal/middleware"
	"accounts/internal/models"
	"accounts/internal/repositories"
	"accounts/internal/services"
	"accounts/internal/session"
	"accounts/internal/tokens"
	"accounts/pkg/rabbitmq"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

const redisKeyPrefix = "accounts:"

// Server owns the HTTP app and every connection opened for it.
type Server struct {
	App     *fiber.App
	Service *services.AccountService
	// Bus is set when invalidations are delivered in process.
	Bus *cache.LocalBus

	cfg     *config.Config
	db      *gorm.DB
	closers []io.Closer
}

// New opens the database and the optional Redis and RabbitMQ connections,
// seeds the administrator and builds the Fiber app.
func New(cfg *config.Config) (*Server, error) {
	s := &Server{cfg: cfg}

	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}
	s.db = db

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	addressRepo := repositories.NewGORMAddressRepository(db)

	// --- Cache ---
	store, err := s.newStore()
	if err != nil {
		s.Close()
		return nil, err
	}
	invalidator := cache.NewInvalidator(store)
	publisher, err := s.newPublisher(invalidator)
	if err != nil {
		s.Close()
		return nil, err
	}

	// --- Services ---
	var gen tokens.Generator = tokens.Opaque{}
	if cfg.SessionSigningSecret != "" {
		gen = tokens.NewSigned(cfg.SessionSigningSecret)
	}
	s.Service = services.NewAccountService(
		userRepo,
		addressRepo,
		credentials.NewBcrypt(cfg.BcryptCost),
		session.NewManager(userRepo, gen),
		publisher,
	)

	seeded, err := s.Service.SeedAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword)
	if err != nil {
		s.Close()
		return nil, err
	}
	if seeded {
		log.Printf("Seeded administrator %s", models.NormalizeEmail(cfg.AdminEmail))
	}

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(s.Service, cache.NewViewCache[models.UserWithAddresses](store, cfg.CacheTTL))
	addressHandler := handlers.NewAddressHandler(s.Service, cache.NewViewCache[[]models.Address](store, cfg.CacheTTL))

	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(logger.New())

	app.Get("/health", s.handleHealth)

	auth := middleware.AuthRequired(s.Service)
	apiV1 := app.Group("/api/v1")
	userHandler.RegisterRoutes(apiV1, auth)
	addressHandler.RegisterRoutes(apiV1, auth)

	s.App = app
	return s, nil
}

func (s *Server) newStore() (cache.Store, error) {
	if s.cfg.RedisAddr == "" {
		log.Println("REDIS_ADDR not set, using in-memory view cache")
		return cache.NewMemoryStore(), nil
	}
	client, err := cache.NewRedisClient(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, client)
	log.Printf("Using Redis view cache at %s", s.cfg.RedisAddr)
	return cache.NewRedisStore(client, redisKeyPrefix), nil
}

// newPublisher fans invalidations out through RabbitMQ when configured, so
// every instance clears its cache; otherwise delivery stays in process.
func (s *Server) newPublisher(invalidator *cache.Invalidator) (cache.Publisher, error) {
	if s.cfg.RabbitMQURL == "" {
		bus := cache.NewLocalBus()
		bus.Subscribe(invalidator.Handle)
		s.Bus = bus
		return bus, nil
	}

	mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
		URL:       s.cfg.RabbitMQURL,
		Exchanges: []string{cache.ExchangeCacheClean},
	})
	if err != nil {
		return nil, err
	}
	s.closers = append(s.closers, mqClient)

	if err := mqClient.Consume(cache.ExchangeCacheClean, invalidator.HandleDelivery); err != nil {
		return nil, fmt.Errorf("failed to start cache invalidation consumer: %w", err)
	}
	return cache.NewAMQPBroadcaster(mqClient, cache.ExchangeCacheClean), nil
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	status, health, dbState := fiber.StatusOK, "healthy", "connected"
	if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
		status, health, dbState = fiber.StatusServiceUnavailable, "degraded", "unreachable"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   health,
		"time":     time.Now().Format(time.RFC3339),
		"database": dbState,
	})
}

// Listen serves HTTP on the configured port until Shutdown is called.
func (s *Server) Listen() error {
	log.Printf("Starting server on port %s", s.cfg.AppPort)
	return s.App.Listen(s.cfg.AppPort)
}

// Shutdown stops the HTTP server and releases every connection.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.App != nil {
		err = s.App.ShutdownWithContext(ctx)
	}
	s.Close()
	return err
}

// Close releases the connections without touching the HTTP server.
func (s *Server) Close() {
	if s.Bus != nil {
		s.Bus.Wait()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			log.Printf("Error closing connection: %v", err)
		}
	}
	s.closers = nil
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			sqlDB.Close()
		}
		s.db = nil
	}
}
