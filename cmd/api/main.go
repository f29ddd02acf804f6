package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"eventsocials/config"
	httpauth "eventsocials/internal/adapters/auth"
	"eventsocials/internal/adapters/queue"
	httpdelivery "eventsocials/internal/delivery/http"
	"eventsocials/internal/delivery/http/controllers"
	"eventsocials/internal/delivery/http/middleware"
	"eventsocials/internal/repository/postgres"
	"eventsocials/internal/services"

	"golang.org/x/crypto/bcrypt"
)

// @title Event Socials API
// @version 1.0
// @description Event listing and join-request workflow API.
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	logger := config.NewLogger("api")

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = db.PingContext(pingCtx)
	cancel()
	if err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	publisher, err := queue.NewPublisher(cfg.AMQPUrl, cfg.EmailQueue, logger)
	if err != nil {
		logger.Error("connect broker", "err", err)
		os.Exit(1)
	}
	defer publisher.Close()

	userRepo := postgres.NewUserRepository(db)
	eventRepo := postgres.NewEventRepository(db)
	joinRepo := postgres.NewJoinRequestRepository(db)

	issuer := httpauth.NewJWTIssuer(cfg.JWTSecret, cfg.TokenExpiry)
	hasher := httpauth.NewBcryptHasher(bcrypt.DefaultCost)
	codec := httpauth.NewJoinActionCodec(cfg.JoinActionSecret)

	authService := services.NewAuthService(userRepo, hasher, issuer)
	eventService := services.NewEventService(eventRepo)
	joinService := services.NewJoinRequestService(eventRepo, userRepo, joinRepo, codec, publisher, logger)

	authController := controllers.NewAuthController(logger, authService)
	eventController := controllers.NewEventController(logger, eventService, joinService)

	mux := httpdelivery.NewRouter(eventController, authController, issuer)
	handler := middleware.CORS(cfg.CORSAllowedOrigins,
		middleware.LoggingMiddleware(logger, mux))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
}
