package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"checkout-service/controllers"
	"checkout-service/database"
	"checkout-service/kafka"
	"checkout-service/middleware"
	"checkout-service/models"
	"checkout-service/providers"
	"checkout-service/repository"
	"checkout-service/routes"
	servicepkg "checkout-service/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	db, err := database.ConnectPostgres(logger, &models.Order{}, &models.OrderItem{}, &models.Address{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close() //nolint:errcheck

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer producer.Close() //nolint:errcheck

	// Providers and DI chain
	rateProvider := providers.NewShippoProvider(cfg.ShippoAPIKey, cfg.OriginAddress())
	resolver := servicepkg.NewRateResolver(rateProvider, logger)
	stripeService := servicepkg.NewStripeService(cfg.StripeSecretKey, cfg.StripePublishableKey)

	cartRepo := repository.NewRedisCartRepository(redisClient, cfg.CartTTL)
	sessionRepo := repository.NewRedisSessionRepository(redisClient, cfg.SessionTTL)
	orderRepo := repository.NewGormOrderRepository(db)
	addressRepo := repository.NewGormAddressRepository(db)

	checkoutService := servicepkg.NewCheckoutService(
		cartRepo,
		sessionRepo,
		orderRepo,
		addressRepo,
		resolver,
		stripeService,
		producer,
		cfg.TaxRate,
		logger,
	)

	checkoutController := controllers.NewCheckoutController(checkoutService, resolver, stripeService)
	cartController := controllers.NewCartController(cartRepo, logger)
	addressController := controllers.NewAddressController(addressRepo, logger)

	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{getEnv("STOREFRONT_ORIGIN", "http://localhost:3000")},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "X-User-ID", "X-Cart-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "checkout-service"})
	})

	routes.Register(r, checkoutController, cartController, addressController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("Checkout service started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down checkout service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
