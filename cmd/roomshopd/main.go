package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/skycole768/RoommateShopping/internal/api"
	"github.com/skycole768/RoommateShopping/internal/auth"
	"github.com/skycole768/RoommateShopping/internal/config"
	"github.com/skycole768/RoommateShopping/internal/service"
	"github.com/skycole768/RoommateShopping/internal/store"
	"github.com/skycole768/RoommateShopping/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	ctx := context.Background()

	backend, cleanup, err := buildStore(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to set up %s store: %v", cfg.StoreBackend, err)
	}
	defer cleanup()
	log.Infof("Using %s store backend", cfg.StoreBackend)

	st := store.WithBreaker(backend, "remote-store")
	identity := auth.FromContext{}

	catalog := service.NewCatalogService(st, log)
	basket := service.NewBasketService(st, identity, log)
	checkout := service.NewCheckoutService(st, identity, log)
	returns := service.NewReturnService(st, log)
	price := service.NewPriceService(st, log)
	feed := service.NewFeed(st, log)

	defaultTaxRate, err := decimal.NewFromString(cfg.DefaultTaxRate)
	if err != nil {
		log.Fatalf("Invalid default tax rate %q: %v", cfg.DefaultTaxRate, err)
	}

	server := api.NewServer(catalog, basket, checkout, returns, price, feed, defaultTaxRate, log)
	httpServer := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: server.Handler(),
	}

	go func() {
		log.Infof("Listening on port %s", cfg.HTTPPort)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Errorf("Shutdown: %v", err)
	}
	log.Info("Stopped")
}

func buildStore(ctx context.Context, cfg *config.Config) (store.Store, func(), error) {
	switch cfg.StoreBackend {
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return store.NewRedisStore(client), func() { client.Close() }, nil

	case "mongo":
		db, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, nil, err
		}
		return store.NewMongoStore(db), func() { db.Client().Disconnect(ctx) }, nil

	default:
		return store.NewMemoryStore(), func() {}, nil
	}
}
