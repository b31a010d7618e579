package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rl1809/storefront/internal/adapter/events"
	"github.com/rl1809/storefront/internal/adapter/handler"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/service"
	"github.com/rl1809/storefront/internal/port"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage driver
	var (
		inventoryRepo port.InventoryRepository
		orderRepo     port.OrderRepository
		db            *sql.DB
	)
	switch cfg.StorageDriver {
	case "mysql":
		var err error
		db, err = sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect mysql")
		}
		db.SetMaxOpenConns(50)
		db.SetMaxIdleConns(25)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.PingContext(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ping mysql")
		}

		mysqlAdapter := storage.NewMySQLAdapter(db)
		if err := mysqlAdapter.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to ensure schema")
		}
		inventoryRepo = mysqlAdapter
		orderRepo = mysqlAdapter
		log.Info().Msg("connected to mysql")
	case "memory":
		inventoryRepo = storage.NewMemoryAdapter()
		orderRepo = storage.NewMemoryOrderRepository()
		log.Info().Msg("using in-memory storage")
	default:
		log.Fatal().Str("driver", cfg.StorageDriver).Msg("unknown storage driver")
	}

	// Redis cache (optional)
	var cache port.CacheRepository
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		cache = storage.NewRedisAdapter(rdb)
		log.Info().Msg("connected to redis")
	}

	// RabbitMQ publisher (optional)
	var publisher port.EventPublisher
	var amqpConn *amqp.Connection
	if cfg.AMQPURL != "" {
		var err error
		amqpConn, err = amqp.Dial(cfg.AMQPURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect rabbitmq")
		}
		publisher, err = events.NewPublisher(amqpConn)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create publisher")
		}
		log.Info().Msg("connected to rabbitmq")
	}

	// Services
	inventoryService := service.NewInventoryService(inventoryRepo, cache)
	orderService := service.NewOrderService(inventoryRepo, orderRepo, cache, publisher)
	cartManager := service.NewCartManager()

	// HTTP server
	httpHandler := handler.NewHTTPHandler(inventoryService, orderService, cartManager)
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	})

	httpServer := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: corsHandler.Handler(httpHandler.Routes()),
	}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP server listening")
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			log.Error().Err(err).Msg("HTTP server error")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	httpServer.Shutdown(shutdownCtx)
	log.Info().Msg("HTTP server stopped")

	if amqpConn != nil {
		amqpConn.Close()
	}
	if rdb != nil {
		rdb.Close()
	}
	if db != nil {
		db.Close()
	}
	log.Info().Msg("connections closed")
}
