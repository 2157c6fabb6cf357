package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/DanielTrujilloS/DafaMedicSistema/cart"
	"github.com/DanielTrujilloS/DafaMedicSistema/config"
	"github.com/DanielTrujilloS/DafaMedicSistema/consumers"
	"github.com/DanielTrujilloS/DafaMedicSistema/controllers"
	"github.com/DanielTrujilloS/DafaMedicSistema/database"
	"github.com/DanielTrujilloS/DafaMedicSistema/events"
	"github.com/DanielTrujilloS/DafaMedicSistema/kafka"
	"github.com/DanielTrujilloS/DafaMedicSistema/middlewares"
	"github.com/DanielTrujilloS/DafaMedicSistema/rabbitmq"
	"github.com/DanielTrujilloS/DafaMedicSistema/repository"
	"github.com/DanielTrujilloS/DafaMedicSistema/services"
	"github.com/DanielTrujilloS/DafaMedicSistema/utils"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("Failed to read .env", "err", err)
	}

	cfg := config.LoadConfig()
	slog.SetDefault(newLogger(cfg))

	if err := run(cfg); err != nil {
		slog.Error("Storefront stopped", "err", err)
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.IsProd() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions, err := utils.NewSessionIssuer(cfg.AuthSecret, cfg.SessionTTL)
	if err != nil {
		return err
	}

	db, err := database.InitDB(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	products := repository.NewProductRepository(db, cfg.DBDriver)
	orders := repository.NewOrderRepository(db, cfg.DBDriver)
	users := repository.NewUserRepository(db, cfg.DBDriver)

	if cfg.SeedOnStart {
		if err := database.Seed(ctx, users, products, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return err
		}
	}

	var (
		publisher events.Publisher = events.Noop{}
		rmq       *rabbitmq.RabbitMQ
		broker    *kafka.Broker
	)
	switch cfg.EventBroker {
	case "rabbitmq":
		rmq, err = rabbitmq.NewRabbitMQ(cfg)
		if err != nil {
			return err
		}
		defer rmq.Close()
		if err := rmq.SetupQueues(); err != nil {
			return err
		}
		publisher = rmq
	case "kafka":
		broker = kafka.NewBroker(cfg.KafkaBrokers, cfg.KafkaTopic)
		defer broker.Close()
		publisher = broker
	case "", "none":
	default:
		slog.Warn("Unknown event broker, events disabled", "broker", cfg.EventBroker)
	}

	orderService := services.NewOrderService(orders, products, publisher, cfg.TrustClientPrice)
	authService := services.NewAuthService(users, sessions)
	notifier := services.NewConfirmationNotifier(orderService, services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom))
	handler := consumers.OrderEventHandler(notifier)

	switch {
	case rmq != nil:
		if err := consumers.StartOrderConsumer(ctx, rmq.Channel, cfg, handler); err != nil {
			return err
		}
	case broker != nil:
		go broker.Consume(ctx, cfg.KafkaGroupID, handler)
	}

	cartStorage, err := newCartStorage(cfg)
	if err != nil {
		return err
	}

	if cfg.IsProd() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	if !cfg.IsProd() {
		r.Use(gin.Logger())
	}

	sessionCookie := controllers.CookieOptions{
		Name:   cfg.SessionCookie,
		MaxAge: int(cfg.SessionTTL / time.Second),
		Secure: cfg.CookieSecure,
	}
	cartCookie := controllers.CookieOptions{
		Name:   "cart_id",
		MaxAge: int(cfg.CartTTL / time.Second),
		Secure: cfg.CookieSecure,
	}
	controllers.RegisterRoutes(r, controllers.Handlers{
		Orders: controllers.NewOrderController(orderService),
		Auth:   controllers.NewAuthController(authService, sessionCookie),
		Admin:  controllers.NewAdminController(orderService),
		Cart:   controllers.NewCartController(cartStorage, products, cartCookie),
		Guard: middlewares.AdminGuard{
			Verifier:  sessions,
			Cookie:    cfg.SessionCookie,
			LoginPath: cfg.AdminLoginPath,
			HomePath:  cfg.AdminRedirectNonRole,
		},
	})

	srv := &http.Server{
		Addr:              ":" + strings.TrimPrefix(cfg.Port, ":"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Storefront starting", "addr", srv.Addr, "env", cfg.Env, "db", cfg.DBDriver, "broker", cfg.EventBroker)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newCartStorage(cfg *config.Config) (cart.Storage, error) {
	if cfg.CartStore != "redis" {
		return cart.NewMemoryStorage(), nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, err
	}
	return cart.NewRedisStorage(redis.NewClient(opts), cfg.CartTTL), nil
}
