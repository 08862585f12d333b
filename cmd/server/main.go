package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/iliyamo/concert-order-service/internal/config"
	"github.com/iliyamo/concert-order-service/internal/database"
	"github.com/iliyamo/concert-order-service/internal/gate"
	"github.com/iliyamo/concert-order-service/internal/handler"
	"github.com/iliyamo/concert-order-service/internal/logger"
	"github.com/iliyamo/concert-order-service/internal/metrics"
	"github.com/iliyamo/concert-order-service/internal/middleware"
	"github.com/iliyamo/concert-order-service/internal/order"
	"github.com/iliyamo/concert-order-service/internal/queue"
	"github.com/iliyamo/concert-order-service/internal/router"
	"github.com/iliyamo/concert-order-service/internal/tracing"
)

const serviceName = "order-service"

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	base := logger.Init(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(serviceName, cfg.JaegerEndpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("init tracing")
	}

	db, err := database.Open(ctx, database.Options{
		User: cfg.DBUser, Pass: cfg.DBPass, Host: cfg.DBHost, Port: cfg.DBPort, Name: cfg.DBName,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer db.Close()

	rdb, redisErr := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if redisErr != nil {
		log.Warn().Err(redisErr).Msg("redis unreachable at startup; claim checks will fail until it recovers")
	}
	defer rdb.Close()

	publisher := queue.NewPublisher(cfg.AMQPURL)
	defer publisher.Close()

	g := gate.New(gate.NewRedisRegistry(rdb, cfg.Gate.KeyPrefix), publisher, gate.Options{
		ClaimTTL: cfg.Gate.ClaimTTL,
		Timeout:  cfg.Gate.Timeout,
	})

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engine := order.New(db, g, metrics.New(reg), order.Config{
		TicketCodeAttempts: cfg.Orders.TicketCodeAttempts,
		CartClaimTTL:       g.ClaimTTL(),
		SideEffectAttempts: cfg.Gate.RetryAttempts,
	})
	if err := engine.Preload(ctx); err != nil {
		log.Fatal().Err(err).Msg("status registry incomplete")
	}

	// rate limiting stays off for the process lifetime when Redis was down at boot
	var limiter redis.Scripter
	if redisErr == nil {
		limiter = rdb
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(base))
	e.Use(echomw.Recover())

	router.RegisterRoutes(e, reg)
	router.RegisterOrders(e, handler.NewOrderHandler(engine), cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig(), limiter))

	go func() {
		addr := ":" + cfg.Port
		log.Info().Str("addr", addr).Str("env", cfg.Env).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if err := engine.Wait(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("post-commit side effects still running")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
}
