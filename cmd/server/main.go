package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dharmasatrya/flightbooking/internal/assembler"
	"github.com/dharmasatrya/flightbooking/internal/booking"
	"github.com/dharmasatrya/flightbooking/internal/cache"
	"github.com/dharmasatrya/flightbooking/internal/config"
	"github.com/dharmasatrya/flightbooking/internal/handler"
	"github.com/dharmasatrya/flightbooking/internal/ledger"
	"github.com/dharmasatrya/flightbooking/internal/logging"
	"github.com/dharmasatrya/flightbooking/internal/metrics"
	"github.com/dharmasatrya/flightbooking/internal/notify"
	"github.com/dharmasatrya/flightbooking/internal/ratelimit"
	"github.com/dharmasatrya/flightbooking/internal/resolver"
	"github.com/dharmasatrya/flightbooking/internal/search"
	"github.com/dharmasatrya/flightbooking/internal/session"
	"github.com/dharmasatrya/flightbooking/pkg/currency"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Log.Level, cfg.Log.Format)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.RequestID())
	e.Use(metrics.Middleware())

	l, err := ledger.NewMemoryLedger(ledger.MemoryConfig{
		ResultCapacity: cfg.Ledger.ResultCapacity,
		Latency:        cfg.Ledger.Latency,
	})
	if err != nil {
		return err
	}
	logger.Info("ledger loaded", "result_capacity", cfg.Ledger.ResultCapacity)

	limiter := ratelimit.NewCallLimiter(ratelimit.RateLimitConfig{
		RequestsPerSecond: cfg.Ledger.RPS,
		BurstSize:         cfg.Ledger.Burst,
	})
	limiter.SetLimit(ratelimit.CallQuery, cfg.Ledger.RPS/2, max(cfg.Ledger.Burst/2, 1))
	limiter.SetLimit(ratelimit.CallBooking, 5, 10)

	var ticketCache cache.TicketCache
	if cfg.Cache.Enabled {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Host:     cfg.Cache.RedisHost,
			Port:     cfg.Cache.RedisPort,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			return err
		}
		ticketCache = redisCache
		logger.Info("redis ticket cache enabled",
			"addr", cfg.Cache.RedisHost+":"+cfg.Cache.RedisPort,
			"ttl", cfg.Cache.TTL,
		)
	} else {
		ticketCache = cache.NewNoOpCache()
		logger.Info("ticket cache disabled")
	}
	defer ticketCache.Close()

	var notifier notify.Notifier
	if cfg.NATS.URL != "" {
		natsNotifier, err := notify.NewNATSNotifier(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		defer natsNotifier.Close()
		notifier = natsNotifier
		logger.Info("publishing booking events", "url", cfg.NATS.URL, "subject", cfg.NATS.Subject)
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	store := session.NewStore()
	ticketResolver := resolver.NewLedgerResolver(l, resolver.Config{
		Limiter: limiter,
		Cache:   ticketCache,
		Logger:  logger,
	})
	orchestrator := search.NewOrchestrator(l, assembler.New(ticketResolver), store, search.Config{
		ResolveTimeout: cfg.Search.ResolveTimeout,
		ReadyPolicy:    search.ParseReadyPolicy(cfg.Search.ReadyPolicy),
		Limiter:        limiter,
		Logger:         logger,
	})
	bookingService := booking.NewService(l, store, notifier, booking.Config{
		Limiter: limiter,
		Logger:  logger,
	})

	formatter := currency.UnitFormatter{
		Symbol:   cfg.Currency.Symbol,
		Decimals: cfg.Currency.Decimals,
	}

	searchHandler := handler.NewSearchHandler(orchestrator, store, formatter, cfg.Search.WaitTimeout, logger)
	bookingHandler := handler.NewBookingHandler(bookingService, formatter)

	api := e.Group("/api/v1")
	api.POST("/flights/search", searchHandler.Search)
	api.GET("/flights/results", searchHandler.Results)
	api.GET("/state", searchHandler.State)
	api.POST("/bookings/dialog", bookingHandler.OpenDialog)
	api.DELETE("/bookings/dialog", bookingHandler.CloseDialog)
	api.POST("/bookings", bookingHandler.Book)
	api.DELETE("/bookings/success", bookingHandler.CloseSuccess)
	e.GET("/health", handler.HealthHandler)
	e.GET("/metrics", metrics.Handler())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting flight booking server", "port", cfg.Server.Port, "ready_policy", cfg.Search.ReadyPolicy)
		if err := e.Start(":" + cfg.Server.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
