package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Farizu224/vending-machine-web/internal/api"
	"github.com/Farizu224/vending-machine-web/internal/auth"
	"github.com/Farizu224/vending-machine-web/internal/cart"
	"github.com/Farizu224/vending-machine-web/internal/config"
	"github.com/Farizu224/vending-machine-web/internal/consult"
	"github.com/Farizu224/vending-machine-web/internal/domain"
	"github.com/Farizu224/vending-machine-web/internal/httpapi"
	"github.com/Farizu224/vending-machine-web/internal/payment"
	"github.com/Farizu224/vending-machine-web/internal/sensor"
	"github.com/Farizu224/vending-machine-web/internal/session"
)

// lazyTokens defers token lookup until the auth manager exists; the manager
// needs the API client and the client needs a token source.
type lazyTokens struct {
	manager *auth.Manager
}

func (l *lazyTokens) Token() string {
	if l.manager == nil {
		return ""
	}
	return l.manager.Token()
}

func main() {
	cfg := config.Load()

	logger, err := newLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger init: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	credStore, err := auth.OpenBoltStore(cfg.BoltPath)
	if err != nil {
		logger.Fatal("credential store open failed", zap.String("path", cfg.BoltPath), zap.Error(err))
	}
	defer credStore.Close()

	tokens := &lazyTokens{}
	client := api.New(cfg.APIBaseURL, cfg.APITimeout, tokens, logger)

	manager := auth.NewManager(client, credStore, logger)
	tokens.manager = manager
	client.SetAuthRejectedHook(manager.Logout)
	manager.Hydrate()

	bus := EventBus.New()
	subscribeEvents(bus, logger)

	var cache session.CartCache
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		cache = session.NewRedisCache(rdb, cfg.CacheTTL)
		logger.Info("session cart cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	progress := consult.PolicyFunc(func([]domain.ConsultationAnswer) int {
		return cfg.ConsultQuestionMax
	})
	registry := session.NewRegistry(session.Options{
		TTL:        cfg.SessionTTL,
		Cache:      cache,
		NewCart:    func() *cart.Store { return cart.NewStore(bus) },
		NewConsult: func() *consult.Session { return consult.NewSession(client, progress) },
		Logger:     logger,
	})
	defer registry.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sensorPoller := sensor.NewPoller(client, cfg.SensorInterval, bus, logger)
	go sensorPoller.Run(ctx)

	tracker := payment.NewTracker(client, cfg.StatusInterval, cfg.StatusMaxAttempts, logger)

	handlers := httpapi.Handlers{
		Products: httpapi.NewProductHandler(client),
		Cart:     httpapi.NewCartHandler(client, registry),
		Consult:  httpapi.NewConsultHandler(registry, client),
		Auth:     httpapi.NewAuthHandler(manager),
		Payment: httpapi.NewPaymentHandler(ctx, payment.NewService(client, logger),
			tracker, manager, registry, bus, logger),
		Sensor: httpapi.NewSensorHandler(sensorPoller),
	}

	srv := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      httpapi.NewRouter(handlers, registry, logger, cfg.RequestTimeout),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("storefront listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", zap.Error(err))
	}

	cancel()
	tracker.Wait()
	logger.Info("storefront stopped")
}

func newLogger(mode string) (*zap.Logger, error) {
	if mode == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// subscribeEvents logs the bus traffic the state containers publish.
func subscribeEvents(bus EventBus.Bus, logger *zap.Logger) {
	_ = bus.Subscribe(cart.TopicChanged, func(summary cart.Summary) {
		logger.Debug("cart changed",
			zap.Int64("total", summary.Total),
			zap.Int("total_items", summary.TotalItems))
	})
	_ = bus.Subscribe(payment.TopicEvent, func(result payment.Result) {
		logger.Info("payment event",
			zap.String("order_id", result.OrderID),
			zap.String("event", string(result.Event)))
	})
	_ = bus.Subscribe(sensor.TopicUpdate, func(reading domain.SensorReading) {
		logger.Debug("sensor update",
			zap.String("device_id", reading.DeviceID),
			zap.Float64("temperature", reading.Temperature),
			zap.Float64("humidity", reading.Humidity))
	})
}
