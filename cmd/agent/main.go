// Command agent runs the Arc Pay micropayment agent: an HTTP API that
// scores content against user preferences and autonomously pays creators
// in USDC.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/arcpay/platform/internal/app"
	"github.com/arcpay/platform/internal/app/httpapi"
	"github.com/arcpay/platform/internal/app/metrics"
	"github.com/arcpay/platform/internal/app/services/payments"
	"github.com/arcpay/platform/internal/app/storage"
	"github.com/arcpay/platform/internal/app/storage/memory"
	redisstore "github.com/arcpay/platform/internal/app/storage/redis"
	"github.com/arcpay/platform/internal/circle"
	"github.com/arcpay/platform/internal/config"
	"github.com/arcpay/platform/internal/scorer"
	"github.com/arcpay/platform/pkg/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	_ = godotenv.Load()

	log := logger.NewDefault("agent")

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	kv, closeKV, err := openKV(ctx, cfg.Redis, log)
	if err != nil {
		log.WithError(err).Error("failed to connect to storage")
		os.Exit(1)
	}
	defer closeKV()

	sc := buildScorer(cfg.Scorer, log)

	application, err := app.New(app.NewKVStores(kv), app.Options{
		Provider:         buildProvider(cfg.Circle, log),
		Scorer:           sc,
		AuthSecret:       []byte(cfg.Agent.AuthSecret),
		PaymentThreshold: cfg.Agent.PaymentThreshold,
		SweepSchedule:    cfg.Agent.SweepSchedule,
	}, log)
	if err != nil {
		log.WithError(err).Error("failed to initialise application")
		os.Exit(1)
	}

	if err := application.Start(ctx); err != nil {
		log.WithError(err).Error("failed to start services")
		os.Exit(1)
	}

	router := mux.NewRouter()
	router.Handle("/metrics", metrics.Handler())
	router.PathPrefix("/").Handler(httpapi.NewHandler(application, sc))

	limiter := newRateLimiter(20, 40)
	var handler http.Handler = router
	handler = authMiddleware(application.Users, log)(handler)
	handler = limiter.Handler(handler)
	handler = corsMiddleware(cfg.Server.AllowedOrigins)(handler)
	handler = metrics.InstrumentHandler(handler)

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("agent listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("server error")
			cancel()
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-stop:
		log.Info("shutdown signal received")
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("server shutdown failed")
	}
	if err := application.Stop(shutdownCtx); err != nil {
		log.WithError(err).Error("service shutdown failed")
	}
	log.Info("agent stopped")
}

// openKV selects the storage backend: Redis when configured, otherwise the
// in-memory store for local development.
func openKV(ctx context.Context, cfg config.RedisConfig, log *logger.Logger) (storage.KV, func(), error) {
	if cfg.Addr == "" {
		log.Warn("no redis address configured; state will not survive restarts")
		return memory.New(), func() {}, nil
	}

	kv, err := redisstore.New(ctx, redisstore.Config{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err != nil {
		return nil, nil, err
	}
	log.WithField("addr", cfg.Addr).Info("connected to redis")
	return kv, func() {
		if err := kv.Close(); err != nil {
			log.WithError(err).Warn("failed to close redis connection")
		}
	}, nil
}

// buildProvider returns the Circle client when credentials are present,
// otherwise a simulator so the agent can run without them.
func buildProvider(cfg config.CircleConfig, log *logger.Logger) payments.Provider {
	if cfg.APIKey == "" {
		log.Warn("no circle api key configured; payments are simulated")
		return circle.NewSimulator(log)
	}

	client, err := circle.New(circle.Config{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		EntitySecret: cfg.EntitySecret,
		USDCAddress:  cfg.USDCAddress,
	}, log)
	if err != nil {
		log.WithError(err).Warn("circle client unavailable; payments are simulated")
		return circle.NewSimulator(log)
	}
	return client
}

// buildScorer returns the model-backed scorer when an API key is present.
// A nil return selects the keyword heuristic downstream.
func buildScorer(cfg config.ScorerConfig, log *logger.Logger) scorer.Scorer {
	if cfg.APIKey == "" {
		return nil
	}

	scorerCfg := scorer.DefaultConfig()
	if cfg.BaseURL != "" {
		scorerCfg.BaseURL = cfg.BaseURL
	}
	if cfg.Model != "" {
		scorerCfg.Model = cfg.Model
	}
	scorerCfg.APIKey = cfg.APIKey

	model, err := scorer.NewOpenAI(scorerCfg, log)
	if err != nil {
		log.WithError(err).Warn("model scorer unavailable; using keyword heuristic")
		return nil
	}
	return model
}
