package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sashatouille39/gmm71-sub000/internal/api"
	"github.com/sashatouille39/gmm71-sub000/internal/catalog"
	"github.com/sashatouille39/gmm71-sub000/internal/config"
	"github.com/sashatouille39/gmm71-sub000/internal/db"
	"github.com/sashatouille39/gmm71-sub000/internal/game"
	"github.com/sashatouille39/gmm71-sub000/internal/generator"
	"github.com/sashatouille39/gmm71-sub000/internal/logging"
	"github.com/sashatouille39/gmm71-sub000/internal/metrics"
	mw "github.com/sashatouille39/gmm71-sub000/internal/middleware"
	"github.com/sashatouille39/gmm71-sub000/internal/network"
	"github.com/sashatouille39/gmm71-sub000/internal/rules"
	"github.com/sashatouille39/gmm71-sub000/internal/vip"
)

const (
	shutdownTimeout = 10 * time.Second
	sweepInterval   = time.Minute
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	log, err := logging.New(cfg.Log)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	// Initialize storage
	var (
		store    game.Store
		database *db.DB
	)
	switch cfg.Storage.Driver {
	case config.DriverMemory:
		store = game.NewMemoryStore(cfg.Game.StartingWallet)
		log.Warn("Using in-memory storage, games will not survive a restart")
	default:
		database, err = db.Open(cfg.Storage.Path, cfg.Game.StartingWallet)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize database")
		}
		defer database.Close()
		store = database
	}

	classifier, err := rules.NewClassifier(cfg.Classification)
	if err != nil {
		log.WithError(err).Fatal("Failed to compile classification rules")
	}

	hub := network.NewHub(log)
	m := metrics.New()

	manager := game.NewManager(cfg.GameConfig(), game.Deps{
		Store:      store,
		Catalog:    catalog.Default(),
		VIPs:       vip.NewAssigner(vip.DefaultPool(), cfg.Game.SalonCapacities),
		Classifier: classifier,
		Generator:  generator.New(),
		Publisher:  hub,
		Observer:   m,
		Logger:     log,
	})
	if _, err := manager.Restore(context.Background()); err != nil {
		log.WithError(err).Fatal("Failed to restore games")
	}

	auth := mw.NewAuth(cfg.Auth.JWTSecret, log)
	if !auth.Enabled() {
		log.Warn("JWT_SECRET is not set, every request acts as the public owner")
	}
	limiter := mw.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := limiter.Sweep(); n > 0 {
					log.WithField("visitors", n).Debug("Swept idle rate limit entries")
				}
			}
		}
	}()

	server := api.NewServer(api.Options{
		Manager:      manager,
		Hub:          hub,
		Metrics:      m,
		Auth:         auth,
		RateLimiter:  limiter,
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
		Logger:       log,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{
			"addr":    httpServer.Addr,
			"storage": cfg.Storage.Driver,
		}).Info("Starting server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server error")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
	manager.Close()
}
