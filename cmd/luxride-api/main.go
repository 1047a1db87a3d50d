// README: Entry point; loads config, wires services, starts HTTP server and the catalog refresher.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"luxride/internal/config"
	"luxride/internal/events"
	httptransport "luxride/internal/http"
	"luxride/internal/http/handlers"
	"luxride/internal/infra"
	"luxride/internal/maps"
	"luxride/internal/modules/booking"
	"luxride/internal/modules/passenger"
	"luxride/internal/modules/pricing"
)

func main() {
	if err := run(); err != nil {
		slog.Error("luxride-api stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := infra.NewLogger("luxride-api", cfg.Log.Level)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Pricing.Location()
	if err != nil {
		return err
	}

	verifier, err := infra.NewFirebaseVerifier(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
	if err != nil {
		return err
	}

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		return err
	}
	defer dbPool.Close()

	redisClient, err := infra.NewRedis(ctx, cfg.Redis.Addr)
	if err != nil {
		// The rules cache is optional; the store reads Postgres directly without it.
		logger.Warn("redis unavailable, rules cache disabled", "addr", cfg.Redis.Addr, "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	var geocoder handlers.Geocoder
	if cfg.Maps.APIKey != "" {
		g, err := maps.NewGeocodeService(cfg.Maps.APIKey)
		if err != nil {
			return err
		}
		geocoder = g
	}

	var publisher booking.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer := events.NewProducer(events.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic})
		defer producer.Close()
		publisher = producer
	}

	passengerSvc := passenger.NewService(passenger.NewStore(dbPool))

	catalogSvc := pricing.NewCatalogService(pricing.NewStore(dbPool, redisClient, cfg.Redis.RulesTTL), logger)
	if err := catalogSvc.Reload(ctx); err != nil {
		return err
	}
	go catalogSvc.RunRefresher(ctx, cfg.Pricing.RefreshInterval)

	pricingSvc := pricing.NewService(catalogSvc, passengerSvc, passengerSvc)
	bookingSvc := booking.NewService(booking.NewStore(dbPool), pricingSvc, publisher, logger)

	gin.SetMode(gin.ReleaseMode)
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:     logger,
		Verifier:   verifier,
		Fares:      pricingSvc,
		Catalog:    catalogSvc,
		Bookings:   bookingSvc,
		Passengers: passengerSvc,
		Geocoder:   geocoder,
		Location:   loc,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: corsHandler.Handler(router)}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", cfg.HTTP.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
