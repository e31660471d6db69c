package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/grovegear/storefront/internal/catalog"
	"github.com/grovegear/storefront/internal/config"
	"github.com/grovegear/storefront/internal/conversion"
	"github.com/grovegear/storefront/internal/events"
	"github.com/grovegear/storefront/internal/feed"
	"github.com/grovegear/storefront/internal/identity"
	"github.com/grovegear/storefront/internal/orders"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Wait for database to be ready
	for i := 0; i < 30; i++ {
		if err := db.Ping(); err == nil {
			logger.Info("Database connection established")
			break
		}
		logger.Info("Waiting for database...")
		time.Sleep(2 * time.Second)
	}

	if err := orders.CreateTables(db); err != nil {
		logger.WithError(err).Fatal("Failed to create tables")
	}

	// Conversion configuration is validated here, once, so a misdeployed
	// instance fails at startup instead of per request.
	conversionClient, err := conversion.NewClient(cfg.Conversion, logger)
	if err != nil {
		logger.WithError(err).Fatal("Conversion pipeline configuration incomplete")
	}
	conversionHandler := conversion.NewHandler(conversionClient, cfg.Conversion, logger)

	resolver := identity.NewResolver(cfg.JWTSecret, logger)
	pricing := orders.Pricing{
		Currency:          cfg.Pricing.Currency,
		ShippingFlatCents: cfg.Pricing.ShippingFlatCents,
		TaxRateBps:        cfg.Pricing.TaxRateBps,
	}

	orderStore := orders.NewPostgresStore(db)
	catalogStore := catalog.NewPostgresStore(db)
	orderService := orders.NewService(orderStore, catalogStore, resolver, pricing, logger)
	reconciler := orders.NewReconciler(orderStore, logger)
	orderHandler := orders.NewHandler(orderService, reconciler, logger)

	// Kafka is optional: no brokers configured means no event publication.
	if cfg.Kafka.Brokers != "" {
		producer, err := events.NewKafkaProducer(cfg.Kafka.Brokers, logger)
		if err != nil {
			logger.WithError(err).Fatal("Failed to create Kafka producer")
		}
		defer producer.Close()
		orderService.SetPublisher(producer)
	}

	hub := feed.NewHub(logger)
	go hub.Run()
	orderService.SetFeed(hub)

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck(db)).Methods("GET")
	router.HandleFunc("/orders", orderHandler.PlaceOrder).Methods("POST")
	router.HandleFunc("/orders", orderHandler.ListOrders).Methods("GET")
	router.HandleFunc("/orders/{number}", orderHandler.GetOrder).Methods("GET")
	router.HandleFunc("/events/{event}", conversionHandler.HandleEvent).Methods("POST")
	router.HandleFunc("/admin/reconcile", orderHandler.Reconcile).Methods("POST")
	router.HandleFunc("/ws/orders", hub.ServeWS).Methods("GET")

	router.Use(loggingMiddleware(logger))

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.WithField("port", cfg.HTTPPort).Info("Starting storefront service")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server gracefully stopped")
}

func healthCheck(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{
				"status":  "unhealthy",
				"service": "storefront",
				"error":   "database connection failed",
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "healthy",
			"service": "storefront",
		})
	}
}

func loggingMiddleware(logger *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			next.ServeHTTP(w, r)

			logger.WithFields(logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"remote":   r.RemoteAddr,
				"duration": time.Since(start).Milliseconds(),
			}).Info("Request completed")
		})
	}
}
