// tiktok-mock is a local stand-in for the conversions API. It validates the
// Access-Token header, records every payload it receives and answers with
// the provider's response envelope so the pipeline can be exercised without
// real credentials.
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type eventStore struct {
	events []map[string]interface{}
	mutex  sync.RWMutex
}

func (s *eventStore) add(payload map[string]interface{}) int {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.events = append(s.events, payload)
	return len(s.events)
}

func (s *eventStore) all() []map[string]interface{} {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]map[string]interface{}, len(s.events))
	copy(out, s.events)
	return out
}

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	store := &eventStore{}
	expectedToken := getEnv("MOCK_ACCESS_TOKEN", "test-token")

	router := mux.NewRouter()
	router.HandleFunc("/health", healthCheck).Methods("GET")
	router.HandleFunc("/event/track", trackEvent(logger, store, expectedToken)).Methods("POST")
	router.HandleFunc("/events", listEvents(store)).Methods("GET")

	port := getEnv("MOCK_PORT", "8091")
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		logger.WithField("port", port).Info("Starting conversions API mock")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down conversions API mock...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("HTTP server forced to shutdown")
	}
	logger.Info("Conversions API mock stopped")
}

func trackEvent(logger *logrus.Logger, store *eventStore, expectedToken string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Access-Token") != expectedToken {
			respond(w, http.StatusUnauthorized, map[string]interface{}{
				"code":       40001,
				"message":    "Invalid access token",
				"request_id": uuid.New().String(),
			})
			return
		}

		var payload map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			respond(w, http.StatusBadRequest, map[string]interface{}{
				"code":       40002,
				"message":    "Invalid request body",
				"request_id": uuid.New().String(),
			})
			return
		}

		total := store.add(payload)
		logger.WithFields(logrus.Fields{
			"event":        payload["event"],
			"event_id":     payload["event_id"],
			"total_stored": total,
		}).Info("Conversion event received")

		respond(w, http.StatusOK, map[string]interface{}{
			"code":       0,
			"message":    "OK",
			"request_id": uuid.New().String(),
		})
	}
}

func listEvents(store *eventStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		received := store.all()
		respond(w, http.StatusOK, map[string]interface{}{
			"count":  len(received),
			"events": received,
		})
	}
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "tiktok-mock",
	})
}

func respond(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(payload)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
