package orders

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/grovegear/storefront/internal/errs"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	service    *Service
	reconciler *Reconciler
	logger     *logrus.Logger
}

func NewHandler(service *Service, reconciler *Reconciler, logger *logrus.Logger) *Handler {
	return &Handler{
		service:    service,
		reconciler: reconciler,
		logger:     logger,
	}
}

func (h *Handler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.WithError(err).Error("Failed to decode order request")
		h.respondWithError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	result, err := h.service.Place(r.Context(), req)
	if err != nil {
		h.logger.WithError(err).Error("Order placement failed")

		var pe *errs.PersistenceError
		if errors.As(err, &pe) && pe.OrderID != "" {
			h.respondWithError(w, http.StatusInternalServerError, pe.Error(), map[string]interface{}{
				"order_id": pe.OrderID,
				"reason":   "order created without items",
			})
			return
		}
		h.respondWithError(w, errs.HTTPStatus(err), err.Error(), nil)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"order":  result.Order,
		"totals": result.Totals,
	})
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderNumber := mux.Vars(r)["number"]

	order, err := h.service.GetByNumber(r.Context(), orderNumber)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.respondWithError(w, http.StatusNotFound, "order not found", nil)
			return
		}
		h.logger.WithError(err).WithField("order_number", orderNumber).Error("Failed to get order")
		h.respondWithError(w, http.StatusInternalServerError, "failed to get order", nil)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":    true,
		"order": order,
	})
}

func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list orders")
		h.respondWithError(w, http.StatusInternalServerError, "failed to list orders", nil)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"orders": orders,
		"count":  len(orders),
	})
}

// Reconcile runs the partial-write scan on demand.
func (h *Handler) Reconcile(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconciler.Run(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Reconciliation failed")
		h.respondWithError(w, http.StatusInternalServerError, "reconciliation failed", nil)
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":     true,
		"result": result,
	})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (h *Handler) respondWithError(w http.ResponseWriter, code int, message string, details interface{}) {
	body := map[string]interface{}{"error": message}
	if details != nil {
		body["details"] = details
	}
	h.respondWithJSON(w, code, body)
}
