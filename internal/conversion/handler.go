package conversion

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/grovegear/storefront/internal/config"
	"github.com/grovegear/storefront/internal/errs"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	client         *Client
	mode           PayloadMode
	defaultBaseURL string
	logger         *logrus.Logger
}

func NewHandler(client *Client, cfg config.Conversion, logger *logrus.Logger) *Handler {
	return &Handler{
		client:         client,
		mode:           PayloadMode(cfg.PayloadMode),
		defaultBaseURL: cfg.DefaultBaseURL,
		logger:         logger,
	}
}

// HandleEvent serves POST /events/{event}. The body is optional: a bare
// registration ping with no body is valid.
func (h *Handler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["event"]
	name, ok := ParseEventName(slug)
	if !ok {
		h.respondWithJSON(w, http.StatusNotFound, map[string]interface{}{
			"ok":    false,
			"error": "unknown event: " + slug,
		})
		return
	}

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		h.logger.WithError(err).WithField("event", name).Error("Failed to decode event request")
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":    false,
			"error": "invalid request body",
			"event": string(name),
		})
		return
	}

	rc := ContextFromRequest(r)
	event, err := BuildEvent(name, req, rc, h.defaultBaseURL)
	if err != nil {
		h.logger.WithError(err).WithField("event", name).Warn("Rejected conversion event")
		h.respondWithJSON(w, http.StatusBadRequest, map[string]interface{}{
			"ok":    false,
			"error": err.Error(),
			"event": string(name),
		})
		return
	}

	payload := ShapePayload(event, h.mode)
	providerResp, err := h.client.Send(r.Context(), payload)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"event":    name,
			"event_id": event.EventID,
		}).Error("Conversion delivery failed")

		var pe *errs.ProviderError
		status := http.StatusInternalServerError
		message := "conversion delivery failed"
		if errors.As(err, &pe) {
			message = pe.Error()
		}
		h.respondWithJSON(w, status, map[string]interface{}{
			"ok":    false,
			"error": message,
			"event": string(name),
		})
		return
	}

	h.respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"ok":       true,
		"event":    string(name),
		"event_id": event.EventID,
		"tiktok":   providerResp,
	})
}

func (h *Handler) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
