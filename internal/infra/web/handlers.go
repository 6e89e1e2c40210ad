package web

import (
	"encoding/json"
	"net/http"
	"strings"

	"telegram-content-assistant/internal/engine"
	"telegram-content-assistant/internal/infra/metrics"
)

type callbackResponse struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// callbackHandler accepts a POST from the external engine, validates the
// embedded request_id against the registry and buffers the kind-specific
// payload for pickup. The 400 on an unknown or already-consumed id is purely
// informational to the caller: late and retried deliveries are expected and
// must never disturb the process.
func (s *Server) callbackHandler(kind engine.Kind, field string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeJSON(w, http.StatusBadRequest, callbackResponse{Status: "error", Message: "invalid JSON body"})
			return
		}

		requestID, _ := body["request_id"].(string)
		if requestID == "" {
			writeJSON(w, http.StatusBadRequest, callbackResponse{Status: "error", Message: "request_id is required"})
			return
		}

		value, _ := body[field].(string)
		success := true
		if v, ok := body["success"].(bool); ok {
			success = v
		}

		res := &engine.Result{
			Success: success,
			Payload: map[string]string{field: strings.TrimSpace(value)},
		}
		if !s.registry.Resolve(requestID, kind, res) {
			metrics.IncCallback(string(kind), "unknown")
			s.log.Warn().Str("request_id", requestID).Str("kind", string(kind)).Msg("callback for unknown request_id")
			writeJSON(w, http.StatusBadRequest, callbackResponse{Status: "error", Message: "unknown request_id"})
			return
		}

		metrics.IncCallback(string(kind), "resolved")
		s.log.Info().Str("request_id", requestID).Str("kind", string(kind)).Msg("callback resolved")
		writeJSON(w, http.StatusOK, callbackResponse{Status: "ok"})
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Status          string `json:"status"`
		PendingRequests int    `json:"pending_requests"`
		Service         string `json:"service"`
	}{
		Status:          "ok",
		PendingRequests: s.registry.PendingCount(),
		Service:         "webhook_server",
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
