package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"paydesk/internal/webhooks"
)

// WebhookHandler handles POST .../monoova/webhooks/{kind}. It always
// acknowledges with 200 so the provider does not redeliver; events whose
// signature is missing or wrong are stored unverified with a note.
func (s *Server) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	m := requestMode(r)
	kind := pathParam(r, "kind")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.Logger.Warn("webhook body unreadable", "mode", m.String(), "kind", kind, "error", err)
		if tooLarge(err) {
			// Keep a record of the delivery but not a truncated payload.
			s.Recorders[m].Record(r.Context(), kind, json.RawMessage("null"), false, errBodyTooLarge.Error())
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
	}

	verified, note := false, ""
	switch sig := r.Header.Get(webhooks.SignatureHeader); {
	case sig == "":
		note = "signature missing"
	case webhooks.VerifyHMAC(s.Config.WebhookSecret, body, sig):
		verified = true
	default:
		note = "signature mismatch"
	}

	payload := json.RawMessage(body)
	if len(body) > 0 && !json.Valid(body) {
		payload, _ = json.Marshal(string(body))
		if note != "" {
			note += "; "
		}
		note += "body is not JSON"
	}

	s.Recorders[m].Record(r.Context(), kind, payload, verified, note)
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}

// WebhookEventsHandler handles GET .../monoova/webhooks/events?limit=N
func (s *Server) WebhookEventsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	m := requestMode(r)
	items, err := s.Stores[m].ListWebhookEvents(r.Context(), limit)
	if err != nil {
		s.Logger.Error("list webhook events", "mode", m.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "list webhook events failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mode": m.String(), "items": items})
}
