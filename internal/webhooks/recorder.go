// Package webhooks records inbound payment provider webhooks.
package webhooks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"paydesk/internal/events"
	"paydesk/internal/metrics"
	"paydesk/internal/store"
)

// insertTimeout bounds a single insert; the request context's cancellation
// does not apply to it.
const insertTimeout = 5 * time.Second

// Recorder persists webhook events on a best-effort basis: Record never
// reports failure to its caller, so a store outage cannot make the provider
// retry a delivery it already made.
type Recorder struct {
	Store  store.EventLog
	Topic  string
	Broker events.Broker // optional
	Logger *slog.Logger
}

// NewRecorder returns a Recorder writing to s and announcing on topic.
func NewRecorder(s store.EventLog, topic string, broker events.Broker, logger *slog.Logger) *Recorder {
	return &Recorder{Store: s, Topic: topic, Broker: broker, Logger: logger}
}

// Record inserts one webhook event. Failures, including panics raised by the
// store, are logged and absorbed. An empty note is stored as NULL.
func (r *Recorder) Record(ctx context.Context, kind string, payload json.RawMessage, verified bool, note string) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("topic", r.Topic, "kind", kind, "verified", verified)
	defer func() {
		if p := recover(); p != nil {
			metrics.WebhookEvents.WithLabelValues(r.Topic, "failed").Inc()
			logger.Error("webhook insert panicked", "panic", fmt.Sprint(p))
		}
	}()

	ev := store.WebhookEvent{
		ID:        uuid.New().String(),
		Kind:      strings.TrimSpace(kind),
		Payload:   payload,
		Verified:  verified,
		CreatedAt: time.Now().UTC(),
	}
	if note != "" {
		ev.Note = &note
	}
	if ev.Kind == "" || len(ev.Payload) == 0 {
		metrics.WebhookEvents.WithLabelValues(r.Topic, "rejected").Inc()
		logger.Warn("webhook event missing kind or payload; not stored")
		return
	}

	ictx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()
	if err := r.Store.InsertWebhookEvent(ictx, ev); err != nil {
		metrics.WebhookEvents.WithLabelValues(r.Topic, "failed").Inc()
		logger.Error("failed to record webhook event", "error", err)
		return
	}
	metrics.WebhookEvents.WithLabelValues(r.Topic, "stored").Inc()
	logger.Info("webhook event recorded", "id", ev.ID)

	if r.Broker != nil {
		r.Broker.Publish(r.Topic, events.StreamEvent{Type: "webhook.recorded", Data: eventData(ev)})
	}
}

func eventData(ev store.WebhookEvent) map[string]any {
	d := map[string]any{
		"id":        ev.ID,
		"kind":      ev.Kind,
		"verified":  ev.Verified,
		"createdAt": ev.CreatedAt.Format(time.RFC3339),
	}
	var payload any
	if json.Unmarshal(ev.Payload, &payload) == nil {
		d["payload"] = payload
	}
	if ev.Note != nil {
		d["note"] = *ev.Note
	}
	return d
}
