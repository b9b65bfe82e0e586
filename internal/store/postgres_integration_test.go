//go:build postgres_integration

package store

import (
    "encoding/json"
    "os"
    "testing"
)

func TestPostgresConnectivityAndMigrate(t *testing.T) {
    dsn := os.Getenv("DATABASE_URL")
    if dsn == "" { t.Skip("DATABASE_URL not set; skipping integration test") }
    p, err := NewPostgres(t.Context(), dsn)
    if err != nil { t.Fatalf("NewPostgres: %v", err) }
    defer p.Close()
    if err := p.Ping(t.Context()); err != nil { t.Fatalf("Ping: %v", err) }
    if err := p.Migrate(t.Context()); err != nil { t.Fatalf("Migrate: %v", err) }
    note := "integration"
    ev := WebhookEvent{Kind: "NppReturn", Payload: json.RawMessage(`{"id":"it-1"}`), Note: &note}
    if err := p.InsertWebhookEvent(t.Context(), ev); err != nil { t.Fatalf("InsertWebhookEvent: %v", err) }
    evs, err := p.ListWebhookEvents(t.Context(), 1)
    if err != nil { t.Fatalf("ListWebhookEvents: %v", err) }
    if len(evs) != 1 || evs[0].Kind != "NppReturn" { t.Fatalf("unexpected events: %+v", evs) }
    if _, err := p.ListTransactions(t.Context(), 20); err != nil { t.Fatalf("ListTransactions: %v", err) }
}
