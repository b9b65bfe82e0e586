package store

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "strings"
    "time"
)

// WebhookEvent is one logged inbound webhook call.
type WebhookEvent struct {
    ID        string          `json:"id"`
    Kind      string          `json:"kind"`
    Payload   json.RawMessage `json:"payload"`
    Verified  bool            `json:"verified"`
    Note      *string         `json:"note,omitempty"`
    CreatedAt time.Time       `json:"createdAt"`
}

// Transaction is a read-only view of a stored provider transaction.
type Transaction struct {
    ID              string    `json:"id"`
    UniqueReference string    `json:"uniqueReference"`
    Amount          string    `json:"amount"`
    Currency        string    `json:"currency"`
    Status          string    `json:"status"`
    Description     string    `json:"description,omitempty"`
    CreatedAt       time.Time `json:"createdAt"`
}

// EventLog persists webhook events.
type EventLog interface {
    InsertWebhookEvent(ctx context.Context, ev WebhookEvent) error
    ListWebhookEvents(ctx context.Context, limit int) ([]WebhookEvent, error)
}

// TransactionReader lists transactions, newest first.
type TransactionReader interface {
    ListTransactions(ctx context.Context, limit int) ([]Transaction, error)
}

// Store is the persistence interface used by the API server. One Store
// backs each runtime mode.
type Store interface {
    EventLog
    TransactionReader
    Ping(ctx context.Context) error
    Close() error
}

const (
    DefaultLimit = 20
    MaxLimit     = 500
)

var ErrInvalidEvent = errors.New("webhook event requires kind and payload")

// MemoryDSN selects the in-memory store in Open.
const MemoryDSN = "memory://"

// Open returns a Memory store for MemoryDSN and a Postgres store otherwise.
func Open(ctx context.Context, dsn string) (Store, error) {
    if strings.TrimSpace(dsn) == "" || dsn == MemoryDSN {
        return NewMemory(), nil
    }
    p, err := NewPostgres(ctx, dsn)
    if err != nil {
        return nil, fmt.Errorf("open postgres: %w", err)
    }
    return p, nil
}

func clampLimit(limit int) int {
    if limit <= 0 {
        return DefaultLimit
    }
    if limit > MaxLimit {
        return MaxLimit
    }
    return limit
}

func validEvent(ev WebhookEvent) error {
    if strings.TrimSpace(ev.Kind) == "" || len(ev.Payload) == 0 {
        return ErrInvalidEvent
    }
    return nil
}
