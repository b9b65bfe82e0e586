package store

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/google/uuid"
)

// Memory is a simple in-memory store used for DATABASE_URL=memory:// and
// as the default sandbox store.
type Memory struct {
    mu     sync.Mutex
    events []WebhookEvent // insertion order
    txs    []Transaction
}

func NewMemory() *Memory {
    return &Memory{}
}

func (m *Memory) InsertWebhookEvent(ctx context.Context, ev WebhookEvent) error {
    if err := validEvent(ev); err != nil {
        return err
    }
    m.mu.Lock(); defer m.mu.Unlock()
    if ev.ID == "" { ev.ID = uuid.New().String() }
    if ev.CreatedAt.IsZero() { ev.CreatedAt = time.Now().UTC() }
    ev.Payload = append([]byte(nil), ev.Payload...)
    m.events = append(m.events, ev)
    return nil
}

func (m *Memory) ListWebhookEvents(ctx context.Context, limit int) ([]WebhookEvent, error) {
    m.mu.Lock(); defer m.mu.Unlock()
    limit = clampLimit(limit)
    out := []WebhookEvent{}
    for i := len(m.events) - 1; i >= 0 && len(out) < limit; i-- {
        out = append(out, m.events[i])
    }
    return out, nil
}

// AddTransaction seeds a transaction; used by tests and local development.
func (m *Memory) AddTransaction(tx Transaction) {
    m.mu.Lock(); defer m.mu.Unlock()
    if tx.ID == "" { tx.ID = uuid.New().String() }
    if tx.CreatedAt.IsZero() { tx.CreatedAt = time.Now().UTC() }
    m.txs = append(m.txs, tx)
}

func (m *Memory) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
    m.mu.Lock()
    all := append([]Transaction(nil), m.txs...)
    m.mu.Unlock()
    sort.SliceStable(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
    limit = clampLimit(limit)
    if len(all) > limit { all = all[:limit] }
    if all == nil { all = []Transaction{} }
    return all, nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() error { return nil }
