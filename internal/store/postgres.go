package store

import (
    "context"
    "database/sql"
    "embed"
    "fmt"
    "io/fs"
    "sort"
    "time"

    "github.com/google/uuid"
    _ "github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type Postgres struct {
    db *sql.DB
}

func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
    db, err := sql.Open("pgx", dsn)
    if err != nil {
        return nil, err
    }
    if err := db.PingContext(ctx); err != nil {
        _ = db.Close()
        return nil, err
    }
    db.SetMaxOpenConns(10)
    db.SetConnMaxIdleTime(5 * time.Minute)
    return &Postgres{db: db}, nil
}

// Migrate applies the embedded migrations in file-name order. Every
// statement is idempotent, so running it on each start is safe.
func (p *Postgres) Migrate(ctx context.Context) error {
    names, err := fs.Glob(migrationsFS, "migrations/*.sql")
    if err != nil { return err }
    sort.Strings(names)
    for _, name := range names {
        b, err := migrationsFS.ReadFile(name)
        if err != nil { return err }
        if _, err := p.db.ExecContext(ctx, string(b)); err != nil {
            return fmt.Errorf("migrate %s: %w", name, err)
        }
    }
    return nil
}

func (p *Postgres) InsertWebhookEvent(ctx context.Context, ev WebhookEvent) error {
    if err := validEvent(ev); err != nil { return err }
    id := ev.ID
    if id == "" { id = uuid.New().String() }
    _, err := p.db.ExecContext(ctx, `INSERT INTO webhook_events (id, kind, payload, verified, note) VALUES ($1,$2,$3,$4,$5)`,
        id, ev.Kind, []byte(ev.Payload), ev.Verified, nullIfEmpty(ev.Note))
    return err
}

func (p *Postgres) ListWebhookEvents(ctx context.Context, limit int) ([]WebhookEvent, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, kind, payload, verified, note, created_at FROM webhook_events ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
    if err != nil { return nil, err }
    defer rows.Close()
    out := []WebhookEvent{}
    for rows.Next() {
        var ev WebhookEvent
        var payload []byte
        var note sql.NullString
        if err := rows.Scan(&ev.ID, &ev.Kind, &payload, &ev.Verified, &note, &ev.CreatedAt); err != nil { return nil, err }
        ev.Payload = payload
        if note.Valid { n := note.String; ev.Note = &n }
        out = append(out, ev)
    }
    return out, rows.Err()
}

func (p *Postgres) ListTransactions(ctx context.Context, limit int) ([]Transaction, error) {
    rows, err := p.db.QueryContext(ctx, `SELECT id::text, unique_reference, amount::text, currency, status, COALESCE(description,''), created_at FROM transactions ORDER BY created_at DESC LIMIT $1`, clampLimit(limit))
    if err != nil { return nil, err }
    defer rows.Close()
    out := []Transaction{}
    for rows.Next() {
        var t Transaction
        if err := rows.Scan(&t.ID, &t.UniqueReference, &t.Amount, &t.Currency, &t.Status, &t.Description, &t.CreatedAt); err != nil { return nil, err }
        out = append(out, t)
    }
    return out, rows.Err()
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

func nullIfEmpty(s *string) any { if s == nil || *s == "" { return nil }; return *s }
