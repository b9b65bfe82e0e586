package events

import (
    "context"
    "encoding/json"
    "log/slog"
    "sync"
    "time"

    redis "github.com/redis/go-redis/v9"
)

// RedisBroker implements Broker over Redis Pub/Sub so every instance sees
// events recorded by any other.
type RedisBroker struct {
    rdb    *redis.Client
    prefix string
    logger *slog.Logger

    mu   sync.Mutex
    subs map[chan StreamEvent]*redis.PubSub
}

// NewRedisBroker connects to url (redis://...) and verifies the connection.
func NewRedisBroker(ctx context.Context, url string, logger *slog.Logger) (*RedisBroker, error) {
    opt, err := redis.ParseURL(url)
    if err != nil { return nil, err }
    rdb := redis.NewClient(opt)
    if err := rdb.Ping(ctx).Err(); err != nil {
        _ = rdb.Close()
        return nil, err
    }
    return &RedisBroker{rdb: rdb, prefix: "paydesk:events:", logger: logger, subs: map[chan StreamEvent]*redis.PubSub{}}, nil
}

func (b *RedisBroker) Subscribe(topic string) chan StreamEvent {
    ch := make(chan StreamEvent, 16)
    ctx := context.Background()
    ps := b.rdb.Subscribe(ctx, b.chanName(topic))
    // initial consume to ensure subscription
    if _, err := ps.Receive(ctx); err != nil {
        b.logger.Warn("redis subscribe failed", "topic", topic, "error", err)
    }
    b.mu.Lock()
    b.subs[ch] = ps
    b.mu.Unlock()
    go func() {
        for msg := range ps.Channel() {
            var evt StreamEvent
            if err := json.Unmarshal([]byte(msg.Payload), &evt); err != nil {
                continue
            }
            b.mu.Lock()
            if _, ok := b.subs[ch]; ok {
                select { case ch <- evt: default: }
            }
            b.mu.Unlock()
        }
    }()
    return ch
}

func (b *RedisBroker) Unsubscribe(topic string, ch chan StreamEvent) {
    b.mu.Lock()
    ps, ok := b.subs[ch]
    delete(b.subs, ch)
    b.mu.Unlock()
    if !ok {
        return
    }
    _ = ps.Close()
    close(ch)
}

func (b *RedisBroker) Publish(topic string, evt StreamEvent) {
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    data, _ := json.Marshal(evt)
    if err := b.rdb.Publish(ctx, b.chanName(topic), data).Err(); err != nil {
        b.logger.Warn("redis publish failed", "topic", topic, "error", err)
    }
}

// Close releases the Redis connection pool.
func (b *RedisBroker) Close() error { return b.rdb.Close() }

func (b *RedisBroker) chanName(topic string) string { return b.prefix + topic }
