package events

import (
    "testing"
    "time"
)

func TestBrokerPublishSubscribe(t *testing.T) {
    b := NewMemoryBroker()
    ch := b.Subscribe(TopicSandbox)

    evt := StreamEvent{Type: "webhook.recorded", Data: map[string]any{"kind": "NppReturn"}}
    b.Publish(TopicSandbox, evt)

    select {
    case got := <-ch:
        if got.Type != evt.Type { t.Fatalf("got type %s, want %s", got.Type, evt.Type) }
        if got.Data["kind"].(string) != "NppReturn" { t.Fatalf("bad payload: %+v", got.Data) }
    case <-time.After(200 * time.Millisecond):
        t.Fatal("timeout waiting for event")
    }

    b.Unsubscribe(TopicSandbox, ch)
    if _, ok := <-ch; ok { t.Fatal("channel should be closed after unsubscribe") }
    // second unsubscribe is a no-op
    b.Unsubscribe(TopicSandbox, ch)
}

func TestBrokerTopicsAreIsolated(t *testing.T) {
    b := NewMemoryBroker()
    live := b.Subscribe(TopicLive)
    defer b.Unsubscribe(TopicLive, live)

    b.Publish(TopicSandbox, StreamEvent{Type: "webhook.recorded"})
    select {
    case got := <-live:
        t.Fatalf("live subscriber received sandbox event: %+v", got)
    case <-time.After(50 * time.Millisecond):
    }
}

func TestBrokerDropsForSlowSubscriber(t *testing.T) {
    b := NewMemoryBroker()
    ch := b.Subscribe(TopicLive)
    defer b.Unsubscribe(TopicLive, ch)
    done := make(chan struct{})
    go func() {
        for i := 0; i < 100; i++ { b.Publish(TopicLive, StreamEvent{Type: "x"}) }
        close(done)
    }()
    select {
    case <-done:
    case <-time.After(time.Second):
        t.Fatal("publish blocked on a full subscriber")
    }
    if len(ch) != cap(ch) { t.Fatalf("expected full buffer, got %d/%d", len(ch), cap(ch)) }
}
