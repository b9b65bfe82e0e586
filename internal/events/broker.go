// Package events fans recorded webhook events out to live stream subscribers.
package events

import (
    "sync"
)

// Topics, one per runtime mode.
const (
    TopicLive    = "live"
    TopicSandbox = "sandbox"
)

// StreamEvent is one message on a live stream.
type StreamEvent struct {
    Type string         `json:"type"`
    Data map[string]any `json:"data"`
}

// Broker distributes events to subscribers of a topic.
type Broker interface {
    Subscribe(topic string) chan StreamEvent
    Unsubscribe(topic string, ch chan StreamEvent)
    Publish(topic string, evt StreamEvent)
}

// MemoryBroker is an in-process Broker. Slow subscribers drop events.
type MemoryBroker struct {
    mu   sync.Mutex
    subs map[string]map[chan StreamEvent]struct{} // topic -> set of channels
}

func NewMemoryBroker() *MemoryBroker {
    return &MemoryBroker{subs: map[string]map[chan StreamEvent]struct{}{}}
}

func (b *MemoryBroker) Subscribe(topic string) chan StreamEvent {
    ch := make(chan StreamEvent, 8)
    b.mu.Lock()
    if b.subs[topic] == nil { b.subs[topic] = map[chan StreamEvent]struct{}{} }
    b.subs[topic][ch] = struct{}{}
    b.mu.Unlock()
    return ch
}

func (b *MemoryBroker) Unsubscribe(topic string, ch chan StreamEvent) {
    b.mu.Lock()
    defer b.mu.Unlock()
    m := b.subs[topic]
    if _, ok := m[ch]; !ok {
        return
    }
    delete(m, ch)
    if len(m) == 0 { delete(b.subs, topic) }
    close(ch)
}

func (b *MemoryBroker) Publish(topic string, evt StreamEvent) {
    b.mu.Lock()
    m := b.subs[topic]
    for ch := range m {
        select { case ch <- evt: default: }
    }
    b.mu.Unlock()
}

// Subscribers reports how many channels are subscribed to topic.
func (b *MemoryBroker) Subscribers(topic string) int {
    b.mu.Lock(); defer b.mu.Unlock()
    return len(b.subs[topic])
}
