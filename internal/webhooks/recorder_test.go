package webhooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paydesk/internal/events"
	"paydesk/internal/metrics"
	"paydesk/internal/store"
)

var discard = slog.New(slog.NewJSONHandler(io.Discard, nil))

type failingLog struct {
	err   error
	panic bool
	calls int

	// state of the insert context at call time
	ctxErr      error
	hasDeadline bool
}

func (f *failingLog) InsertWebhookEvent(ctx context.Context, ev store.WebhookEvent) error {
	f.calls++
	f.ctxErr = ctx.Err()
	_, f.hasDeadline = ctx.Deadline()
	if f.panic {
		panic("connection pool exploded")
	}
	return f.err
}

func (f *failingLog) ListWebhookEvents(ctx context.Context, limit int) ([]store.WebhookEvent, error) {
	return nil, f.err
}

func TestRecordStoresEventAndPublishes(t *testing.T) {
	mem := store.NewMemory()
	broker := events.NewMemoryBroker()
	ch := broker.Subscribe(events.TopicLive)
	defer broker.Unsubscribe(events.TopicLive, ch)

	r := NewRecorder(mem, events.TopicLive, broker, discard)
	r.Record(context.Background(), "InboundDirectCredit", json.RawMessage(`{"amount":12.5}`), true, "")

	evs, err := mem.ListWebhookEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "InboundDirectCredit", evs[0].Kind)
	assert.True(t, evs[0].Verified)
	assert.Nil(t, evs[0].Note)
	assert.JSONEq(t, `{"amount":12.5}`, string(evs[0].Payload))

	select {
	case got := <-ch:
		assert.Equal(t, "webhook.recorded", got.Type)
		assert.Equal(t, "InboundDirectCredit", got.Data["kind"])
		assert.Equal(t, evs[0].ID, got.Data["id"])
	case <-time.After(200 * time.Millisecond):
		t.Fatal("no stream event published")
	}
}

func TestRecordDefaultsAndNote(t *testing.T) {
	mem := store.NewMemory()
	r := NewRecorder(mem, events.TopicSandbox, nil, discard)
	r.Record(context.Background(), "NppReturn", json.RawMessage(`{}`), false, "signature missing")

	evs, err := mem.ListWebhookEvents(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.False(t, evs[0].Verified)
	require.NotNil(t, evs[0].Note)
	assert.Equal(t, "signature missing", *evs[0].Note)
}

func TestRecordNeverRaisesOnStoreError(t *testing.T) {
	f := &failingLog{err: errors.New("db down")}
	r := NewRecorder(f, events.TopicLive, nil, discard)
	assert.NotPanics(t, func() {
		r.Record(context.Background(), "NppReturn", json.RawMessage(`{"x":1}`), false, "")
	})
	assert.Equal(t, 1, f.calls)
}

func TestRecordNeverRaisesOnStorePanic(t *testing.T) {
	f := &failingLog{panic: true}
	r := NewRecorder(f, events.TopicLive, nil, discard)
	assert.NotPanics(t, func() {
		r.Record(context.Background(), "NppReturn", json.RawMessage(`{"x":1}`), false, "")
	})
}

func TestRecordSkipsIncompleteEvents(t *testing.T) {
	f := &failingLog{}
	r := NewRecorder(f, events.TopicLive, nil, nil)
	r.Record(context.Background(), "  ", json.RawMessage(`{"x":1}`), false, "")
	r.Record(context.Background(), "NppReturn", nil, false, "")
	assert.Zero(t, f.calls, "no insert may be attempted without kind and payload")
}

func TestRecordIgnoresRequestCancellation(t *testing.T) {
	f := &failingLog{}
	r := NewRecorder(f, events.TopicLive, nil, discard)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r.Record(ctx, "NppReturn", json.RawMessage(`{}`), false, "")
	require.Equal(t, 1, f.calls)
	assert.NoError(t, f.ctxErr)
	assert.True(t, f.hasDeadline)
}

func TestRecordMetricsIgnoreKind(t *testing.T) {
	r := NewRecorder(store.NewMemory(), "metrics-topic", nil, discard)
	for i := 0; i < 50; i++ {
		r.Record(context.Background(), fmt.Sprintf("kind-%d", i), json.RawMessage(`{}`), false, "")
	}
	r.Record(context.Background(), "", json.RawMessage(`{}`), false, "")

	assert.Equal(t, 50.0, testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues("metrics-topic", "stored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.WebhookEvents.WithLabelValues("metrics-topic", "rejected")))
}
