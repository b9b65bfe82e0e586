package api

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"

	"paydesk/internal/metrics"
)

const (
	streamPingEvery = 20 * time.Second
	streamReadWait  = 60 * time.Second
	streamWriteWait = 5 * time.Second
)

// EventStreamHandler handles GET .../events/ws: a server-push WebSocket of
// webhook events recorded for the request's mode. Client messages are read
// only to notice disconnects.
func (s *Server) EventStreamHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: s.checkOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	m := requestMode(r)
	topic := topicFor(m)
	ch := s.Broker.Subscribe(topic)
	defer s.Broker.Unsubscribe(topic, ch)
	metrics.StreamSubscribers.Inc()
	defer metrics.StreamSubscribers.Dec()
	s.Logger.Debug("event stream opened", "mode", m.String(), "remote", r.RemoteAddr)

	conn.SetReadLimit(1 << 10)
	_ = conn.SetReadDeadline(time.Now().Add(streamReadWait))
	conn.SetPongHandler(func(string) error { return conn.SetReadDeadline(time.Now().Add(streamReadWait)) })

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-gone:
			return
		case evt, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(streamWriteWait)); err != nil {
				return
			}
		}
	}
}

// checkOrigin admits same-host pages and pages served from the public API
// base URL. Requests without an Origin header (non-browser clients) pass.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	if u.Host == r.Host {
		return true
	}
	if pub, err := url.Parse(s.Config.PublicAPIBaseURL); err == nil && pub.Host != "" && pub.Host == u.Host {
		return true
	}
	return false
}
