package metrics

import (
    "sync"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/collectors"
)

var (
    // Registry is the dedicated Prometheus registry for the service
    Registry = prometheus.NewRegistry()
    // HTTPRequests counts requests by method, route pattern, and status
    HTTPRequests = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "http_requests_total", Help: "Total HTTP requests."},
        []string{"method", "path", "status"},
    )
    // HTTPDuration records request durations in seconds
    HTTPDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "http_request_duration_seconds", Help: "HTTP request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"method", "path", "status"},
    )

    // ProviderDuration records payment provider call latency by mode, operation and outcome
    ProviderDuration = prometheus.NewHistogramVec(
        prometheus.HistogramOpts{Name: "provider_request_duration_seconds", Help: "Payment provider request duration in seconds.", Buckets: prometheus.DefBuckets},
        []string{"mode", "operation", "outcome"},
    )

    // WebhookEvents counts inbound webhook recordings by topic (live, sandbox) and outcome (stored, rejected, failed).
    // The webhook kind comes from the request path and is deliberately not a label.
    WebhookEvents = prometheus.NewCounterVec(
        prometheus.CounterOpts{Name: "webhook_events_total", Help: "Inbound webhook events by topic and outcome."},
        []string{"topic", "outcome"},
    )
    // StreamSubscribers tracks open live event stream connections
    StreamSubscribers = prometheus.NewGauge(
        prometheus.GaugeOpts{Name: "event_stream_subscribers", Help: "Open live event stream connections."},
    )
)

// RegisterDefault registers collectors to the service registry. Safe to call
// more than once.
func RegisterDefault() {
    regOnce.Do(func(){
        Registry.MustRegister(HTTPRequests)
        Registry.MustRegister(HTTPDuration)
        Registry.MustRegister(ProviderDuration)
        Registry.MustRegister(WebhookEvents)
        Registry.MustRegister(StreamSubscribers)
        // Go/process collectors on our registry
        Registry.MustRegister(collectors.NewGoCollector())
        Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
    })
}

var regOnce sync.Once
