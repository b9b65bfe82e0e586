// Package api implements the HTTP surface of paydesk: provider pass-through
// routes, webhook intake, the live event stream and the transaction pages.
package api

import (
    "context"
    "errors"
    "fmt"
    "log/slog"
    "net/http"
    "strings"

    "golang.org/x/time/rate"

    "paydesk/internal/config"
    "paydesk/internal/events"
    "paydesk/internal/mode"
    "paydesk/internal/monoova"
    "paydesk/internal/pages"
    "paydesk/internal/store"
    "paydesk/internal/webhooks"
)

type Server struct {
    Config    config.Config
    Providers map[mode.Mode]monoova.Provider
    Stores    map[mode.Mode]store.Store
    Recorders map[mode.Mode]*webhooks.Recorder
    Broker    events.Broker
    Pages     *pages.Renderer
    Logger    *slog.Logger

    limiter *rate.Limiter
    closers []func() error
}

// Deps are the collaborators a Server is built from. Providers and Stores
// need an entry for every mode.
type Deps struct {
    Providers map[mode.Mode]monoova.Provider
    Stores    map[mode.Mode]store.Store
    Broker    events.Broker
    Logger    *slog.Logger
}

// NewServer assembles a Server from already constructed dependencies.
func NewServer(cfg config.Config, d Deps) (*Server, error) {
    for _, m := range mode.All() {
        if d.Providers[m] == nil { return nil, fmt.Errorf("no provider for %s mode", m) }
        if d.Stores[m] == nil { return nil, fmt.Errorf("no store for %s mode", m) }
    }
    if d.Logger == nil { d.Logger = slog.Default() }
    if d.Broker == nil { d.Broker = events.NewMemoryBroker() }

    pg, err := pages.New(d.Stores[mode.Sandbox], cfg.PublicAPIBaseURL, d.Logger)
    if err != nil { return nil, fmt.Errorf("parse page templates: %w", err) }

    s := &Server{
        Config:    cfg,
        Providers: d.Providers,
        Stores:    d.Stores,
        Recorders: map[mode.Mode]*webhooks.Recorder{},
        Broker:    d.Broker,
        Pages:     pg,
        Logger:    d.Logger,
    }
    for _, m := range mode.All() {
        s.Recorders[m] = webhooks.NewRecorder(d.Stores[m], topicFor(m), d.Broker, d.Logger)
    }
    if cfg.RateRPS > 0 {
        burst := cfg.RateBurst
        if burst <= 0 { burst = int(cfg.RateRPS) + 1 }
        s.limiter = rate.NewLimiter(rate.Limit(cfg.RateRPS), burst)
    }
    return s, nil
}

// Open connects every dependency named by cfg and returns a ready Server.
// Close releases what Open acquired.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Server, error) {
    if logger == nil { logger = slog.Default() }
    var closers []func() error
    fail := func(err error) (*Server, error) {
        for i := len(closers) - 1; i >= 0; i-- { _ = closers[i]() }
        return nil, err
    }

    dsns := map[mode.Mode]string{mode.Live: cfg.DatabaseURL, mode.Sandbox: cfg.SandboxDatabaseURL}
    stores := map[mode.Mode]store.Store{}
    for _, m := range mode.All() {
        st, err := store.Open(ctx, dsns[m])
        if err != nil { return fail(fmt.Errorf("%s store: %w", m, err)) }
        closers = append(closers, st.Close)
        if pg, ok := st.(*store.Postgres); ok && cfg.Migrate {
            if err := pg.Migrate(ctx); err != nil { return fail(fmt.Errorf("%s store: %w", m, err)) }
        }
        stores[m] = st
        logger.Info("store ready", "mode", m.String(), "memory", dsns[m] == "" || dsns[m] == store.MemoryDSN)
    }

    var broker events.Broker = events.NewMemoryBroker()
    if cfg.RedisURL != "" {
        rb, err := events.NewRedisBroker(ctx, cfg.RedisURL, logger)
        if err != nil {
            logger.Warn("redis unavailable; using in-process event broker", "error", err)
        } else {
            broker = rb
            closers = append(closers, rb.Close)
        }
    }

    providers := map[mode.Mode]monoova.Provider{}
    for _, m := range mode.All() {
        providers[m] = monoova.NewClient(cfg.ProviderFor(m), cfg.ProviderTimeout, monoova.WithLabel(m.String()))
    }

    s, err := NewServer(cfg, Deps{Providers: providers, Stores: stores, Broker: broker, Logger: logger})
    if err != nil { return fail(err) }
    s.closers = closers
    return s, nil
}

// Close releases stores and the broker connection.
func (s *Server) Close() error {
    var errs []error
    for i := len(s.closers) - 1; i >= 0; i-- {
        if err := s.closers[i](); err != nil { errs = append(errs, err) }
    }
    s.closers = nil
    return errors.Join(errs...)
}

type ctxKeyOriginalPath struct{}

// originalPath is the request path before the sandbox rewrite.
func originalPath(r *http.Request) string {
    if p, ok := r.Context().Value(ctxKeyOriginalPath{}).(string); ok {
        return p
    }
    return r.URL.Path
}

func requestMode(r *http.Request) mode.Mode { return mode.Detect(originalPath(r)) }

func (s *Server) provider(r *http.Request) monoova.Provider { return s.Providers[requestMode(r)] }

func topicFor(m mode.Mode) string {
    if m == mode.Sandbox { return events.TopicSandbox }
    return events.TopicLive
}

// rewriteSandboxAPI maps /sandbox/api/* onto /api/sandbox/* and records the
// original path for mode detection.
func rewriteSandboxAPI(next http.Handler) http.Handler {
    const from, to = "/sandbox/api", "/api/sandbox"
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        orig := r.URL.Path
        ctx := context.WithValue(r.Context(), ctxKeyOriginalPath{}, orig)
        if orig != from && !strings.HasPrefix(orig, from+"/") {
            next.ServeHTTP(w, r.WithContext(ctx))
            return
        }
        r2 := r.Clone(ctx)
        r2.URL.Path = to + strings.TrimPrefix(orig, from)
        if r2.URL.RawPath != "" {
            r2.URL.RawPath = to + strings.TrimPrefix(r2.URL.RawPath, from)
        }
        next.ServeHTTP(w, r2)
    })
}
