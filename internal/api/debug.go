package api

import (
    "net/http"
    "time"

    "paydesk/internal/buildinfo"
    "paydesk/internal/store"
)

// DebugModeHandler reports the runtime mode of the request and a redacted
// view of the configuration that mode uses.
func (s *Server) DebugModeHandler(w http.ResponseWriter, r *http.Request) {
    m := requestMode(r)
    creds := s.Config.ProviderFor(m)
    writeJSON(w, http.StatusOK, map[string]any{
        "mode":             m.String(),
        "path":             originalPath(r),
        "providerBaseUrl":  creds.BaseURL,
        "publicApiBaseUrl": s.Config.PublicAPIBaseURL,
        "build":            buildinfo.Info(),
        "time":             time.Now().UTC().Format(time.RFC3339),
        "config": map[string]any{
            "hasDatabaseUrl":        s.Config.DatabaseURL != "" && s.Config.DatabaseURL != store.MemoryDSN,
            "hasSandboxDatabaseUrl": s.Config.SandboxDatabaseURL != "" && s.Config.SandboxDatabaseURL != store.MemoryDSN,
            "hasRedisUrl":           s.Config.RedisURL != "",
            "hasProviderApiKey":     creds.APIKey != "",
            "hasWebhookSecret":      s.Config.WebhookSecret != "",
            "rateRps":               s.Config.RateRPS,
            "rateBurst":             s.Config.RateBurst,
            "providerTimeout":       s.Config.ProviderTimeout.String(),
        },
    })
}
