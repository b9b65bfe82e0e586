package api

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "io"
    "net/http"
    "net/url"
    "strings"
    "time"

    "github.com/go-chi/chi/v5"

    "paydesk/internal/monoova"
)

// maxBodyBytes bounds inbound request bodies.
const maxBodyBytes = 1 << 20

var (
    errEmptyBody    = errors.New("request body is required")
    errInvalidJSON  = errors.New("request body must be JSON")
    errBodyTooLarge = errors.New("request body exceeds 1 MiB")
)

func tooLarge(err error) bool {
    var mbe *http.MaxBytesError
    return errors.As(err, &mbe)
}

// pathParam returns the unescaped, trimmed value of a route parameter.
// chi matches on RawPath when it is set, so only those values need decoding.
func pathParam(r *http.Request, name string) string {
    v := chi.URLParam(r, name)
    if r.URL.RawPath != "" {
        if u, err := url.PathUnescape(v); err == nil { v = u }
    }
    return strings.TrimSpace(v)
}

// StatusByDateHandler handles GET .../financial/status/{startDate}/{endDate}
func (s *Server) StatusByDateHandler(w http.ResponseWriter, r *http.Request) {
    start, end := pathParam(r, "startDate"), pathParam(r, "endDate")
    if start == "" || end == "" {
        writeError(w, http.StatusBadRequest, "startDate and endDate are required")
        return
    }
    out, err := s.provider(r).StatusByDate(r.Context(), start, end)
    if err != nil { s.providerFailed(w, r, err); return }
    writeRaw(w, http.StatusOK, out)
}

// StatusByReferenceHandler handles GET .../financial/status/{uniqueReference}
func (s *Server) StatusByReferenceHandler(w http.ResponseWriter, r *http.Request) {
    ref := pathParam(r, "uniqueReference")
    if ref == "" {
        writeError(w, http.StatusBadRequest, "uniqueReference is required")
        return
    }
    out, err := s.provider(r).StatusByReference(r.Context(), ref)
    if err != nil { s.providerFailed(w, r, err); return }
    writeRaw(w, http.StatusOK, out)
}

// ValidateTransactionHandler handles POST .../financial/validate. Other
// methods are rejected before the body is read.
func (s *Server) ValidateTransactionHandler(w http.ResponseWriter, r *http.Request) {
    if r.Method != http.MethodPost {
        w.Header().Set("Allow", http.MethodPost)
        writeError(w, http.StatusMethodNotAllowed, "method not allowed")
        return
    }
    raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
    if err != nil {
        if tooLarge(err) {
            writeError(w, http.StatusRequestEntityTooLarge, errBodyTooLarge.Error())
            return
        }
        writeError(w, http.StatusBadRequest, "cannot read request body")
        return
    }
    body, err := decodeTransactionBody(raw)
    if err != nil {
        writeError(w, http.StatusBadRequest, err.Error())
        return
    }
    out, err := s.provider(r).ValidateTransaction(r.Context(), body)
    if err != nil { s.providerFailed(w, r, err); return }
    writeRaw(w, http.StatusOK, out)
}

// decodeTransactionBody accepts a JSON document, or a JSON string whose
// content is itself a JSON document, and returns the document.
func decodeTransactionBody(raw []byte) (json.RawMessage, error) {
    raw = bytes.TrimSpace(raw)
    if len(raw) == 0 { return nil, errEmptyBody }
    if !json.Valid(raw) { return nil, errInvalidJSON }
    if raw[0] != '"' { return json.RawMessage(raw), nil }

    var inner string
    if err := json.Unmarshal(raw, &inner); err != nil { return nil, errInvalidJSON }
    doc := bytes.TrimSpace([]byte(inner))
    if len(doc) == 0 { return nil, errEmptyBody }
    if !json.Valid(doc) { return nil, errInvalidJSON }
    return json.RawMessage(doc), nil
}

// PingHandler handles GET .../public/ping
func (s *Server) PingHandler(w http.ResponseWriter, r *http.Request) {
    out, err := s.provider(r).Ping(r.Context())
    if err != nil { s.providerFailed(w, r, err); return }
    writeRaw(w, http.StatusOK, out)
}

// providerFailed reports a provider failure as a 500.
func (s *Server) providerFailed(w http.ResponseWriter, r *http.Request, err error) {
    s.Logger.Error("provider call failed",
        "mode", requestMode(r).String(),
        "path", originalPath(r),
        "provider_status", monoova.StatusCode(err),
        "error", err,
    )
    writeError(w, http.StatusInternalServerError, err.Error())
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
    writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadyHandler checks every store is reachable.
func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
    ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
    defer cancel()
    for m, st := range s.Stores {
        if err := st.Ping(ctx); err != nil {
            writeError(w, http.StatusServiceUnavailable, m.String()+" store: "+err.Error())
            return
        }
    }
    writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
