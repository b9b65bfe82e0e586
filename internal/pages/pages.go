// Package pages renders the server-side transaction views.
package pages

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"paydesk/internal/mode"
	"paydesk/internal/store"
)

// PageSize is the number of transactions shown on a page.
const PageSize = 20

//go:embed templates/*.html
var templatesFS embed.FS

// Renderer serves the transaction pages. The live page is rendered empty
// and filled in by the browser; the sandbox page reads the sandbox store.
type Renderer struct {
	tmpl    *template.Template
	sandbox store.TransactionReader
	apiBase string
	logger  *slog.Logger
}

type pageData struct {
	Title     string
	Mode      string
	Rows      []store.Transaction
	StreamURL string
	APIBase   string
}

// New parses the embedded templates.
func New(sandbox store.TransactionReader, publicAPIBase string, logger *slog.Logger) (*Renderer, error) {
	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &Renderer{tmpl: tmpl, sandbox: sandbox, apiBase: publicAPIBase, logger: logger}, nil
}

// Transactions renders the live transactions page with no rows.
func (p *Renderer) Transactions(w http.ResponseWriter, r *http.Request) {
	p.render(w, pageData{
		Title:     "Transactions",
		Mode:      mode.Live.String(),
		Rows:      []store.Transaction{},
		StreamURL: "/api/events/ws",
		APIBase:   p.apiBase,
	})
}

// SandboxTransactions renders the first PageSize sandbox transactions.
// A read failure renders an empty table; the error is only logged.
func (p *Renderer) SandboxTransactions(w http.ResponseWriter, r *http.Request) {
	rows, err := p.sandbox.ListTransactions(r.Context(), PageSize)
	if err != nil {
		// TODO: product to decide whether a sandbox store outage should show an error banner instead of an empty list.
		p.logger.Warn("sandbox transactions unavailable; rendering empty list", "error", err)
		rows = nil
	}
	if len(rows) > PageSize {
		rows = rows[:PageSize]
	}
	p.render(w, pageData{
		Title:     "Sandbox transactions",
		Mode:      mode.Sandbox.String(),
		Rows:      rows,
		StreamURL: "/sandbox/api/events/ws",
		APIBase:   p.apiBase,
	})
}

func (p *Renderer) render(w http.ResponseWriter, data pageData) {
	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, "transactions", data); err != nil {
		p.logger.Error("render page", "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
