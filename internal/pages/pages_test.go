package pages

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paydesk/internal/store"
)

var discard = slog.New(slog.NewJSONHandler(io.Discard, nil))

type brokenReader struct{}

func (brokenReader) ListTransactions(ctx context.Context, limit int) ([]store.Transaction, error) {
	return nil, errors.New("sandbox database unreachable")
}

func TestSandboxTransactionsRendersRows(t *testing.T) {
	mem := store.NewMemory()
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := 0; i < 25; i++ {
		mem.AddTransaction(store.Transaction{
			UniqueReference: fmt.Sprintf("SBX-%02d", i),
			Amount:          "10.00",
			Currency:        "AUD",
			Status:          "Complete",
			CreatedAt:       base.Add(time.Duration(i) * time.Hour),
		})
	}
	p, err := New(mem, "https://paydesk.example.com", discard)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	p.SandboxTransactions(rr, httptest.NewRequest(http.MethodGet, "/sandbox/transactions", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Equal(t, "text/html; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Contains(t, body, "SBX-24")
	assert.Contains(t, body, "SBX-05")
	assert.NotContains(t, body, "SBX-04", "only the first 20 rows are shown")
	assert.Equal(t, 20, strings.Count(body, "<td class=\"amount\">"))
	assert.Contains(t, body, `data-mode="sandbox"`)
}

func TestSandboxTransactionsReadFailureRendersEmpty(t *testing.T) {
	p, err := New(brokenReader{}, "", discard)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	p.SandboxTransactions(rr, httptest.NewRequest(http.MethodGet, "/sandbox/transactions", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Zero(t, strings.Count(rr.Body.String(), "<td class=\"amount\">"))
	assert.Contains(t, rr.Body.String(), "No transactions yet.")
	assert.NotContains(t, rr.Body.String(), "unreachable")
}

func TestLiveTransactionsRendersEmpty(t *testing.T) {
	mem := store.NewMemory()
	mem.AddTransaction(store.Transaction{UniqueReference: "SBX-ONLY"})
	p, err := New(mem, "", discard)
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	p.Transactions(rr, httptest.NewRequest(http.MethodGet, "/transactions", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, "No transactions yet.")
	assert.NotContains(t, body, "SBX-ONLY")
	assert.Contains(t, body, `data-stream="/api/events/ws"`)
	assert.Contains(t, body, `data-mode="live"`)
}
