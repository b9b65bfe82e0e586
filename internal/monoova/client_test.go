package monoova

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paydesk/internal/config"
)

type seen struct {
	method, path, user, pass, contentType string
	body                                  []byte
}

func newProvider(t *testing.T, status int, reply string) (*Client, *seen) {
	t.Helper()
	got := &seen{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got.method = r.Method
		got.path = r.URL.EscapedPath()
		got.user, got.pass, _ = r.BasicAuth()
		got.contentType = r.Header.Get("Content-Type")
		got.body, _ = io.ReadAll(r.Body)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	c := NewClient(config.ProviderCredentials{BaseURL: srv.URL + "/", APIKey: "k3y"}, time.Second, WithHTTPClient(srv.Client()), WithLabel("sandbox"))
	return c, got
}

func TestClientStatusByDate(t *testing.T) {
	c, got := newProvider(t, http.StatusOK, `{"durationMs":3,"status":"Ok"}`)
	out, err := c.StatusByDate(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	assert.JSONEq(t, `{"durationMs":3,"status":"Ok"}`, string(out))
	assert.Equal(t, http.MethodGet, got.method)
	assert.Equal(t, "/financial/v2/status/2024-01-01/2024-01-31", got.path)
	assert.Equal(t, "k3y", got.user)
	assert.Empty(t, got.pass)
}

func TestClientStatusByReferenceEscapes(t *testing.T) {
	c, got := newProvider(t, http.StatusOK, `{}`)
	_, err := c.StatusByReference(context.Background(), "ref/with space")
	require.NoError(t, err)
	assert.Equal(t, "/financial/v2/status/ref%2Fwith%20space", got.path)
}

func TestClientValidateTransactionForwardsBody(t *testing.T) {
	c, got := newProvider(t, http.StatusOK, `{"status":"Ok"}`)
	_, err := c.ValidateTransaction(context.Background(), json.RawMessage(`{"amount":5}`))
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.method)
	assert.Equal(t, "/financial/v2/transaction/validate", got.path)
	assert.Equal(t, "application/json", got.contentType)
	assert.JSONEq(t, `{"amount":5}`, string(got.body))
}

func TestClientPingNonJSONBody(t *testing.T) {
	c, got := newProvider(t, http.StatusOK, "pong")
	out, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/public/v1/ping", got.path)
	assert.Equal(t, `"pong"`, string(out))
}

func TestClientEmptyBody(t *testing.T) {
	c, _ := newProvider(t, http.StatusOK, "")
	out, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}

func TestClientAPIError(t *testing.T) {
	c, _ := newProvider(t, http.StatusUnauthorized, `{"errors":[{"errorCode":"Unauthorized"}]}`)
	_, err := c.Ping(context.Background())
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, "ping", apiErr.Operation)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
	assert.Contains(t, err.Error(), "status 401")
}

func TestClientTransportError(t *testing.T) {
	c := NewClient(config.ProviderCredentials{BaseURL: "http://127.0.0.1:1", APIKey: "k"}, 200*time.Millisecond)
	_, err := c.Ping(context.Background())
	require.Error(t, err)
	assert.Zero(t, StatusCode(err))
}

func TestAPIErrorTruncatesBody(t *testing.T) {
	long := make([]byte, 1000)
	for i := range long {
		long[i] = 'x'
	}
	err := &APIError{Operation: "ping", StatusCode: 500, Body: long}
	assert.Less(t, len(err.Error()), 300)
}
