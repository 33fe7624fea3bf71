package eshop

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/symmy/integrator/internal/domain/integration"
)

func testPayload() integration.Payload {
	return integration.Payload{
		SKU:   "SKU-1",
		Title: "Widget",
		Price: decimal.NewFromFloat(121.0),
		Stock: 8,
		Color: "red",
	}
}

// newTestClient builds a client against the given server with fast backoff
// and recorded sleeps.
func newTestClient(t *testing.T, serverURL string, waits *[]time.Duration) *Client {
	t.Helper()
	client, err := NewClient(&Config{
		BaseURL:   serverURL,
		APIKey:    "test-key",
		BaseDelay: time.Millisecond,
	}, zap.NewNop())
	require.NoError(t, err)
	if waits != nil {
		client.sleep = func(d time.Duration) { *waits = append(*waits, d) }
	} else {
		client.sleep = func(time.Duration) {}
	}
	return client
}

func openSession(t *testing.T, client *Client) integration.Session {
	t.Helper()
	session, err := client.NewSession(context.Background())
	require.NoError(t, err)
	return session
}

// ---------------------------------------------------------------------------
// Config Tests
// ---------------------------------------------------------------------------

func TestConfig_Validate(t *testing.T) {
	t.Run("fills defaults", func(t *testing.T) {
		cfg := &Config{APIKey: "k"}
		require.NoError(t, cfg.Validate())
		assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
		assert.Equal(t, 5, cfg.MaxRetries)
		assert.Equal(t, time.Second, cfg.BaseDelay)
		assert.True(t, cfg.Timeout > 0)
	})

	t.Run("missing API key", func(t *testing.T) {
		cfg := &Config{}
		assert.ErrorIs(t, cfg.Validate(), ErrConfigMissingAPIKey)
	})
}

// ---------------------------------------------------------------------------
// Routing and Headers
// ---------------------------------------------------------------------------

func TestSession_Send_CreateRouting(t *testing.T) {
	var gotMethod, gotPath, gotKey, gotContentType string
	var gotBody []byte

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotKey = r.Header.Get("X-Api-Key")
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	session := openSession(t, newTestClient(t, server.URL, nil))
	result, err := session.Send(context.Background(), testPayload(), false)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/products/", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Equal(t, "application/json", gotContentType)
	assert.Equal(t, http.StatusCreated, result.StatusCode)
	assert.Equal(t, 1, result.Attempts)

	var body map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &body))
	assert.Equal(t, "SKU-1", body["sku"])
	assert.Equal(t, 121.0, body["price"])
	assert.Equal(t, 8.0, body["stock"])
}

func TestSession_Send_UpdateRouting(t *testing.T) {
	var gotMethod, gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	session := openSession(t, newTestClient(t, server.URL, nil))
	_, err := session.Send(context.Background(), testPayload(), true)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, gotMethod)
	assert.Equal(t, "/products/SKU-1/", gotPath)
}

// ---------------------------------------------------------------------------
// Retry State Machine
// ---------------------------------------------------------------------------

func TestSession_Send_RetriesOn429ThenSucceeds(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	var waits []time.Duration
	session := openSession(t, newTestClient(t, server.URL, &waits))

	result, err := session.Send(context.Background(), testPayload(), false)
	require.NoError(t, err)

	assert.Equal(t, 2, requests)
	assert.Equal(t, 2, result.Attempts)
	assert.Len(t, waits, 1, "exactly one backoff wait")
}

func TestSession_Send_ExhaustsAfterMaxRetries(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	session := openSession(t, newTestClient(t, server.URL, nil))
	result, err := session.Send(context.Background(), testPayload(), false)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, integration.ErrRateLimitExhausted)
	assert.Contains(t, err.Error(), "after 5 retries for SKU-1")
	assert.Equal(t, 5, requests)
}

func TestSession_Send_HonorsRetryAfterHeader(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests == 1 {
			w.Header().Set("Retry-After", "2")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var waits []time.Duration
	session := openSession(t, newTestClient(t, server.URL, &waits))

	_, err := session.Send(context.Background(), testPayload(), false)
	require.NoError(t, err)

	// Retry-After of 2s dominates the 1ms exponential term.
	require.Len(t, waits, 1)
	assert.Equal(t, 2*time.Second, waits[0])
}

func TestSession_Send_ExponentialBackoffDominatesSmallHint(t *testing.T) {
	client := newTestClient(t, "http://unused", nil)
	client.config.BaseDelay = time.Second

	assert.Equal(t, time.Second, client.backoffDelay("", 0))
	assert.Equal(t, 4*time.Second, client.backoffDelay("", 2))
	assert.Equal(t, 8*time.Second, client.backoffDelay("3", 3))
	assert.Equal(t, 10*time.Second, client.backoffDelay("10", 1))
}

func TestSession_Send_FailsImmediatelyOnServerError(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	session := openSession(t, newTestClient(t, server.URL, nil))
	result, err := session.Send(context.Background(), testPayload(), false)

	assert.Nil(t, result)
	assert.ErrorIs(t, err, integration.ErrRequestFailed)
	assert.Contains(t, err.Error(), "HTTP 500")
	assert.Equal(t, 1, requests, "non-429 errors are not retried")
}

func TestSession_Send_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close() // connection refused from now on

	session := openSession(t, newTestClient(t, server.URL, nil))
	_, err := session.Send(context.Background(), testPayload(), false)
	assert.ErrorIs(t, err, integration.ErrEshopUnreachable)
}
