package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/AdamBeresnev/badminton-bracket/internal/httputil"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	log, hook := test.NewNullLogger()

	var seenID string
	handler := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = w.Header().Get(RequestIDHeader)
		httputil.Logger(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("Generates an id", func(t *testing.T) {
		hook.Reset()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		_, err := uuid.Parse(seenID)
		require.NoError(t, err)
		assert.Equal(t, seenID, rec.Header().Get(RequestIDHeader))

		entries := hook.AllEntries()
		require.Len(t, entries, 2)
		assert.Equal(t, seenID, entries[0].Data["request_id"])
		assert.Equal(t, "request completed", entries[1].Message)
		assert.Equal(t, http.StatusTeapot, entries[1].Data["status"])
		assert.Equal(t, logrus.InfoLevel, entries[1].Level)
	})

	t.Run("Keeps a valid incoming id", func(t *testing.T) {
		incoming := uuid.NewString()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, incoming)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, incoming, seenID)
		assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))
	})

	t.Run("Replaces a garbage id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "not-an-id\n")
		handler.ServeHTTP(httptest.NewRecorder(), req)

		assert.NotEqual(t, "not-an-id\n", seenID)
	})
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(1, 2)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	handler := limiter.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	call := func(addr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = addr
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5000").Code)
	assert.Equal(t, http.StatusNoContent, call("10.0.0.1:5001").Code)

	limited := call("10.0.0.1:5002")
	assert.Equal(t, http.StatusTooManyRequests, limited.Code)
	body, err := io.ReadAll(limited.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Muitas requisições")

	assert.Equal(t, http.StatusNoContent, call("10.0.0.2:5000").Code, "other clients keep their own bucket")

	now = now.Add(10 * time.Minute)
	call("10.0.0.3:5000")
	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.NotContains(t, limiter.visitors, "10.0.0.1", "idle visitors are swept")
	assert.Contains(t, limiter.visitors, "10.0.0.3")
}
