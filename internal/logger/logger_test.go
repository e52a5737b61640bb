package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	require.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	require.Equal(t, slog.LevelError, ParseLevel("error"))
	require.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(WithWriter(&buf), WithLevel("warn"))

	l.Info("hidden")
	require.Zero(t, buf.Len())

	l.Warn("shown")
	require.Contains(t, buf.String(), "shown")
}

func TestFromContext(t *testing.T) {
	l := New(WithWriter(&bytes.Buffer{}))
	require.Same(t, l, FromContext(NewContext(context.Background(), l)))
	require.NotNil(t, FromContext(context.Background()))
}

func TestMiddleware(t *testing.T) {
	var buf bytes.Buffer
	base := New(WithWriter(&buf), WithFormat("json"))

	var seen *Logger
	h := NewMiddleware(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	t.Run("generates a request id", func(t *testing.T) {
		buf.Reset()
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

		require.NotNil(t, seen)
		id := rec.Header().Get(RequestIDHeader)
		require.Len(t, id, 36)

		var line map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, id, line["request_id"])
		require.Equal(t, "/healthz", line["path"])
		require.EqualValues(t, http.StatusTeapot, line["status"])
	})

	t.Run("keeps an incoming request id", func(t *testing.T) {
		buf.Reset()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(RequestIDHeader, "abc")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		require.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
		require.Contains(t, buf.String(), `"request_id":"abc"`)
	})
}
