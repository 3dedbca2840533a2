package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveLogged(t *testing.T, req *http.Request, status int) (*httptest.ResponseRecorder, string, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := NewRequestLoggingMiddleware(nil, slog.New(slog.NewTextHandler(&buf, nil)))

	var seenID string
	h := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenID = RequestID(r.Context())
		w.WriteHeader(status)
		_, _ = w.Write([]byte("hello"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, buf.String(), seenID
}

func TestRequestLoggingMiddleware_LogsRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/reports", nil)
	req.RemoteAddr = "192.168.1.1:12345"
	req.Header.Set("User-Agent", "checkctl/1.0")

	rec, out, id := serveLogged(t, req, http.StatusCreated)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "hello", rec.Body.String())
	for _, want := range []string{"method=POST", "path=/api/reports", "status=201", "bytes=5", "duration_ms=", "ip=192.168.1.1", "checkctl/1.0", "level=INFO"} {
		assert.Contains(t, out, want)
	}

	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))
	assert.Contains(t, out, "request_id="+id)
}

func TestRequestLoggingMiddleware_ServerErrorsAtWarn(t *testing.T) {
	_, out, _ := serveLogged(t, httptest.NewRequest(http.MethodGet, "/api/summary", nil), http.StatusServiceUnavailable)
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "status=503")
}

func TestRequestLoggingMiddleware_RequestID(t *testing.T) {
	incoming := uuid.NewString()

	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(RequestIDHeader, incoming)
	rec, _, id := serveLogged(t, req, http.StatusOK)
	assert.Equal(t, incoming, id)
	assert.Equal(t, incoming, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/api/me", nil)
	req.Header.Set(RequestIDHeader, "<script>")
	_, _, id = serveLogged(t, req, http.StatusOK)
	assert.NotEqual(t, "<script>", id)
}

func TestRequestLoggingMiddleware_SkipsNoisyPaths(t *testing.T) {
	for _, path := range []string{"/health", "/metrics"} {
		rec, out, id := serveLogged(t, httptest.NewRequest(http.MethodGet, path, nil), http.StatusOK)
		assert.Empty(t, out, path)
		assert.NotEmpty(t, id, "request id is still assigned")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		path, query, want string
	}{
		{"/api/summary", "", "/api/summary"},
		{"/api/summary", "range=weekly", "/api/summary?range=weekly"},
		{"/x", "token=abc&range=daily", "/x?token=[REDACTED]&range=daily"},
		{"/x", "Password=hunter2", "/x?Password=[REDACTED]"},
		{"/x", "X-Amz-Signature=deadbeef&X-Amz-Expires=900", "/x?X-Amz-Signature=[REDACTED]&X-Amz-Expires=900"},
		{"/x", "novalue", "/x"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizePath(tt.path, tt.query))
		})
	}
}
