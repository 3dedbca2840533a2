package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSecurityHeadersMiddleware(t *testing.T) {
	tests := []struct {
		name      string
		isSecure  bool
		path      string
		wantHSTS  bool
		wantCache string
	}{
		{"production api", true, "/api/reports/1", true, "no-store"},
		{"development api", false, "/api/reports/1", false, "no-store"},
		{"health", true, "/health", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			h := NewSecurityHeadersMiddleware(tt.isSecure).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tt.path, nil))

			assert.True(t, called)
			assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, "no-referrer", rec.Header().Get("Referrer-Policy"))
			assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "default-src 'none'")
			assert.Contains(t, rec.Header().Get("Content-Security-Policy"), "frame-ancestors 'none'")
			assert.Contains(t, rec.Header().Get("Permissions-Policy"), "camera=()")
			assert.Equal(t, tt.wantHSTS, rec.Header().Get("Strict-Transport-Security") != "")
			assert.Equal(t, tt.wantCache, rec.Header().Get("Cache-Control"))
		})
	}
}
