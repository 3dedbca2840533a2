package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsAuthMiddleware(t *testing.T) {
	tests := []struct {
		name       string
		username   string
		password   string
		setAuth    func(r *http.Request)
		wantStatus int
	}{
		{"valid", "prom", "scrape", func(r *http.Request) { r.SetBasicAuth("prom", "scrape") }, http.StatusOK},
		{"no credentials", "prom", "scrape", func(r *http.Request) {}, http.StatusUnauthorized},
		{"wrong username", "prom", "scrape", func(r *http.Request) { r.SetBasicAuth("admin", "scrape") }, http.StatusUnauthorized},
		{"wrong password", "prom", "scrape", func(r *http.Request) { r.SetBasicAuth("prom", "nope") }, http.StatusUnauthorized},
		{"malformed header", "prom", "scrape", func(r *http.Request) { r.Header.Set("Authorization", "Basic !!!") }, http.StatusUnauthorized},
		{"empty credentials", "prom", "scrape", func(r *http.Request) { r.SetBasicAuth("", "") }, http.StatusUnauthorized},
		{"disabled", "", "", func(r *http.Request) {}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewMetricsAuthMiddleware(tt.username, tt.password).Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
			tt.setAuth(req)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Equal(t, `Basic realm="metrics"`, rec.Header().Get("WWW-Authenticate"))
			}
		})
	}
}
