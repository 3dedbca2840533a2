package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/handler"
)

// MetricsRealm is announced when a scrape is refused.
const MetricsRealm = "metrics"

// MetricsAuthMiddleware guards /metrics with one static credential pair.
// Credentials are compared as SHA-256 digests so neither the comparison
// time nor an early length check reveals them.
type MetricsAuthMiddleware struct {
	user [sha256.Size]byte
	pass [sha256.Size]byte
	on   bool
}

// NewMetricsAuthMiddleware creates a new metrics auth middleware.
// Empty credentials leave the endpoint open.
func NewMetricsAuthMiddleware(username, password string) *MetricsAuthMiddleware {
	return &MetricsAuthMiddleware{
		user: sha256.Sum256([]byte(username)),
		pass: sha256.Sum256([]byte(password)),
		on:   username != "" || password != "",
	}
}

// Handler wraps the scrape endpoint.
func (m *MetricsAuthMiddleware) Handler(next http.Handler) http.Handler {
	if !m.on {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.allowed(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="`+MetricsRealm+`"`)
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(handler.ErrorCodeToStatusText(domain.EUNAUTHORIZED)))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *MetricsAuthMiddleware) allowed(r *http.Request) bool {
	user, pass, ok := r.BasicAuth()
	if !ok {
		return false
	}
	u := sha256.Sum256([]byte(user))
	p := sha256.Sum256([]byte(pass))
	userOK := subtle.ConstantTimeCompare(u[:], m.user[:])
	passOK := subtle.ConstantTimeCompare(p[:], m.pass[:])
	return userOK&passOK == 1
}
