// Package middleware contains HTTP middleware for the equipcheck API.
//
// Middleware functions follow the standard Go pattern of wrapping http.Handler.
// They are designed to be composed using a middleware stack approach.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/DukeRupert/equipcheck/internal/auth"
	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/handler"
)

// Realm is announced in WWW-Authenticate challenges.
const Realm = "equipcheck"

// Authenticator verifies HTTP Basic credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
}

// =============================================================================
// Auth Middleware Configuration
// =============================================================================

// AuthMiddleware authenticates API requests with HTTP Basic credentials.
//
// Failed attempts are counted both per client address and per username;
// once either count is exhausted further attempts are refused with 429 until
// the window expires.
type AuthMiddleware struct {
	users    Authenticator
	failures *RateLimiter
	proxies  *TrustedProxies
	logger   *slog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware. failures may be nil to
// disable lockout and proxies may be nil when no reverse proxy is trusted.
func NewAuthMiddleware(users Authenticator, failures *RateLimiter, proxies *TrustedProxies, logger *slog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		users:    users,
		failures: failures,
		proxies:  proxies,
		logger:   logger,
	}
}

// Lockout keys. Addresses and usernames share one limiter.
func clientKey(ip string) string         { return "ip:" + ip }
func usernameKey(username string) string { return "user:" + strings.TrimSpace(username) }

// =============================================================================
// RequireUser Middleware
// =============================================================================

// RequireUser authenticates the request and stores the user in the context.
//
// Flow:
//
//	Request -> RequireUser -> Handler
//	           |
//	           +-> Client or username locked out: 429 with Retry-After
//	           +-> Missing or bad credentials: 401 with a Basic challenge
//	           +-> Record store down: 503, not counted as a failure
//	           +-> Valid: auth.SetUser and call next
func (m *AuthMiddleware) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := m.proxies.ClientIP(r)
		if m.lockedOut(w, r, clientKey(clientIP), "ip", clientIP) {
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			m.challenge(w, r)
			return
		}
		if m.lockedOut(w, r, usernameKey(username), "username", username) {
			return
		}

		user, err := m.users.Authenticate(r.Context(), username, password)
		if err != nil {
			if domain.ErrorCode(err) != domain.EUNAUTHORIZED {
				handler.ErrorResponse(w, r, m.logger, err)
				return
			}
			if m.failures != nil {
				m.failures.RecordFailure(clientKey(clientIP))
				m.failures.RecordFailure(usernameKey(username))
			}
			m.logger.Info("authentication failed", "ip", clientIP, "username", username)
			m.challenge(w, r)
			return
		}

		if m.failures != nil {
			m.failures.Reset(clientKey(clientIP))
			m.failures.Reset(usernameKey(username))
		}

		next.ServeHTTP(w, r.WithContext(auth.SetUser(r.Context(), user)))
	})
}

// lockedOut answers 429 and returns true when key has no attempts left.
func (m *AuthMiddleware) lockedOut(w http.ResponseWriter, r *http.Request, key, attr, value string) bool {
	if m.failures == nil || !m.failures.Exhausted(key) {
		return false
	}
	m.logger.Warn("authentication locked out", attr, value, "path", r.URL.Path)
	retryAfter := int(m.failures.TimeUntilReset(key).Seconds())
	if retryAfter < 1 {
		retryAfter = 1
	}
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	handler.ErrorResponse(w, r, m.logger, domain.RateLimit("AuthMiddleware.RequireUser"))
	return true
}

// =============================================================================
// RequireRole Middleware
// =============================================================================

// RequireRole allows only users holding one of the roles.
//
// IMPORTANT: Use this AFTER RequireUser in the middleware chain.
func (m *AuthMiddleware) RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user := auth.GetUser(r.Context())
			if user == nil {
				m.logger.Error("RequireRole called without user in context")
				m.challenge(w, r)
				return
			}

			if auth.HasRole(r.Context(), roles...) {
				next.ServeHTTP(w, r)
				return
			}

			m.logger.Info("role denied", "username", user.Username, "role", user.Role, "path", r.URL.Path)
			handler.ForbiddenResponse(w, r, m.logger)
		})
	}
}

// challenge writes a 401 with a Basic challenge.
func (m *AuthMiddleware) challenge(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("WWW-Authenticate", `Basic realm="`+Realm+`", charset="UTF-8"`)
	handler.UnauthorizedResponse(w, r, m.logger)
}

// =============================================================================
// Middleware Stack Helpers
// =============================================================================

// Stack composes multiple middleware functions into a single middleware.
//
// Middleware is applied in the order provided, meaning the first middleware
// in the slice is the outermost (runs first on request, last on response).
//
// Example:
//
//	supervisor := Stack(authMw.RequireUser, authMw.RequireRole(domain.RoleSupervisor))
//	mux.Handle("POST /api/reports/{id}/approve", supervisor(approveHandler))
func Stack(middlewares ...func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(final http.Handler) http.Handler {
		for i := len(middlewares) - 1; i >= 0; i-- {
			final = middlewares[i](final)
		}
		return final
	}
}
