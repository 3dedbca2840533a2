// Package auth carries the signed-in account through a request context.
// Both middleware and handler import it, so it depends on domain only.
package auth

import (
	"context"
	"net/http"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

type userKey struct{}

// SetUser returns a copy of ctx that carries the authenticated account.
func SetUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey{}, user)
}

// GetUser returns the authenticated account, or nil.
func GetUser(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey{}).(*domain.User)
	return user
}

// GetUserFromRequest is GetUser(r.Context()).
func GetUserFromRequest(r *http.Request) *domain.User {
	return GetUser(r.Context())
}

// HasRole reports whether the signed-in account holds one of roles.
func HasRole(ctx context.Context, roles ...domain.Role) bool {
	user := GetUser(ctx)
	if user == nil {
		return false
	}
	for _, role := range roles {
		if user.Role == role {
			return true
		}
	}
	return false
}

// Username returns the signed-in username for log lines, or "".
func Username(ctx context.Context) string {
	if user := GetUser(ctx); user != nil {
		return user.Username
	}
	return ""
}
