package auth

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

func TestUserContext(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetUser(ctx))
	assert.False(t, HasRole(ctx, domain.RoleOperator, domain.RoleSupervisor))
	assert.Empty(t, Username(ctx))

	sup := &domain.User{Username: "miguel", Role: domain.RoleSupervisor}
	ctx = SetUser(ctx, sup)

	assert.Same(t, sup, GetUser(ctx))
	assert.True(t, HasRole(ctx, domain.RoleSupervisor))
	assert.True(t, HasRole(ctx, domain.RoleOperator, domain.RoleSupervisor))
	assert.False(t, HasRole(ctx, domain.RoleOperator))
	assert.Equal(t, "miguel", Username(ctx))

	r := httptest.NewRequest("GET", "/api/me", nil).WithContext(ctx)
	assert.Same(t, sup, GetUserFromRequest(r))
}
