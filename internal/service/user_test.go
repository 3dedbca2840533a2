package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DukeRupert/equipcheck/internal/domain"
)

func TestUserService_CreateAndAuthenticate(t *testing.T) {
	svc := NewUserService(newSQLiteStore(t), discardLogger())
	ctx := context.Background()

	u, err := svc.CreateUser(ctx, domain.CreateUserParams{
		Username: " ana ",
		FullName: "Ana Pérez",
		Password: "Montacarga5",
		Role:     domain.RoleOperator,
		Active:   true,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)
	assert.Empty(t, u.PasswordHash)

	t.Run("valid credentials", func(t *testing.T) {
		got, err := svc.Authenticate(ctx, "ana", "Montacarga5")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, domain.RoleOperator, got.Role)
		assert.Empty(t, got.PasswordHash)
	})

	t.Run("failures share one message", func(t *testing.T) {
		_, wrongPassword := svc.Authenticate(ctx, "ana", "Incorrect9")
		_, unknownUser := svc.Authenticate(ctx, "nadie", "Montacarga5")

		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(wrongPassword))
		assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(unknownUser))
		assert.Equal(t, domain.ErrorMessage(wrongPassword), domain.ErrorMessage(unknownUser))
	})

	t.Run("duplicate username", func(t *testing.T) {
		_, err := svc.CreateUser(ctx, domain.CreateUserParams{
			Username: "ana", FullName: "Otra Ana", Password: "Montacarga5", Role: domain.RoleOperator, Active: true,
		})
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})
}

func TestUserService_InactiveUser(t *testing.T) {
	svc := NewUserService(newSQLiteStore(t), discardLogger())
	ctx := context.Background()

	_, err := svc.CreateUser(ctx, domain.CreateUserParams{
		Username: "luis", FullName: "Luis", Password: "Apilador77", Role: domain.RoleOperator, Active: false,
	})
	require.NoError(t, err)

	_, err = svc.Authenticate(ctx, "luis", "Apilador77")
	assert.Equal(t, domain.EUNAUTHORIZED, domain.ErrorCode(err))
}

func TestUserService_CreateUser_Validation(t *testing.T) {
	svc := NewUserService(newSQLiteStore(t), discardLogger())
	ctx := context.Background()

	valid := domain.CreateUserParams{Username: "zoe", FullName: "Zoe", Password: "Horometro9", Role: domain.RoleSupervisor}

	tests := []struct {
		name   string
		modify func(p *domain.CreateUserParams)
		field  string
		want   string
	}{
		{name: "short username", modify: func(p *domain.CreateUserParams) { p.Username = "zo" }, field: "username", want: "between 3 and 64"},
		{name: "username with space", modify: func(p *domain.CreateUserParams) { p.Username = "zoe r" }, field: "username", want: "spaces"},
		{name: "blank full name", modify: func(p *domain.CreateUserParams) { p.FullName = "  " }, field: "full_name", want: "Full name"},
		{name: "unknown role", modify: func(p *domain.CreateUserParams) { p.Role = "admin" }, field: "role", want: "Role"},
		{name: "weak password", modify: func(p *domain.CreateUserParams) { p.Password = "abcdefgh" }, field: "password", want: "number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.modify(&p)
			_, err := svc.CreateUser(ctx, p)
			require.Error(t, err)
			assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields[tt.field], tt.want)
		})
	}
}

func TestUserService_ListUsers(t *testing.T) {
	svc := NewUserService(newSQLiteStore(t), discardLogger())
	ctx := context.Background()

	clock := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.(*userService).now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}

	for _, name := range []string{"ana", "bob", "carl"} {
		_, err := svc.CreateUser(ctx, domain.CreateUserParams{
			Username: name, FullName: name, Password: "Checklist1", Role: domain.RoleOperator, Active: true,
		})
		require.NoError(t, err)
	}

	users, err := svc.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "carl", users[0].Username)
	assert.Equal(t, "ana", users[2].Username)
	for _, u := range users {
		assert.Empty(t, u.PasswordHash)
	}
}

func TestUserService_EnsureAdmin(t *testing.T) {
	svc := NewUserService(newSQLiteStore(t), discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "Supervisor1"))
	require.NoError(t, svc.EnsureAdmin(ctx, "admin", "Ignored123"), "second call is a no-op")

	u, err := svc.Authenticate(ctx, "admin", "Supervisor1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleSupervisor, u.Role)
	assert.Equal(t, AdminFullName, u.FullName)
	assert.True(t, u.Active)

	assert.NoError(t, svc.EnsureAdmin(ctx, "", ""), "blank username disables the bootstrap")
}

func TestUserService_StoreUnavailable(t *testing.T) {
	svc := NewUserService(downStore{}, discardLogger())

	_, err := svc.Authenticate(context.Background(), "ana", "Montacarga5")
	assert.True(t, domain.IsUnavailable(err), "outages are not reported as bad credentials")
}
