// Package service contains the business logic layer.
//
// Services orchestrate interactions between the record store, blob storage,
// document rendering and domain logic. They are responsible for:
// - Input validation
// - Business rule enforcement
// - Error translation (store errors -> domain errors)
package service

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"

	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/store"
)

// =============================================================================
// Configuration Constants
// =============================================================================

const (
	// BcryptCost is the cost factor for bcrypt password hashing.
	// This should NOT be configurable at runtime.
	BcryptCost = 12

	// MinPasswordLength is the minimum password length (NIST SP 800-63B).
	MinPasswordLength = 8

	// MaxPasswordLength is the bcrypt input limit.
	MaxPasswordLength = 72

	MinUsernameLength = 3
	MaxUsernameLength = 64

	// AdminFullName is the display name of the bootstrap supervisor.
	AdminFullName = "Supervisor"
)

// bcrypt hash of "dummy", compared against when the username is unknown.
const dummyHash = "$2a$12$R9h/cIPz0gi.URNNX3kh2OPST9/PgBkqquzi.Ss7KIUgO2t0jWMUW"

var commonPasswords = map[string]bool{
	"password1": true,
	"qwerty123": true,
	"letmein1":  true,
	"welcome1":  true,
	"admin123":  true,
	"12345678a": true,
	"abc12345":  true,
	"passw0rd":  true,
}

// =============================================================================
// Interface Definition
// =============================================================================

// UserService manages accounts and verifies credentials.
type UserService interface {
	// Authenticate verifies a username and password.
	// Unknown, inactive and mismatched credentials all return
	// domain.EUNAUTHORIZED with the same message.
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)

	// CreateUser creates an account.
	// Returns domain.EINVALID for validation errors and domain.ECONFLICT
	// when the username is taken.
	CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error)

	// ListUsers returns every account, newest first, without password hashes.
	ListUsers(ctx context.Context) ([]domain.User, error)

	// EnsureAdmin creates the bootstrap supervisor if the username is free.
	EnsureAdmin(ctx context.Context, username, password string) error
}

// =============================================================================
// Implementation
// =============================================================================

type userService struct {
	users  store.UserStore
	logger *slog.Logger
	now    func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserStore, logger *slog.Logger) UserService {
	return &userService{
		users:  users,
		logger: logger,
		now:    time.Now,
	}
}

func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	const op = "UserService.Authenticate"

	username = strings.TrimSpace(username)

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if domain.ErrorCode(err) != domain.ENOTFOUND {
			return nil, err
		}
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, domain.Unauthorized(op, "Invalid username or password")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthorized(op, "Invalid username or password")
	}
	if !user.Active {
		return nil, domain.Unauthorized(op, "Invalid username or password")
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, params domain.CreateUserParams) (*domain.User, error) {
	const op = "UserService.CreateUser"

	params.Username = strings.TrimSpace(params.Username)
	params.FullName = strings.TrimSpace(params.FullName)

	if err := validateUsername(params.Username); err != nil {
		return nil, domain.NewValidationError(op, "username", domain.ErrorMessage(err))
	}
	if params.FullName == "" {
		return nil, domain.NewValidationError(op, "full_name", "Full name is required")
	}
	if !params.Role.IsValid() {
		return nil, domain.NewValidationError(op, "role", "Role must be operator or supervisor")
	}
	if err := validatePassword(params.Password); err != nil {
		return nil, domain.NewValidationError(op, "password", domain.ErrorMessage(err))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), BcryptCost)
	if err != nil {
		return nil, domain.Internal(err, op, "Failed to hash password")
	}

	created, err := s.users.CreateUser(ctx, &domain.User{
		Username:     params.Username,
		FullName:     params.FullName,
		Role:         params.Role,
		Active:       params.Active,
		PasswordHash: string(hash),
		CreatedAt:    store.Truncate(s.now()),
	})
	if err != nil {
		if domain.ErrorCode(err) == domain.ECONFLICT {
			return nil, domain.Conflict(op, "That username is already taken")
		}
		return nil, err
	}

	s.logger.Info("user created", "user_id", created.ID, "username", created.Username, "role", created.Role)

	created.PasswordHash = ""
	return created, nil
}

func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		users[i].PasswordHash = ""
	}
	return users, nil
}

func (s *userService) EnsureAdmin(ctx context.Context, username, password string) error {
	const op = "UserService.EnsureAdmin"

	if username == "" {
		return nil
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if domain.ErrorCode(err) != domain.ENOTFOUND {
		return err
	}

	_, err = s.CreateUser(ctx, domain.CreateUserParams{
		Username: username,
		FullName: AdminFullName,
		Password: password,
		Role:     domain.RoleSupervisor,
		Active:   true,
	})
	switch domain.ErrorCode(err) {
	case "":
		s.logger.Info("bootstrap supervisor created", "username", username)
		return nil
	case domain.ECONFLICT:
		// Created concurrently by another instance.
		return nil
	default:
		return domain.Wrap(err, domain.ErrorCode(err), op, "Failed to create bootstrap supervisor")
	}
}

// =============================================================================
// Validation
// =============================================================================

// validateUsername requires 3-64 characters without whitespace.
func validateUsername(username string) error {
	n := len([]rune(username))
	if n < MinUsernameLength || n > MaxUsernameLength {
		return domain.Invalid("", "Username must be between 3 and 64 characters")
	}
	if strings.IndexFunc(username, unicode.IsSpace) >= 0 {
		return domain.Invalid("", "Username must not contain spaces")
	}
	return nil
}

// validatePassword validates password strength requirements.
//
// Rules:
// - Length between 8 and 72 bytes (bcrypt limit)
// - At least one letter and one number
// - Not a well-known common password
func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return domain.Invalid("", "Password must be at least 8 characters")
	}
	if len(password) > MaxPasswordLength {
		return domain.Invalid("", "Password must be 72 characters or less")
	}

	var hasLetter, hasNumber bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}
	if !hasLetter {
		return domain.Invalid("", "Password must contain at least one letter")
	}
	if !hasNumber {
		return domain.Invalid("", "Password must contain at least one number")
	}
	if commonPasswords[strings.ToLower(password)] {
		return domain.Invalid("", "Password is too common")
	}
	return nil
}
