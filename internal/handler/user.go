package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/equipcheck/internal/auth"
	"github.com/DukeRupert/equipcheck/internal/domain"
	"github.com/DukeRupert/equipcheck/internal/service"
)

// UserHandler handles account endpoints.
type UserHandler struct {
	users  service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(users service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// RegisterRoutes registers the account routes.
//
// Routes:
// - GET  /api/me     -> Me     (any user)
// - GET  /api/users  -> List   (supervisor)
// - POST /api/users  -> Create (supervisor)
func (h *UserHandler) RegisterRoutes(mux *http.ServeMux, requireUser, requireSupervisor func(http.Handler) http.Handler) {
	mux.Handle("GET /api/me", requireUser(http.HandlerFunc(h.Me)))
	mux.Handle("GET /api/users", requireSupervisor(http.HandlerFunc(h.List)))
	mux.Handle("POST /api/users", requireSupervisor(http.HandlerFunc(h.Create)))
}

// Me returns the authenticated account.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUserFromRequest(r)
	if user == nil {
		UnauthorizedResponse(w, r, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, toUserJSON(user))
}

// List returns every account, newest first.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	out := make([]userJSON, len(users))
	for i := range users {
		out[i] = toUserJSON(&users[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{"users": out})
}

// Create adds an account. Accounts are active unless "active": false.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, "UserHandler.Create", &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user, err := h.users.CreateUser(r.Context(), domain.CreateUserParams{
		Username: req.Username,
		FullName: req.FullName,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		Active:   active,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, toUserJSON(user))
}
