// Package domain contains core business types and interfaces.
//
// This file defines the User domain type. Users are either operators, who
// submit checklists, or supervisors, who approve them and manage accounts.
package domain

import (
	"time"
)

// Role determines which lifecycle actions a user may take.
type Role string

const (
	RoleOperator   Role = "operator"
	RoleSupervisor Role = "supervisor"
)

// IsValid returns true if the role is a recognized value.
func (r Role) IsValid() bool {
	return r == RoleOperator || r == RoleSupervisor
}

// User is an account that can sign in.
type User struct {
	ID           int64
	Username     string
	FullName     string
	Role         Role
	Active       bool
	PasswordHash string // Never expose this in API responses
	CreatedAt    time.Time
}

// IsSupervisor returns true if the user can approve reports.
func (u *User) IsSupervisor() bool {
	return u.Role == RoleSupervisor
}

// DisplayName returns the user's full name or username if name is empty.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// CreateUserParams contains the data needed to create an account.
type CreateUserParams struct {
	Username string
	FullName string
	Password string
	Role     Role
	Active   bool
}
