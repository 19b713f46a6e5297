package models

import (
	"time"
)

// UserRole represents the account role enum
type UserRole string

const (
	RoleAgent      UserRole = "agent"
	RoleAdmin      UserRole = "admin"
	RoleSuperAdmin UserRole = "super_admin"
)

// IsValid reports whether the role is a known value.
func (r UserRole) IsValid() bool {
	switch r {
	case RoleAgent, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether the role carries administrative privileges.
func (r UserRole) IsAdmin() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// UserStatus represents account lifecycle status
type UserStatus string

const (
	UserStatusPending  UserStatus = "pending"
	UserStatusActive   UserStatus = "active"
	UserStatusInactive UserStatus = "inactive"
)

// IsValid reports whether the status is a known value.
func (s UserStatus) IsValid() bool {
	switch s {
	case UserStatusPending, UserStatusActive, UserStatusInactive:
		return true
	default:
		return false
	}
}

// User represents an agent or admin staff account.
// AgentNumber is assigned once through the identifier endpoint and survives
// deactivation; only an administrator can overwrite it.
type User struct {
	ID          string     `json:"id" db:"id"`
	Email       string     `json:"email" db:"email"`
	FirstName   string     `json:"first_name" db:"first_name"`
	LastName    string     `json:"last_name" db:"last_name"`
	Role        UserRole   `json:"role" db:"role"`
	AgentNumber *string    `json:"agent_number,omitempty" db:"agent_number"`
	Status      UserStatus `json:"status" db:"status"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// UserCreateRequest represents staff account provisioning input
type UserCreateRequest struct {
	Email     string   `json:"email" binding:"required,email"`
	FirstName string   `json:"first_name" binding:"required"`
	LastName  string   `json:"last_name" binding:"required"`
	Role      UserRole `json:"role" binding:"required"`
}

// AgentNumberRequest carries the input for composing an agent number.
// Suffix comes from a sensitive personal identifier; it is used for
// composition only and must never be persisted or logged on its own.
type AgentNumberRequest struct {
	Suffix string `json:"suffix" binding:"required,len=4"`
	Year   int    `json:"year,omitempty"`
}

// UserStatusUpdateRequest represents account status update input
type UserStatusUpdateRequest struct {
	Status UserStatus `json:"status" binding:"required"`
	Reason string     `json:"reason,omitempty"`
}

// UserSearchParams represents search and filter parameters for listing accounts
type UserSearchParams struct {
	Page   int         `json:"page"`
	Limit  int         `json:"limit"`
	Search string      `json:"search"`
	Role   *UserRole   `json:"role"`
	Status *UserStatus `json:"status"`
	Sort   string      `json:"sort"`
	Order  string      `json:"order"`
}

// UserListResponse represents a paginated account list
type UserListResponse struct {
	Users      []User `json:"users"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"total_pages"`
}
