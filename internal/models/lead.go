package models

import (
	"time"
)

// LeadStatus represents the sales pipeline state of a prospect
type LeadStatus string

const (
	LeadStatusNew       LeadStatus = "new"
	LeadStatusContacted LeadStatus = "contacted"
	LeadStatusQualified LeadStatus = "qualified"
	LeadStatusEnrolled  LeadStatus = "enrolled"
	LeadStatusClosed    LeadStatus = "closed"
)

// IsValid reports whether the status is a known value.
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusNew, LeadStatusContacted, LeadStatusQualified, LeadStatusEnrolled, LeadStatusClosed:
		return true
	default:
		return false
	}
}

// Lead represents a prospect that has not enrolled yet
type Lead struct {
	ID         string     `json:"id" db:"id"`
	FirstName  string     `json:"first_name" db:"first_name"`
	LastName   string     `json:"last_name" db:"last_name"`
	Email      string     `json:"email" db:"email"`
	Phone      *string    `json:"phone,omitempty" db:"phone"`
	Notes      *string    `json:"notes,omitempty" db:"notes"`
	Status     LeadStatus `json:"status" db:"status"`
	AssignedTo *string    `json:"assigned_to,omitempty" db:"assigned_to"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// LeadCreateRequest represents lead creation input. AssignedTo is honored
// for admin callers only; agents always get the lead themselves.
type LeadCreateRequest struct {
	FirstName  string  `json:"first_name" binding:"required"`
	LastName   string  `json:"last_name" binding:"required"`
	Email      string  `json:"email" binding:"required,email"`
	Phone      *string `json:"phone,omitempty"`
	Notes      *string `json:"notes,omitempty"`
	AssignedTo *string `json:"assigned_to,omitempty"`
}

// LeadUpdateRequest represents lead update input. Reassignment requires an
// admin role.
type LeadUpdateRequest struct {
	Status     *LeadStatus `json:"status,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
	AssignedTo *string     `json:"assigned_to,omitempty"`
}

// LeadSearchParams represents filter parameters for listing leads
type LeadSearchParams struct {
	Page       int         `json:"page"`
	Limit      int         `json:"limit"`
	Status     *LeadStatus `json:"status"`
	AssignedTo string      `json:"assigned_to"`
}

// LeadListResponse represents a paginated lead list
type LeadListResponse struct {
	Leads []Lead `json:"leads"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}
