package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CoverageType represents who a membership covers
type CoverageType string

const (
	CoverageMemberOnly     CoverageType = "member_only"
	CoverageMemberSpouse   CoverageType = "member_spouse"
	CoverageMemberChildren CoverageType = "member_children"
	CoverageFamily         CoverageType = "family"
)

// IsValid reports whether the coverage type is a known value.
func (ct CoverageType) IsValid() bool {
	switch ct {
	case CoverageMemberOnly, CoverageMemberSpouse, CoverageMemberChildren, CoverageFamily:
		return true
	default:
		return false
	}
}

// Member represents an enrolled customer. CustomerNumber is assigned at
// creation from the per-year counter and is never regenerated or reused,
// including after soft deletion.
type Member struct {
	ID                string          `json:"id" db:"id"`
	CustomerNumber    string          `json:"customer_number" db:"customer_number"`
	FirstName         string          `json:"first_name" db:"first_name"`
	LastName          string          `json:"last_name" db:"last_name"`
	Email             string          `json:"email" db:"email"`
	Phone             *string         `json:"phone,omitempty" db:"phone"`
	PlanID            string          `json:"plan_id" db:"plan_id"`
	CoverageType      CoverageType    `json:"coverage_type" db:"coverage_type"`
	RxAddon           bool            `json:"rx_addon" db:"rx_addon"`
	TotalMonthlyPrice decimal.Decimal `json:"total_monthly_price" db:"total_monthly_price"`
	EnrolledBy        *string         `json:"enrolled_by,omitempty" db:"enrolled_by"`
	IsActive          bool            `json:"is_active" db:"is_active"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at" db:"updated_at"`
}

// EnrollmentRequest represents the input for enrolling a member.
// AgentID lets an admin enroll on behalf of another agent; everyone else
// enrolls as themselves.
type EnrollmentRequest struct {
	FirstName         string          `json:"first_name" binding:"required"`
	LastName          string          `json:"last_name" binding:"required"`
	Email             string          `json:"email" binding:"required,email"`
	Phone             *string         `json:"phone,omitempty"`
	PlanID            string          `json:"plan_id" binding:"required,uuid"`
	CoverageType      CoverageType    `json:"coverage_type" binding:"required"`
	RxAddon           bool            `json:"rx_addon"`
	TotalMonthlyPrice decimal.Decimal `json:"total_monthly_price" binding:"required"`
	AgentID           string          `json:"agent_id,omitempty"`
}

// EnrollmentResponse reports the created member and, when recording
// succeeded, its commission. A commission failure never fails the
// enrollment; CommissionError carries the reason instead.
type EnrollmentResponse struct {
	Member          Member      `json:"member"`
	Commission      *Commission `json:"commission,omitempty"`
	CommissionError string      `json:"commission_error,omitempty"`
}

// MemberUpdateRequest represents member update input. Contact fields may be
// changed by the enrolling agent; plan and financial fields require an
// admin role.
type MemberUpdateRequest struct {
	FirstName *string `json:"first_name,omitempty"`
	LastName  *string `json:"last_name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`

	PlanID            *string          `json:"plan_id,omitempty"`
	CoverageType      *CoverageType    `json:"coverage_type,omitempty"`
	RxAddon           *bool            `json:"rx_addon,omitempty"`
	TotalMonthlyPrice *decimal.Decimal `json:"total_monthly_price,omitempty"`
}

// HasPlanChanges reports whether the update touches plan or financial fields.
func (r MemberUpdateRequest) HasPlanChanges() bool {
	return r.PlanID != nil || r.CoverageType != nil || r.RxAddon != nil || r.TotalMonthlyPrice != nil
}

// MemberSearchParams represents filter parameters for listing members
type MemberSearchParams struct {
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	Search     string `json:"search"`
	AgentID    string `json:"agent_id"`
	ActiveOnly bool   `json:"active_only"`
}

// MemberListResponse represents a paginated member list
type MemberListResponse struct {
	Members []Member `json:"members"`
	Total   int      `json:"total"`
	Page    int      `json:"page"`
	Limit   int      `json:"limit"`
}
