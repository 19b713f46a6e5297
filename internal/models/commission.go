package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CommissionStatus represents the commission lifecycle
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusActive    CommissionStatus = "active"
	CommissionStatusCancelled CommissionStatus = "cancelled"
)

// IsValid reports whether the status is a known value.
func (s CommissionStatus) IsValid() bool {
	switch s {
	case CommissionStatusPending, CommissionStatusActive, CommissionStatusCancelled:
		return true
	default:
		return false
	}
}

// PaymentStatus represents whether a commission has been paid out
type PaymentStatus string

const (
	PaymentStatusUnpaid    PaymentStatus = "unpaid"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// IsValid reports whether the payment status is a known value.
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPaid, PaymentStatusCancelled:
		return true
	default:
		return false
	}
}

// Commission represents the amount owed to an agent for one enrollment.
// At most one row exists per member. PlanTier, CoverageType, and RxAddon are
// snapshots of the inputs the amount was computed from. Payable is false for
// enrollments performed by admin accounts; those rows are tracked but
// excluded from payable aggregates.
type Commission struct {
	ID            string           `json:"id" db:"id"`
	AgentID       string           `json:"agent_id" db:"agent_id"`
	MemberID      string           `json:"member_id" db:"member_id"`
	PlanTier      PlanTier         `json:"plan_tier" db:"plan_tier"`
	CoverageType  CoverageType     `json:"coverage_type" db:"coverage_type"`
	RxAddon       bool             `json:"rx_addon" db:"rx_addon"`
	Amount        decimal.Decimal  `json:"amount" db:"amount"`
	Payable       bool             `json:"payable" db:"payable"`
	Status        CommissionStatus `json:"status" db:"status"`
	PaymentStatus PaymentStatus    `json:"payment_status" db:"payment_status"`
	PaidAt        *time.Time       `json:"paid_at,omitempty" db:"paid_at"`
	CreatedAt     time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

// CommissionFilter narrows commission listings and summaries.
type CommissionFilter struct {
	AgentID       string            `json:"agent_id"`
	PaymentStatus *PaymentStatus    `json:"payment_status"`
	Status        *CommissionStatus `json:"status"`
	DateFrom      *time.Time        `json:"date_from"`
	DateTo        *time.Time        `json:"date_to"`
	Page          int               `json:"page"`
	Limit         int               `json:"limit"`
}

// CommissionListResponse represents a paginated commission list
type CommissionListResponse struct {
	Commissions []Commission `json:"commissions"`
	Total       int          `json:"total"`
	Page        int          `json:"page"`
	Limit       int          `json:"limit"`
}

// CommissionSummary aggregates commissions under a filter. The payable
// figures exclude non-payable rows and cancelled rows.
type CommissionSummary struct {
	Count         int             `json:"count"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	PayableAmount decimal.Decimal `json:"payable_amount"`
	UnpaidAmount  decimal.Decimal `json:"unpaid_amount"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
}

// CommissionStatusUpdateRequest represents a lifecycle transition request
type CommissionStatusUpdateRequest struct {
	Status CommissionStatus `json:"status" binding:"required"`
}

// MissingCommission is one row of the audit query: an active, agent-enrolled
// member with no commission on record.
type MissingCommission struct {
	MemberID       string       `json:"member_id"`
	CustomerNumber string       `json:"customer_number"`
	MemberName     string       `json:"member_name"`
	AgentID        string       `json:"agent_id"`
	PlanTier       PlanTier     `json:"plan_tier"`
	CoverageType   CoverageType `json:"coverage_type"`
	RxAddon        bool         `json:"rx_addon"`
	EnrolledAt     time.Time    `json:"enrolled_at"`
}
