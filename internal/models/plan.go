package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanTier represents the product tier enum
type PlanTier string

const (
	TierBase  PlanTier = "base"
	TierPlus  PlanTier = "plus"
	TierElite PlanTier = "elite"
)

// IsValid reports whether the tier is a known value.
func (t PlanTier) IsValid() bool {
	switch t {
	case TierBase, TierPlus, TierElite:
		return true
	default:
		return false
	}
}

// Plan represents a healthcare plan offering
type Plan struct {
	ID           string          `json:"id" db:"id"`
	Name         string          `json:"name" db:"name"`
	Tier         PlanTier        `json:"tier" db:"tier"`
	MonthlyPrice decimal.Decimal `json:"monthly_price" db:"monthly_price"`
	IsActive     bool            `json:"is_active" db:"is_active"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at" db:"updated_at"`
}

// PlanCreateRequest represents plan creation input
type PlanCreateRequest struct {
	Name         string          `json:"name" binding:"required"`
	Tier         PlanTier        `json:"tier" binding:"required"`
	MonthlyPrice decimal.Decimal `json:"monthly_price" binding:"required"`
}

// PlanUpdateRequest represents plan update input. Tier is immutable once
// commissions have been priced against it; change the name or retire the
// plan instead.
type PlanUpdateRequest struct {
	Name         *string          `json:"name,omitempty"`
	MonthlyPrice *decimal.Decimal `json:"monthly_price,omitempty"`
	IsActive     *bool            `json:"is_active,omitempty"`
}
