package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentEventSucceeded is the processor event that marks a commission paid.
const PaymentEventSucceeded = "payment.succeeded"

// Payment records one processor callback. TransactionID is unique, so a
// replayed callback is recognized and ignored.
type Payment struct {
	ID            string          `json:"id" db:"id"`
	MemberID      string          `json:"member_id" db:"member_id"`
	TransactionID string          `json:"transaction_id" db:"transaction_id"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	ReceivedAt    time.Time       `json:"received_at" db:"received_at"`
}

// PaymentCallbackRequest is the payment processor's webhook body.
type PaymentCallbackRequest struct {
	MemberID      string          `json:"member_id" binding:"required,uuid"`
	TransactionID string          `json:"transaction_id" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Event         string          `json:"event" binding:"required"`
}

// PaymentListResponse represents a paginated payment list
type PaymentListResponse struct {
	Payments []Payment `json:"payments"`
	Total    int       `json:"total"`
	Page     int       `json:"page"`
	Limit    int       `json:"limit"`
}
