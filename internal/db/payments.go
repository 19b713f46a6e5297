package db

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

const paymentColumns = `id, member_id, transaction_id, amount, received_at`

func scanPayment(row interface{ Scan(dest ...any) error }) (*models.Payment, error) {
	var p models.Payment
	err := row.Scan(
		&p.ID,
		&p.MemberID,
		&p.TransactionID,
		&p.Amount,
		&p.ReceivedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordPayment stores a processor callback exactly once per transaction ID.
// A replayed transaction returns the original row with recorded=false.
func (db *Database) RecordPayment(ctx context.Context, memberID, transactionID string, amount decimal.Decimal) (*models.Payment, bool, error) {
	query := `
		INSERT INTO payments (member_id, transaction_id, amount)
		VALUES ($1, $2, $3)
		ON CONFLICT (transaction_id) DO NOTHING
		RETURNING ` + paymentColumns

	p, err := scanPayment(db.Pool.QueryRow(ctx, query, memberID, transactionID, amount))
	if err == nil {
		return p, true, nil
	}
	if isNoRows(err) {
		existing, gerr := db.getPaymentByTransaction(ctx, transactionID)
		if gerr != nil {
			return nil, false, gerr
		}
		return existing, false, nil
	}
	if isForeignKeyViolation(err) {
		return nil, false, models.NewNotFoundError("member", memberID)
	}
	return nil, false, fmt.Errorf("failed to record payment: %w", err)
}

func (db *Database) getPaymentByTransaction(ctx context.Context, transactionID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = $1`

	p, err := scanPayment(db.Pool.QueryRow(ctx, query, transactionID))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("payment", transactionID)
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}
	return p, nil
}

// ListPayments retrieves recorded payments, optionally for one member,
// newest first.
func (db *Database) ListPayments(ctx context.Context, memberID string, page, limit int) (*models.PaymentListResponse, error) {
	whereSQL := ""
	var args []interface{}
	argIndex := 1

	if memberID != "" {
		whereSQL = fmt.Sprintf(" WHERE member_id = $%d", argIndex)
		args = append(args, memberID)
		argIndex++
	}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM payments`+whereSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	query := `SELECT ` + paymentColumns + ` FROM payments` + whereSQL +
		fmt.Sprintf(" ORDER BY received_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payments: %w", err)
	}

	return &models.PaymentListResponse{
		Payments: payments,
		Total:    total,
		Page:     page,
		Limit:    limit,
	}, nil
}
