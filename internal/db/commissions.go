package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

const commissionColumns = `id, agent_id, member_id, plan_tier, coverage_type, rx_addon,
	amount, payable, status, payment_status, paid_at, created_at, updated_at`

func scanCommission(row interface{ Scan(dest ...any) error }) (*models.Commission, error) {
	var c models.Commission
	err := row.Scan(
		&c.ID,
		&c.AgentID,
		&c.MemberID,
		&c.PlanTier,
		&c.CoverageType,
		&c.RxAddon,
		&c.Amount,
		&c.Payable,
		&c.Status,
		&c.PaymentStatus,
		&c.PaidAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpsertCommission records the commission for a member. At most one row
// exists per member: a second call updates the computed fields while the
// row is still unpaid and leaves a paid row untouched. Returns the row and
// whether it was newly created.
func (db *Database) UpsertCommission(ctx context.Context, c models.Commission) (*models.Commission, bool, error) {
	query := `
		INSERT INTO commissions (agent_id, member_id, plan_tier, coverage_type, rx_addon, amount, payable)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (member_id) DO UPDATE SET
			agent_id = EXCLUDED.agent_id,
			plan_tier = EXCLUDED.plan_tier,
			coverage_type = EXCLUDED.coverage_type,
			rx_addon = EXCLUDED.rx_addon,
			amount = EXCLUDED.amount,
			payable = EXCLUDED.payable,
			updated_at = CURRENT_TIMESTAMP
		WHERE commissions.payment_status = 'unpaid'
		RETURNING ` + commissionColumns + `, (xmax = 0) AS inserted`

	var out models.Commission
	var inserted bool
	err := db.Pool.QueryRow(ctx, query,
		c.AgentID,
		c.MemberID,
		string(c.PlanTier),
		string(c.CoverageType),
		c.RxAddon,
		c.Amount,
		c.Payable,
	).Scan(
		&out.ID,
		&out.AgentID,
		&out.MemberID,
		&out.PlanTier,
		&out.CoverageType,
		&out.RxAddon,
		&out.Amount,
		&out.Payable,
		&out.Status,
		&out.PaymentStatus,
		&out.PaidAt,
		&out.CreatedAt,
		&out.UpdatedAt,
		&inserted,
	)
	if err != nil {
		if isNoRows(err) {
			// A paid row already exists; the update guard suppressed the
			// write. Return the existing row unchanged.
			existing, gerr := db.GetCommissionByMember(ctx, c.MemberID)
			if gerr != nil {
				return nil, false, gerr
			}
			return existing, false, nil
		}
		if isForeignKeyViolation(err) {
			return nil, false, models.NewNotFoundError("member", c.MemberID)
		}
		return nil, false, fmt.Errorf("failed to upsert commission: %w", err)
	}
	return &out, inserted, nil
}

// GetCommissionByMember fetches the commission recorded for a member.
func (db *Database) GetCommissionByMember(ctx context.Context, memberID string) (*models.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions WHERE member_id = $1`

	c, err := scanCommission(db.Pool.QueryRow(ctx, query, memberID))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("commission", memberID)
		}
		return nil, fmt.Errorf("failed to get commission: %w", err)
	}
	return c, nil
}

// commissionFilterSQL builds the WHERE clause for a commission filter,
// numbering placeholders from startIndex.
func commissionFilterSQL(filter models.CommissionFilter, startIndex int) (string, []interface{}) {
	var conditions []string
	var args []interface{}
	argIndex := startIndex

	if filter.AgentID != "" {
		conditions = append(conditions, fmt.Sprintf("agent_id = $%d", argIndex))
		args = append(args, filter.AgentID)
		argIndex++
	}
	if filter.PaymentStatus != nil {
		conditions = append(conditions, fmt.Sprintf("payment_status = $%d", argIndex))
		args = append(args, string(*filter.PaymentStatus))
		argIndex++
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*filter.Status))
		argIndex++
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("created_at >= $%d", argIndex))
		args = append(args, *filter.DateFrom)
		argIndex++
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("created_at < $%d", argIndex))
		args = append(args, *filter.DateTo)
		argIndex++
	}

	if len(conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// ListCommissions retrieves commissions under a filter, newest first.
func (db *Database) ListCommissions(ctx context.Context, filter models.CommissionFilter) (*models.CommissionListResponse, error) {
	whereSQL, args := commissionFilterSQL(filter, 1)

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM commissions`+whereSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count commissions: %w", err)
	}

	argIndex := len(args) + 1
	query := `SELECT ` + commissionColumns + ` FROM commissions` + whereSQL +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commissions: %w", err)
	}
	defer rows.Close()

	commissions := []models.Commission{}
	for rows.Next() {
		c, err := scanCommission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan commission: %w", err)
		}
		commissions = append(commissions, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commissions: %w", err)
	}

	return &models.CommissionListResponse{
		Commissions: commissions,
		Total:       total,
		Page:        filter.Page,
		Limit:       filter.Limit,
	}, nil
}

// SummarizeCommissions aggregates commissions under a filter. Payable sums
// skip non-payable rows (admin enrollments) and cancelled rows.
func (db *Database) SummarizeCommissions(ctx context.Context, filter models.CommissionFilter) (*models.CommissionSummary, error) {
	whereSQL, args := commissionFilterSQL(filter, 1)

	query := `
		SELECT
			COUNT(*),
			COALESCE(SUM(amount), 0),
			COALESCE(SUM(amount) FILTER (WHERE payable AND status <> 'cancelled' AND payment_status <> 'cancelled'), 0),
			COALESCE(SUM(amount) FILTER (WHERE payable AND status <> 'cancelled' AND payment_status = 'unpaid'), 0),
			COALESCE(SUM(amount) FILTER (WHERE payable AND payment_status = 'paid'), 0)
		FROM commissions` + whereSQL

	var s models.CommissionSummary
	err := db.Pool.QueryRow(ctx, query, args...).Scan(
		&s.Count,
		&s.TotalAmount,
		&s.PayableAmount,
		&s.UnpaidAmount,
		&s.PaidAmount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize commissions: %w", err)
	}
	return &s, nil
}

// MarkCommissionPaid transitions a member's commission from unpaid to paid,
// advancing a pending row to active at the same time. Marking an already
// paid commission is a no-op; a cancelled one is a conflict.
func (db *Database) MarkCommissionPaid(ctx context.Context, memberID string) (*models.Commission, error) {
	query := `
		UPDATE commissions
		SET payment_status = 'paid',
			status = CASE WHEN status = 'pending' THEN 'active' ELSE status END,
			paid_at = CURRENT_TIMESTAMP,
			updated_at = CURRENT_TIMESTAMP
		WHERE member_id = $1 AND payment_status = 'unpaid'
		RETURNING ` + commissionColumns

	c, err := scanCommission(db.Pool.QueryRow(ctx, query, memberID))
	if err == nil {
		return c, nil
	}
	if !isNoRows(err) {
		return nil, fmt.Errorf("failed to mark commission paid: %w", err)
	}

	// Nothing matched: either no commission exists or it already left the
	// unpaid state.
	existing, gerr := db.GetCommissionByMember(ctx, memberID)
	if gerr != nil {
		return nil, gerr
	}
	if existing.PaymentStatus == models.PaymentStatusPaid {
		return existing, nil
	}
	return nil, models.NewConflictError("commission", fmt.Sprintf("commission for member %s is %s", memberID, existing.PaymentStatus))
}

// SetCommissionStatus applies an admin lifecycle transition. Cancelling a
// commission also cancels its payout while it is still unpaid.
func (db *Database) SetCommissionStatus(ctx context.Context, commissionID string, status models.CommissionStatus) (*models.Commission, error) {
	query := `
		UPDATE commissions
		SET status = $1,
			payment_status = CASE
				WHEN $1 = 'cancelled' AND payment_status = 'unpaid' THEN 'cancelled'
				ELSE payment_status
			END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING ` + commissionColumns

	c, err := scanCommission(db.Pool.QueryRow(ctx, query, string(status), commissionID))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("commission", commissionID)
		}
		return nil, fmt.Errorf("failed to update commission status: %w", err)
	}
	return c, nil
}

// ListMissingCommissions finds active, agent-enrolled members that have no
// commission row. These are enrollments whose commission step failed.
func (db *Database) ListMissingCommissions(ctx context.Context) ([]models.MissingCommission, error) {
	query := `
		SELECT m.id, m.customer_number, m.first_name || ' ' || m.last_name,
			m.enrolled_by, p.tier, m.coverage_type, m.rx_addon, m.created_at
		FROM members m
		JOIN plans p ON p.id = m.plan_id
		LEFT JOIN commissions c ON c.member_id = m.id
		WHERE c.id IS NULL AND m.is_active = TRUE AND m.enrolled_by IS NOT NULL
		ORDER BY m.created_at ASC
	`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query missing commissions: %w", err)
	}
	defer rows.Close()

	missing := []models.MissingCommission{}
	for rows.Next() {
		var mc models.MissingCommission
		err := rows.Scan(
			&mc.MemberID,
			&mc.CustomerNumber,
			&mc.MemberName,
			&mc.AgentID,
			&mc.PlanTier,
			&mc.CoverageType,
			&mc.RxAddon,
			&mc.EnrolledAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan missing commission: %w", err)
		}
		missing = append(missing, mc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating missing commissions: %w", err)
	}
	return missing, nil
}
