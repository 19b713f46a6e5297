package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/idgen"
	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

const memberColumns = `id, customer_number, first_name, last_name, email, phone, plan_id,
	coverage_type, rx_addon, total_monthly_price, enrolled_by, is_active, created_at, updated_at`

func scanMember(row interface{ Scan(dest ...any) error }) (*models.Member, error) {
	var m models.Member
	err := row.Scan(
		&m.ID,
		&m.CustomerNumber,
		&m.FirstName,
		&m.LastName,
		&m.Email,
		&m.Phone,
		&m.PlanID,
		&m.CoverageType,
		&m.RxAddon,
		&m.TotalMonthlyPrice,
		&m.EnrolledBy,
		&m.IsActive,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// CreateMember inserts a member and claims its customer number in one
// transaction. The counter increment is a single atomic statement, so
// concurrent enrollments each get a distinct sequence value; a rolled-back
// insert leaves a gap in the sequence rather than reusing the number.
func (db *Database) CreateMember(ctx context.Context, req models.EnrollmentRequest, agentID *string, now time.Time) (*models.Member, error) {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	year := now.Year()
	var seq int64
	counterQuery := `
		INSERT INTO customer_number_counters (year, last_value)
		VALUES ($1, 1)
		ON CONFLICT (year) DO UPDATE SET last_value = customer_number_counters.last_value + 1
		RETURNING last_value
	`
	if err := tx.QueryRow(ctx, counterQuery, year).Scan(&seq); err != nil {
		return nil, fmt.Errorf("failed to claim customer number sequence: %w", err)
	}

	customerNumber := idgen.CustomerNumber(year, seq)

	insertQuery := `
		INSERT INTO members (customer_number, first_name, last_name, email, phone,
			plan_id, coverage_type, rx_addon, total_monthly_price, enrolled_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING ` + memberColumns

	m, err := scanMember(tx.QueryRow(ctx, insertQuery,
		customerNumber,
		req.FirstName,
		req.LastName,
		req.Email,
		req.Phone,
		req.PlanID,
		string(req.CoverageType),
		req.RxAddon,
		req.TotalMonthlyPrice,
		agentID,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewConflictError("member", fmt.Sprintf("customer number %s already exists", customerNumber))
		}
		if isForeignKeyViolation(err) {
			return nil, models.NewNotFoundError("plan", req.PlanID)
		}
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit member creation: %w", err)
	}
	return m, nil
}

// GetMember fetches one member by ID.
func (db *Database) GetMember(ctx context.Context, id string) (*models.Member, error) {
	query := `SELECT ` + memberColumns + ` FROM members WHERE id = $1`

	m, err := scanMember(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("member", id)
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// ListMembers retrieves members with pagination and filtering.
func (db *Database) ListMembers(ctx context.Context, params models.MemberSearchParams) (*models.MemberListResponse, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`
			(LOWER(first_name) LIKE LOWER($%d) OR
			 LOWER(last_name) LIKE LOWER($%d) OR
			 LOWER(email) LIKE LOWER($%d) OR
			 customer_number LIKE $%d)`, argIndex, argIndex, argIndex, argIndex))
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}
	if params.AgentID != "" {
		conditions = append(conditions, fmt.Sprintf("enrolled_by = $%d", argIndex))
		args = append(args, params.AgentID)
		argIndex++
	}
	if params.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}

	whereSQL := ""
	if len(conditions) > 0 {
		whereSQL = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM members`+whereSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	query := `SELECT ` + memberColumns + ` FROM members` + whereSQL +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []models.Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}

	return &models.MemberListResponse{
		Members: members,
		Total:   total,
		Page:    params.Page,
		Limit:   params.Limit,
	}, nil
}

// UpdateMember applies a partial update. The caller is responsible for
// permission checks; commission amounts are never recomputed here.
func (db *Database) UpdateMember(ctx context.Context, id string, req models.MemberUpdateRequest) (*models.Member, error) {
	var setParts []string
	var args []interface{}
	argIndex := 1

	appendSet := func(column string, value interface{}) {
		setParts = append(setParts, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if req.FirstName != nil {
		appendSet("first_name", *req.FirstName)
	}
	if req.LastName != nil {
		appendSet("last_name", *req.LastName)
	}
	if req.Email != nil {
		appendSet("email", *req.Email)
	}
	if req.Phone != nil {
		appendSet("phone", *req.Phone)
	}
	if req.PlanID != nil {
		appendSet("plan_id", *req.PlanID)
	}
	if req.CoverageType != nil {
		appendSet("coverage_type", string(*req.CoverageType))
	}
	if req.RxAddon != nil {
		appendSet("rx_addon", *req.RxAddon)
	}
	if req.TotalMonthlyPrice != nil {
		appendSet("total_monthly_price", *req.TotalMonthlyPrice)
	}

	if len(setParts) == 0 {
		return db.GetMember(ctx, id)
	}

	setParts = append(setParts, "updated_at = CURRENT_TIMESTAMP")
	query := fmt.Sprintf("UPDATE members SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setParts, ", "), argIndex, memberColumns)
	args = append(args, id)

	m, err := scanMember(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("member", id)
		}
		if isForeignKeyViolation(err) && req.PlanID != nil {
			return nil, models.NewNotFoundError("plan", *req.PlanID)
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return m, nil
}

// DeactivateMember soft-deletes a member. The customer number stays
// reserved; it is never reissued.
func (db *Database) DeactivateMember(ctx context.Context, id string) error {
	result, err := db.Pool.Exec(ctx, `
		UPDATE members
		SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.NewNotFoundError("member", id)
	}
	return nil
}
