package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

const planColumns = `id, name, tier, monthly_price, is_active, created_at, updated_at`

func scanPlan(row interface{ Scan(dest ...any) error }) (*models.Plan, error) {
	var p models.Plan
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Tier,
		&p.MonthlyPrice,
		&p.IsActive,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlan adds a plan offering.
func (db *Database) CreatePlan(ctx context.Context, req models.PlanCreateRequest) (*models.Plan, error) {
	query := `
		INSERT INTO plans (name, tier, monthly_price)
		VALUES ($1, $2, $3)
		RETURNING ` + planColumns

	p, err := scanPlan(db.Pool.QueryRow(ctx, query, req.Name, string(req.Tier), req.MonthlyPrice))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewConflictError("plan", fmt.Sprintf("plan name %s already exists", req.Name))
		}
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}
	return p, nil
}

// GetPlan fetches one plan by ID.
func (db *Database) GetPlan(ctx context.Context, id string) (*models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans WHERE id = $1`

	p, err := scanPlan(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("plan", id)
		}
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return p, nil
}

// ListPlans returns plan offerings, optionally only active ones.
func (db *Database) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	query := `SELECT ` + planColumns + ` FROM plans`
	if activeOnly {
		query += ` WHERE is_active = TRUE`
	}
	query += ` ORDER BY monthly_price ASC`

	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query plans: %w", err)
	}
	defer rows.Close()

	plans := []models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating plans: %w", err)
	}
	return plans, nil
}

// UpdatePlan changes a plan's name, price, or active flag.
func (db *Database) UpdatePlan(ctx context.Context, id string, req models.PlanUpdateRequest) (*models.Plan, error) {
	var setParts []string
	var args []interface{}
	argIndex := 1

	if req.Name != nil {
		setParts = append(setParts, fmt.Sprintf("name = $%d", argIndex))
		args = append(args, *req.Name)
		argIndex++
	}
	if req.MonthlyPrice != nil {
		setParts = append(setParts, fmt.Sprintf("monthly_price = $%d", argIndex))
		args = append(args, *req.MonthlyPrice)
		argIndex++
	}
	if req.IsActive != nil {
		setParts = append(setParts, fmt.Sprintf("is_active = $%d", argIndex))
		args = append(args, *req.IsActive)
		argIndex++
	}

	if len(setParts) == 0 {
		return db.GetPlan(ctx, id)
	}

	setParts = append(setParts, "updated_at = CURRENT_TIMESTAMP")
	query := fmt.Sprintf("UPDATE plans SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setParts, ", "), argIndex, planColumns)
	args = append(args, id)

	p, err := scanPlan(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("plan", id)
		}
		if isUniqueViolation(err) {
			return nil, models.NewConflictError("plan", fmt.Sprintf("plan name %s already exists", *req.Name))
		}
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}
	return p, nil
}
