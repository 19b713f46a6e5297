package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

const leadColumns = `id, first_name, last_name, email, phone, notes, status, assigned_to, created_at, updated_at`

func scanLead(row interface{ Scan(dest ...any) error }) (*models.Lead, error) {
	var l models.Lead
	err := row.Scan(
		&l.ID,
		&l.FirstName,
		&l.LastName,
		&l.Email,
		&l.Phone,
		&l.Notes,
		&l.Status,
		&l.AssignedTo,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateLead records a prospect.
func (db *Database) CreateLead(ctx context.Context, req models.LeadCreateRequest) (*models.Lead, error) {
	query := `
		INSERT INTO leads (first_name, last_name, email, phone, notes, assigned_to)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + leadColumns

	l, err := scanLead(db.Pool.QueryRow(ctx, query,
		req.FirstName, req.LastName, req.Email, req.Phone, req.Notes, req.AssignedTo))
	if err != nil {
		if isForeignKeyViolation(err) && req.AssignedTo != nil {
			return nil, models.NewNotFoundError("user", *req.AssignedTo)
		}
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}
	return l, nil
}

// GetLead fetches one lead by ID.
func (db *Database) GetLead(ctx context.Context, id string) (*models.Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	l, err := scanLead(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("lead", id)
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return l, nil
}

// ListLeads retrieves leads with pagination and filtering, newest first.
func (db *Database) ListLeads(ctx context.Context, params models.LeadSearchParams) (*models.LeadListResponse, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*params.Status))
		argIndex++
	}
	if params.AssignedTo != "" {
		conditions = append(conditions, fmt.Sprintf("assigned_to = $%d", argIndex))
		args = append(args, params.AssignedTo)
		argIndex++
	}

	whereSQL := ""
	if len(conditions) > 0 {
		whereSQL = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM leads`+whereSQL, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count leads: %w", err)
	}

	query := `SELECT ` + leadColumns + ` FROM leads` + whereSQL +
		fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer rows.Close()

	leads := []models.Lead{}
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan lead: %w", err)
		}
		leads = append(leads, *l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating leads: %w", err)
	}

	return &models.LeadListResponse{
		Leads: leads,
		Total: total,
		Page:  params.Page,
		Limit: params.Limit,
	}, nil
}

// UpdateLead applies a partial update to a lead.
func (db *Database) UpdateLead(ctx context.Context, id string, req models.LeadUpdateRequest) (*models.Lead, error) {
	var setParts []string
	var args []interface{}
	argIndex := 1

	if req.Status != nil {
		setParts = append(setParts, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*req.Status))
		argIndex++
	}
	if req.Notes != nil {
		setParts = append(setParts, fmt.Sprintf("notes = $%d", argIndex))
		args = append(args, *req.Notes)
		argIndex++
	}
	if req.AssignedTo != nil {
		setParts = append(setParts, fmt.Sprintf("assigned_to = $%d", argIndex))
		args = append(args, *req.AssignedTo)
		argIndex++
	}

	if len(setParts) == 0 {
		return db.GetLead(ctx, id)
	}

	setParts = append(setParts, "updated_at = CURRENT_TIMESTAMP")
	query := fmt.Sprintf("UPDATE leads SET %s WHERE id = $%d RETURNING %s",
		strings.Join(setParts, ", "), argIndex, leadColumns)
	args = append(args, id)

	l, err := scanLead(db.Pool.QueryRow(ctx, query, args...))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("lead", id)
		}
		if isForeignKeyViolation(err) && req.AssignedTo != nil {
			return nil, models.NewNotFoundError("user", *req.AssignedTo)
		}
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}
	return l, nil
}
