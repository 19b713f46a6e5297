package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

const userColumns = `id, email, first_name, last_name, role, agent_number, status, created_at, updated_at`

func scanUser(row interface{ Scan(dest ...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.FirstName,
		&u.LastName,
		&u.Role,
		&u.AgentNumber,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// CreateUser provisions a staff account. New accounts start in pending
// status with no agent number.
func (db *Database) CreateUser(ctx context.Context, req models.UserCreateRequest) (*models.User, error) {
	query := `
		INSERT INTO users (email, first_name, last_name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	u, err := scanUser(db.Pool.QueryRow(ctx, query, req.Email, req.FirstName, req.LastName, string(req.Role)))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, models.NewConflictError("user", fmt.Sprintf("email %s is already registered", req.Email))
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return u, nil
}

// GetUser fetches one account by ID.
func (db *Database) GetUser(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("user", id)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers retrieves accounts with pagination, search, and filtering.
func (db *Database) ListUsers(ctx context.Context, params models.UserSearchParams) (*models.UserListResponse, error) {
	var conditions []string
	var args []interface{}
	argIndex := 1

	if params.Search != "" {
		conditions = append(conditions, fmt.Sprintf(`
			(LOWER(first_name) LIKE LOWER($%d) OR
			 LOWER(last_name) LIKE LOWER($%d) OR
			 LOWER(email) LIKE LOWER($%d) OR
			 agent_number LIKE $%d)`, argIndex, argIndex, argIndex, argIndex))
		args = append(args, "%"+params.Search+"%")
		argIndex++
	}
	if params.Role != nil {
		conditions = append(conditions, fmt.Sprintf("role = $%d", argIndex))
		args = append(args, string(*params.Role))
		argIndex++
	}
	if params.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, string(*params.Status))
		argIndex++
	}

	whereSQL := ""
	if len(conditions) > 0 {
		whereSQL = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Map sort fields to column expressions; anything unknown falls back to
	// creation time.
	orderByExpr := "created_at"
	switch params.Sort {
	case "email":
		orderByExpr = "email"
	case "last_name":
		orderByExpr = "last_name"
	case "agent_number":
		orderByExpr = "agent_number"
	case "status":
		orderByExpr = "status"
	}
	orderDir := "DESC"
	if params.Order == "asc" {
		orderDir = "ASC"
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM users` + whereSQL
	if err := db.Pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	query := `SELECT ` + userColumns + ` FROM users` + whereSQL +
		fmt.Sprintf(" ORDER BY %s %s LIMIT $%d OFFSET $%d", orderByExpr, orderDir, argIndex, argIndex+1)
	args = append(args, params.Limit, (params.Page-1)*params.Limit)

	rows, err := db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating users: %w", err)
	}

	totalPages := 0
	if params.Limit > 0 {
		totalPages = (total + params.Limit - 1) / params.Limit
	}

	return &models.UserListResponse{
		Users:      users,
		Total:      total,
		Page:       params.Page,
		Limit:      params.Limit,
		TotalPages: totalPages,
	}, nil
}

// AssignAgentNumber stores a freshly composed agent number on an account.
// The unique index on agent_number turns a suffix collision into a conflict.
func (db *Database) AssignAgentNumber(ctx context.Context, userID, agentNumber string) (*models.User, error) {
	query := `
		UPDATE users
		SET agent_number = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING ` + userColumns

	u, err := scanUser(db.Pool.QueryRow(ctx, query, agentNumber, userID))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("user", userID)
		}
		if isUniqueViolation(err) {
			return nil, models.NewConflictError("agent_number", fmt.Sprintf("agent number %s is already assigned", agentNumber))
		}
		return nil, fmt.Errorf("failed to assign agent number: %w", err)
	}
	return u, nil
}

// SetUserStatus activates or deactivates an account. The agent number
// column is not touched, so reactivation restores the same number.
func (db *Database) SetUserStatus(ctx context.Context, userID string, status models.UserStatus) (*models.User, error) {
	query := `
		UPDATE users
		SET status = $1, updated_at = CURRENT_TIMESTAMP
		WHERE id = $2
		RETURNING ` + userColumns

	u, err := scanUser(db.Pool.QueryRow(ctx, query, string(status), userID))
	if err != nil {
		if isNoRows(err) {
			return nil, models.NewNotFoundError("user", userID)
		}
		return nil, fmt.Errorf("failed to update user status: %w", err)
	}
	return u, nil
}
