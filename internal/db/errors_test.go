package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestIsUniqueViolation(t *testing.T) {
	uniqueErr := &pgconn.PgError{Code: uniqueViolation, ConstraintName: "ux_commissions_member"}

	assert.True(t, isUniqueViolation(uniqueErr))
	assert.True(t, isUniqueViolation(fmt.Errorf("insert failed: %w", uniqueErr)))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: foreignKeyViolation}))
	assert.False(t, isUniqueViolation(errors.New("plain error")))
	assert.False(t, isUniqueViolation(nil))
}

func TestIsForeignKeyViolation(t *testing.T) {
	fkErr := &pgconn.PgError{Code: foreignKeyViolation, ConstraintName: "members_plan_id_fkey"}

	assert.True(t, isForeignKeyViolation(fkErr))
	assert.True(t, isForeignKeyViolation(fmt.Errorf("insert failed: %w", fkErr)))
	assert.False(t, isForeignKeyViolation(&pgconn.PgError{Code: uniqueViolation}))
}

func TestIsNoRows(t *testing.T) {
	assert.True(t, isNoRows(pgx.ErrNoRows))
	assert.True(t, isNoRows(fmt.Errorf("query: %w", pgx.ErrNoRows)))
	assert.False(t, isNoRows(errors.New("other")))
}
