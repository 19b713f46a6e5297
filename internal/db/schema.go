package db

import (
	"context"
	"fmt"
	"log"
)

// InitSchema creates the service's tables, indexes, and seed data. Every
// statement is idempotent so repeated startups are safe.
func (db *Database) InitSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			email TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'agent',
			agent_number TEXT,
			status TEXT NOT NULL DEFAULT 'pending',
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_users_agent_number
			ON users(agent_number) WHERE agent_number IS NOT NULL`,

		`CREATE TABLE IF NOT EXISTS plans (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name TEXT NOT NULL UNIQUE,
			tier TEXT NOT NULL,
			monthly_price NUMERIC(10,2) NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE TABLE IF NOT EXISTS members (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			customer_number TEXT NOT NULL UNIQUE,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT,
			plan_id UUID NOT NULL REFERENCES plans(id),
			coverage_type TEXT NOT NULL,
			rx_addon BOOLEAN NOT NULL DEFAULT FALSE,
			total_monthly_price NUMERIC(10,2) NOT NULL,
			enrolled_by UUID REFERENCES users(id),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_members_enrolled_by ON members(enrolled_by)`,

		`CREATE TABLE IF NOT EXISTS commissions (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			agent_id UUID NOT NULL REFERENCES users(id),
			member_id UUID NOT NULL REFERENCES members(id),
			plan_tier TEXT NOT NULL,
			coverage_type TEXT NOT NULL,
			rx_addon BOOLEAN NOT NULL DEFAULT FALSE,
			amount NUMERIC(10,2) NOT NULL,
			payable BOOLEAN NOT NULL DEFAULT TRUE,
			status TEXT NOT NULL DEFAULT 'pending',
			payment_status TEXT NOT NULL DEFAULT 'unpaid',
			paid_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_commissions_member ON commissions(member_id)`,
		`CREATE INDEX IF NOT EXISTS idx_commissions_agent ON commissions(agent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_commissions_payment_status ON commissions(payment_status)`,

		`CREATE TABLE IF NOT EXISTS payments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			member_id UUID NOT NULL REFERENCES members(id),
			transaction_id TEXT NOT NULL UNIQUE,
			amount NUMERIC(10,2) NOT NULL,
			received_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_payments_member ON payments(member_id)`,

		`CREATE TABLE IF NOT EXISTS leads (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			email TEXT NOT NULL,
			phone TEXT,
			notes TEXT,
			status TEXT NOT NULL DEFAULT 'new',
			assigned_to UUID REFERENCES users(id),
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_leads_assigned_to ON leads(assigned_to)`,

		`CREATE TABLE IF NOT EXISTS customer_number_counters (
			year INTEGER PRIMARY KEY,
			last_value INTEGER NOT NULL DEFAULT 0
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}

	if err := db.seedPlans(ctx); err != nil {
		return fmt.Errorf("failed to seed plans: %w", err)
	}

	log.Println("Enrollment service database schema verified successfully")
	return nil
}

// seedPlans inserts the three MyPremierPlan tiers when the table is empty.
func (db *Database) seedPlans(ctx context.Context) error {
	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM plans`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count plans: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed := []struct {
		name  string
		tier  string
		price string
	}{
		{"MyPremierPlan Base", "base", "59.00"},
		{"MyPremierPlan Plus", "plus", "99.00"},
		{"MyPremierPlan Elite", "elite", "129.00"},
	}
	for _, p := range seed {
		if _, err := db.Pool.Exec(ctx, `
			INSERT INTO plans (name, tier, monthly_price)
			VALUES ($1, $2, $3)
			ON CONFLICT (name) DO NOTHING
		`, p.name, p.tier, p.price); err != nil {
			return fmt.Errorf("failed to seed plan %s: %w", p.name, err)
		}
	}
	log.Println("[ENROLL-DB] Seeded default plans")
	return nil
}
