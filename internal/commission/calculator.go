// Package commission computes enrollment commissions from a published rate
// table. Amounts are flat dollar figures keyed by plan tier and coverage
// type, plus a fixed bonus when the prescription add-on is sold.
package commission

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// RateTable maps (plan tier, coverage type) to a flat commission amount.
// Tables carry a version so a payout can be traced to the schedule it was
// priced under.
type RateTable struct {
	Version    string
	Rates      map[models.PlanTier]map[models.CoverageType]decimal.Decimal
	AddonBonus decimal.Decimal
}

// DefaultRateTable returns the schedule in effect since January 2025.
// The base tier differentiates all four coverage types; plus and elite pay
// a single flat rate for every coverage beyond member-only.
func DefaultRateTable() RateTable {
	return RateTable{
		Version: "2025-01",
		Rates: map[models.PlanTier]map[models.CoverageType]decimal.Decimal{
			models.TierBase: {
				models.CoverageMemberOnly:     dec("9.00"),
				models.CoverageMemberSpouse:   dec("15.00"),
				models.CoverageMemberChildren: dec("13.00"),
				models.CoverageFamily:         dec("17.00"),
			},
			models.TierPlus: {
				models.CoverageMemberOnly:     dec("20.00"),
				models.CoverageMemberSpouse:   dec("30.00"),
				models.CoverageMemberChildren: dec("30.00"),
				models.CoverageFamily:         dec("30.00"),
			},
			models.TierElite: {
				models.CoverageMemberOnly:     dec("25.00"),
				models.CoverageMemberSpouse:   dec("40.00"),
				models.CoverageMemberChildren: dec("40.00"),
				models.CoverageFamily:         dec("40.00"),
			},
		},
		AddonBonus: dec("2.50"),
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Calculator resolves commission amounts against a fixed rate table.
type Calculator struct {
	table RateTable
}

// NewCalculator creates a calculator over the given rate table.
func NewCalculator(table RateTable) *Calculator {
	return &Calculator{table: table}
}

// Calculate returns the commission for one enrollment. An unknown tier or
// coverage type is a validation error, never a silent zero.
func (c *Calculator) Calculate(tier models.PlanTier, coverage models.CoverageType, rxAddon bool) (decimal.Decimal, error) {
	byCoverage, ok := c.table.Rates[tier]
	if !ok {
		return decimal.Zero, models.NewValidationError("plan_tier", fmt.Sprintf("unknown plan tier %q", tier))
	}
	amount, ok := byCoverage[coverage]
	if !ok {
		return decimal.Zero, models.NewValidationError("coverage_type", fmt.Sprintf("unknown coverage type %q", coverage))
	}
	if rxAddon {
		amount = amount.Add(c.table.AddonBonus)
	}
	return amount, nil
}

// Version returns the rate table version amounts are priced under.
func (c *Calculator) Version() string {
	return c.table.Version
}
