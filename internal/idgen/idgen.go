// Package idgen composes the platform's agent and customer identifiers.
package idgen

import (
	"fmt"
	"regexp"

	"github.com/Bdkelp/getmydpc-enrollment-sub004/internal/models"
)

// CompanyPrefix is the three-letter brand prefix carried by every identifier.
const CompanyPrefix = "MPP"

// Role codes embedded in agent numbers.
const (
	roleCodeAgent      = "AG"
	roleCodeSuperAdmin = "SA"
)

// AgentNumberPattern matches a well-formed agent number, e.g. MPPAG25-1042.
var AgentNumberPattern = regexp.MustCompile(`^[A-Z]{3}(AG|SA)\d{2}-\d{4}$`)

// CustomerNumberPattern matches a well-formed customer number, e.g.
// MPP25-0001. The sequence is at least four digits and widens past 9999.
var CustomerNumberPattern = regexp.MustCompile(`^[A-Z]{3}\d{2}-\d{4,}$`)

var suffixPattern = regexp.MustCompile(`^[0-9]{4}$`)

// RoleCode maps an account role to the two-letter code carried in its
// agent number.
func RoleCode(role models.UserRole) string {
	if role == models.RoleSuperAdmin {
		return roleCodeSuperAdmin
	}
	return roleCodeAgent
}

// AgentNumber composes a fixed 12-character agent number: company prefix,
// role code, two-digit year, hyphen, 4-digit personal suffix. The suffix is
// derived from a sensitive identifier; callers must not log or store it
// outside the composed number.
func AgentNumber(role models.UserRole, year int, suffix string) (string, error) {
	if year < 2000 || year > 2099 {
		return "", models.NewValidationError("year", fmt.Sprintf("year %d outside supported range 2000-2099", year))
	}
	if !suffixPattern.MatchString(suffix) {
		return "", models.NewValidationError("suffix", "suffix must be exactly 4 digits")
	}
	return fmt.Sprintf("%s%s%02d-%s", CompanyPrefix, RoleCode(role), year%100, suffix), nil
}

// CustomerNumber composes a customer number from the enrollment year and a
// per-year sequence value, e.g. MPP25-0001. Zero padding holds to four
// digits and widens once a year's sequence passes 9999.
func CustomerNumber(year int, seq int64) string {
	return fmt.Sprintf("%s%02d-%04d", CompanyPrefix, year%100, seq)
}
