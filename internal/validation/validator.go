// Package validation holds the per-row business rules for roster imports:
// required fields, department scope, gender and password policy, and
// employee-ID normalization.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/roster-import-api/internal/models"
	"github.com/roster-import-api/internal/parser"
)

var (
	letterRegex   = regexp.MustCompile(`[A-Za-z]`)
	digitRegex    = regexp.MustCompile(`\d`)
	allDigitsRe   = regexp.MustCompile(`^\d+$`)
	digitRunRegex = regexp.MustCompile(`(\d+)`)
)

// ErrInvalidIdentifierFormat is returned for caller-supplied employee IDs
// with no recoverable numeric part
var ErrInvalidIdentifierFormat = errors.New("Invalid EmployeeID format")

// MinPasswordLength is the policy minimum for caller-supplied passwords
const MinPasswordLength = 8

// IsPasswordValid checks the password policy: at least 8 characters,
// including at least one letter and one digit.
func IsPasswordValid(pw string) bool {
	if len(pw) < MinPasswordLength {
		return false
	}
	return letterRegex.MatchString(pw) && digitRegex.MatchString(pw)
}

// RequiredFields returns the normalized required column names for a role.
// Department-scoped callers never supply a department column since it is
// forced from their scope.
func RequiredFields(role string, systemWide bool) []string {
	switch role {
	case models.RoleStudent:
		return []string{"firstname", "lastname", "gender", "yearlevel"}
	case models.RoleFaculty, models.RoleDean:
		if systemWide {
			return []string{"firstname", "lastname", "department"}
		}
		return []string{"firstname", "lastname"}
	default:
		return nil
	}
}

// MissingColumns returns the required columns absent from the parsed header
func MissingColumns(table *parser.Table, required []string) []string {
	var missing []string
	for _, col := range required {
		if !table.HasField(col) {
			missing = append(missing, col)
		}
	}
	return missing
}

// CheckRequired verifies every required field is present and non-empty on
// one row. The first missing field wins.
func CheckRequired(row parser.Row, required []string) error {
	for _, col := range required {
		if strings.TrimSpace(row[col]) == "" {
			return fmt.Errorf("Missing field: %s", col)
		}
	}
	return nil
}

// NormalizeGender validates and lowercases the student gender value
func NormalizeGender(g string) (string, error) {
	gender := strings.ToLower(strings.TrimSpace(g))
	if gender != "male" && gender != "female" {
		return "", errors.New("Invalid gender (must be Male or Female)")
	}
	return gender, nil
}

// ResolveDepartment determines the effective department for one row.
// Department-scoped callers: a row naming a different department is rejected
// for auditability; an absent or empty value is forced to the caller's
// department. System-wide callers: faculty/dean rows may carry their own
// department, falling back to the batch-level department; students always
// take the batch-level department.
func ResolveDepartment(row parser.Row, role string, scope models.CallerScope, batchDept string) (string, error) {
	rowDept := strings.TrimSpace(row["department"])
	if !scope.IsSystemWide {
		if rowDept != "" && !strings.EqualFold(rowDept, scope.Department) {
			return "", fmt.Errorf("Department %q not allowed for this admin", rowDept)
		}
		return scope.Department, nil
	}
	if role == models.RoleFaculty || role == models.RoleDean {
		if rowDept != "" {
			return rowDept, nil
		}
		if batchDept == "" {
			return "", errors.New("Missing field: department")
		}
		return batchDept, nil
	}
	return batchDept, nil
}

// NormalizeEmployeeID normalizes a caller-supplied employee ID for the given
// role: already-prefixed values pass through uppercased; bare numbers are
// zero-padded to 3 digits and prefixed; otherwise the first digit run is
// extracted. A value with no digits fails with ErrInvalidIdentifierFormat.
func NormalizeEmployeeID(raw, role string) (string, error) {
	id := strings.TrimSpace(raw)
	prefix := models.EmployeeIDPrefix(role)

	if len(id) >= len(prefix) && strings.EqualFold(id[:len(prefix)], prefix) {
		return strings.ToUpper(id), nil
	}
	if allDigitsRe.MatchString(id) {
		return prefix + padNumber(id), nil
	}
	if m := digitRunRegex.FindStringSubmatch(id); m != nil {
		return prefix + padNumber(m[1]), nil
	}
	return "", ErrInvalidIdentifierFormat
}

// padNumber left-pads a digit string to the standard width, keeping longer
// values intact.
func padNumber(digits string) string {
	for len(digits) < models.IDNumberPad {
		digits = "0" + digits
	}
	return digits
}
