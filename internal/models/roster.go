package models

// Identifier prefixes. Faculty/dean employee IDs are role-prefixed and
// gap-filled; student IDs are numeric-prefixed by gender and strictly
// sequential within their namespace.
const (
	FacultyIDPrefix = "FAC-"
	DeanIDPrefix    = "DEAN-"

	MaleStudentPrefix   = "222"
	FemaleStudentPrefix = "221"

	// IDNumberPad is the zero-pad width of the numeric suffix (FAC-007)
	IDNumberPad = 3
)

// EmployeeIDPrefix returns the identifier prefix for an employee role.
func EmployeeIDPrefix(role string) string {
	if role == RoleDean {
		return DeanIDPrefix
	}
	return FacultyIDPrefix
}

// CallerScope is the authorization scope of the administrator performing the
// import, resolved by the upstream auth layer. Department-scoped admins can
// only act within their own department.
type CallerScope struct {
	Department   string
	IsSystemWide bool
}

// ImportRequest describes one roster upload batch
type ImportRequest struct {
	Role string
	// Department applies to every row when the caller is system-wide and the
	// file carries no per-row department. For department-scoped callers it is
	// always the caller's department.
	Department string
	Scope      CallerScope
}

// ImportError records one skipped row. Row is 1-indexed in the original file
// counting the header row, so the first data row is 2.
type ImportError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Credential password sources
const (
	PasswordProvided  = "provided"
	PasswordGenerated = "generated"
)

// Credential records the initial login issued for one created account
type Credential struct {
	Username        string
	Role            string
	FullName        string
	Department      string
	InitialPassword string
	Source          string
}

// ImportResult summarizes one processed batch
type ImportResult struct {
	Created            int           `json:"created"`
	Skipped            int           `json:"skipped"`
	Summary            string        `json:"summary"`
	Errors             []ImportError `json:"-"`
	ErrorReport        string        `json:"error_report,omitempty"`
	CredentialsReport  string        `json:"credentials_report,omitempty"`
	ProvidedPasswords  int           `json:"provided_passwords"`
	GeneratedPasswords int           `json:"generated_passwords"`
}
