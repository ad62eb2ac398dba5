package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/roster-import-api/internal/config"
	"github.com/roster-import-api/internal/mocks"
	"github.com/roster-import-api/internal/models"
	"github.com/roster-import-api/internal/parser"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

type importFixture struct {
	svc        *importService
	accounts   *mocks.MockAccountRepository
	students   *mocks.MockStudentRepository
	employees  *mocks.MockEmployeeRepository
	sequences  *mocks.MockSequenceRepository
	txBeginner *mocks.MockTxBeginner
}

func newImportFixture(t *testing.T) *importFixture {
	t.Helper()
	repos, accounts, students, employees, sequences := mocks.NewMockRepositories()
	cfg := &config.Config{
		Import:  config.ImportConfig{DefaultPassword: "password123"},
		Reports: config.ReportsConfig{Dir: t.TempDir(), WebBase: "/reports"},
	}
	return &importFixture{
		svc:        newImportService(repos, cfg, zerolog.Nop()),
		accounts:   accounts,
		students:   students,
		employees:  employees,
		sequences:  sequences,
		txBeginner: repos.Tx.(*mocks.MockTxBeginner),
	}
}

func (f *importFixture) run(t *testing.T, req *models.ImportRequest, csvContent string) *models.ImportResult {
	t.Helper()
	result, err := f.svc.Run(context.Background(), req, strings.NewReader(csvContent), "csv")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result
}

var techAdmin = models.CallerScope{Department: "Technology", IsSystemWide: false}
var sysAdmin = models.CallerScope{IsSystemWide: true}

func TestRunStudentBatchMixedRows(t *testing.T) {
	f := newImportFixture(t)

	content := `FirstName,LastName,Gender,YearLevel
Juan,Dela Cruz,Male,1st Year
Maria,Santos,Female,2nd Year
Pedro,,Male,1st Year
Ana,Reyes,Unknown,3rd Year
Luis,Garcia,Male,2nd Year
Carla,Lopez,Female,1st Year
Miguel,Torres,Male,3rd Year
`
	result := f.run(t, &models.ImportRequest{Role: models.RoleStudent, Scope: techAdmin}, content)

	if result.Created != 5 || result.Skipped != 2 {
		t.Fatalf("created/skipped = %d/%d, want 5/2", result.Created, result.Skipped)
	}
	wantErrors := []models.ImportError{
		{Row: 4, Reason: "Missing field: lastname"},
		{Row: 5, Reason: "Invalid gender (must be Male or Female)"},
	}
	if len(result.Errors) != len(wantErrors) {
		t.Fatalf("errors = %+v, want %+v", result.Errors, wantErrors)
	}
	for i, want := range wantErrors {
		if result.Errors[i] != want {
			t.Errorf("errors[%d] = %+v, want %+v", i, result.Errors[i], want)
		}
	}

	// Male and female identifier namespaces advance independently
	for _, username := range []string{"222-001", "222-002", "222-003", "221-001", "221-002"} {
		if _, ok := f.accounts.Accounts[username]; !ok {
			t.Errorf("account %s not created; have %d accounts", username, len(f.accounts.Accounts))
		}
		if _, ok := f.students.Profiles[username]; !ok {
			t.Errorf("student profile %s not created", username)
		}
	}

	first := f.accounts.Accounts["222-001"]
	if first.FullName != "Juan Dela Cruz" {
		t.Errorf("full name = %q", first.FullName)
	}
	if !first.MustChangePassword {
		t.Error("bulk-created accounts must be flagged to change their password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(first.PasswordHash), []byte("password123")); err != nil {
		t.Errorf("password hash does not match default password: %v", err)
	}
	if got := f.students.Profiles["222-001"].Program; got != "TECHNOLOGY" {
		t.Errorf("program = %q, want TECHNOLOGY (derived from the caller's department)", got)
	}

	if result.GeneratedPasswords != 5 || result.ProvidedPasswords != 0 {
		t.Errorf("passwords = %d generated / %d provided, want 5/0",
			result.GeneratedPasswords, result.ProvidedPasswords)
	}

	tx := f.txBeginner.LastTx
	if !tx.Committed {
		t.Error("batch transaction was not committed")
	}
	// Bad gender is only detected inside the row savepoint; the missing
	// lastname never opens one.
	if len(tx.Releases) != 5 {
		t.Errorf("released savepoints = %v, want 5", tx.Releases)
	}
	if len(tx.Rollbacks) != 1 {
		t.Errorf("rolled-back savepoints = %v, want 1", tx.Rollbacks)
	}

	if !strings.HasPrefix(result.ErrorReport, "/reports/bulk_errors_") {
		t.Errorf("error report = %q", result.ErrorReport)
	}
	if !strings.HasPrefix(result.CredentialsReport, "/reports/bulk_credentials_") {
		t.Errorf("credentials report = %q", result.CredentialsReport)
	}
	for _, want := range []string{
		"5 records uploaded successfully, 2 errors found",
		"3 Male: IDs 222-001 to 222-003",
		"2 Female: IDs 221-001 to 221-002",
	} {
		if !strings.Contains(result.Summary, want) {
			t.Errorf("summary %q missing %q", result.Summary, want)
		}
	}
}

func TestRunFacultyGapFilling(t *testing.T) {
	f := newImportFixture(t)
	seedEmployee(t, f.accounts, f.employees, models.RoleFaculty, "FAC-001")
	seedEmployee(t, f.accounts, f.employees, models.RoleFaculty, "FAC-002")
	seedEmployee(t, f.accounts, f.employees, models.RoleFaculty, "FAC-004")

	content := `FirstName,LastName,Department
Elena,Cruz,Technology
Ramon,Diaz,Business
`
	result := f.run(t, &models.ImportRequest{Role: models.RoleFaculty, Scope: sysAdmin}, content)

	if result.Created != 2 || result.Skipped != 0 {
		t.Fatalf("created/skipped = %d/%d, want 2/0", result.Created, result.Skipped)
	}
	// The gap at 3 is filled first, then allocation continues past the max
	if _, ok := f.employees.Profiles[models.RoleFaculty]["FAC-003"]; !ok {
		t.Error("FAC-003 (the gap) was not allocated")
	}
	if _, ok := f.employees.Profiles[models.RoleFaculty]["FAC-005"]; !ok {
		t.Error("FAC-005 was not allocated after the gap closed")
	}
	if f.accounts.Accounts["FAC-003"].Department != "Technology" {
		t.Errorf("department = %q", f.accounts.Accounts["FAC-003"].Department)
	}

	// Advisory tracker keeps the high-water mark of allocated numbers
	if got := f.sequences.LastNum[models.RoleFaculty]; got != 5 {
		t.Errorf("sequence tracker = %d, want 5", got)
	}
	tx := f.txBeginner.LastTx
	if len(tx.Savepoints) != 4 {
		t.Errorf("savepoints = %v, want row and sequence savepoints per row", tx.Savepoints)
	}

	if !strings.Contains(result.Summary, "2 Faculty added") {
		t.Errorf("summary %q missing faculty count", result.Summary)
	}
}

func TestRunFacultyProvidedIdentifiersAndPasswords(t *testing.T) {
	f := newImportFixture(t)
	seedEmployee(t, f.accounts, f.employees, models.RoleFaculty, "FAC-001")

	content := `FirstName,LastName,Department,EmployeeID,Password
John,Smith,Technology,7,Secret123
Jane,Doe,Business,FAC-001,
Bob,Lee,Education,xyz,
Amy,Chan,Technology,,short1
`
	result := f.run(t, &models.ImportRequest{Role: models.RoleFaculty, Scope: sysAdmin}, content)

	if result.Created != 1 || result.Skipped != 3 {
		t.Fatalf("created/skipped = %d/%d, want 1/3", result.Created, result.Skipped)
	}
	// A bare number is normalized into the role prefix
	if _, ok := f.employees.Profiles[models.RoleFaculty]["FAC-007"]; !ok {
		t.Error("provided EmployeeID 7 should create FAC-007")
	}
	if result.ProvidedPasswords != 1 || result.GeneratedPasswords != 0 {
		t.Errorf("passwords = %d provided / %d generated, want 1/0",
			result.ProvidedPasswords, result.GeneratedPasswords)
	}

	wantReasons := map[int]string{
		3: "Duplicate EmployeeID",
		4: "Invalid EmployeeID format",
		5: "Password does not meet policy",
	}
	for _, e := range result.Errors {
		want, ok := wantReasons[e.Row]
		if !ok {
			t.Errorf("unexpected error row %d: %s", e.Row, e.Reason)
			continue
		}
		if !strings.Contains(e.Reason, want) {
			t.Errorf("row %d reason = %q, want substring %q", e.Row, e.Reason, want)
		}
	}
}

func TestRunBatchLevelFailures(t *testing.T) {
	tests := []struct {
		name    string
		req     *models.ImportRequest
		content string
		ext     string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "invalid role",
			req:     &models.ImportRequest{Role: "admin", Scope: sysAdmin},
			content: "FirstName,LastName\nA,B\n",
			ext:     "csv",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrInvalidRole) {
					t.Errorf("err = %v, want ErrInvalidRole", err)
				}
			},
		},
		{
			name:    "department admin cannot upload deans",
			req:     &models.ImportRequest{Role: models.RoleDean, Scope: techAdmin},
			content: "FirstName,LastName\nA,B\n",
			ext:     "csv",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrUnauthorizedScope) {
					t.Errorf("err = %v, want ErrUnauthorizedScope", err)
				}
			},
		},
		{
			name:    "unsupported file format",
			req:     &models.ImportRequest{Role: models.RoleStudent, Scope: techAdmin},
			content: "whatever",
			ext:     "pdf",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, parser.ErrUnsupportedFormat) {
					t.Errorf("err = %v, want ErrUnsupportedFormat", err)
				}
			},
		},
		{
			name:    "file with no recognizable header",
			req:     &models.ImportRequest{Role: models.RoleStudent, Scope: techAdmin},
			content: "# only comments\n# in this file\n",
			ext:     "csv",
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrEmptyOrUnreadable) {
					t.Errorf("err = %v, want ErrEmptyOrUnreadable", err)
				}
			},
		},
		{
			name:    "missing required columns",
			req:     &models.ImportRequest{Role: models.RoleFaculty, Scope: sysAdmin},
			content: "FirstName,LastName\nA,B\n",
			ext:     "csv",
			check: func(t *testing.T, err error) {
				var mce *MissingColumnsError
				if !errors.As(err, &mce) {
					t.Fatalf("err = %v, want MissingColumnsError", err)
				}
				if len(mce.Columns) != 1 || mce.Columns[0] != "department" {
					t.Errorf("missing columns = %v, want [department]", mce.Columns)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newImportFixture(t)
			_, err := f.svc.Run(context.Background(), tt.req, strings.NewReader(tt.content), tt.ext)
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
			if len(f.accounts.Accounts) != 0 {
				t.Errorf("batch-level failure created %d accounts", len(f.accounts.Accounts))
			}
			if f.txBeginner.LastTx != nil {
				t.Error("batch-level failure should abort before opening a transaction")
			}
		})
	}
}

func TestRunDeptScopeMismatchRejected(t *testing.T) {
	f := newImportFixture(t)

	content := `FirstName,LastName,Department
Elena,Cruz,Business
Ramon,Diaz,Technology
Lita,Perez,
`
	result := f.run(t, &models.ImportRequest{Role: models.RoleFaculty, Scope: techAdmin}, content)

	if result.Created != 2 || result.Skipped != 1 {
		t.Fatalf("created/skipped = %d/%d, want 2/1", result.Created, result.Skipped)
	}
	if result.Errors[0].Row != 2 || !strings.Contains(result.Errors[0].Reason, "not allowed") {
		t.Errorf("errors = %+v", result.Errors)
	}
	// Rows without a department (and matching ones) are forced to the
	// caller's department
	for _, a := range f.accounts.Accounts {
		if a.Department != "Technology" {
			t.Errorf("account %s department = %q, want Technology", a.Username, a.Department)
		}
	}
}

func TestRunRowInsertFailureRollsBackRow(t *testing.T) {
	f := newImportFixture(t)
	f.accounts.CreateErrors["222-001"] = errors.New("pq: duplicate key value violates unique constraint")

	content := `FirstName,LastName,Gender,YearLevel
Juan,Dela Cruz,Male,1st Year
Maria,Santos,Female,2nd Year
`
	result := f.run(t, &models.ImportRequest{Role: models.RoleStudent, Scope: techAdmin}, content)

	if result.Created != 1 || result.Skipped != 1 {
		t.Fatalf("created/skipped = %d/%d, want 1/1", result.Created, result.Skipped)
	}
	if result.Errors[0].Row != 2 || !strings.Contains(result.Errors[0].Reason, "duplicate key") {
		t.Errorf("errors = %+v", result.Errors)
	}
	if _, ok := f.accounts.Accounts["221-001"]; !ok {
		t.Error("the failing row must not take the rest of the batch down")
	}

	tx := f.txBeginner.LastTx
	if len(tx.Rollbacks) != 1 || tx.Rollbacks[0] != "row_0" {
		t.Errorf("rollbacks = %v, want [row_0]", tx.Rollbacks)
	}
	if len(tx.Releases) != 1 || tx.Releases[0] != "row_1" {
		t.Errorf("releases = %v, want [row_1]", tx.Releases)
	}
	if !tx.Committed {
		t.Error("batch with surviving rows must still commit")
	}
}

func TestRunStudentReimportAllocatesNewIDs(t *testing.T) {
	f := newImportFixture(t)

	content := `FirstName,LastName,Gender,YearLevel
Juan,Dela Cruz,Male,1st Year
Maria,Santos,Female,2nd Year
`
	req := &models.ImportRequest{Role: models.RoleStudent, Scope: techAdmin}
	f.run(t, req, content)
	f.run(t, req, content)

	// Re-importing the same file is not idempotent: every row gets a fresh
	// identifier past the namespace maximum.
	for _, username := range []string{"222-001", "222-002", "221-001", "221-002"} {
		if _, ok := f.accounts.Accounts[username]; !ok {
			t.Errorf("account %s missing after second run", username)
		}
	}
	if len(f.accounts.Accounts) != 4 {
		t.Errorf("got %d accounts after two runs, want 4", len(f.accounts.Accounts))
	}
}

func TestRunCommitFailureAbortsBatch(t *testing.T) {
	f := newImportFixture(t)
	f.txBeginner.CommitError = errors.New("pq: connection reset")

	content := `FirstName,LastName,Gender,YearLevel
Juan,Dela Cruz,Male,1st Year
`
	_, err := f.svc.Run(context.Background(),
		&models.ImportRequest{Role: models.RoleStudent, Scope: techAdmin},
		strings.NewReader(content), "csv")
	if err == nil || !strings.Contains(err.Error(), "commit") {
		t.Fatalf("err = %v, want commit failure", err)
	}
	if !f.txBeginner.LastTx.RolledBack {
		t.Error("failed batch must be rolled back")
	}
}
