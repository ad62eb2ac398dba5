package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roster-import-api/internal/config"
	"github.com/roster-import-api/internal/models"
	"github.com/roster-import-api/internal/parser"
	"github.com/roster-import-api/internal/repository"
	"github.com/roster-import-api/internal/validation"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ImportService processes one roster upload batch synchronously
type ImportService interface {
	Run(ctx context.Context, req *models.ImportRequest, file io.Reader, ext string) (*models.ImportResult, error)
}

// importService is the concrete implementation of ImportService
type importService struct {
	repos   *repository.Repositories
	cfg     *config.Config
	reports *reportEmitter
	log     zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *importService {
	return &importService{
		repos:   repos,
		cfg:     cfg,
		reports: newReportEmitter(cfg.Reports.Dir, cfg.Reports.WebBase, log),
		log:     log.With().Str("service", "import").Logger(),
	}
}

// rowRepos bundles the transaction-bound repositories used inside the row loop
type rowRepos struct {
	accounts  repository.AccountRepository
	students  repository.StudentRepository
	employees repository.EmployeeRepository
	sequences repository.SequenceRepository
}

// rowResult carries the outcome of one successfully imported row
type rowResult struct {
	cred     models.Credential
	allocNum int
}

// Run processes one uploaded roster. File-level and authorization failures
// abort before any writes; row-level failures are collected as ImportErrors
// while the rest of the batch proceeds inside one transaction with per-row
// savepoints. Only an unexpected failure rolls the whole batch back.
func (s *importService) Run(ctx context.Context, req *models.ImportRequest, file io.Reader, ext string) (*models.ImportResult, error) {
	if !models.ValidRoles[req.Role] {
		return nil, ErrInvalidRole
	}
	if !req.Scope.IsSystemWide && req.Role == models.RoleDean {
		return nil, ErrUnauthorizedScope
	}

	batchDept := strings.TrimSpace(req.Department)
	if !req.Scope.IsSystemWide {
		batchDept = req.Scope.Department
	}

	table, err := parser.Parse(file, ext)
	if err != nil {
		return nil, err
	}
	if table.Empty() {
		return nil, ErrEmptyOrUnreadable
	}

	required := validation.RequiredFields(req.Role, req.Scope.IsSystemWide)
	if missing := validation.MissingColumns(table, required); len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	s.log.Info().
		Str("role", req.Role).
		Str("department", batchDept).
		Bool("system_wide", req.Scope.IsSystemWide).
		Int("rows", len(table.Rows)).
		Msg("Starting roster import")

	tx, err := s.repos.Tx.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin import transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	repos := rowRepos{
		accounts:  s.repos.Account.WithTx(tx),
		students:  s.repos.Student.WithTx(tx),
		employees: s.repos.Employee.WithTx(tx),
		sequences: s.repos.Sequence.WithTx(tx),
	}
	alloc := newIdentifierAllocator(repos.accounts, repos.students, repos.employees)

	result := &models.ImportResult{}
	stats := &batchStats{}
	var creds []models.Credential

	for i, raw := range table.Rows {
		// 1-indexed file position counting the header row
		rowNum := i + 2

		row := make(parser.Row, len(raw))
		for k, v := range raw {
			row[k] = strings.TrimSpace(v)
		}

		// Pure checks first: no SQL has run yet, so a failure here costs
		// nothing and needs no savepoint.
		if err := validation.CheckRequired(row, required); err != nil {
			s.skipRow(result, rowNum, err)
			continue
		}
		dept, err := validation.ResolveDepartment(row, req.Role, req.Scope, batchDept)
		if err != nil {
			s.skipRow(result, rowNum, err)
			continue
		}

		// Everything that touches the database runs inside the row's
		// savepoint: a failed statement aborts the savepoint, not the batch.
		name := fmt.Sprintf("row_%d", i)
		if err := tx.Savepoint(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to create savepoint: %w", err)
		}
		rr, err := s.importRow(ctx, repos, alloc, row, req.Role, dept, req.Scope, stats)
		if err != nil {
			if rbErr := tx.RollbackTo(ctx, name); rbErr != nil {
				return nil, fmt.Errorf("failed to roll back row savepoint: %w", rbErr)
			}
			s.skipRow(result, rowNum, err)
			continue
		}
		if err := tx.Release(ctx, name); err != nil {
			return nil, fmt.Errorf("failed to release row savepoint: %w", err)
		}

		if rr.allocNum > 0 {
			s.recordSequence(ctx, tx, repos.sequences, req.Role, rr.allocNum, i)
		}

		creds = append(creds, rr.cred)
		if rr.cred.Source == models.PasswordProvided {
			result.ProvidedPasswords++
		} else {
			result.GeneratedPasswords++
		}
		result.Created++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import batch: %w", err)
	}
	committed = true

	if result.Skipped > 0 {
		result.ErrorReport = s.reports.WriteErrors(result.Errors)
	}
	if result.Created > 0 && len(creds) > 0 {
		result.CredentialsReport = s.reports.WriteCredentials(creds)
	}
	result.Summary = buildSummary(req.Role, result, stats)

	s.log.Info().
		Str("role", req.Role).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Int("provided_passwords", result.ProvidedPasswords).
		Int("generated_passwords", result.GeneratedPasswords).
		Msg("Roster import completed")

	return result, nil
}

func (s *importService) skipRow(result *models.ImportResult, rowNum int, err error) {
	result.Skipped++
	result.Errors = append(result.Errors, models.ImportError{Row: rowNum, Reason: err.Error()})
}

// importRow validates, allocates, and writes one row: the account plus its
// role profile. Any returned error discards the row's writes via savepoint
// rollback in the caller.
func (s *importService) importRow(ctx context.Context, repos rowRepos, alloc *identifierAllocator, row parser.Row, role, dept string, scope models.CallerScope, stats *batchStats) (*rowResult, error) {
	fullName := strings.TrimSpace(row["firstname"] + " " + row["lastname"])

	password := row["password"]
	source := models.PasswordGenerated
	if password != "" {
		if !validation.IsPasswordValid(password) {
			return nil, errors.New("Password does not meet policy (min 8 chars, include letters and numbers)")
		}
		source = models.PasswordProvided
	} else {
		password = s.cfg.Import.DefaultPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &models.Account{
		PasswordHash: string(hash),
		Role:         role,
		FullName:     fullName,
		Email:        row["email"],
		Department:   dept,
		// All bulk-created accounts must change their password on first login
		MustChangePassword: true,
	}

	rr := &rowResult{}
	switch role {
	case models.RoleStudent:
		gender, err := validation.NormalizeGender(row["gender"])
		if err != nil {
			return nil, err
		}
		studentID, _, err := alloc.NextStudentID(ctx, gender)
		if err != nil {
			return nil, err
		}
		program := resolveProgram(dept)
		if program == "" {
			return nil, errors.New("Department not specified for student (set the batch department)")
		}

		// Username equals the student ID
		account.Username = studentID
		userID, err := repos.accounts.Create(ctx, account)
		if err != nil {
			return nil, err
		}
		profile := &models.StudentProfile{
			UserID:    userID,
			StudentID: studentID,
			YearLevel: row["yearlevel"],
			Program:   program,
		}
		if err := repos.students.Create(ctx, profile); err != nil {
			return nil, err
		}
		stats.recordStudent(gender, studentID)

	case models.RoleFaculty, models.RoleDean:
		var employeeID string
		var num int
		if provided := row["employeeid"]; provided != "" {
			employeeID, err = validation.NormalizeEmployeeID(provided, role)
			if err != nil {
				return nil, err
			}
			if err := alloc.VerifyEmployeeID(ctx, role, employeeID); err != nil {
				return nil, err
			}
			num, _ = extractNumericSuffix(employeeID, models.EmployeeIDPrefix(role))
		} else {
			employeeID, num, err = alloc.AllocateEmployeeID(ctx, role)
			if err != nil {
				return nil, err
			}
		}

		// Username equals the employee ID
		account.Username = employeeID
		userID, err := repos.accounts.Create(ctx, account)
		if err != nil {
			return nil, err
		}
		if err := repos.employees.Create(ctx, role, &models.EmployeeProfile{UserID: userID, EmployeeID: employeeID}); err != nil {
			return nil, err
		}
		stats.recordEmployee(num)
		rr.allocNum = num
	}

	rr.cred = models.Credential{
		Username:        account.Username,
		Role:            role,
		FullName:        fullName,
		Department:      dept,
		InitialPassword: password,
		Source:          source,
	}
	return rr, nil
}

// recordSequence advances the advisory tracker inside its own savepoint so a
// tracker failure never aborts the batch transaction.
func (s *importService) recordSequence(ctx context.Context, tx repository.Tx, sequences repository.SequenceRepository, role string, num, i int) {
	name := fmt.Sprintf("seq_%d", i)
	if err := tx.Savepoint(ctx, name); err != nil {
		s.log.Warn().Err(err).Msg("Failed to create sequence savepoint")
		return
	}
	if err := sequences.RecordAllocation(ctx, role, num); err != nil {
		s.log.Warn().Err(err).Str("role", role).Int("num", num).Msg("Failed to update id sequence tracker")
		tx.RollbackTo(ctx, name)
		return
	}
	tx.Release(ctx, name)
}

// resolveProgram maps a department to its auto-assigned student program,
// tolerating case variation the way the department values arrive from files.
func resolveProgram(dept string) string {
	if p, ok := models.DepartmentPrograms[dept]; ok {
		return p
	}
	if dept == "" {
		return ""
	}
	norm := strings.ToUpper(dept[:1]) + strings.ToLower(dept[1:])
	return models.DepartmentPrograms[norm]
}
