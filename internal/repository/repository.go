package repository

import (
	"context"
	"database/sql"

	"github.com/roster-import-api/internal/database"
	"github.com/roster-import-api/internal/models"
)

// runner abstracts the query surface shared by *database.DB and *sql.Tx so a
// repository can be rebound to a batch transaction.
type runner interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Tx is a batch transaction with savepoint support. Each imported row runs
// inside its own savepoint so a failed insert never poisons the batch.
type Tx interface {
	Savepoint(ctx context.Context, name string) error
	RollbackTo(ctx context.Context, name string) error
	Release(ctx context.Context, name string) error
	Commit() error
	Rollback() error
}

// TxBeginner starts batch transactions
type TxBeginner interface {
	Begin(ctx context.Context) (Tx, error)
}

// AccountRepository defines the interface for account (users table) operations
type AccountRepository interface {
	WithTx(tx Tx) AccountRepository
	Create(ctx context.Context, a *models.Account) (int64, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	UsernamesByRolePrefix(ctx context.Context, role, prefix string) ([]string, error)
	Count(ctx context.Context) (int, error)
}

// StudentRepository defines the interface for student profile operations
type StudentRepository interface {
	WithTx(tx Tx) StudentRepository
	Create(ctx context.Context, p *models.StudentProfile) error
	StudentIDExists(ctx context.Context, studentID string) (bool, error)
	// MaxSequence returns the highest numeric suffix in use within one
	// gender-partitioned namespace, 0 when the namespace is empty.
	MaxSequence(ctx context.Context, prefix string) (int, error)
}

// EmployeeRepository defines the interface for faculty/dean profile operations
type EmployeeRepository interface {
	WithTx(tx Tx) EmployeeRepository
	Create(ctx context.Context, role string, p *models.EmployeeProfile) error
	EmployeeIDExists(ctx context.Context, role, employeeID string) (bool, error)
	EmployeeIDs(ctx context.Context, role string) ([]string, error)
}

// SequenceRepository tracks the advisory allocation high-water mark
type SequenceRepository interface {
	WithTx(tx Tx) SequenceRepository
	RecordAllocation(ctx context.Context, role string, num int) error
}

// Repositories holds all repository interfaces plus the transaction starter
type Repositories struct {
	Account  AccountRepository
	Student  StudentRepository
	Employee EmployeeRepository
	Sequence SequenceRepository
	Tx       TxBeginner
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Account:  NewAccountRepo(db),
		Student:  NewStudentRepo(db),
		Employee: NewEmployeeRepo(db),
		Sequence: NewSequenceRepo(db),
		Tx:       &txManager{db: db},
	}
}

// txManager adapts database.DB to the TxBeginner interface
type txManager struct {
	db *database.DB
}

func (m *txManager) Begin(ctx context.Context) (Tx, error) {
	return m.db.Begin(ctx)
}

// runnerFromTx rebinds a repository to the transaction's connection. Mock
// transactions fall back to the repository's own runner.
func runnerFromTx(tx Tx, fallback runner) runner {
	if t, ok := tx.(*database.Tx); ok {
		return t.Tx
	}
	return fallback
}
