package repository

import (
	"context"

	"github.com/roster-import-api/internal/database"
	"github.com/roster-import-api/internal/models"
)

// studentRepo is the concrete implementation of StudentRepository
type studentRepo struct {
	run runner
}

// NewStudentRepo creates a new student profile repository
func NewStudentRepo(db *database.DB) StudentRepository {
	return &studentRepo{run: db}
}

// WithTx rebinds the repository to a batch transaction
func (r *studentRepo) WithTx(tx Tx) StudentRepository {
	return &studentRepo{run: runnerFromTx(tx, r.run)}
}

// Create inserts a student profile
func (r *studentRepo) Create(ctx context.Context, p *models.StudentProfile) error {
	query := `
		INSERT INTO students (user_id, student_id, year_level, program)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.run.ExecContext(ctx, query, p.UserID, p.StudentID, p.YearLevel, p.Program)
	return err
}

// StudentIDExists checks if a student identifier is already taken
func (r *studentRepo) StudentIDExists(ctx context.Context, studentID string) (bool, error) {
	var exists bool
	err := r.run.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM students WHERE student_id = $1)", studentID,
	).Scan(&exists)
	return exists, err
}

// MaxSequence returns the highest numeric suffix within one gender namespace.
// Student IDs look like 222-015; the suffix starts at character 5.
func (r *studentRepo) MaxSequence(ctx context.Context, prefix string) (int, error) {
	var max int
	err := r.run.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(CAST(SUBSTRING(student_id FROM 5) AS INTEGER)), 0)
		 FROM students WHERE student_id LIKE $1`,
		prefix+"-%",
	).Scan(&max)
	return max, err
}
