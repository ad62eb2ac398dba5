package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/roster-import-api/internal/database"
	"github.com/roster-import-api/internal/models"
)

// accountRepo is the concrete implementation of AccountRepository
type accountRepo struct {
	run runner
}

// NewAccountRepo creates a new account repository
func NewAccountRepo(db *database.DB) AccountRepository {
	return &accountRepo{run: db}
}

// WithTx rebinds the repository to a batch transaction
func (r *accountRepo) WithTx(tx Tx) AccountRepository {
	return &accountRepo{run: runnerFromTx(tx, r.run)}
}

// Create inserts a new account and returns its surrogate key
func (r *accountRepo) Create(ctx context.Context, a *models.Account) (int64, error) {
	query := `
		INSERT INTO users (username, password, role, full_name, email, department, must_change_password, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	email := sql.NullString{String: a.Email, Valid: a.Email != ""}
	var id int64
	err := r.run.QueryRowContext(ctx, query,
		a.Username, a.PasswordHash, a.Role, a.FullName, email,
		a.Department, a.MustChangePassword, time.Now(),
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// UsernameExists checks if an account with the given username exists
func (r *accountRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.run.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM users WHERE username = $1)", username,
	).Scan(&exists)
	return exists, err
}

// UsernamesByRolePrefix retrieves all usernames for a role matching an
// identifier prefix. The allocator unions these with the role-profile table
// to guard against the two tables drifting out of sync.
func (r *accountRepo) UsernamesByRolePrefix(ctx context.Context, role, prefix string) ([]string, error) {
	rows, err := r.run.QueryContext(ctx,
		"SELECT username FROM users WHERE role = $1 AND username LIKE $2",
		role, prefix+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usernames []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		usernames = append(usernames, u)
	}
	return usernames, rows.Err()
}

// Count returns the total number of accounts
func (r *accountRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.run.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}
