package repository

import (
	"context"
	"fmt"

	"github.com/roster-import-api/internal/database"
	"github.com/roster-import-api/internal/models"
)

// employeeTables maps an employee role to its profile table. Table names are
// never built from request input directly.
var employeeTables = map[string]string{
	models.RoleFaculty: "faculty",
	models.RoleDean:    "deans",
}

// employeeRepo is the concrete implementation of EmployeeRepository. Faculty
// and dean profiles share a shape and differ only in their table.
type employeeRepo struct {
	run runner
}

// NewEmployeeRepo creates a new faculty/dean profile repository
func NewEmployeeRepo(db *database.DB) EmployeeRepository {
	return &employeeRepo{run: db}
}

// WithTx rebinds the repository to a batch transaction
func (r *employeeRepo) WithTx(tx Tx) EmployeeRepository {
	return &employeeRepo{run: runnerFromTx(tx, r.run)}
}

func employeeTable(role string) (string, error) {
	table, ok := employeeTables[role]
	if !ok {
		return "", fmt.Errorf("no employee profile table for role %q", role)
	}
	return table, nil
}

// Create inserts an employee profile for the given role
func (r *employeeRepo) Create(ctx context.Context, role string, p *models.EmployeeProfile) error {
	table, err := employeeTable(role)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (user_id, employee_id) VALUES ($1, $2)", table)
	_, err = r.run.ExecContext(ctx, query, p.UserID, p.EmployeeID)
	return err
}

// EmployeeIDExists checks if an employee identifier is already taken for a role
func (r *employeeRepo) EmployeeIDExists(ctx context.Context, role, employeeID string) (bool, error) {
	table, err := employeeTable(role)
	if err != nil {
		return false, err
	}
	var exists bool
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE employee_id = $1)", table)
	err = r.run.QueryRowContext(ctx, query, employeeID).Scan(&exists)
	return exists, err
}

// EmployeeIDs retrieves every employee identifier for a role
func (r *employeeRepo) EmployeeIDs(ctx context.Context, role string) ([]string, error) {
	table, err := employeeTable(role)
	if err != nil {
		return nil, err
	}
	rows, err := r.run.QueryContext(ctx, fmt.Sprintf("SELECT employee_id FROM %s", table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
