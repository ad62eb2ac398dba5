package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/roster-import-api/internal/models"
	"github.com/roster-import-api/internal/repository"
)

// identifierAllocator assigns human-readable sequential identifiers.
// Faculty/dean IDs are gap-filled: the smallest unused positive integer wins,
// reusing numbers freed by deletions. Student IDs are strictly max+1 within a
// gender-partitioned namespace and never reuse gaps.
type identifierAllocator struct {
	accounts  repository.AccountRepository
	students  repository.StudentRepository
	employees repository.EmployeeRepository
}

func newIdentifierAllocator(accounts repository.AccountRepository, students repository.StudentRepository, employees repository.EmployeeRepository) *identifierAllocator {
	return &identifierAllocator{accounts: accounts, students: students, employees: employees}
}

// extractNumericSuffix parses the numeric part of an identifier with the
// given prefix (case-insensitive, leading zeros tolerated). Returns false for
// identifiers that do not match the scheme.
func extractNumericSuffix(id, prefix string) (int, bool) {
	if len(id) <= len(prefix) || !strings.EqualFold(id[:len(prefix)], prefix) {
		return 0, false
	}
	rest := id[len(prefix):]
	for _, c := range rest {
		if c < '0' || c > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// formatEmployeeID composes an identifier like FAC-007
func formatEmployeeID(prefix string, num int) string {
	return fmt.Sprintf("%s%0*d", prefix, models.IDNumberPad, num)
}

// usedEmployeeNumbers collects every numeric suffix in use for a role from
// both the role-profile table and the accounts table. The union guards
// against the two tables drifting out of sync.
func (a *identifierAllocator) usedEmployeeNumbers(ctx context.Context, role string) ([]int, error) {
	prefix := models.EmployeeIDPrefix(role)
	seen := make(map[int]bool)

	ids, err := a.employees.EmployeeIDs(ctx, role)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if n, ok := extractNumericSuffix(id, prefix); ok {
			seen[n] = true
		}
	}

	usernames, err := a.accounts.UsernamesByRolePrefix(ctx, role, prefix)
	if err != nil {
		return nil, err
	}
	for _, u := range usernames {
		if n, ok := extractNumericSuffix(u, prefix); ok {
			seen[n] = true
		}
	}

	nums := make([]int, 0, len(seen))
	for n := range seen {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums, nil
}

// smallestUnused walks a sorted sequence for the first gap, defaulting to
// max+1 when there is none and 1 when the sequence is empty.
func smallestUnused(used []int) int {
	candidate := 1
	for _, n := range used {
		switch {
		case n == candidate:
			candidate++
		case n < candidate:
			// duplicates or sub-1 values, skip
		default:
			return candidate
		}
	}
	return candidate
}

// AllocateEmployeeID picks the next free identifier for faculty/dean. Because
// rows allocated earlier in the same batch are not yet committed, uniqueness
// is re-verified against both tables immediately before use, advancing to the
// next number on collision.
func (a *identifierAllocator) AllocateEmployeeID(ctx context.Context, role string) (string, int, error) {
	prefix := models.EmployeeIDPrefix(role)
	used, err := a.usedEmployeeNumbers(ctx, role)
	if err != nil {
		return "", 0, err
	}
	num := smallestUnused(used)
	id := formatEmployeeID(prefix, num)

	for {
		taken, err := a.employeeIDTaken(ctx, role, id)
		if err != nil {
			return "", 0, err
		}
		if !taken {
			return id, num, nil
		}
		num++
		id = formatEmployeeID(prefix, num)
	}
}

// VerifyEmployeeID checks a caller-supplied identifier against both tables
func (a *identifierAllocator) VerifyEmployeeID(ctx context.Context, role, id string) error {
	exists, err := a.accounts.UsernameExists(ctx, id)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("Duplicate EmployeeID/username")
	}
	exists, err = a.employees.EmployeeIDExists(ctx, role, id)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("Duplicate EmployeeID")
	}
	return nil
}

func (a *identifierAllocator) employeeIDTaken(ctx context.Context, role, id string) (bool, error) {
	exists, err := a.accounts.UsernameExists(ctx, id)
	if err != nil || exists {
		return exists, err
	}
	return a.employees.EmployeeIDExists(ctx, role, id)
}

// NextStudentID allocates the next identifier in the gender namespace:
// max existing suffix plus one, no gap-filling.
func (a *identifierAllocator) NextStudentID(ctx context.Context, gender string) (string, int, error) {
	prefix := models.FemaleStudentPrefix
	if strings.EqualFold(gender, "male") {
		prefix = models.MaleStudentPrefix
	}
	max, err := a.students.MaxSequence(ctx, prefix)
	if err != nil {
		return "", 0, err
	}
	num := max + 1
	id := fmt.Sprintf("%s-%0*d", prefix, models.IDNumberPad, num)

	exists, err := a.students.StudentIDExists(ctx, id)
	if err != nil {
		return "", 0, err
	}
	if exists {
		return "", 0, errors.New("Duplicate generated student_id")
	}
	exists, err = a.accounts.UsernameExists(ctx, id)
	if err != nil {
		return "", 0, err
	}
	if exists {
		return "", 0, errors.New("Duplicate username")
	}
	return id, num, nil
}
