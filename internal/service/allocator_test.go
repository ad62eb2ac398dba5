package service

import (
	"context"
	"testing"

	"github.com/roster-import-api/internal/mocks"
	"github.com/roster-import-api/internal/models"
)

func TestExtractNumericSuffix(t *testing.T) {
	tests := []struct {
		id     string
		prefix string
		want   int
		ok     bool
	}{
		{"FAC-001", "FAC-", 1, true},
		{"fac-042", "FAC-", 42, true},
		{"FAC-1234", "FAC-", 1234, true},
		{"DEAN-007", "DEAN-", 7, true},
		{"FAC-", "FAC-", 0, false},
		{"FAC-abc", "FAC-", 0, false},
		{"FAC-0", "FAC-", 0, false},
		{"DEAN-001", "FAC-", 0, false},
		{"001", "FAC-", 0, false},
	}
	for _, tt := range tests {
		got, ok := extractNumericSuffix(tt.id, tt.prefix)
		if got != tt.want || ok != tt.ok {
			t.Errorf("extractNumericSuffix(%q, %q) = (%d, %v), want (%d, %v)",
				tt.id, tt.prefix, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSmallestUnused(t *testing.T) {
	tests := []struct {
		name string
		used []int
		want int
	}{
		{"empty", nil, 1},
		{"no gap", []int{1, 2, 3}, 4},
		{"gap at three", []int{1, 2, 4}, 3},
		{"gap at one", []int{2, 3, 4}, 1},
		{"scattered", []int{1, 5, 9}, 2},
		{"duplicates tolerated", []int{1, 1, 2, 4}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := smallestUnused(tt.used); got != tt.want {
				t.Errorf("smallestUnused(%v) = %d, want %d", tt.used, got, tt.want)
			}
		})
	}
}

func seedEmployee(t *testing.T, accounts *mocks.MockAccountRepository, employees *mocks.MockEmployeeRepository, role, id string) {
	t.Helper()
	ctx := context.Background()
	if _, err := accounts.Create(ctx, &models.Account{Username: id, Role: role}); err != nil {
		t.Fatalf("seed account: %v", err)
	}
	if err := employees.Create(ctx, role, &models.EmployeeProfile{EmployeeID: id}); err != nil {
		t.Fatalf("seed profile: %v", err)
	}
}

func TestAllocateEmployeeIDGapFilling(t *testing.T) {
	ctx := context.Background()
	_, accounts, students, employees, _ := mocks.NewMockRepositories()
	alloc := newIdentifierAllocator(accounts, students, employees)

	// No identifiers yet: first allocation is FAC-001
	id, num, err := alloc.AllocateEmployeeID(ctx, models.RoleFaculty)
	if err != nil {
		t.Fatalf("AllocateEmployeeID: %v", err)
	}
	if id != "FAC-001" || num != 1 {
		t.Errorf("got (%s, %d), want (FAC-001, 1)", id, num)
	}

	// Gap at 3: FAC-001, FAC-002, FAC-004 exist
	seedEmployee(t, accounts, employees, models.RoleFaculty, "FAC-001")
	seedEmployee(t, accounts, employees, models.RoleFaculty, "FAC-002")
	seedEmployee(t, accounts, employees, models.RoleFaculty, "FAC-004")

	id, num, err = alloc.AllocateEmployeeID(ctx, models.RoleFaculty)
	if err != nil {
		t.Fatalf("AllocateEmployeeID: %v", err)
	}
	if id != "FAC-003" || num != 3 {
		t.Errorf("got (%s, %d), want (FAC-003, 3)", id, num)
	}

	// No gap left: next is max+1
	seedEmployee(t, accounts, employees, models.RoleFaculty, "FAC-003")
	id, num, err = alloc.AllocateEmployeeID(ctx, models.RoleFaculty)
	if err != nil {
		t.Fatalf("AllocateEmployeeID: %v", err)
	}
	if id != "FAC-005" || num != 5 {
		t.Errorf("got (%s, %d), want (FAC-005, 5)", id, num)
	}
}

func TestAllocateEmployeeIDUnionsBothTables(t *testing.T) {
	ctx := context.Background()
	_, accounts, students, employees, _ := mocks.NewMockRepositories()
	alloc := newIdentifierAllocator(accounts, students, employees)

	// FAC-001 only in accounts (profile row lost), FAC-002 only in profiles:
	// the union must treat both as used
	if _, err := accounts.Create(ctx, &models.Account{Username: "FAC-001", Role: models.RoleFaculty}); err != nil {
		t.Fatal(err)
	}
	if err := employees.Create(ctx, models.RoleFaculty, &models.EmployeeProfile{EmployeeID: "FAC-002"}); err != nil {
		t.Fatal(err)
	}

	id, _, err := alloc.AllocateEmployeeID(ctx, models.RoleFaculty)
	if err != nil {
		t.Fatalf("AllocateEmployeeID: %v", err)
	}
	if id != "FAC-003" {
		t.Errorf("got %s, want FAC-003", id)
	}
}

func TestAllocateEmployeeIDRoleScoped(t *testing.T) {
	ctx := context.Background()
	_, accounts, students, employees, _ := mocks.NewMockRepositories()
	alloc := newIdentifierAllocator(accounts, students, employees)

	seedEmployee(t, accounts, employees, models.RoleFaculty, "FAC-001")

	// Dean namespace is independent of faculty
	id, num, err := alloc.AllocateEmployeeID(ctx, models.RoleDean)
	if err != nil {
		t.Fatalf("AllocateEmployeeID: %v", err)
	}
	if id != "DEAN-001" || num != 1 {
		t.Errorf("got (%s, %d), want (DEAN-001, 1)", id, num)
	}
}

func TestVerifyEmployeeID(t *testing.T) {
	ctx := context.Background()
	_, accounts, students, employees, _ := mocks.NewMockRepositories()
	alloc := newIdentifierAllocator(accounts, students, employees)

	seedEmployee(t, accounts, employees, models.RoleFaculty, "FAC-001")

	if err := alloc.VerifyEmployeeID(ctx, models.RoleFaculty, "FAC-002"); err != nil {
		t.Errorf("VerifyEmployeeID(FAC-002) = %v, want nil", err)
	}
	if err := alloc.VerifyEmployeeID(ctx, models.RoleFaculty, "FAC-001"); err == nil {
		t.Error("VerifyEmployeeID(FAC-001) expected duplicate error")
	}
}

func TestNextStudentIDGenderNamespaces(t *testing.T) {
	ctx := context.Background()
	_, accounts, students, employees, _ := mocks.NewMockRepositories()
	alloc := newIdentifierAllocator(accounts, students, employees)

	// Empty namespaces start at 1
	id, num, err := alloc.NextStudentID(ctx, "male")
	if err != nil {
		t.Fatalf("NextStudentID: %v", err)
	}
	if id != "222-001" || num != 1 {
		t.Errorf("got (%s, %d), want (222-001, 1)", id, num)
	}

	// Allocation is max+1, never gap-filling: with 222-001 and 222-005
	// present, the next male ID is 222-006
	for _, sid := range []string{"222-001", "222-005"} {
		if err := students.Create(ctx, &models.StudentProfile{StudentID: sid}); err != nil {
			t.Fatal(err)
		}
	}
	id, _, err = alloc.NextStudentID(ctx, "Male")
	if err != nil {
		t.Fatalf("NextStudentID: %v", err)
	}
	if id != "222-006" {
		t.Errorf("got %s, want 222-006 (max+1, no gap reuse)", id)
	}

	// Female namespace is independent
	id, _, err = alloc.NextStudentID(ctx, "female")
	if err != nil {
		t.Fatalf("NextStudentID: %v", err)
	}
	if id != "221-001" {
		t.Errorf("got %s, want 221-001", id)
	}
}
