package mocks

import (
	"context"
	"sort"
	"strings"

	"github.com/roster-import-api/internal/models"
	"github.com/roster-import-api/internal/repository"
)

// MockAccountRepository is an in-memory implementation of AccountRepository
type MockAccountRepository struct {
	Accounts     map[string]*models.Account // keyed by username
	CreateErrors map[string]error           // per-username injected failures
	CreateError  error
	nextID       int64
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		Accounts:     make(map[string]*models.Account),
		CreateErrors: make(map[string]error),
	}
}

func (m *MockAccountRepository) WithTx(tx repository.Tx) repository.AccountRepository {
	return m
}

func (m *MockAccountRepository) Create(ctx context.Context, a *models.Account) (int64, error) {
	if m.CreateError != nil {
		return 0, m.CreateError
	}
	if err := m.CreateErrors[a.Username]; err != nil {
		return 0, err
	}
	m.nextID++
	a.ID = m.nextID
	copied := *a
	m.Accounts[a.Username] = &copied
	return a.ID, nil
}

func (m *MockAccountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	_, exists := m.Accounts[username]
	return exists, nil
}

func (m *MockAccountRepository) UsernamesByRolePrefix(ctx context.Context, role, prefix string) ([]string, error) {
	var usernames []string
	for username, a := range m.Accounts {
		if a.Role == role && strings.HasPrefix(username, prefix) {
			usernames = append(usernames, username)
		}
	}
	sort.Strings(usernames)
	return usernames, nil
}

func (m *MockAccountRepository) Count(ctx context.Context) (int, error) {
	return len(m.Accounts), nil
}

// MockStudentRepository is an in-memory implementation of StudentRepository
type MockStudentRepository struct {
	Profiles    map[string]*models.StudentProfile // keyed by student_id
	CreateError error
}

func NewMockStudentRepository() *MockStudentRepository {
	return &MockStudentRepository{Profiles: make(map[string]*models.StudentProfile)}
}

func (m *MockStudentRepository) WithTx(tx repository.Tx) repository.StudentRepository {
	return m
}

func (m *MockStudentRepository) Create(ctx context.Context, p *models.StudentProfile) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	copied := *p
	m.Profiles[p.StudentID] = &copied
	return nil
}

func (m *MockStudentRepository) StudentIDExists(ctx context.Context, studentID string) (bool, error) {
	_, exists := m.Profiles[studentID]
	return exists, nil
}

func (m *MockStudentRepository) MaxSequence(ctx context.Context, prefix string) (int, error) {
	max := 0
	for id := range m.Profiles {
		if !strings.HasPrefix(id, prefix+"-") {
			continue
		}
		n := 0
		for _, c := range id[len(prefix)+1:] {
			if c < '0' || c > '9' {
				n = 0
				break
			}
			n = n*10 + int(c-'0')
		}
		if n > max {
			max = n
		}
	}
	return max, nil
}

// MockEmployeeRepository is an in-memory implementation of EmployeeRepository
type MockEmployeeRepository struct {
	Profiles    map[string]map[string]*models.EmployeeProfile // role -> employee_id -> profile
	CreateError error
}

func NewMockEmployeeRepository() *MockEmployeeRepository {
	return &MockEmployeeRepository{
		Profiles: map[string]map[string]*models.EmployeeProfile{
			models.RoleFaculty: {},
			models.RoleDean:    {},
		},
	}
}

func (m *MockEmployeeRepository) WithTx(tx repository.Tx) repository.EmployeeRepository {
	return m
}

func (m *MockEmployeeRepository) Create(ctx context.Context, role string, p *models.EmployeeProfile) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	copied := *p
	m.Profiles[role][p.EmployeeID] = &copied
	return nil
}

func (m *MockEmployeeRepository) EmployeeIDExists(ctx context.Context, role, employeeID string) (bool, error) {
	_, exists := m.Profiles[role][employeeID]
	return exists, nil
}

func (m *MockEmployeeRepository) EmployeeIDs(ctx context.Context, role string) ([]string, error) {
	var ids []string
	for id := range m.Profiles[role] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// MockSequenceRepository records advisory allocation high-water marks
type MockSequenceRepository struct {
	LastNum     map[string]int
	RecordError error
}

func NewMockSequenceRepository() *MockSequenceRepository {
	return &MockSequenceRepository{LastNum: make(map[string]int)}
}

func (m *MockSequenceRepository) WithTx(tx repository.Tx) repository.SequenceRepository {
	return m
}

func (m *MockSequenceRepository) RecordAllocation(ctx context.Context, role string, num int) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	if num > m.LastNum[role] {
		m.LastNum[role] = num
	}
	return nil
}

// MockTx records savepoint traffic without touching a database
type MockTx struct {
	Savepoints  []string
	Rollbacks   []string
	Releases    []string
	Committed   bool
	RolledBack  bool
	CommitError error
}

func (t *MockTx) Savepoint(ctx context.Context, name string) error {
	t.Savepoints = append(t.Savepoints, name)
	return nil
}

func (t *MockTx) RollbackTo(ctx context.Context, name string) error {
	t.Rollbacks = append(t.Rollbacks, name)
	return nil
}

func (t *MockTx) Release(ctx context.Context, name string) error {
	t.Releases = append(t.Releases, name)
	return nil
}

func (t *MockTx) Commit() error {
	if t.CommitError != nil {
		return t.CommitError
	}
	t.Committed = true
	return nil
}

func (t *MockTx) Rollback() error {
	t.RolledBack = true
	return nil
}

// MockTxBeginner hands out MockTx transactions
type MockTxBeginner struct {
	BeginError  error
	CommitError error
	LastTx      *MockTx
}

func (b *MockTxBeginner) Begin(ctx context.Context) (repository.Tx, error) {
	if b.BeginError != nil {
		return nil, b.BeginError
	}
	b.LastTx = &MockTx{CommitError: b.CommitError}
	return b.LastTx, nil
}

// NewMockRepositories wires a full in-memory repository set
func NewMockRepositories() (*repository.Repositories, *MockAccountRepository, *MockStudentRepository, *MockEmployeeRepository, *MockSequenceRepository) {
	accounts := NewMockAccountRepository()
	students := NewMockStudentRepository()
	employees := NewMockEmployeeRepository()
	sequences := NewMockSequenceRepository()
	repos := &repository.Repositories{
		Account:  accounts,
		Student:  students,
		Employee: employees,
		Sequence: sequences,
		Tx:       &MockTxBeginner{},
	}
	return repos, accounts, students, employees, sequences
}
