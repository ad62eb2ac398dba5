package models

import "time"

// Account roles supported by the roster importer.
const (
	RoleStudent = "student"
	RoleFaculty = "faculty"
	RoleDean    = "dean"
)

// ValidRoles contains the importable role values
var ValidRoles = map[string]bool{
	RoleStudent: true,
	RoleFaculty: true,
	RoleDean:    true,
}

// Account represents an identity record in the users table
type Account struct {
	ID                 int64     `json:"id"`
	Username           string    `json:"username"`
	PasswordHash       string    `json:"-"`
	Role               string    `json:"role"`
	FullName           string    `json:"full_name"`
	Email              string    `json:"email,omitempty"`
	Department         string    `json:"department"`
	MustChangePassword bool      `json:"must_change_password"`
	CreatedAt          time.Time `json:"created_at"`
}

// StudentProfile is the role-specific extension for students
type StudentProfile struct {
	UserID    int64  `json:"user_id"`
	StudentID string `json:"student_id"`
	YearLevel string `json:"year_level"`
	Program   string `json:"program"`
}

// EmployeeProfile is the role-specific extension for faculty and deans
type EmployeeProfile struct {
	UserID     int64  `json:"user_id"`
	EmployeeID string `json:"employee_id"`
}

// DepartmentPrograms maps a department to the program auto-assigned to its
// students. The program never comes from the uploaded file.
var DepartmentPrograms = map[string]string{
	"Education":  "EDUCATION",
	"Business":   "BUSINESS",
	"Technology": "TECHNOLOGY",
}
