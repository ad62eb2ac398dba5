package service

import (
	"errors"
	"fmt"
	"strings"
)

// Batch-level failures. These abort the whole request before any writes;
// row-level failures are recorded as ImportErrors and never surface here.
var (
	// ErrInvalidRole is returned for roles outside student/faculty/dean
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyOrUnreadable is returned when no header row could be located
	ErrEmptyOrUnreadable = errors.New("file appears empty or unreadable")

	// ErrUnauthorizedScope is returned when a department-scoped admin
	// attempts a dean upload
	ErrUnauthorizedScope = errors.New("department admins cannot upload deans")
)

// MissingColumnsError reports required columns absent from the header row
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}
