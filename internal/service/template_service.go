package service

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/roster-import-api/internal/models"
	"github.com/rs/zerolog"
)

// TemplateService renders the downloadable roster CSV templates
type TemplateService interface {
	Render(role string, scope models.CallerScope) ([]byte, string, error)
}

// templateService is the concrete implementation of TemplateService
type templateService struct {
	log zerolog.Logger
}

func newTemplateService(log zerolog.Logger) *templateService {
	return &templateService{log: log.With().Str("service", "template").Logger()}
}

// Render produces the CSV template for a role: instructional comment lines,
// the header row, and one sample row. Department-scoped callers get templates
// without the Department/Course columns since those values are forced from
// their scope, and may not download dean templates at all.
func (s *templateService) Render(role string, scope models.CallerScope) ([]byte, string, error) {
	if !models.ValidRoles[role] {
		return nil, "", ErrInvalidRole
	}
	if role == models.RoleDean && !scope.IsSystemWide {
		return nil, "", ErrUnauthorizedScope
	}

	var header, sample []string
	switch role {
	case models.RoleStudent:
		if scope.IsSystemWide {
			header = []string{"FirstName", "LastName", "Gender", "Course", "YearLevel"}
			sample = []string{"Juan", "Dela Cruz", "Male", "BSIT", "1st Year"}
		} else {
			header = []string{"FirstName", "LastName", "Gender", "YearLevel"}
			sample = []string{"Juan", "Dela Cruz", "Male", "1st Year"}
		}
	case models.RoleFaculty, models.RoleDean:
		first, last := "Maria", "Santos"
		if role == models.RoleDean {
			first, last = "Jose", "Rizal"
		}
		if scope.IsSystemWide {
			header = []string{"FirstName", "LastName", "Department"}
			sample = []string{first, last, "Technology"}
		} else {
			header = []string{"FirstName", "LastName"}
			sample = []string{first, last}
		}
	}

	var buf bytes.Buffer
	// Comment lines are skipped by the importer while sniffing for the header
	fmt.Fprintf(&buf, "# %s roster template — one person per row\n", role)
	buf.WriteString("# Lines starting with '#' are ignored; keep the header row intact\n")
	buf.WriteString("# Optional columns: Password (min 8 chars with letters and numbers)")
	if role != models.RoleStudent {
		buf.WriteString(", EmployeeID (e.g. " + models.EmployeeIDPrefix(role) + "001)")
	}
	buf.WriteString("\n")

	w := csv.NewWriter(&buf)
	if err := w.Write(header); err != nil {
		return nil, "", err
	}
	if err := w.Write(sample); err != nil {
		return nil, "", err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), role + "_template.csv", nil
}
