package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/roster-import-api/internal/models"
)

// batchStats accumulates the numbers behind the human-readable summary
type batchStats struct {
	maleCount   int
	femaleCount int
	maleFirst   string
	maleLast    string
	femaleFirst string
	femaleLast  string

	employeeCount int
	employeeNums  []int
}

func (s *batchStats) recordStudent(gender, studentID string) {
	if strings.EqualFold(gender, "male") {
		s.maleCount++
		if s.maleFirst == "" {
			s.maleFirst = studentID
		}
		s.maleLast = studentID
	} else {
		s.femaleCount++
		if s.femaleFirst == "" {
			s.femaleFirst = studentID
		}
		s.femaleLast = studentID
	}
}

func (s *batchStats) recordEmployee(num int) {
	s.employeeCount++
	if num > 0 {
		s.employeeNums = append(s.employeeNums, num)
	}
}

// formatIDRanges compresses allocated numbers into readable ranges, e.g.
// "FAC-001–FAC-003, FAC-007".
func formatIDRanges(numbers []int, prefix string) string {
	if len(numbers) == 0 {
		return ""
	}
	nums := append([]int(nil), numbers...)
	sort.Ints(nums)

	var ranges []string
	start, prev := nums[0], nums[0]
	flush := func() {
		if start == prev {
			ranges = append(ranges, formatEmployeeID(prefix, start))
		} else {
			ranges = append(ranges, formatEmployeeID(prefix, start)+"–"+formatEmployeeID(prefix, prev))
		}
	}
	for _, n := range nums[1:] {
		if n == prev+1 {
			prev = n
			continue
		}
		flush()
		start, prev = n, n
	}
	flush()
	return strings.Join(ranges, ", ")
}

// buildSummary assembles the response summary string: counts, password
// sources, and role-specific identifier details.
func buildSummary(role string, result *models.ImportResult, stats *batchStats) string {
	summary := fmt.Sprintf("%d records uploaded successfully, %d errors found", result.Created, result.Skipped)
	if result.Created > 0 {
		summary += fmt.Sprintf(" — Passwords: %d provided, %d generated",
			result.ProvidedPasswords, result.GeneratedPasswords)
	}

	switch role {
	case models.RoleStudent:
		var details []string
		if stats.maleCount > 0 {
			details = append(details, fmt.Sprintf("%d Male: IDs %s to %s", stats.maleCount, stats.maleFirst, stats.maleLast))
		}
		if stats.femaleCount > 0 {
			details = append(details, fmt.Sprintf("%d Female: IDs %s to %s", stats.femaleCount, stats.femaleFirst, stats.femaleLast))
		}
		if len(details) > 0 {
			summary += " — " + strings.Join(details, ", ")
		}
	case models.RoleFaculty:
		if stats.employeeCount > 0 {
			summary += fmt.Sprintf(" — %d Faculty added (IDs %s)",
				stats.employeeCount, formatIDRanges(stats.employeeNums, models.FacultyIDPrefix))
		} else {
			summary += " — 0 Faculty added"
		}
	case models.RoleDean:
		if stats.employeeCount > 0 {
			summary += fmt.Sprintf(" — %d Deans added (IDs %s)",
				stats.employeeCount, formatIDRanges(stats.employeeNums, models.DeanIDPrefix))
		} else {
			summary += " — 0 Deans added"
		}
	}
	return summary
}
