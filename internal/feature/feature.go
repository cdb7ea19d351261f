package feature

import (
	"strings"

	"github.com/joshharrison/roadloom/internal/calendar"
)

// DaysPerWeek converts effort estimates in weeks to calendar days.
const DaysPerWeek = 7

// Status is informational only; scheduling never reads it.
type Status string

const (
	StatusPlanned    Status = "planned"
	StatusInProgress Status = "in_progress"
	StatusComplete   Status = "complete"
	StatusBlocked    Status = "blocked"
)

// NormalizeStatus maps the spellings roadmap exports use onto the known
// statuses. Unknown values are lower-cased and kept.
func NormalizeStatus(s string) Status {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	switch norm {
	case "", "todo", "backlog", "not_started", "open", "planned":
		return StatusPlanned
	case "in_progress", "started", "active", "doing":
		return StatusInProgress
	case "done", "completed", "complete", "closed", "shipped":
		return StatusComplete
	case "blocked", "on_hold":
		return StatusBlocked
	default:
		return Status(norm)
	}
}

// Feature is a single roadmap work item as handed to the scheduler.
type Feature struct {
	ID                  string         `json:"id" yaml:"id"`
	Title               string         `json:"title,omitempty" yaml:"title,omitempty"`
	Status              Status         `json:"status,omitempty" yaml:"status,omitempty"`
	Priority            int            `json:"priority,omitempty" yaml:"priority,omitempty"`
	Labels              []string       `json:"labels,omitempty" yaml:"labels,omitempty"`
	EffortEstimateWeeks int            `json:"effortEstimateWeeks,omitempty" yaml:"effortEstimateWeeks,omitempty"`
	DurationDays        int            `json:"durationDays,omitempty" yaml:"durationDays,omitempty"`
	StartDate           *calendar.Date `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate             *calendar.Date `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	DependsOn           []string       `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`
}

// Duration resolves the feature's size in whole days: a positive
// durationDays wins, then the span between startDate and endDate, then the
// effort estimate in weeks. The result may be zero or negative; callers
// validate it together with NegativeEstimate.
func (f Feature) Duration() int {
	switch {
	case f.DurationDays > 0:
		return f.DurationDays
	case f.StartDate != nil && f.EndDate != nil:
		return f.StartDate.DaysUntil(*f.EndDate)
	default:
		return f.EffortEstimateWeeks * DaysPerWeek
	}
}

// NegativeEstimate returns, in days, the first explicitly given size that
// is below zero, whether or not Duration would read it.
func (f Feature) NegativeEstimate() (int, bool) {
	if f.DurationDays < 0 {
		return f.DurationDays, true
	}
	if f.StartDate != nil && f.EndDate != nil {
		if days := f.StartDate.DaysUntil(*f.EndDate); days < 0 {
			return days, true
		}
	}
	if f.EffortEstimateWeeks < 0 {
		return f.EffortEstimateWeeks * DaysPerWeek, true
	}
	return 0, false
}

// HasLabel reports whether the feature carries the given label.
func (f Feature) HasLabel(label string) bool {
	for _, l := range f.Labels {
		if l == label {
			return true
		}
	}
	return false
}
