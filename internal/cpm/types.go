package cpm

import (
	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/feature"
)

// Result holds the complete critical path analysis.
type Result struct {
	Features      []*ScheduledFeature // input order
	ByID          map[string]*ScheduledFeature
	CriticalPath  *CriticalPath // nil when there are no features
	ProjectStart  calendar.Date
	ProjectFinish calendar.Date
	TotalDuration int    // project length in days
	Waves         []Wave // parallelizable groups
	TopoOrder     []string
}

// ScheduledFeature is a feature with its computed schedule. DependsOn holds
// each dependency once, in input order.
// ES, EF, LS and LF are day offsets from the project start; the dates
// carry the same values on the calendar. Finish dates are exclusive.
type ScheduledFeature struct {
	ID       string         `json:"id" yaml:"id"`
	Title    string         `json:"title,omitempty" yaml:"title,omitempty"`
	Status   feature.Status `json:"status,omitempty" yaml:"status,omitempty"`
	Priority int            `json:"priority,omitempty" yaml:"priority,omitempty"`
	Labels   []string       `json:"labels,omitempty" yaml:"labels,omitempty"`

	EffortEstimateWeeks int            `json:"effortEstimateWeeks,omitempty" yaml:"effortEstimateWeeks,omitempty"`
	StartDate           *calendar.Date `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	EndDate             *calendar.Date `json:"endDate,omitempty" yaml:"endDate,omitempty"`
	DependsOn           []string       `json:"dependsOn,omitempty" yaml:"dependsOn,omitempty"`

	DurationDays     int           `json:"durationDays" yaml:"durationDays"`
	EarliestStart    calendar.Date `json:"earliestStart" yaml:"earliestStart"`
	EarliestFinish   calendar.Date `json:"earliestFinish" yaml:"earliestFinish"`
	LatestStart      calendar.Date `json:"latestStart" yaml:"latestStart"`
	LatestFinish     calendar.Date `json:"latestFinish" yaml:"latestFinish"`
	SlackDays        int           `json:"slackDays" yaml:"slackDays"`
	IsOnCriticalPath bool          `json:"isOnCriticalPath" yaml:"isOnCriticalPath"`

	ES, EF int `json:"-" yaml:"-"` // earliest start/finish
	LS, LF int `json:"-" yaml:"-"` // latest start/finish
	Wave   int `json:"-" yaml:"-"` // which parallel wave this belongs to
}

// CriticalPath is the single reported end-to-end zero-slack chain.
type CriticalPath struct {
	Path          []string      `json:"path" yaml:"path"`
	TotalDuration int           `json:"totalDuration" yaml:"totalDuration"`
	StartDate     calendar.Date `json:"startDate" yaml:"startDate"`
	EndDate       calendar.Date `json:"endDate" yaml:"endDate"`
}

// Contains reports whether id is on the path.
func (cp *CriticalPath) Contains(id string) bool {
	if cp == nil {
		return false
	}
	for _, p := range cp.Path {
		if p == id {
			return true
		}
	}
	return false
}

// Wave represents a group of features that can be worked in parallel.
type Wave struct {
	Index      int
	StartDay   int // earliest start offset shared by the wave
	FeatureIDs []string
	IsCritical bool // true if wave contains critical features
}
