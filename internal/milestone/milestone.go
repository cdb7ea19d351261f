// Package milestone reports completion-date clusters and overlapping work
// over a computed schedule.
package milestone

import (
	"fmt"
	"sort"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/cpm"
)

// Milestone is a day on which one or more features finish.
type Milestone struct {
	Date        calendar.Date `json:"date" yaml:"date"`
	Features    []string      `json:"features" yaml:"features"`
	Description string        `json:"description" yaml:"description"`
}

// Overlap is an unordered pair of features whose scheduled intervals
// intersect for OverlapDays days.
type Overlap struct {
	Feature1    string `json:"feature1" yaml:"feature1"`
	Feature2    string `json:"feature2" yaml:"feature2"`
	OverlapDays int    `json:"overlapDays" yaml:"overlapDays"`
}

// Milestones groups features by earliest finish date, one Milestone per
// distinct date in ascending order. Features keep their input order
// within a milestone.
func Milestones(scheduled []*cpm.ScheduledFeature) []Milestone {
	byDate := make(map[string]*Milestone)
	var dates []calendar.Date
	for _, sf := range scheduled {
		key := sf.EarliestFinish.String()
		m, ok := byDate[key]
		if !ok {
			m = &Milestone{Date: sf.EarliestFinish}
			byDate[key] = m
			dates = append(dates, sf.EarliestFinish)
		}
		m.Features = append(m.Features, sf.ID)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	milestones := make([]Milestone, 0, len(dates))
	for _, d := range dates {
		m := byDate[d.String()]
		m.Description = describe(len(m.Features))
		milestones = append(milestones, *m)
	}
	return milestones
}

func describe(n int) string {
	if n == 1 {
		return "1 feature completing"
	}
	return fmt.Sprintf("%d features completing", n)
}

// Overlaps scans every pair once and returns those whose
// [earliestStart, earliestFinish) intervals share at least one day.
// Pairs follow input order, with Feature1 the earlier of the two.
func Overlaps(scheduled []*cpm.ScheduledFeature) []Overlap {
	overlaps := []Overlap{}
	for i := 0; i < len(scheduled); i++ {
		a := scheduled[i]
		for j := i + 1; j < len(scheduled); j++ {
			b := scheduled[j]
			if days := overlapDays(a, b); days > 0 {
				overlaps = append(overlaps, Overlap{
					Feature1:    a.ID,
					Feature2:    b.ID,
					OverlapDays: days,
				})
			}
		}
	}
	return overlaps
}

func overlapDays(a, b *cpm.ScheduledFeature) int {
	start := a.EarliestStart
	if b.EarliestStart.After(start) {
		start = b.EarliestStart
	}
	finish := a.EarliestFinish
	if b.EarliestFinish.Before(finish) {
		finish = b.EarliestFinish
	}
	return start.DaysUntil(finish)
}
