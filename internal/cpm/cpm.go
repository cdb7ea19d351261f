package cpm

import (
	"errors"
	"fmt"
	"sort"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/graph"
)

// ErrNegativeSlack means the backward pass produced latestStart before
// earliestStart. That cannot happen on a valid DAG and indicates a defect.
var ErrNegativeSlack = errors.New("negative slack")

// Analyze performs critical path method analysis on a feature graph,
// anchoring day offsets at projectStart. Durations are raw calendar days.
// An empty graph yields an empty schedule with a nil CriticalPath.
func Analyze(g *graph.FeatureGraph, projectStart calendar.Date) (*Result, error) {
	order := g.Topo

	result := &Result{
		Features:      make([]*ScheduledFeature, 0, len(g.Order)),
		ByID:          make(map[string]*ScheduledFeature, len(g.Order)),
		ProjectStart:  projectStart,
		ProjectFinish: projectStart,
		TopoOrder:     order,
	}

	// Initialize schedules in input order
	for _, id := range g.Order {
		f := g.Features[id]
		// Dependencies come from the graph so repeats are already collapsed;
		// nothing in the result aliases the caller's slices.
		sf := &ScheduledFeature{
			ID:                  f.ID,
			Title:               f.Title,
			Status:              f.Status,
			Priority:            f.Priority,
			Labels:              append([]string(nil), f.Labels...),
			EffortEstimateWeeks: f.EffortEstimateWeeks,
			StartDate:           copyDate(f.StartDate),
			EndDate:             copyDate(f.EndDate),
			DependsOn:           append([]string(nil), g.RevAdj[id]...),
			DurationDays:        g.Duration(id),
		}
		result.Features = append(result.Features, sf)
		result.ByID[id] = sf
	}

	if len(order) == 0 {
		return result, nil
	}

	// Forward pass: compute ES and EF
	for _, id := range order {
		sf := result.ByID[id]
		// ES = max(EF of all dependencies)
		es := 0
		for _, dep := range g.RevAdj[id] {
			if ef := result.ByID[dep].EF; ef > es {
				es = ef
			}
		}
		sf.ES = es
		sf.EF = es + sf.DurationDays
	}

	// Total project duration
	totalDuration := 0
	for _, sf := range result.Features {
		if sf.EF > totalDuration {
			totalDuration = sf.EF
		}
	}
	result.TotalDuration = totalDuration
	result.ProjectFinish = projectStart.AddDays(totalDuration)

	// Backward pass in reverse topological order: features nothing depends
	// on must finish by the project finish, others before their earliest
	// dependent may start.
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		sf := result.ByID[id]

		lf := totalDuration
		for _, succ := range g.Adj[id] {
			if ls := result.ByID[succ].LS; ls < lf {
				lf = ls
			}
		}
		sf.LF = lf
		sf.LS = lf - sf.DurationDays

		sf.SlackDays = sf.LS - sf.ES
		if sf.SlackDays < 0 {
			return nil, fmt.Errorf("feature %q: slack %d days: %w", id, sf.SlackDays, ErrNegativeSlack)
		}
		sf.IsOnCriticalPath = sf.SlackDays == 0
	}

	for _, sf := range result.Features {
		sf.EarliestStart = projectStart.AddDays(sf.ES)
		sf.EarliestFinish = projectStart.AddDays(sf.EF)
		sf.LatestStart = projectStart.AddDays(sf.LS)
		sf.LatestFinish = projectStart.AddDays(sf.LF)
	}

	result.CriticalPath = criticalPath(g, result)

	// Compute waves: group features by earliest start time
	result.Waves = computeWaves(result, g)

	return result, nil
}

// criticalPath picks one longest chain of zero-slack features joined by
// dependency edges, running from a feature without dependencies to one
// without dependents. Among equally long candidates it prefers, at every
// step, the feature with the earliest start and then the smallest id.
func criticalPath(g *graph.FeatureGraph, result *Result) *CriticalPath {
	zero := func(id string) bool { return result.ByID[id].SlackDays == 0 }

	// tail[id] is the longest duration of a zero-slack chain from id to a
	// terminal feature, or absent when no such chain exists.
	tail := make(map[string]int)
	order := result.TopoOrder
	for i := len(order) - 1; i >= 0; i-- {
		id := order[i]
		if !zero(id) {
			continue
		}
		dur := result.ByID[id].DurationDays
		if len(g.Adj[id]) == 0 {
			tail[id] = dur
			continue
		}
		best := -1
		for _, succ := range g.Adj[id] {
			if t, ok := tail[succ]; ok && t > best {
				best = t
			}
		}
		if best >= 0 {
			tail[id] = dur + best
		}
	}

	pick := func(candidates []string, want int) string {
		chosen := ""
		for _, id := range candidates {
			t, ok := tail[id]
			if !ok || t != want {
				continue
			}
			if chosen == "" || before(result.ByID[id], result.ByID[chosen]) {
				chosen = id
			}
		}
		return chosen
	}

	longest := -1
	for _, id := range g.Roots {
		if t, ok := tail[id]; ok && t > longest {
			longest = t
		}
	}
	if longest < 0 {
		return nil
	}

	cur := pick(g.Roots, longest)
	remaining := longest
	var path []string
	for cur != "" {
		path = append(path, cur)
		remaining -= result.ByID[cur].DurationDays
		if remaining == 0 {
			break
		}
		cur = pick(g.Adj[cur], remaining)
	}

	first, last := result.ByID[path[0]], result.ByID[path[len(path)-1]]
	return &CriticalPath{
		Path:          path,
		TotalDuration: longest,
		StartDate:     first.EarliestStart,
		EndDate:       last.EarliestFinish,
	}
}

func copyDate(d *calendar.Date) *calendar.Date {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

func before(a, b *ScheduledFeature) bool {
	if a.ES != b.ES {
		return a.ES < b.ES
	}
	return a.ID < b.ID
}

// computeWaves groups features by their earliest start time.
func computeWaves(result *Result, g *graph.FeatureGraph) []Wave {
	// Group features by ES, keeping input order within a group
	esGroups := make(map[int][]string)
	for _, id := range g.Order {
		es := result.ByID[id].ES
		esGroups[es] = append(esGroups[es], id)
	}

	// Sort ES values
	esValues := make([]int, 0, len(esGroups))
	for es := range esGroups {
		esValues = append(esValues, es)
	}
	sort.Ints(esValues)

	waves := make([]Wave, len(esValues))
	for i, es := range esValues {
		ids := esGroups[es]

		hasCritical := false
		for _, id := range ids {
			result.ByID[id].Wave = i
			if result.ByID[id].IsOnCriticalPath {
				hasCritical = true
			}
		}

		// Sort critical features first within wave
		sort.SliceStable(ids, func(a, b int) bool {
			aCrit := result.ByID[ids[a]].IsOnCriticalPath
			bCrit := result.ByID[ids[b]].IsOnCriticalPath
			return aCrit && !bCrit
		})

		waves[i] = Wave{
			Index:      i,
			StartDay:   es,
			FeatureIDs: ids,
			IsCritical: hasCritical,
		}
	}

	return waves
}
