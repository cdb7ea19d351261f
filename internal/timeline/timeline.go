// Package timeline runs the scheduling pipeline: build and validate the
// dependency graph, derive dependency chains, run the critical path
// analysis, then report milestones and overlaps over the dated schedule.
//
// Schedule is a pure function of its input. It performs no I/O, keeps no
// state between calls and is safe to call from multiple goroutines.
package timeline

import (
	"errors"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/cpm"
	"github.com/joshharrison/roadloom/internal/feature"
	"github.com/joshharrison/roadloom/internal/graph"
	"github.com/joshharrison/roadloom/internal/lineage"
	"github.com/joshharrison/roadloom/internal/log"
	"github.com/joshharrison/roadloom/internal/milestone"
)

// ErrNoProjectStart is returned when Schedule is given a zero start date.
var ErrNoProjectStart = errors.New("project start date is required")

// Result is the full output of one scheduling run.
type Result struct {
	Features         []*cpm.ScheduledFeature   `json:"features" yaml:"features"`
	DependencyChains []lineage.DependencyChain `json:"dependencyChains" yaml:"dependencyChains"`
	CriticalPath     *cpm.CriticalPath         `json:"criticalPath" yaml:"criticalPath"`
	Milestones       []milestone.Milestone     `json:"milestones" yaml:"milestones"`
	Overlaps         []milestone.Overlap       `json:"overlaps" yaml:"overlaps"`

	// Analysis keeps offsets and waves for renderers.
	Analysis *cpm.Result `json:"-" yaml:"-"`
}

// Engine schedules feature sets. The zero value is not usable; use NewEngine.
type Engine struct {
	logger *log.Logger

	// Filter, when set, keeps only matching features. Dependencies on
	// features it drops are removed before scheduling.
	Filter func(*feature.Feature) bool
}

// NewEngine returns an Engine that logs to logger. A nil logger discards.
func NewEngine(logger *log.Logger) *Engine {
	if logger == nil {
		logger = log.Nop()
	}
	return &Engine{logger: logger}
}

// Schedule computes a timeline with a silent engine.
func Schedule(features []feature.Feature, projectStart calendar.Date) (*Result, error) {
	return NewEngine(nil).Schedule(features, projectStart)
}

// Schedule validates features and computes their timeline from
// projectStart. Any validation error aborts the run; no partial result is
// returned.
func (e *Engine) Schedule(features []feature.Feature, projectStart calendar.Date) (*Result, error) {
	if projectStart.IsZero() {
		return nil, ErrNoProjectStart
	}

	g, err := graph.Build(features)
	if err != nil {
		e.logger.WithError(err).Debug("feature graph rejected")
		return nil, err
	}
	if e.Filter != nil {
		if g, err = g.Filter(e.Filter); err != nil {
			return nil, err
		}
	}
	e.logger.Debug("feature graph built",
		"features", g.FeatureCount(),
		"roots", len(g.Roots),
		"leaves", len(g.Leaves),
	)

	return e.ScheduleGraph(g, projectStart)
}

// ScheduleGraph computes a timeline for an already validated graph.
func (e *Engine) ScheduleGraph(g *graph.FeatureGraph, projectStart calendar.Date) (*Result, error) {
	if projectStart.IsZero() {
		return nil, ErrNoProjectStart
	}

	chains := lineage.Chains(g)

	analysis, err := cpm.Analyze(g, projectStart)
	if err != nil {
		e.logger.WithError(err).Error("critical path analysis failed")
		return nil, err
	}

	result := &Result{
		Features:         analysis.Features,
		DependencyChains: chains,
		CriticalPath:     analysis.CriticalPath,
		Milestones:       milestone.Milestones(analysis.Features),
		Overlaps:         milestone.Overlaps(analysis.Features),
		Analysis:         analysis,
	}

	if cp := result.CriticalPath; cp != nil {
		e.logger.Debug("critical path selected",
			"path", cp.Path,
			"total_days", cp.TotalDuration,
			"finish", cp.EndDate.String(),
		)
	}
	e.logger.Debug("timeline computed",
		"milestones", len(result.Milestones),
		"overlaps", len(result.Overlaps),
		"waves", len(analysis.Waves),
	)
	return result, nil
}

// Feature returns the scheduled feature with the given id, or nil.
func (r *Result) Feature(id string) *cpm.ScheduledFeature {
	if r.Analysis != nil {
		return r.Analysis.ByID[id]
	}
	for _, sf := range r.Features {
		if sf.ID == id {
			return sf
		}
	}
	return nil
}

// Chain returns the dependency chain anchored at id.
func (r *Result) Chain(id string) (lineage.DependencyChain, bool) {
	for _, c := range r.DependencyChains {
		if c.FeatureID == id {
			return c, true
		}
	}
	return lineage.DependencyChain{}, false
}
