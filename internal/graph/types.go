package graph

import "github.com/joshharrison/roadloom/internal/feature"

// FeatureGraph is a validated directed acyclic graph of roadmap features.
// Neighbour lists are ordered by each feature's position in the input.
type FeatureGraph struct {
	Features  map[string]*feature.Feature
	Order     []string            // feature ids in input order
	Index     map[string]int      // feature id -> input position
	Durations map[string]int      // resolved duration in days, always > 0
	Adj       map[string][]string // feature -> features that depend on it
	RevAdj    map[string][]string // feature -> features it depends on
	Roots     []string            // features with no dependencies
	Leaves    []string            // features nothing depends on
	Topo      []string            // topological order (Kahn)
}
