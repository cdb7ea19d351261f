package graph

import (
	"sort"

	"github.com/joshharrison/roadloom/internal/feature"
)

// Build constructs and validates a FeatureGraph from a feature snapshot.
// It rejects empty or duplicate ids, non-positive durations, negative
// estimates even where a larger one takes precedence, self and
// unknown dependencies, and cycles; on any of these no graph is returned.
// The input slice is not modified.
func Build(features []feature.Feature) (*FeatureGraph, error) {
	g := &FeatureGraph{
		Features:  make(map[string]*feature.Feature, len(features)),
		Index:     make(map[string]int, len(features)),
		Durations: make(map[string]int, len(features)),
		Adj:       make(map[string][]string),
		RevAdj:    make(map[string][]string),
	}

	// Index all features
	for i := range features {
		f := features[i]
		if f.ID == "" {
			return nil, &InvalidIDError{Position: i}
		}
		if _, dup := g.Features[f.ID]; dup {
			return nil, &DuplicateFeatureError{FeatureID: f.ID}
		}
		g.Features[f.ID] = &f
		g.Index[f.ID] = len(g.Order)
		g.Order = append(g.Order, f.ID)
	}

	for _, id := range g.Order {
		f := g.Features[id]
		if days, bad := f.NegativeEstimate(); bad {
			return nil, &InvalidDurationError{FeatureID: id, Days: days}
		}
		days := f.Duration()
		if days <= 0 {
			return nil, &InvalidDurationError{FeatureID: id, Days: days}
		}
		g.Durations[id] = days
	}

	// dependsOn is a set: repeated entries collapse into one edge.
	edgeSet := make(map[[2]string]bool)
	addEdge := func(from, to string) {
		key := [2]string{from, to}
		if edgeSet[key] {
			return
		}
		edgeSet[key] = true
		g.Adj[from] = append(g.Adj[from], to)
		g.RevAdj[to] = append(g.RevAdj[to], from)
	}

	for _, id := range g.Order {
		for _, dep := range g.Features[id].DependsOn {
			if dep == id {
				return nil, &CircularDependencyError{Cycle: []string{id, id}}
			}
			if _, ok := g.Features[dep]; !ok {
				return nil, &UnknownDependencyError{FeatureID: id, DependsOn: dep}
			}
			addEdge(dep, id)
		}
	}

	for k := range g.Adj {
		g.sortByInput(g.Adj[k])
	}
	for k := range g.RevAdj {
		g.sortByInput(g.RevAdj[k])
	}

	for _, id := range g.Order {
		if len(g.RevAdj[id]) == 0 {
			g.Roots = append(g.Roots, id)
		}
		if len(g.Adj[id]) == 0 {
			g.Leaves = append(g.Leaves, id)
		}
	}

	if cycle := g.DetectCycle(); cycle != nil {
		return nil, &CircularDependencyError{Cycle: cycle}
	}

	topo, err := g.TopoSort()
	if err != nil {
		return nil, err
	}
	g.Topo = topo

	return g, nil
}

func (g *FeatureGraph) sortByInput(ids []string) {
	sort.SliceStable(ids, func(i, j int) bool {
		return g.Index[ids[i]] < g.Index[ids[j]]
	})
}

// DetectCycle returns the cycle path if one exists, or nil if the graph is acyclic.
// Uses DFS with coloring: white (unvisited), gray (in progress), black (done).
// The returned path starts and ends with the same id.
func (g *FeatureGraph) DetectCycle() []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)

	color := make(map[string]int)
	parent := make(map[string]string)

	var dfs func(node string) []string
	dfs = func(node string) []string {
		color[node] = gray
		for _, next := range g.Adj[node] {
			if color[next] == gray {
				// Found a cycle, reconstruct it
				cycle := []string{next, node}
				cur := node
				for cur != next {
					cur = parent[cur]
					cycle = append(cycle, cur)
				}
				// Reverse to get forward order
				for i, j := 0, len(cycle)-1; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return cycle
			}
			if color[next] == white {
				parent[next] = node
				if cycle := dfs(next); cycle != nil {
					return cycle
				}
			}
		}
		color[node] = black
		return nil
	}

	for _, id := range g.Order {
		if color[id] == white {
			if cycle := dfs(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// FeatureCount returns the number of features in the graph.
func (g *FeatureGraph) FeatureCount() int {
	return len(g.Features)
}

// Duration returns the resolved duration of id in days.
func (g *FeatureGraph) Duration(id string) int {
	return g.Durations[id]
}

// Filter returns a new FeatureGraph containing only features matching the
// predicate. Dependencies on filtered-out features are dropped.
func (g *FeatureGraph) Filter(pred func(*feature.Feature) bool) (*FeatureGraph, error) {
	keep := make(map[string]bool)
	for _, id := range g.Order {
		if pred(g.Features[id]) {
			keep[id] = true
		}
	}

	filtered := make([]feature.Feature, 0, len(keep))
	for _, id := range g.Order {
		if !keep[id] {
			continue
		}
		f := *g.Features[id]
		var deps []string
		for _, dep := range f.DependsOn {
			if keep[dep] {
				deps = append(deps, dep)
			}
		}
		f.DependsOn = deps
		filtered = append(filtered, f)
	}
	return Build(filtered)
}
