// Package lineage derives each feature's longest upstream dependency chain.
package lineage

import "github.com/joshharrison/roadloom/internal/graph"

// DependencyChain is one longest path of ancestors ending at FeatureID.
// Chain runs from a root down to FeatureID inclusive; Depth counts its edges.
type DependencyChain struct {
	FeatureID string   `json:"featureId" yaml:"featureId"`
	Chain     []string `json:"chain" yaml:"chain"`
	Depth     int      `json:"depth" yaml:"depth"`
}

// Chains returns one DependencyChain per feature, in input order.
//
// Depths are filled in topological order: a root has depth 0, anything else
// is one more than its deepest dependency. When dependencies tie, the one
// listed first in the input wins, and the chain follows those choices back
// to a root.
func Chains(g *graph.FeatureGraph) []DependencyChain {
	depth := make(map[string]int, len(g.Order))
	via := make(map[string]string, len(g.Order))

	for _, id := range g.Topo {
		best := ""
		for _, dep := range g.RevAdj[id] {
			// RevAdj is in input order, so strict > keeps the first of equals.
			if best == "" || depth[dep] > depth[best] {
				best = dep
			}
		}
		if best == "" {
			depth[id] = 0
			continue
		}
		depth[id] = depth[best] + 1
		via[id] = best
	}

	chains := make([]DependencyChain, 0, len(g.Order))
	for _, id := range g.Order {
		chain := make([]string, depth[id]+1)
		cur := id
		for i := depth[id]; i >= 0; i-- {
			chain[i] = cur
			cur = via[cur]
		}
		chains = append(chains, DependencyChain{
			FeatureID: id,
			Chain:     chain,
			Depth:     depth[id],
		})
	}
	return chains
}

// Deepest returns the chain with the greatest depth, preferring the earliest
// in input order on ties. It returns false for an empty slice.
func Deepest(chains []DependencyChain) (DependencyChain, bool) {
	if len(chains) == 0 {
		return DependencyChain{}, false
	}
	best := chains[0]
	for _, c := range chains[1:] {
		if c.Depth > best.Depth {
			best = c
		}
	}
	return best, true
}
