package graph

// TopoSort orders features with Kahn's algorithm: repeatedly take a feature
// whose dependencies have all been emitted. Ready features are taken in
// input order, so the result is deterministic. A leftover feature means a
// cycle, reported as a CircularDependencyError.
func (g *FeatureGraph) TopoSort() ([]string, error) {
	inDegree := make(map[string]int, len(g.Order))
	for _, id := range g.Order {
		inDegree[id] = len(g.RevAdj[id])
	}

	var queue []string
	for _, id := range g.Order {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}

	order := make([]string, 0, len(g.Order))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		// Adj is already in input order.
		for _, succ := range g.Adj[node] {
			inDegree[succ]--
			if inDegree[succ] == 0 {
				queue = append(queue, succ)
			}
		}
	}

	if len(order) != len(g.Order) {
		var stuck []string
		for _, id := range g.Order {
			if inDegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		if cycle := g.DetectCycle(); cycle != nil {
			return nil, &CircularDependencyError{Cycle: cycle}
		}
		return nil, &CircularDependencyError{Cycle: stuck}
	}

	return order, nil
}
