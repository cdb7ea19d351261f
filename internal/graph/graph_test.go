package graph

import (
	"errors"
	"reflect"
	"testing"

	"github.com/joshharrison/roadloom/internal/feature"
)

func feat(id string, days int, deps ...string) feature.Feature {
	return feature.Feature{ID: id, Title: "Feature " + id, DurationDays: days, DependsOn: deps}
}

func TestBuild_SimpleDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	features := []feature.Feature{
		feat("a", 2),
		feat("b", 3, "a"),
		feat("c", 1, "a"),
		feat("d", 4, "b", "c"),
	}

	g, err := Build(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.FeatureCount() != 4 {
		t.Errorf("expected 4 features, got %d", g.FeatureCount())
	}

	// Check roots
	if len(g.Roots) != 1 || g.Roots[0] != "a" {
		t.Errorf("expected roots=[a], got %v", g.Roots)
	}

	// Check leaves
	if len(g.Leaves) != 1 || g.Leaves[0] != "d" {
		t.Errorf("expected leaves=[d], got %v", g.Leaves)
	}

	if adj := g.Adj["a"]; !reflect.DeepEqual(adj, []string{"b", "c"}) {
		t.Errorf("expected a to unblock [b c], got %v", adj)
	}
	if rev := g.RevAdj["d"]; !reflect.DeepEqual(rev, []string{"b", "c"}) {
		t.Errorf("expected d to depend on [b c], got %v", rev)
	}
	if g.Duration("b") != 3 {
		t.Errorf("expected b duration 3, got %d", g.Duration("b"))
	}
	if !reflect.DeepEqual(g.Topo, []string{"a", "b", "c", "d"}) {
		t.Errorf("expected topo [a b c d], got %v", g.Topo)
	}
}

func TestBuild_NeighboursFollowInputOrder(t *testing.T) {
	// z is listed before y, so it comes first everywhere.
	features := []feature.Feature{
		feat("root", 1),
		feat("z", 1, "root"),
		feat("y", 1, "root"),
		feat("end", 1, "y", "z"),
	}

	g, err := Build(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(g.Adj["root"], []string{"z", "y"}) {
		t.Errorf("expected adj [z y], got %v", g.Adj["root"])
	}
	if !reflect.DeepEqual(g.RevAdj["end"], []string{"z", "y"}) {
		t.Errorf("expected revadj [z y], got %v", g.RevAdj["end"])
	}
	if !reflect.DeepEqual(g.Topo, []string{"root", "z", "y", "end"}) {
		t.Errorf("expected topo [root z y end], got %v", g.Topo)
	}
}

func TestBuild_SingleFeature(t *testing.T) {
	g, err := Build([]feature.Feature{feat("x", 5)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g.FeatureCount() != 1 {
		t.Errorf("expected 1 feature, got %d", g.FeatureCount())
	}
	if len(g.Roots) != 1 || g.Roots[0] != "x" {
		t.Errorf("expected roots=[x], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "x" {
		t.Errorf("expected leaves=[x], got %v", g.Leaves)
	}
}

func TestBuild_CycleDetection(t *testing.T) {
	// A -> B -> C -> A (cycle)
	features := []feature.Feature{
		feat("a", 1, "c"),
		feat("b", 1, "a"),
		feat("c", 1, "b"),
	}

	_, err := Build(features)
	if err == nil {
		t.Fatal("expected cycle error, got nil")
	}
	if !errors.Is(err, ErrCircularDependency) {
		t.Fatalf("expected ErrCircularDependency, got %v", err)
	}

	var cerr *CircularDependencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CircularDependencyError, got %T", err)
	}
	if !reflect.DeepEqual(cerr.Cycle, []string{"a", "b", "c", "a"}) {
		t.Errorf("expected cycle [a b c a], got %v", cerr.Cycle)
	}
	if !reflect.DeepEqual(cerr.FeatureIDs(), []string{"a", "b", "c"}) {
		t.Errorf("expected ids [a b c], got %v", cerr.FeatureIDs())
	}
	if cerr.Error() != "circular dependency detected: a -> b -> c -> a" {
		t.Errorf("unexpected message: %s", cerr.Error())
	}
	t.Logf("cycle error (expected): %v", err)
}

func TestBuild_SelfDependency(t *testing.T) {
	_, err := Build([]feature.Feature{feat("a", 1, "a")})
	var cerr *CircularDependencyError
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *CircularDependencyError, got %v", err)
	}
	if !reflect.DeepEqual(cerr.Cycle, []string{"a", "a"}) {
		t.Errorf("expected cycle [a a], got %v", cerr.Cycle)
	}
}

func TestBuild_UnknownDependency(t *testing.T) {
	features := []feature.Feature{
		feat("a", 1),
		feat("b", 1, "a", "ghost"),
	}

	_, err := Build(features)
	if !errors.Is(err, ErrUnknownDependency) {
		t.Fatalf("expected ErrUnknownDependency, got %v", err)
	}
	ie, ok := AsInputError(err)
	if !ok {
		t.Fatalf("expected InputError, got %T", err)
	}
	if ie.Code() != CodeUnknownDependency {
		t.Errorf("expected code %s, got %s", CodeUnknownDependency, ie.Code())
	}
	if !reflect.DeepEqual(ie.FeatureIDs(), []string{"b"}) {
		t.Errorf("expected ids [b], got %v", ie.FeatureIDs())
	}
}

func TestBuild_InvalidInput(t *testing.T) {
	tests := []struct {
		name     string
		features []feature.Feature
		want     error
		code     string
	}{
		{
			name:     "zero duration",
			features: []feature.Feature{feat("a", 1), {ID: "b"}},
			want:     ErrInvalidDuration,
			code:     CodeInvalidDuration,
		},
		{
			name:     "negative duration",
			features: []feature.Feature{feat("a", -3)},
			want:     ErrInvalidDuration,
			code:     CodeInvalidDuration,
		},
		{
			name:     "negative weeks behind explicit days",
			features: []feature.Feature{{ID: "a", DurationDays: 5, EffortEstimateWeeks: -2}},
			want:     ErrInvalidDuration,
			code:     CodeInvalidDuration,
		},
		{
			name:     "negative days with weeks",
			features: []feature.Feature{{ID: "a", DurationDays: -1, EffortEstimateWeeks: 2}},
			want:     ErrInvalidDuration,
			code:     CodeInvalidDuration,
		},
		{
			name:     "duplicate id",
			features: []feature.Feature{feat("a", 1), feat("a", 2)},
			want:     ErrDuplicateFeature,
			code:     CodeDuplicateFeature,
		},
		{
			name:     "empty id",
			features: []feature.Feature{feat("a", 1), feat("", 2)},
			want:     ErrInvalidID,
			code:     CodeInvalidID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := Build(tt.features)
			if g != nil {
				t.Errorf("expected no graph, got %v", g)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			ie, ok := AsInputError(err)
			if !ok || ie.Code() != tt.code {
				t.Errorf("expected code %s, got %v", tt.code, err)
			}
		})
	}
}

func TestBuild_DuplicateEdgesCollapse(t *testing.T) {
	g, err := Build([]feature.Feature{feat("a", 1), feat("b", 1, "a", "a")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(g.Adj["a"]) != 1 || len(g.RevAdj["b"]) != 1 {
		t.Errorf("expected a single edge, got adj=%v rev=%v", g.Adj["a"], g.RevAdj["b"])
	}
}

func TestBuild_DoesNotModifyInput(t *testing.T) {
	features := []feature.Feature{feat("b", 1, "a"), feat("a", 1)}
	if _, err := Build(features); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if features[0].ID != "b" || !reflect.DeepEqual(features[0].DependsOn, []string{"a"}) {
		t.Errorf("input was modified: %+v", features)
	}
}

func TestDetectCycle_NoCycle(t *testing.T) {
	g := &FeatureGraph{
		Order: []string{"a", "b"},
		Adj: map[string][]string{
			"a": {"b"},
		},
		RevAdj: map[string][]string{
			"b": {"a"},
		},
	}

	cycle := g.DetectCycle()
	if cycle != nil {
		t.Errorf("expected no cycle, got %v", cycle)
	}
}

func TestDetectCycle_WithCycle(t *testing.T) {
	g := &FeatureGraph{
		Order: []string{"a", "b", "c"},
		Adj: map[string][]string{
			"a": {"b"},
			"b": {"c"},
			"c": {"a"},
		},
		RevAdj: map[string][]string{
			"a": {"c"},
			"b": {"a"},
			"c": {"b"},
		},
	}

	cycle := g.DetectCycle()
	if cycle == nil {
		t.Fatal("expected cycle, got nil")
	}
	if len(cycle) < 3 {
		t.Errorf("expected cycle of length >= 3, got %v", cycle)
	}
	if cycle[0] != cycle[len(cycle)-1] {
		t.Errorf("expected cycle to close on itself, got %v", cycle)
	}
	t.Logf("detected cycle: %v", cycle)
}

func TestTopoSort_ReportsCycle(t *testing.T) {
	g := &FeatureGraph{
		Order: []string{"a", "b"},
		Adj:   map[string][]string{"a": {"b"}, "b": {"a"}},
		RevAdj: map[string][]string{
			"a": {"b"},
			"b": {"a"},
		},
	}

	if _, err := g.TopoSort(); !errors.Is(err, ErrCircularDependency) {
		t.Errorf("expected ErrCircularDependency, got %v", err)
	}
}

func TestFilter(t *testing.T) {
	features := []feature.Feature{
		{ID: "a", DurationDays: 1, Priority: 0},
		{ID: "b", DurationDays: 1, Priority: 1, DependsOn: []string{"a"}},
		{ID: "c", DurationDays: 1, Priority: 2, DependsOn: []string{"b"}},
		{ID: "d", DurationDays: 1, Priority: 0, DependsOn: []string{"c"}},
	}

	g, err := Build(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	filtered, err := g.Filter(func(f *feature.Feature) bool {
		return f.Priority <= 1
	})
	if err != nil {
		t.Fatalf("unexpected filter error: %v", err)
	}

	if filtered.FeatureCount() != 3 {
		t.Errorf("expected 3 features after filter, got %d", filtered.FeatureCount())
	}
	if _, ok := filtered.Features["c"]; ok {
		t.Error("feature c (priority 2) should have been filtered out")
	}
	// d depended on c only, so it becomes a root.
	if !reflect.DeepEqual(filtered.Roots, []string{"a", "d"}) {
		t.Errorf("expected roots [a d], got %v", filtered.Roots)
	}
	if len(g.Features["d"].DependsOn) != 1 {
		t.Error("filter modified the source graph")
	}
}

func TestBuild_Empty(t *testing.T) {
	g, err := Build(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.FeatureCount() != 0 {
		t.Errorf("expected 0 features, got %d", g.FeatureCount())
	}
	if len(g.Topo) != 0 {
		t.Errorf("expected empty topo, got %v", g.Topo)
	}
}

func TestBuild_LinearChain(t *testing.T) {
	// A -> B -> C -> D -> E
	features := []feature.Feature{
		feat("e", 1, "d"),
		feat("d", 1, "c"),
		feat("c", 1, "b"),
		feat("b", 1, "a"),
		feat("a", 1),
	}

	g, err := Build(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(g.Roots) != 1 || g.Roots[0] != "a" {
		t.Errorf("expected roots=[a], got %v", g.Roots)
	}
	if len(g.Leaves) != 1 || g.Leaves[0] != "e" {
		t.Errorf("expected leaves=[e], got %v", g.Leaves)
	}
	if !reflect.DeepEqual(g.Topo, []string{"a", "b", "c", "d", "e"}) {
		t.Errorf("expected topo [a b c d e], got %v", g.Topo)
	}
}
