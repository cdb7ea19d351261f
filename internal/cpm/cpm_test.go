package cpm

import (
	"errors"
	"reflect"
	"testing"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/feature"
	"github.com/joshharrison/roadloom/internal/graph"
)

var jan1 = calendar.New(2024, 1, 1)

func buildTestGraph(t *testing.T, features ...feature.Feature) *graph.FeatureGraph {
	t.Helper()
	g, err := graph.Build(features)
	if err != nil {
		t.Fatalf("build graph: %v", err)
	}
	return g
}

func feat(id string, days int, deps ...string) feature.Feature {
	return feature.Feature{ID: id, Title: id, DurationDays: days, DependsOn: deps}
}

func analyze(t *testing.T, features ...feature.Feature) *Result {
	t.Helper()
	result, err := Analyze(buildTestGraph(t, features...), jan1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestAnalyze_SingleFeatureBaseline(t *testing.T) {
	result := analyze(t, feat("solo", 5))

	sf := result.ByID["solo"]
	if got := sf.EarliestStart.String(); got != "2024-01-01" {
		t.Errorf("expected earliestStart 2024-01-01, got %s", got)
	}
	if got := sf.EarliestFinish.String(); got != "2024-01-06" {
		t.Errorf("expected earliestFinish 2024-01-06, got %s", got)
	}
	assertSchedule(t, sf, 0, 5, 0, 5, 0, true)

	if result.CriticalPath == nil || !reflect.DeepEqual(result.CriticalPath.Path, []string{"solo"}) {
		t.Fatalf("expected critical path [solo], got %+v", result.CriticalPath)
	}
	if result.CriticalPath.TotalDuration != 5 {
		t.Errorf("expected total duration 5, got %d", result.CriticalPath.TotalDuration)
	}
	if result.ProjectFinish.String() != "2024-01-06" {
		t.Errorf("expected project finish 2024-01-06, got %s", result.ProjectFinish)
	}
}

func TestAnalyze_LinearChain(t *testing.T) {
	// A -> B -> C (each duration 2)
	result := analyze(t, feat("A", 2), feat("B", 2, "A"), feat("C", 2, "B"))

	if result.TotalDuration != 6 {
		t.Errorf("expected total duration 6, got %d", result.TotalDuration)
	}

	cp := result.CriticalPath
	if cp == nil {
		t.Fatal("expected a critical path")
	}
	if !reflect.DeepEqual(cp.Path, []string{"A", "B", "C"}) {
		t.Errorf("expected critical path [A B C], got %v", cp.Path)
	}
	if cp.TotalDuration != 6 {
		t.Errorf("expected critical path duration 6, got %d", cp.TotalDuration)
	}
	if cp.StartDate.String() != "2024-01-01" || cp.EndDate.String() != "2024-01-07" {
		t.Errorf("expected 2024-01-01..2024-01-07, got %s..%s", cp.StartDate, cp.EndDate)
	}

	// Should be 3 waves (no parallelism in a chain)
	if len(result.Waves) != 3 {
		t.Errorf("expected 3 waves, got %d", len(result.Waves))
	}

	assertSchedule(t, result.ByID["A"], 0, 2, 0, 2, 0, true)
	assertSchedule(t, result.ByID["B"], 2, 4, 2, 4, 0, true)
	assertSchedule(t, result.ByID["C"], 4, 6, 4, 6, 0, true)
}

func TestAnalyze_Slack(t *testing.T) {
	// A(5) \
	//       -> C(3)
	// B(2) /
	result := analyze(t, feat("A", 5), feat("B", 2), feat("C", 3, "A", "B"))

	assertSchedule(t, result.ByID["A"], 0, 5, 0, 5, 0, true)
	assertSchedule(t, result.ByID["B"], 0, 2, 3, 5, 3, false)
	assertSchedule(t, result.ByID["C"], 5, 8, 5, 8, 0, true)

	if got := result.ByID["B"].LatestStart.String(); got != "2024-01-04" {
		t.Errorf("expected B latestStart 2024-01-04, got %s", got)
	}
	if !reflect.DeepEqual(result.CriticalPath.Path, []string{"A", "C"}) {
		t.Errorf("expected critical path [A C], got %v", result.CriticalPath.Path)
	}
}

func TestAnalyze_DiamondDAG(t *testing.T) {
	// A -> B -> D
	// A -> C -> D
	result := analyze(t, feat("a", 1), feat("b", 1, "a"), feat("c", 1, "a"), feat("d", 1, "b", "c"))

	// Total duration: A(1) + max(B(1), C(1)) + D(1) = 3
	if result.TotalDuration != 3 {
		t.Errorf("expected total duration 3, got %d", result.TotalDuration)
	}

	// 3 waves: [A], [B,C], [D]
	if len(result.Waves) != 3 {
		t.Fatalf("expected 3 waves, got %d", len(result.Waves))
	}
	if wave1 := result.Waves[1]; !reflect.DeepEqual(wave1.FeatureIDs, []string{"b", "c"}) {
		t.Errorf("expected wave 1 [b c], got %v", wave1.FeatureIDs)
	}

	// Every feature is critical, but only one path is reported.
	for _, id := range []string{"a", "b", "c", "d"} {
		if !result.ByID[id].IsOnCriticalPath {
			t.Errorf("expected feature %s to be critical", id)
		}
	}
	if !reflect.DeepEqual(result.CriticalPath.Path, []string{"a", "b", "d"}) {
		t.Errorf("expected critical path [a b d], got %v", result.CriticalPath.Path)
	}
}

func TestAnalyze_WithEstimates(t *testing.T) {
	// A(5) -> B(1) -> D(1)
	// A(5) -> C(10) -> D(1)
	// Critical path should be A -> C -> D (total 16)
	result := analyze(t,
		feat("a", 5),
		feat("b", 1, "a"),
		feat("c", 10, "a"),
		feat("d", 1, "b", "c"),
	)

	// Total duration: 5 + 10 + 1 = 16
	if result.TotalDuration != 16 {
		t.Errorf("expected total duration 16, got %d", result.TotalDuration)
	}

	// B should have slack (not critical)
	if result.ByID["b"].IsOnCriticalPath {
		t.Error("expected feature B to NOT be critical")
	}
	if result.ByID["b"].SlackDays != 9 {
		t.Errorf("expected B slack=9, got %d", result.ByID["b"].SlackDays)
	}
	if !reflect.DeepEqual(result.CriticalPath.Path, []string{"a", "c", "d"}) {
		t.Errorf("expected critical path [a c d], got %v", result.CriticalPath.Path)
	}
}

func TestAnalyze_WeeksResolvedToDays(t *testing.T) {
	result := analyze(t,
		feature.Feature{ID: "design", EffortEstimateWeeks: 2},
		feature.Feature{ID: "build", EffortEstimateWeeks: 1, DependsOn: []string{"design"}},
	)

	assertSchedule(t, result.ByID["build"], 14, 21, 14, 21, 0, true)
	if got := result.ProjectFinish.String(); got != "2024-01-22" {
		t.Errorf("expected finish 2024-01-22, got %s", got)
	}
}

func TestAnalyze_ParallelIndependent(t *testing.T) {
	// Three independent features
	result := analyze(t, feat("c", 1), feat("b", 1), feat("a", 1))

	// All should be in wave 0
	if len(result.Waves) != 1 {
		t.Fatalf("expected 1 wave, got %d", len(result.Waves))
	}
	if len(result.Waves[0].FeatureIDs) != 3 {
		t.Errorf("expected 3 features in wave 0, got %d", len(result.Waves[0].FeatureIDs))
	}

	// Total duration = 1 (all parallel)
	if result.TotalDuration != 1 {
		t.Errorf("expected total duration 1, got %d", result.TotalDuration)
	}
	// Equal candidates fall back to the smallest id.
	if !reflect.DeepEqual(result.CriticalPath.Path, []string{"a"}) {
		t.Errorf("expected critical path [a], got %v", result.CriticalPath.Path)
	}
}

func TestAnalyze_CriticalPathTieBreak(t *testing.T) {
	//      -> y(2) -
	// r(1)          -> end(1)
	//      -> x(2) -
	// y is listed first but x wins on id.
	features := []feature.Feature{
		feat("r", 1),
		feat("y", 2, "r"),
		feat("x", 2, "r"),
		feat("end", 1, "y", "x"),
	}

	first := analyze(t, features...)
	if !reflect.DeepEqual(first.CriticalPath.Path, []string{"r", "x", "end"}) {
		t.Errorf("expected critical path [r x end], got %v", first.CriticalPath.Path)
	}

	for i := 0; i < 5; i++ {
		again := analyze(t, features...)
		if !reflect.DeepEqual(again.CriticalPath, first.CriticalPath) {
			t.Fatalf("run %d: critical path changed: %v vs %v", i, again.CriticalPath, first.CriticalPath)
		}
	}
}

func TestAnalyze_CriticalPathSkipsShortBranch(t *testing.T) {
	// a(2) -> c(1)
	// a(2) -> d(5)
	// b(3) -> c(1)
	// c finishes on day 4, d on day 7, so the path runs through d.
	result := analyze(t,
		feat("a", 2),
		feat("b", 3),
		feat("c", 1, "a", "b"),
		feat("d", 5, "a"),
	)

	if !reflect.DeepEqual(result.CriticalPath.Path, []string{"a", "d"}) {
		t.Errorf("expected critical path [a d], got %v", result.CriticalPath.Path)
	}
	if result.CriticalPath.TotalDuration != 7 {
		t.Errorf("expected total 7, got %d", result.CriticalPath.TotalDuration)
	}
	if result.ByID["b"].SlackDays != 3 {
		t.Errorf("expected b slack 3, got %d", result.ByID["b"].SlackDays)
	}
}

func TestAnalyze_FeaturesKeepInputOrder(t *testing.T) {
	result := analyze(t, feat("z", 1, "y"), feat("y", 1), feat("x", 2))

	var ids []string
	for _, sf := range result.Features {
		ids = append(ids, sf.ID)
	}
	if !reflect.DeepEqual(ids, []string{"z", "y", "x"}) {
		t.Errorf("expected [z y x], got %v", ids)
	}
	if !reflect.DeepEqual(result.TopoOrder, []string{"y", "x", "z"}) {
		t.Errorf("expected topo [y x z], got %v", result.TopoOrder)
	}
}

func TestAnalyze_Empty(t *testing.T) {
	result := analyze(t)

	if result.CriticalPath != nil {
		t.Errorf("expected nil critical path, got %+v", result.CriticalPath)
	}
	if len(result.Features) != 0 {
		t.Errorf("expected no features, got %d", len(result.Features))
	}
	if result.TotalDuration != 0 {
		t.Errorf("expected zero duration, got %d", result.TotalDuration)
	}
}

func TestAnalyze_NegativeSlackFailsLoudly(t *testing.T) {
	// A graph whose topological order is wrong can only come from a
	// defect upstream; Analyze must refuse it rather than clamp.
	a := feat("a", 3)
	b := feat("b", 2, "a")
	g := &graph.FeatureGraph{
		Features:  map[string]*feature.Feature{"a": &a, "b": &b},
		Order:     []string{"a", "b"},
		Index:     map[string]int{"a": 0, "b": 1},
		Durations: map[string]int{"a": 3, "b": 2},
		Adj:       map[string][]string{"a": {"b"}},
		RevAdj:    map[string][]string{"b": {"a"}},
		Roots:     []string{"a"},
		Leaves:    []string{"b"},
		Topo:      []string{"b", "a"},
	}

	_, err := Analyze(g, jan1)
	if !errors.Is(err, ErrNegativeSlack) {
		t.Fatalf("expected ErrNegativeSlack, got %v", err)
	}
}

func TestAnalyze_WideDAG(t *testing.T) {
	//     A
	//   / | \
	//  B  C  D
	//   \ | /
	//     E
	result := analyze(t,
		feat("a", 1),
		feat("b", 1, "a"),
		feat("c", 2, "a"),
		feat("d", 1, "a"),
		feat("e", 1, "b", "c", "d"),
	)

	// 3 waves: [A], [B,C,D], [E]
	if len(result.Waves) != 3 {
		t.Fatalf("expected 3 waves, got %d", len(result.Waves))
	}

	// Critical features lead their wave
	if got := result.Waves[1].FeatureIDs; !reflect.DeepEqual(got, []string{"c", "b", "d"}) {
		t.Errorf("expected wave 1 [c b d], got %v", got)
	}
	if result.ByID["e"].Wave != 2 {
		t.Errorf("expected e in wave 2, got %d", result.ByID["e"].Wave)
	}
}

func TestCriticalPath_Contains(t *testing.T) {
	cp := &CriticalPath{Path: []string{"a", "b"}}
	if !cp.Contains("b") || cp.Contains("c") {
		t.Errorf("unexpected Contains result for %v", cp.Path)
	}
	var none *CriticalPath
	if none.Contains("a") {
		t.Error("nil path should contain nothing")
	}
}

func assertSchedule(t *testing.T, sf *ScheduledFeature, es, ef, ls, lf, slack int, critical bool) {
	t.Helper()
	if sf.ES != es {
		t.Errorf("feature %s: expected ES=%d, got %d", sf.ID, es, sf.ES)
	}
	if sf.EF != ef {
		t.Errorf("feature %s: expected EF=%d, got %d", sf.ID, ef, sf.EF)
	}
	if sf.LS != ls {
		t.Errorf("feature %s: expected LS=%d, got %d", sf.ID, ls, sf.LS)
	}
	if sf.LF != lf {
		t.Errorf("feature %s: expected LF=%d, got %d", sf.ID, lf, sf.LF)
	}
	if sf.SlackDays != slack {
		t.Errorf("feature %s: expected slack=%d, got %d", sf.ID, slack, sf.SlackDays)
	}
	if sf.IsOnCriticalPath != critical {
		t.Errorf("feature %s: expected critical=%v, got %v", sf.ID, critical, sf.IsOnCriticalPath)
	}
}
