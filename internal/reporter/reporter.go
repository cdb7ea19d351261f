package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/cpm"
	"github.com/joshharrison/roadloom/internal/lineage"
	"github.com/joshharrison/roadloom/internal/timeline"
	"github.com/joshharrison/roadloom/internal/ui"
)

// Output formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Reporter renders a computed timeline for terminals and machines.
// It only reads the serialized fields of the result, so timelines loaded
// back from disk render the same as fresh ones.
type Reporter struct {
	Result *timeline.Result
}

// New creates a new Reporter.
func New(result *timeline.Result) *Reporter {
	return &Reporter{Result: result}
}

// wave is a group of features sharing an earliest start date.
type wave struct {
	Start    calendar.Date
	Features []*cpm.ScheduledFeature
	Critical bool
}

// waves groups features by earliest start, critical features first.
func (r *Reporter) waves() []wave {
	byStart := make(map[string]*wave)
	var order []string
	for _, sf := range r.Result.Features {
		key := sf.EarliestStart.String()
		wv, ok := byStart[key]
		if !ok {
			wv = &wave{Start: sf.EarliestStart}
			byStart[key] = wv
			order = append(order, key)
		}
		wv.Features = append(wv.Features, sf)
		if sf.IsOnCriticalPath {
			wv.Critical = true
		}
	}
	sort.Strings(order) // ISO dates sort chronologically

	out := make([]wave, 0, len(order))
	for _, key := range order {
		wv := byStart[key]
		sort.SliceStable(wv.Features, func(a, b int) bool {
			return wv.Features[a].IsOnCriticalPath && !wv.Features[b].IsOnCriticalPath
		})
		out = append(out, *wv)
	}
	return out
}

// bounds returns the first start and last finish across all features.
func (r *Reporter) bounds() (calendar.Date, calendar.Date) {
	var first, last calendar.Date
	for i, sf := range r.Result.Features {
		if i == 0 || sf.EarliestStart.Before(first) {
			first = sf.EarliestStart
		}
		if i == 0 || sf.EarliestFinish.After(last) {
			last = sf.EarliestFinish
		}
	}
	return first, last
}

// PrintSummary writes the header, critical path and per-wave breakdown.
func (r *Reporter) PrintSummary(w io.Writer) {
	res := r.Result
	first, last := r.bounds()

	critical := 0
	for _, sf := range res.Features {
		if sf.IsOnCriticalPath {
			critical++
		}
	}

	fmt.Fprintf(w, "🗺  %s\n", ui.BoldCyan("Roadloom Timeline"))
	fmt.Fprintln(w, ui.Cyan("═════════════════════"))
	fmt.Fprintln(w)
	if len(res.Features) == 0 {
		fmt.Fprintln(w, ui.Dim("No features to schedule."))
		return
	}

	fmt.Fprintf(w, "Features:  %s (%d with zero slack)\n", ui.Bold(len(res.Features)), critical)
	fmt.Fprintf(w, "Window:    %s → %s (%d days)\n", first, last, first.DaysUntil(last))
	r.printCriticalLine(w)
	fmt.Fprintf(w, "Milestones: %d   Overlaps: %d\n", len(res.Milestones), len(res.Overlaps))
	fmt.Fprintln(w)

	for i, wv := range r.waves() {
		depStr := ui.Dim("independent")
		if i > 0 {
			depStr = ui.Dim(fmt.Sprintf("day %d", first.DaysUntil(wv.Start)))
		}
		fmt.Fprintf(w, "🌊 %s %d  %s  (%d features, %s)\n",
			ui.BoldWhite("Wave"), i+1, wv.Start, len(wv.Features), depStr)
		for _, sf := range wv.Features {
			r.printFeature(w, sf)
		}
		fmt.Fprintln(w)
	}
}

func (r *Reporter) printCriticalLine(w io.Writer) {
	cp := r.Result.CriticalPath
	if cp == nil {
		return
	}
	fmt.Fprintf(w, "⚡ Critical path: %s (%d features, %d days, %s → %s)\n",
		ui.Critical(strings.Join(cp.Path, " → ")), len(cp.Path), cp.TotalDuration, cp.StartDate, cp.EndDate)
}

func (r *Reporter) printFeature(w io.Writer, sf *cpm.ScheduledFeature) {
	title := ui.Truncate(sf.Title, 40)
	fmt.Fprintf(w, "  %s %s %s %-40s %s → %s  %s\n",
		ui.StatusIcon(string(sf.Status)),
		ui.CriticalMarker(sf.IsOnCriticalPath),
		ui.BoldMagenta(sf.ID),
		title,
		sf.EarliestStart, sf.EarliestFinish,
		ui.SlackLabel(sf.SlackDays))
}

// PrintChains writes each feature's longest upstream chain.
func (r *Reporter) PrintChains(w io.Writer) {
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Dependency Chains"))
	fmt.Fprintln(w, ui.Cyan("═════════════════"))
	for _, c := range r.Result.DependencyChains {
		fmt.Fprintf(w, "  %s %s %s\n",
			ui.BoldMagenta(c.FeatureID),
			ui.Dim(fmt.Sprintf("depth %d:", c.Depth)),
			strings.Join(c.Chain, " → "))
	}
	if deepest, ok := lineage.Deepest(r.Result.DependencyChains); ok {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Deepest: %s %s\n",
			strings.Join(deepest.Chain, " → "), ui.Dim(fmt.Sprintf("(%d levels)", deepest.Depth+1)))
	}
}

// PrintCritical writes the critical path with per-feature dates.
func (r *Reporter) PrintCritical(w io.Writer) {
	cp := r.Result.CriticalPath
	if cp == nil {
		fmt.Fprintln(w, ui.Dim("No critical path (no features)."))
		return
	}
	r.printCriticalLine(w)
	for i, id := range cp.Path {
		sf := r.Result.Feature(id)
		if sf == nil {
			continue
		}
		fmt.Fprintf(w, "  %2d. %s %s → %s  %s\n",
			i+1, ui.FeaturePrefix(id), sf.EarliestStart, sf.EarliestFinish,
			ui.Dim(fmt.Sprintf("%dd", sf.DurationDays)))
	}
}

// PrintMilestones writes the completion-date clusters.
func (r *Reporter) PrintMilestones(w io.Writer) {
	fmt.Fprintf(w, "🏁 %s\n", ui.BoldCyan("Milestones"))
	fmt.Fprintln(w, ui.Cyan("══════════"))
	for _, m := range r.Result.Milestones {
		fmt.Fprintf(w, "  %s  %s  %s\n",
			ui.Bold(m.Date), m.Description, ui.Dim(strings.Join(m.Features, ", ")))
	}
}

// PrintOverlaps writes every overlapping pair.
func (r *Reporter) PrintOverlaps(w io.Writer) {
	fmt.Fprintf(w, "🔀 %s\n", ui.BoldCyan("Overlapping Work"))
	fmt.Fprintln(w, ui.Cyan("════════════════"))
	if len(r.Result.Overlaps) == 0 {
		fmt.Fprintln(w, ui.Dim("  none"))
		return
	}
	for _, o := range r.Result.Overlaps {
		fmt.Fprintf(w, "  %s ⇄ %s  %s\n",
			ui.BoldMagenta(o.Feature1), ui.BoldMagenta(o.Feature2),
			ui.Yellow(fmt.Sprintf("%d days", o.OverlapDays)))
	}
}

// PrintGantt writes one bar per feature, scaled to at most width columns.
// The reported critical path is drawn with █, other zero-slack work with ▒,
// remaining work with ▓, and slack with ░.
func (r *Reporter) PrintGantt(w io.Writer, width int) {
	if len(r.Result.Features) == 0 {
		fmt.Fprintln(w, ui.Dim("No features to chart."))
		return
	}
	if width < 10 {
		width = 10
	}
	first, last := r.bounds()
	span := first.DaysUntil(last)
	scale := (span + width - 1) / width // days per column
	if scale < 1 {
		scale = 1
	}

	idWidth := 0
	for _, sf := range r.Result.Features {
		if n := len([]rune(sf.ID)); n > idWidth {
			idWidth = n
		}
	}
	if idWidth > 24 {
		idWidth = 24
	}

	fmt.Fprintf(w, "📊 %s %s\n", ui.BoldCyan("Timeline"), ui.Dim(fmt.Sprintf("(%s → %s, 1 column = %d day(s))", first, last, scale)))
	for _, sf := range r.Result.Features {
		es := first.DaysUntil(sf.EarliestStart) / scale
		ef := ceilDiv(first.DaysUntil(sf.EarliestFinish), scale)
		lf := ceilDiv(first.DaysUntil(sf.LatestFinish), scale)
		if ef <= es {
			ef = es + 1
		}

		fill := ui.Cyan
		glyph := "▓"
		switch {
		case r.Result.CriticalPath.Contains(sf.ID):
			fill = ui.Critical
			glyph = "█"
		case sf.IsOnCriticalPath:
			fill = ui.Tight
			glyph = "▒"
		}
		bar := strings.Repeat(" ", es) + fill(strings.Repeat(glyph, ef-es))
		if lf > ef {
			bar += ui.Dim(strings.Repeat("░", lf-ef))
		}

		id := ui.Truncate(sf.ID, idWidth)
		pad := idWidth - len([]rune(id))
		fmt.Fprintf(w, "  %s%s │%s\n", ui.BoldMagenta(id), strings.Repeat(" ", pad), bar)
	}
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// dependents maps each feature to the features that depend on it, in
// result order, ignoring edges to features absent from the result.
func (r *Reporter) dependents() map[string][]string {
	present := make(map[string]bool, len(r.Result.Features))
	for _, sf := range r.Result.Features {
		present[sf.ID] = true
	}
	adj := make(map[string][]string)
	seen := make(map[[2]string]bool)
	for _, sf := range r.Result.Features {
		for _, dep := range sf.DependsOn {
			edge := [2]string{dep, sf.ID}
			if !present[dep] || seen[edge] {
				continue
			}
			seen[edge] = true
			adj[dep] = append(adj[dep], sf.ID)
		}
	}
	return adj
}

// PrintASCIIDAG writes the dependency graph wave by wave.
func (r *Reporter) PrintASCIIDAG(w io.Writer) {
	fmt.Fprintf(w, "🔗 %s\n", ui.BoldCyan("Feature Dependency Graph"))
	fmt.Fprintln(w, ui.Cyan("════════════════════════"))
	fmt.Fprintln(w)

	adj := r.dependents()
	for i, wv := range r.waves() {
		fmt.Fprintf(w, "%s 🌊 Wave %d %s %s\n", ui.Cyan("──"), i+1, ui.Dim(wv.Start.String()), ui.Cyan("──────────────────────"))
		for _, sf := range wv.Features {
			fmt.Fprintf(w, "  %s [%s] %s\n", ui.CriticalMarker(sf.IsOnCriticalPath), ui.BoldMagenta(sf.ID), sf.Title)

			// Show edges
			for _, next := range adj[sf.ID] {
				fmt.Fprintf(w, "      %s %s\n", ui.Dim("└──→"), ui.Magenta(next))
			}
		}
		fmt.Fprintln(w)
	}
}

// PrintDOT writes the graph in Graphviz DOT format. Features on the
// reported critical path and the edges between them are drawn in red.
func (r *Reporter) PrintDOT(w io.Writer) {
	fmt.Fprintln(w, "digraph roadloom {")
	fmt.Fprintln(w, "  rankdir=LR;")
	fmt.Fprintln(w, "  node [shape=box, style=rounded];")
	fmt.Fprintln(w)

	onPath := make(map[string]int)
	if cp := r.Result.CriticalPath; cp != nil {
		for i, id := range cp.Path {
			onPath[id] = i + 1
		}
	}

	for _, sf := range r.Result.Features {
		label := fmt.Sprintf("%s\\n%s\\n%s → %s", dotEscape(sf.ID), dotEscape(sf.Title), sf.EarliestStart, sf.EarliestFinish)
		attrs := fmt.Sprintf(`label="%s"`, label)
		if onPath[sf.ID] > 0 {
			attrs += `, style="rounded,bold", color=red`
		} else if sf.SlackDays > 0 {
			attrs += fmt.Sprintf(`, xlabel="+%dd"`, sf.SlackDays)
		}
		fmt.Fprintf(w, "  %q [%s];\n", sf.ID, attrs)
	}

	fmt.Fprintln(w)

	adj := r.dependents()
	for _, sf := range r.Result.Features {
		for _, to := range adj[sf.ID] {
			style := ""
			if a, b := onPath[sf.ID], onPath[to]; a > 0 && b == a+1 {
				style = ` [color=red, penwidth=2]`
			}
			fmt.Fprintf(w, "  %q -> %q%s;\n", sf.ID, to, style)
		}
	}

	fmt.Fprintln(w, "}")
}

func dotEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}

// JSON returns the machine-readable timeline.
func (r *Reporter) JSON() ([]byte, error) {
	return json.MarshalIndent(r.Result, "", "  ")
}

// YAML returns the timeline as YAML with the same keys as JSON.
func (r *Reporter) YAML() ([]byte, error) {
	return yaml.Marshal(r.Result)
}

// Render writes the timeline in the given format.
func (r *Reporter) Render(w io.Writer, format string) error {
	switch format {
	case "", FormatText:
		r.PrintSummary(w)
		if len(r.Result.Milestones) > 0 {
			r.PrintMilestones(w)
			fmt.Fprintln(w)
		}
		r.PrintOverlaps(w)
		return nil
	case FormatJSON:
		data, err := r.JSON()
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	case FormatYAML:
		data, err := r.YAML()
		if err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unsupported format %q (use text, json, or yaml)", format)
	}
}
