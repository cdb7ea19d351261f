package ui

import (
	"fmt"
	"hash/fnv"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()

	// Critical marks the reported critical path; Tight marks work that is
	// critical or nearly so but off that path.
	Critical = color.New(color.Bold, color.FgRed).SprintFunc()
	Tight    = color.New(color.FgYellow).SprintFunc()
)

// TightSlackDays is the largest slack SlackLabel still flags as tight.
const TightSlackDays = 2

// SetColor turns ANSI styling on or off for every helper in this package.
func SetColor(enabled bool) {
	color.NoColor = !enabled
}

// PrintLogo renders the colored roadloom logo to w.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	road := color.New(color.FgYellow)
	sep := color.New(color.FgCyan)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	road.Fprintln(w, "   |  ▓▓▓▓▓▓                  |")
	road.Fprintln(w, "   |        ▓▓▓▓▓▓▓▓          |")
	sep.Fprintln(w, "   |==========================|")
	brand.Fprintln(w, "   |  R  O  A  D  L  O  O  M  |")
	sep.Fprintln(w, "   |==========================|")
	road.Fprintln(w, "   |                ▓▓▓▓▓▓▓▓▓ |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintf(w, "   %s Roadmap timelines and critical paths\n", Dim("🗺"))
	fmt.Fprintln(w)
}

// featureColors excludes red and yellow, which carry schedule meaning.
var featureColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiMagenta).SprintFunc(),
	color.New(color.Bold, color.FgHiCyan).SprintFunc(),
}

// FeatureColor returns the stable palette color for a feature id.
func FeatureColor(featureID string) func(a ...interface{}) string {
	h := fnv.New32a()
	h.Write([]byte(featureID))
	return featureColors[h.Sum32()%uint32(len(featureColors))]
}

// FeaturePrefix returns a colored [feature-id] prefix string.
func FeaturePrefix(featureID string) string {
	return Dim("[") + FeatureColor(featureID)(featureID) + Dim("]")
}

// StatusIcon returns a colored status icon for compact table display.
func StatusIcon(status string) string {
	switch status {
	case "complete":
		return Green("✓")
	case "in_progress":
		return Cyan("●")
	case "blocked":
		return Red("✗")
	default:
		return Dim("◌")
	}
}

// CriticalMarker returns the lightning marker for critical features and a
// blank of the same width otherwise.
func CriticalMarker(critical bool) string {
	if critical {
		return Critical("⚡")
	}
	return " "
}

// SlackLabel returns a slack column value colored by how little room the
// feature has: critical, tight, or comfortable.
func SlackLabel(days int) string {
	label := fmt.Sprintf("%d days slack", days)
	if days == 1 {
		label = "1 day slack"
	}
	switch {
	case days == 0:
		return Critical("critical")
	case days <= TightSlackDays:
		return Tight(label)
	default:
		return Green(label)
	}
}

// Truncate shortens s to at most n runes, ending in "..." when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
