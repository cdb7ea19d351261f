package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshharrison/roadloom/internal/graph"
	"github.com/joshharrison/roadloom/internal/reporter"
	"github.com/joshharrison/roadloom/internal/state"
	"github.com/joshharrison/roadloom/internal/ui"
	"github.com/joshharrison/roadloom/internal/viewer"
	"github.com/joshharrison/roadloom/internal/watch"
)

func scheduleCmd() *cobra.Command {
	var (
		flagSave   bool
		flagWatch  bool
		flagPost   string
		flagOutput string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Compute the full timeline: dates, slack, critical path, milestones, overlaps",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagWatch && cfg.Source.Type != "file" {
				return fmt.Errorf("--watch needs a file source (got %s)", cfg.Source.Type)
			}

			ctx, cancel := signalContext()
			defer cancel()

			run := func() error {
				l, err := compute(ctx)
				if err != nil {
					return err
				}
				return emitSchedule(ctx, l, flagSave, flagPost, flagOutput)
			}

			if err := run(); err != nil {
				if !flagWatch {
					return err
				}
				printError(err)
			}
			if !flagWatch {
				return nil
			}

			// Input errors while editing are shown and the watch goes on.
			return watch.New(cfg.Source.Path, logger).Run(ctx, func() error {
				fmt.Printf("\n%s %s\n", ui.Dim(time.Now().Format("15:04:05")), ui.Cyan("features changed, rescheduling"))
				if err := run(); err != nil {
					printError(err)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, yaml)")
	cmd.Flags().BoolVar(&flagSave, "save", false, "Save the timeline to the state directory")
	cmd.Flags().BoolVarP(&flagWatch, "watch", "w", false, "Reschedule whenever the features file changes")
	cmd.Flags().StringVar(&flagPost, "post", "", "Send the timeline to a running viewer (e.g. http://localhost:7171)")
	cmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Write the rendered timeline to a file instead of stdout")

	return cmd
}

func emitSchedule(ctx context.Context, l *loaded, save bool, post, output string) error {
	rep := reporter.New(l.Result)

	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		if err := rep.Render(f, outputFormat()); err != nil {
			return err
		}
	} else if err := rep.Render(os.Stdout, outputFormat()); err != nil {
		return err
	}

	if save {
		store := state.NewStore(cfg.State.Dir)
		run := state.NewRun(l.Source, l.Start, l.Features, l.Result)
		if err := store.Save(run); err != nil {
			return fmt.Errorf("save timeline: %w", err)
		}
		fmt.Fprintf(os.Stderr, "💾 Saved run %s\n", ui.Dim(run.ID))
	}

	if post != "" {
		if err := viewer.PostTimeline(ctx, post, l.Result); err != nil {
			return fmt.Errorf("post to viewer: %w", err)
		}
		fmt.Fprintf(os.Stderr, "✅ Timeline sent to %s\n", post)
	}
	return nil
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check features for unknown dependencies, cycles and invalid durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext()
			defer cancel()

			src, name, closeFn, err := openSource(ctx)
			if err != nil {
				return err
			}
			defer closeFn()

			features, err := src.Features(ctx)
			if err != nil {
				return fmt.Errorf("load features from %s: %w", name, err)
			}

			g, err := graph.Build(features)
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(map[string]any{
					"valid":    true,
					"features": g.FeatureCount(),
					"roots":    g.Roots,
					"leaves":   g.Leaves,
				})
			}
			fmt.Printf("%s %s features, %d roots, %d leaves, no problems found\n",
				ui.Green("✓"), ui.Bold(g.FeatureCount()), len(g.Roots), len(g.Leaves))
			return nil
		},
	}
}

func chainsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chains",
		Short: "Show each feature's longest chain of upstream dependencies",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := computeCtx()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(l.Result.DependencyChains)
			}
			reporter.New(l.Result).PrintChains(os.Stdout)
			return nil
		},
	}
}

func criticalCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "critical",
		Short: "Show the critical path that determines the project end date",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := computeCtx()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(l.Result.CriticalPath)
			}
			reporter.New(l.Result).PrintCritical(os.Stdout)
			return nil
		},
	}
}

func milestonesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "milestones",
		Short: "Show dates on which features complete",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := computeCtx()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(l.Result.Milestones)
			}
			reporter.New(l.Result).PrintMilestones(os.Stdout)
			return nil
		},
	}
}

func overlapsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overlaps",
		Short: "Show pairs of features scheduled at the same time",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := computeCtx()
			if err != nil {
				return err
			}
			if flagJSON {
				return outputJSON(l.Result.Overlaps)
			}
			reporter.New(l.Result).PrintOverlaps(os.Stdout)
			return nil
		},
	}
}

func vizCmd() *cobra.Command {
	var flagWidth int

	cmd := &cobra.Command{
		Use:   "viz",
		Short: "Draw the timeline as a Gantt chart, ASCII DAG or Graphviz DOT",
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := computeCtx()
			if err != nil {
				return err
			}

			rep := reporter.New(l.Result)
			switch flagFormat {
			case "", "gantt":
				width := flagWidth
				if width == 0 {
					width = cfg.Output.GanttWidth
				}
				rep.PrintGantt(os.Stdout, width)
			case "ascii":
				rep.PrintASCIIDAG(os.Stdout)
			case "dot":
				rep.PrintDOT(os.Stdout)
			default:
				return fmt.Errorf("unsupported viz format %q (use gantt, ascii, or dot)", flagFormat)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (gantt, ascii, dot; default gantt)")
	cmd.Flags().IntVar(&flagWidth, "width", 0, "Gantt chart width in columns (default from config)")

	return cmd
}

// computeCtx runs compute under a signal-cancelled context.
func computeCtx() (*loaded, error) {
	ctx, cancel := signalContext()
	defer cancel()
	return compute(ctx)
}
