package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/joshharrison/roadloom/internal/reporter"
	"github.com/joshharrison/roadloom/internal/state"
	"github.com/joshharrison/roadloom/internal/ui"
)

func historyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and re-render saved timelines (see schedule --save)",
	}

	cmd.AddCommand(historyListCmd())
	cmd.AddCommand(historyShowCmd())
	cmd.AddCommand(historyCleanCmd())

	return cmd
}

func historyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved timelines, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			runs, err := state.NewStore(cfg.State.Dir).List()
			if err != nil {
				return err
			}

			if flagJSON {
				return outputJSON(runs)
			}
			if len(runs) == 0 {
				fmt.Println(ui.Dim("No saved timelines. Run `roadloom schedule --save` first."))
				return nil
			}

			fmt.Printf("📚 %s\n", ui.BoldCyan("Saved Timelines"))
			fmt.Println(ui.Cyan("═══════════════"))
			for _, r := range runs {
				finish := "-"
				if !r.Finish.IsZero() {
					finish = r.Finish.String()
				}
				fmt.Printf("  %s  %s  %3d features  %4d days  → %s  %s\n",
					ui.BoldMagenta(shortID(r.ID)),
					r.CreatedAt.Local().Format("2006-01-02 15:04"),
					r.Features, r.TotalDuration, finish,
					ui.Dim(r.Source))
			}
			return nil
		},
	}
}

func historyShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Re-render a saved timeline (default: the latest)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := state.NewStore(cfg.State.Dir)

			var run *state.Run
			var err error
			if len(args) == 1 {
				run, err = store.Load(args[0])
			} else {
				run, err = store.Latest()
			}
			if errors.Is(err, state.ErrNoRuns) {
				return fmt.Errorf("no saved timelines in %s", cfg.State.Dir)
			}
			if err != nil {
				return err
			}

			if run.Result == nil {
				return fmt.Errorf("run %s has no timeline", run.ID)
			}

			fmt.Fprintf(os.Stderr, "%s %s %s\n", ui.Dim("run"), ui.Dim(run.ID), ui.Dim(run.CreatedAt.Local().Format("2006-01-02 15:04")))
			return reporter.New(run.Result).Render(os.Stdout, outputFormat())
		},
	}

	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, yaml)")

	return cmd
}

func historyCleanCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete every saved timeline",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := state.NewStore(cfg.State.Dir).Clean(); err != nil {
				return err
			}
			fmt.Printf("🧹 Removed %s\n", cfg.State.Dir)
			return nil
		},
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
