package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/config"
	"github.com/joshharrison/roadloom/internal/feature"
	"github.com/joshharrison/roadloom/internal/graph"
	"github.com/joshharrison/roadloom/internal/log"
	"github.com/joshharrison/roadloom/internal/timeline"
	"github.com/joshharrison/roadloom/internal/ui"
)

var (
	flagConfig   string
	flagFeatures string
	flagSource   string
	flagCommand  string
	flagDSN      string
	flagRoadmap  string
	flagStart    string
	flagFilter   string
	flagLogLevel string
	flagNoColor  bool
	flagJSON     bool
	flagFormat   string
)

var (
	v      = viper.New()
	cfg    = config.Default()
	logger = log.Nop()
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "roadloom",
		Short: "Compute roadmap timelines and critical paths",
		Long: `Roadloom reads a roadmap's features and their dependencies, schedules
them from a project start date with the critical path method, and reports
slack, dependency chains, milestones and overlapping work.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: initConfig,
	}

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagConfig, "config", "c", "", "config file (default ./.roadloom.yaml or ~/.roadloom.yaml)")
	pf.StringVarP(&flagFeatures, "features", "f", "", "features file (JSON or YAML)")
	pf.StringVar(&flagSource, "source", "", "feature source: file, command or postgres")
	pf.StringVar(&flagCommand, "command", "", "export command printing features as JSON")
	pf.StringVar(&flagDSN, "dsn", "", "PostgreSQL connection string")
	pf.StringVar(&flagRoadmap, "roadmap", "", "roadmap id to load from PostgreSQL")
	pf.StringVar(&flagStart, "start", "", "project start date (YYYY-MM-DD, default today)")
	pf.StringVar(&flagFilter, "filter", "", "filter features (e.g., priority<=1, label=backend, status=planned)")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.BoolVar(&flagNoColor, "no-color", false, "disable colored output")
	pf.BoolVar(&flagJSON, "json", false, "Machine-readable JSON output")

	bindFlags(rootCmd)

	rootCmd.AddCommand(scheduleCmd())
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(chainsCmd())
	rootCmd.AddCommand(criticalCmd())
	rootCmd.AddCommand(milestonesCmd())
	rootCmd.AddCommand(overlapsCmd())
	rootCmd.AddCommand(vizCmd())
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(mcpCmd())
	rootCmd.AddCommand(historyCmd())

	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// bindFlags lets explicitly set flags override config file and env values.
func bindFlags(root *cobra.Command) {
	pf := root.PersistentFlags()
	for key, name := range map[string]string{
		"source.path":       "features",
		"source.type":       "source",
		"source.command":    "command",
		"source.dsn":        "dsn",
		"source.roadmap_id": "roadmap",
		"project_start":     "start",
		"log.level":         "log-level",
		"output.no_color":   "no-color",
	} {
		_ = v.BindPFlag(key, pf.Lookup(name))
	}
}

func initConfig(cmd *cobra.Command, args []string) error {
	config.SetDefaults(v)
	if err := config.ReadIn(v, flagConfig); err != nil {
		return err
	}

	// A connection string or export command implies its source type
	// unless one was chosen explicitly.
	if !cmd.Flags().Changed("source") {
		switch {
		case cmd.Flags().Changed("dsn"):
			v.Set("source.type", "postgres")
		case cmd.Flags().Changed("command"):
			v.Set("source.type", "command")
		case cmd.Flags().Changed("features"):
			v.Set("source.type", "file")
		}
	}

	c, err := config.Load(v)
	if err != nil {
		return err
	}
	cfg = c

	logger = log.New(log.Config{
		Level:  log.ParseLevel(cfg.Log.Level),
		Format: log.ParseFormat(cfg.Log.Format),
		Output: os.Stderr,
	})
	if cfg.Output.NoColor {
		ui.SetColor(false)
	}
	logger.Debug("config loaded", "file", v.ConfigFileUsed(), "source", cfg.Source.Type)
	return nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// loaded is one scheduling run's inputs and output.
type loaded struct {
	Source   string
	Start    calendar.Date
	Features []feature.Feature
	Result   *timeline.Result
}

// compute loads features from the configured source and schedules them.
func compute(ctx context.Context) (*loaded, error) {
	src, name, closeFn, err := openSource(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	features, err := src.Features(ctx)
	if err != nil {
		return nil, fmt.Errorf("load features from %s: %w", name, err)
	}
	logger.Debug("features loaded", "source", name, "count", len(features))

	return scheduleFeatures(name, features)
}

func scheduleFeatures(name string, features []feature.Feature) (*loaded, error) {
	start, err := cfg.Start()
	if err != nil {
		return nil, fmt.Errorf("project start: %w", err)
	}

	pred, err := applyFilter(flagFilter)
	if err != nil {
		return nil, fmt.Errorf("apply filter: %w", err)
	}

	engine := timeline.NewEngine(logger)
	engine.Filter = pred

	result, err := engine.Schedule(features, start)
	if err != nil {
		return nil, err
	}
	return &loaded{Source: name, Start: start, Features: features, Result: result}, nil
}

// openSource builds the configured feature source. The returned func
// releases any connection it holds.
func openSource(ctx context.Context) (feature.Source, string, func(), error) {
	noop := func() {}
	switch cfg.Source.Type {
	case "command":
		client, err := feature.NewClient(cfg.Source.Command)
		if err != nil {
			return nil, "", noop, err
		}
		return client, "command " + client.Bin, noop, nil

	case "postgres":
		pool, err := feature.NewPool(ctx, cfg.Source.DSN)
		if err != nil {
			return nil, "", noop, fmt.Errorf("connect to postgres: %w", err)
		}
		name := "postgres"
		if cfg.Source.RoadmapID != "" {
			name += " roadmap " + cfg.Source.RoadmapID
		}
		return &feature.PGSource{Pool: pool, RoadmapID: cfg.Source.RoadmapID}, name, pool.Close, nil

	default:
		return feature.NewFileSource(cfg.Source.Path), cfg.Source.Path, noop, nil
	}
}

// --- Output helpers ---

func outputJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// outputFormat resolves --format, with --json as a shorthand.
func outputFormat() string {
	if flagJSON {
		return "json"
	}
	if flagFormat != "" {
		return flagFormat
	}
	return cfg.Output.Format
}

// printError reports err on stderr, naming the error code and features for
// input problems.
func printError(err error) {
	w := color.Error
	var ie graph.InputError
	if errors.As(err, &ie) {
		fmt.Fprintf(w, "%s %s %s\n", ui.Red("✗"), ui.Dim("["+ie.Code()+"]"), err)
		for _, id := range ie.FeatureIDs() {
			fmt.Fprintf(w, "    %s\n", ui.FeaturePrefix(id))
		}
		return
	}
	fmt.Fprintf(w, "%s %s\n", ui.Red("✗"), err)
}
