package main

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/mcpserver"
	"github.com/joshharrison/roadloom/internal/timeline"
	"github.com/joshharrison/roadloom/internal/ui"
	"github.com/joshharrison/roadloom/internal/viewer"
)

// defaultStart anchors requests that carry no start date.
func defaultStart() calendar.Date {
	if d, err := cfg.Start(); err == nil {
		return d
	}
	return calendar.Today()
}

func serveCmd() *cobra.Command {
	var (
		flagPort    int
		flagPreload bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve timelines over HTTP",
		Long: `Starts the timeline viewer API:

  POST /schedule   compute a timeline from posted features
  POST /timeline   store a timeline computed elsewhere (roadloom schedule --post)
  GET  /timeline   fetch the latest timeline
  GET  /healthz    liveness check`,
		RunE: func(cmd *cobra.Command, args []string) error {
			port := flagPort
			if port == 0 {
				port = cfg.Viewer.Port
			}
			if viewer.IsPortOpen(fmt.Sprintf("localhost:%d", port)) {
				return fmt.Errorf("port %d is already in use", port)
			}

			ctx, cancel := signalContext()
			defer cancel()

			srv := viewer.NewServer(timeline.NewEngine(logger), logger, defaultStart)

			if flagPreload {
				l, err := compute(ctx)
				if err != nil {
					return fmt.Errorf("preload: %w", err)
				}
				srv.SetLatest(l.Result)
				fmt.Printf("📥 Loaded %d features from %s\n", len(l.Result.Features), l.Source)
			}

			ui.PrintLogo(os.Stdout)
			fmt.Printf("🌐 Viewer API on http://localhost:%d (Ctrl-C to stop)\n", port)
			return srv.Serve(ctx, port)
		},
	}

	cmd.Flags().IntVar(&flagPort, "port", 0, "Listen port (default from config, 7171)")
	cmd.Flags().BoolVar(&flagPreload, "preload", false, "Schedule the configured features before serving")

	return cmd
}

func mcpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run a Model Context Protocol server on stdio",
		Long: `Exposes schedule_timeline, critical_path and validate_features as MCP
tools for assistants and editors. Logs go to stderr; stdout carries the
protocol.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := mcpserver.New(&mcpserver.Config{
				Engine:       timeline.NewEngine(logger),
				DefaultStart: defaultStart,
			})
			logger.Info("mcp server starting on stdio")
			if err := server.ServeStdio(s); err != nil {
				return fmt.Errorf("mcp server: %w", err)
			}
			return nil
		},
	}
}
