// Package mcpserver exposes the scheduler as Model Context Protocol tools
// over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/feature"
	"github.com/joshharrison/roadloom/internal/graph"
	"github.com/joshharrison/roadloom/internal/timeline"
)

// Version is reported to MCP clients during initialization.
var Version = "dev"

// Config carries what the tool handlers need.
type Config struct {
	Engine       *timeline.Engine
	DefaultStart func() calendar.Date
}

// New returns an MCP server with every roadloom tool registered.
func New(cfg *Config) *server.MCPServer {
	s := server.NewMCPServer(
		"roadloom",
		Version,
		server.WithToolCapabilities(true),
	)
	RegisterAll(s, cfg)
	return s
}

// RegisterAll adds the scheduling tools to s.
func RegisterAll(s *server.MCPServer, cfg *Config) {
	if cfg.Engine == nil {
		cfg.Engine = timeline.NewEngine(nil)
	}
	if cfg.DefaultStart == nil {
		cfg.DefaultStart = calendar.Today
	}

	featuresArg := mcp.WithString("features",
		mcp.Description(`Features as JSON: an array of {"id", "title", "durationDays" or "effort_estimate_weeks", "dependsOn"} objects, or {"features": [...]}`),
		mcp.Required(),
	)
	startArg := mcp.WithString("project_start",
		mcp.Description("Project start date, YYYY-MM-DD. Defaults to today."),
	)

	scheduleTimeline := mcp.NewTool("schedule_timeline",
		mcp.WithDescription("Compute the full roadmap timeline: per-feature dates and slack, dependency chains, critical path, milestones and overlaps."),
		featuresArg,
		startArg,
	)
	criticalPath := mcp.NewTool("critical_path",
		mcp.WithDescription("Return only the critical path: the zero-slack chain of features that determines the project end date."),
		featuresArg,
		startArg,
	)
	validateFeatures := mcp.NewTool("validate_features",
		mcp.WithDescription("Check a feature set for unknown dependencies, cycles, duplicate ids and invalid durations without scheduling it."),
		featuresArg,
	)

	s.AddTool(scheduleTimeline, makeScheduleHandler(cfg))
	s.AddTool(criticalPath, makeCriticalPathHandler(cfg))
	s.AddTool(validateFeatures, makeValidateHandler())
}

func makeScheduleHandler(cfg *Config) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := schedule(cfg, request)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(result)
	}
}

func makeCriticalPathHandler(cfg *Config) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := schedule(cfg, request)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(result.CriticalPath)
	}
}

func makeValidateHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		features, err := featuresFrom(request)
		if err != nil {
			return errorResult(err), nil
		}
		g, err := graph.Build(features)
		if err != nil {
			return errorResult(err), nil
		}
		return jsonResult(map[string]any{
			"valid":    true,
			"features": g.FeatureCount(),
			"roots":    g.Roots,
			"leaves":   g.Leaves,
		})
	}
}

func schedule(cfg *Config, request mcp.CallToolRequest) (*timeline.Result, error) {
	features, err := featuresFrom(request)
	if err != nil {
		return nil, err
	}

	start := cfg.DefaultStart()
	if s := request.GetString("project_start", ""); s != "" {
		if start, err = calendar.Parse(s); err != nil {
			return nil, fmt.Errorf("invalid project_start: %w", err)
		}
	}

	return cfg.Engine.Schedule(features, start)
}

// featuresFrom accepts the features argument as a JSON string or, from
// clients that send structured arguments, as an already decoded value.
func featuresFrom(request mcp.CallToolRequest) ([]feature.Feature, error) {
	raw, ok := request.GetArguments()["features"]
	if !ok || raw == nil {
		return nil, fmt.Errorf("features is required")
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		data = []byte(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode features: %w", err)
		}
		data = b
	}
	return feature.ParseJSON(data)
}
