package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationError represents a single validation failure
type ValidationError struct {
	Field   string // The config field path (e.g., "output.format")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Accepted values for enumerated settings.
var (
	ValidSourceTypes   = []string{"file", "command", "postgres"}
	ValidOutputFormats = []string{"text", "json", "yaml"}
	ValidLogLevels     = []string{"debug", "info", "warn", "error"}
	ValidLogFormats    = []string{"text", "json"}
)

// Validate checks the Config for invalid values and returns all validation errors found
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	if _, err := c.Start(); err != nil {
		errs = append(errs, ValidationError{
			Field:   "project_start",
			Value:   c.ProjectStart,
			Message: "must be an ISO date (YYYY-MM-DD) or \"today\"",
		})
	}

	if !slices.Contains(ValidSourceTypes, c.Source.Type) {
		errs = append(errs, ValidationError{
			Field:   "source.type",
			Value:   c.Source.Type,
			Message: fmt.Sprintf("must be one of %v", ValidSourceTypes),
		})
	}
	switch c.Source.Type {
	case "command":
		if strings.TrimSpace(c.Source.Command) == "" {
			errs = append(errs, ValidationError{Field: "source.command", Value: c.Source.Command, Message: "is required for a command source"})
		}
	case "postgres":
		if c.Source.DSN == "" {
			errs = append(errs, ValidationError{Field: "source.dsn", Value: c.Source.DSN, Message: "is required for a postgres source"})
		}
	}

	if !slices.Contains(ValidOutputFormats, c.Output.Format) {
		errs = append(errs, ValidationError{
			Field:   "output.format",
			Value:   c.Output.Format,
			Message: fmt.Sprintf("must be one of %v", ValidOutputFormats),
		})
	}
	if c.Output.GanttWidth < 10 {
		errs = append(errs, ValidationError{Field: "output.gantt_width", Value: c.Output.GanttWidth, Message: "must be at least 10"})
	}

	if c.Viewer.Port < 1 || c.Viewer.Port > 65535 {
		errs = append(errs, ValidationError{Field: "viewer.port", Value: c.Viewer.Port, Message: "must be between 1 and 65535"})
	}

	if !slices.Contains(ValidLogLevels, strings.ToLower(c.Log.Level)) {
		errs = append(errs, ValidationError{
			Field:   "log.level",
			Value:   c.Log.Level,
			Message: fmt.Sprintf("must be one of %v", ValidLogLevels),
		})
	}
	if !slices.Contains(ValidLogFormats, strings.ToLower(c.Log.Format)) {
		errs = append(errs, ValidationError{
			Field:   "log.format",
			Value:   c.Log.Format,
			Message: fmt.Sprintf("must be one of %v", ValidLogFormats),
		})
	}

	if c.State.Dir == "" {
		errs = append(errs, ValidationError{Field: "state.dir", Value: c.State.Dir, Message: "must not be empty"})
	}

	return errs
}
