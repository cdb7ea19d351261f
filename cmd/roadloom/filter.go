package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/joshharrison/roadloom/internal/feature"
)

// applyFilter turns a --filter expression into a feature predicate.
// An empty filter keeps everything and returns nil.
func applyFilter(filter string) (func(*feature.Feature) bool, error) {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return nil, nil
	}

	// Supported formats: "priority<=N", "priority=N", "priority>=N", "label=X", "status=X"
	if strings.HasPrefix(filter, "priority") {
		return filterByPriority(filter)
	}
	if strings.HasPrefix(filter, "label=") {
		label := strings.TrimPrefix(filter, "label=")
		return func(f *feature.Feature) bool { return f.HasLabel(label) }, nil
	}
	if strings.HasPrefix(filter, "status=") {
		status := feature.NormalizeStatus(strings.TrimPrefix(filter, "status="))
		return func(f *feature.Feature) bool { return feature.NormalizeStatus(string(f.Status)) == status }, nil
	}
	return nil, fmt.Errorf("unsupported filter: %s (use priority<=N, label=X, or status=X)", filter)
}

func filterByPriority(filter string) (func(*feature.Feature) bool, error) {
	filter = strings.TrimPrefix(filter, "priority")
	if strings.HasPrefix(filter, "<=") {
		n, err := strconv.Atoi(strings.TrimPrefix(filter, "<="))
		if err != nil {
			return nil, fmt.Errorf("invalid priority value: %w", err)
		}
		return func(f *feature.Feature) bool { return f.Priority <= n }, nil
	}
	if strings.HasPrefix(filter, ">=") {
		n, err := strconv.Atoi(strings.TrimPrefix(filter, ">="))
		if err != nil {
			return nil, fmt.Errorf("invalid priority value: %w", err)
		}
		return func(f *feature.Feature) bool { return f.Priority >= n }, nil
	}
	if strings.HasPrefix(filter, "=") {
		n, err := strconv.Atoi(strings.TrimPrefix(filter, "="))
		if err != nil {
			return nil, fmt.Errorf("invalid priority value: %w", err)
		}
		return func(f *feature.Feature) bool { return f.Priority == n }, nil
	}
	return nil, fmt.Errorf("unsupported priority filter: priority%s", filter)
}
