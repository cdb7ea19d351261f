package graph

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinels for errors.Is. Every error Build returns matches exactly one.
var (
	ErrUnknownDependency  = errors.New("unknown dependency")
	ErrCircularDependency = errors.New("circular dependency")
	ErrInvalidDuration    = errors.New("invalid duration")
	ErrDuplicateFeature   = errors.New("duplicate feature")
	ErrInvalidID          = errors.New("invalid feature id")
)

// Error codes reported to callers alongside the offending feature ids.
const (
	CodeUnknownDependency  = "TIMELINE-001"
	CodeCircularDependency = "TIMELINE-002"
	CodeInvalidDuration    = "TIMELINE-003"
	CodeDuplicateFeature   = "TIMELINE-004"
	CodeInvalidID          = "TIMELINE-005"
)

// InputError is implemented by every validation error Build returns.
type InputError interface {
	error
	Code() string
	FeatureIDs() []string
}

// AsInputError extracts an InputError from err's chain.
func AsInputError(err error) (InputError, bool) {
	var ie InputError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// UnknownDependencyError: FeatureID depends on an id absent from the input.
type UnknownDependencyError struct {
	FeatureID string
	DependsOn string
}

func (e *UnknownDependencyError) Error() string {
	return fmt.Sprintf("feature %q depends on unknown feature %q", e.FeatureID, e.DependsOn)
}
func (e *UnknownDependencyError) Is(target error) bool { return target == ErrUnknownDependency }
func (e *UnknownDependencyError) Code() string         { return CodeUnknownDependency }
func (e *UnknownDependencyError) FeatureIDs() []string { return []string{e.FeatureID} }

// CircularDependencyError carries one cycle in dependency order, with the
// first id repeated at the end (a self-reference is [a, a]).
type CircularDependencyError struct {
	Cycle []string
}

func (e *CircularDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected: %s", strings.Join(e.Cycle, " -> "))
}
func (e *CircularDependencyError) Is(target error) bool { return target == ErrCircularDependency }
func (e *CircularDependencyError) Code() string         { return CodeCircularDependency }

// FeatureIDs returns the distinct ids on the cycle.
func (e *CircularDependencyError) FeatureIDs() []string {
	seen := make(map[string]bool, len(e.Cycle))
	var ids []string
	for _, id := range e.Cycle {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// InvalidDurationError: the feature's resolved duration is not positive.
type InvalidDurationError struct {
	FeatureID string
	Days      int
}

func (e *InvalidDurationError) Error() string {
	return fmt.Sprintf("feature %q has invalid duration %d days (must be > 0)", e.FeatureID, e.Days)
}
func (e *InvalidDurationError) Is(target error) bool { return target == ErrInvalidDuration }
func (e *InvalidDurationError) Code() string         { return CodeInvalidDuration }
func (e *InvalidDurationError) FeatureIDs() []string { return []string{e.FeatureID} }

// DuplicateFeatureError: two input features share an id.
type DuplicateFeatureError struct {
	FeatureID string
}

func (e *DuplicateFeatureError) Error() string {
	return fmt.Sprintf("duplicate feature id %q", e.FeatureID)
}
func (e *DuplicateFeatureError) Is(target error) bool { return target == ErrDuplicateFeature }
func (e *DuplicateFeatureError) Code() string         { return CodeDuplicateFeature }
func (e *DuplicateFeatureError) FeatureIDs() []string { return []string{e.FeatureID} }

// InvalidIDError: the feature at Position has an empty id.
type InvalidIDError struct {
	Position int
}

func (e *InvalidIDError) Error() string {
	return fmt.Sprintf("feature at position %d has an empty id", e.Position)
}
func (e *InvalidIDError) Is(target error) bool { return target == ErrInvalidID }
func (e *InvalidIDError) Code() string         { return CodeInvalidID }
func (e *InvalidIDError) FeatureIDs() []string { return nil }
