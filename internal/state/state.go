// Package state persists computed timelines so they can be compared or
// re-rendered later. The latest run lives in <dir>/timeline.json and every
// saved run is archived as <dir>/runs/<id>.json.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joshharrison/roadloom/internal/calendar"
	"github.com/joshharrison/roadloom/internal/feature"
	"github.com/joshharrison/roadloom/internal/timeline"
)

// DefaultDir is the state directory used when none is configured.
const DefaultDir = ".roadloom"

const (
	latestFile = "timeline.json"
	runsDir    = "runs"
)

// ErrNoRuns is returned when the store holds no saved timeline.
var ErrNoRuns = errors.New("no saved timelines")

// Run is one persisted scheduling run: the input snapshot and its result.
type Run struct {
	ID           string            `json:"id"`
	CreatedAt    time.Time         `json:"created_at"`
	Source       string            `json:"source,omitempty"`
	ProjectStart calendar.Date     `json:"project_start"`
	Input        []feature.Feature `json:"input"`
	Result       *timeline.Result  `json:"result"`
}

// RunSummary is the listing view of a saved run.
type RunSummary struct {
	ID            string        `json:"id"`
	CreatedAt     time.Time     `json:"created_at"`
	Source        string        `json:"source,omitempty"`
	Features      int           `json:"features"`
	TotalDuration int           `json:"total_duration"`
	Finish        calendar.Date `json:"finish"`
}

// NewRun wraps a computed result in a Run with a fresh id.
func NewRun(source string, projectStart calendar.Date, input []feature.Feature, result *timeline.Result) *Run {
	return &Run{
		ID:           uuid.NewString(),
		CreatedAt:    time.Now().UTC(),
		Source:       source,
		ProjectStart: projectStart,
		Input:        input,
		Result:       result,
	}
}

// Summary condenses the run for listings.
func (r *Run) Summary() RunSummary {
	s := RunSummary{
		ID:        r.ID,
		CreatedAt: r.CreatedAt,
		Source:    r.Source,
		Features:  len(r.Input),
	}
	if r.Result != nil {
		if cp := r.Result.CriticalPath; cp != nil {
			s.TotalDuration = cp.TotalDuration
			s.Finish = cp.EndDate
		}
	}
	return s
}

// Store reads and writes runs under Dir.
type Store struct {
	Dir string

	mu sync.Mutex
}

// NewStore returns a Store rooted at dir, or DefaultDir when dir is empty.
func NewStore(dir string) *Store {
	if dir == "" {
		dir = DefaultDir
	}
	return &Store{Dir: dir}
}

// Save archives the run and makes it the latest.
func (s *Store) Save(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Join(s.Dir, runsDir), 0755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal run: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, runsDir, run.ID+".json"), data, 0644); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir, latestFile), data, 0644); err != nil {
		return fmt.Errorf("write latest: %w", err)
	}
	return nil
}

// Exists checks if a latest timeline has been saved.
func (s *Store) Exists() bool {
	_, err := os.Stat(filepath.Join(s.Dir, latestFile))
	return err == nil
}

// Latest reads the most recently saved run.
func (s *Store) Latest() (*Run, error) {
	run, err := readRun(filepath.Join(s.Dir, latestFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRuns
	}
	return run, err
}

// Load reads an archived run by id or unique id prefix.
func (s *Store) Load(id string) (*Run, error) {
	if id == "" {
		return nil, fmt.Errorf("empty run id")
	}
	entries, err := os.ReadDir(filepath.Join(s.Dir, runsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRuns
	}
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}

	var matches []string
	for _, e := range entries {
		name := strings.TrimSuffix(e.Name(), ".json")
		if name == id {
			matches = []string{name}
			break
		}
		if strings.HasPrefix(name, id) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("run %q not found", id)
	case 1:
		return readRun(filepath.Join(s.Dir, runsDir, matches[0]+".json"))
	default:
		return nil, fmt.Errorf("run id %q is ambiguous (%d matches)", id, len(matches))
	}
}

// List returns summaries of all archived runs, newest first.
func (s *Store) List() ([]RunSummary, error) {
	entries, err := os.ReadDir(filepath.Join(s.Dir, runsDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read runs: %w", err)
	}

	var out []RunSummary
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		run, err := readRun(filepath.Join(s.Dir, runsDir, e.Name()))
		if err != nil {
			return nil, err
		}
		out = append(out, run.Summary())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Clean removes the state directory.
func (s *Store) Clean() error {
	return os.RemoveAll(s.Dir)
}

func readRun(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read state: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("parse state %s: %w", filepath.Base(path), err)
	}
	return &run, nil
}
