package feature

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/joshharrison/roadloom/internal/calendar"
)

// Key aliases accepted from external exports. The first entry is the
// canonical camelCase name.
var (
	keysID       = []string{"id", "feature_id", "featureId"}
	keysTitle    = []string{"title", "name"}
	keysStatus   = []string{"status", "state"}
	keysPriority = []string{"priority"}
	keysLabels   = []string{"labels", "tags"}
	keysWeeks    = []string{"effortEstimateWeeks", "effort_estimate_weeks", "estimateWeeks", "estimate_weeks"}
	keysDays     = []string{"durationDays", "duration_days"}
	keysStart    = []string{"startDate", "start_date"}
	keysEnd      = []string{"endDate", "end_date"}
	keysDeps     = []string{"dependsOn", "depends_on", "dependencies", "blocked_by"}
)

// ParseJSON decodes features from either a top-level array or an object
// with a "features" array. Field names may be camelCase or snake_case and
// dependency entries may be bare ids or objects with an "id".
func ParseJSON(data []byte) ([]Feature, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse features: invalid JSON")
	}

	root := gjson.ParseBytes(data)
	list := root
	if root.IsObject() {
		list = root.Get("features")
		if !list.Exists() {
			return nil, fmt.Errorf("parse features: object has no \"features\" array")
		}
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("parse features: expected an array of features")
	}

	var features []Feature
	var parseErr error
	list.ForEach(func(_, item gjson.Result) bool {
		f, err := parseFeature(item)
		if err != nil {
			parseErr = fmt.Errorf("parse features[%d]: %w", len(features), err)
			return false
		}
		features = append(features, f)
		return true
	})
	if parseErr != nil {
		return nil, parseErr
	}
	return features, nil
}

// ParseYAML decodes the same shapes as ParseJSON from YAML.
func ParseYAML(data []byte) ([]Feature, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse features yaml: %w", err)
	}
	if doc == nil {
		return nil, nil
	}
	// Re-encode so both formats share the tolerant JSON field mapping.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("parse features yaml: %w", err)
	}
	return ParseJSON(raw)
}

func parseFeature(item gjson.Result) (Feature, error) {
	if !item.IsObject() {
		return Feature{}, fmt.Errorf("expected object, got %s", item.Type)
	}

	f := Feature{
		ID:                  first(item, keysID).String(),
		Title:               first(item, keysTitle).String(),
		Status:              NormalizeStatus(first(item, keysStatus).String()),
		Priority:            int(first(item, keysPriority).Int()),
		EffortEstimateWeeks: int(first(item, keysWeeks).Int()),
		DurationDays:        int(first(item, keysDays).Int()),
	}

	first(item, keysLabels).ForEach(func(_, l gjson.Result) bool {
		f.Labels = append(f.Labels, l.String())
		return true
	})

	first(item, keysDeps).ForEach(func(_, d gjson.Result) bool {
		if d.IsObject() {
			d = first(d, keysID)
		}
		f.DependsOn = append(f.DependsOn, d.String())
		return true
	})

	var err error
	if f.StartDate, err = parseDate(first(item, keysStart)); err != nil {
		return Feature{}, fmt.Errorf("feature %q startDate: %w", f.ID, err)
	}
	if f.EndDate, err = parseDate(first(item, keysEnd)); err != nil {
		return Feature{}, fmt.Errorf("feature %q endDate: %w", f.ID, err)
	}

	return f, nil
}

func first(item gjson.Result, keys []string) gjson.Result {
	for _, k := range keys {
		if r := item.Get(k); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}

func parseDate(r gjson.Result) (*calendar.Date, error) {
	if !r.Exists() || r.Type == gjson.Null || r.String() == "" {
		return nil, nil
	}
	d, err := calendar.Parse(r.String())
	if err != nil {
		return nil, err
	}
	return &d, nil
}
