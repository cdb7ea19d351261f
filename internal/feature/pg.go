package feature

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/joshharrison/roadloom/internal/calendar"
)

// Schema is the table layout PGSource reads. It is exported so tests and
// local setups can create it.
const Schema = `
CREATE TABLE IF NOT EXISTS features (
	id                    TEXT PRIMARY KEY,
	roadmap_id            TEXT NOT NULL DEFAULT '',
	title                 TEXT NOT NULL DEFAULT '',
	status                TEXT NOT NULL DEFAULT 'planned',
	priority              INT  NOT NULL DEFAULT 0,
	labels                TEXT[] NULL,
	effort_estimate_weeks INT  NULL,
	duration_days         INT  NULL,
	start_date            DATE NULL,
	end_date              DATE NULL,
	position              INT  NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS feature_dependencies (
	feature_id    TEXT NOT NULL REFERENCES features(id),
	depends_on_id TEXT NOT NULL,
	PRIMARY KEY (feature_id, depends_on_id)
);`

// NewPool creates a PostgreSQL connection pool and verifies connectivity.
func NewPool(ctx context.Context, connStr string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("parse db config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}

	return pool, nil
}

// PGSource loads one roadmap's features and dependency edges from Postgres.
// An empty RoadmapID loads every feature.
type PGSource struct {
	Pool      *pgxpool.Pool
	RoadmapID string
}

// Features implements Source. Features come back in (position, id) order so
// the snapshot order is stable across calls.
func (s *PGSource) Features(ctx context.Context) ([]Feature, error) {
	var roadmap *string
	if s.RoadmapID != "" {
		roadmap = &s.RoadmapID
	}

	rows, err := s.Pool.Query(ctx,
		`SELECT id, title, status, priority, COALESCE(labels, '{}'),
		        COALESCE(effort_estimate_weeks, 0), COALESCE(duration_days, 0),
		        start_date, end_date
		 FROM features
		 WHERE ($1::text IS NULL OR roadmap_id = $1)
		 ORDER BY position, id`,
		roadmap,
	)
	if err != nil {
		return nil, fmt.Errorf("query features: %w", err)
	}
	defer rows.Close()

	features, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Feature, error) {
		var (
			f          Feature
			status     string
			start, end *time.Time
		)
		err := row.Scan(&f.ID, &f.Title, &status, &f.Priority, &f.Labels,
			&f.EffortEstimateWeeks, &f.DurationDays, &start, &end)
		if err != nil {
			return Feature{}, err
		}
		f.Status = NormalizeStatus(status)
		f.StartDate = toDate(start)
		f.EndDate = toDate(end)
		return f, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan features: %w", err)
	}
	if len(features) == 0 {
		return nil, nil
	}

	ids := make([]string, len(features))
	index := make(map[string]int, len(features))
	for i, f := range features {
		ids[i] = f.ID
		index[f.ID] = i
	}

	edgeRows, err := s.Pool.Query(ctx,
		`SELECT feature_id, depends_on_id
		 FROM feature_dependencies
		 WHERE feature_id = ANY($1)
		 ORDER BY feature_id, depends_on_id`,
		ids,
	)
	if err != nil {
		return nil, fmt.Errorf("query dependencies: %w", err)
	}
	defer edgeRows.Close()

	type edge struct{ from, dep string }
	edges, err := pgx.CollectRows(edgeRows, func(row pgx.CollectableRow) (edge, error) {
		var e edge
		err := row.Scan(&e.from, &e.dep)
		return e, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan dependencies: %w", err)
	}

	for _, e := range edges {
		i := index[e.from]
		features[i].DependsOn = append(features[i].DependsOn, e.dep)
	}

	return features, nil
}

func toDate(t *time.Time) *calendar.Date {
	if t == nil {
		return nil
	}
	d := calendar.FromTime(*t)
	return &d
}
