// Package store persists aggregated analytics snapshots to PostgreSQL and
// saves them on a timer.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/edumetrics-search/pkg/postgres"
)

// Schema creates the tables the store writes to.
const Schema = `
CREATE TABLE IF NOT EXISTS analytics_snapshots (
    id          BIGSERIAL PRIMARY KEY,
    data        JSONB NOT NULL,
    captured_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS analytics_query_counts (
    snapshot_id BIGINT NOT NULL REFERENCES analytics_snapshots(id) ON DELETE CASCADE,
    query       TEXT NOT NULL,
    count       BIGINT NOT NULL,
    PRIMARY KEY (snapshot_id, query)
);`

// StatsSource is anything that can report current aggregated stats.
type StatsSource interface {
	Stats() analytics.AggregatedStats
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "analytics-store"),
	}
}

// Migrate creates the snapshot tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.DB.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("creating analytics tables: %w", err)
	}
	return nil
}

// SaveSnapshot writes stats and its top query counts in one transaction and
// returns the snapshot id.
func (s *Store) SaveSnapshot(ctx context.Context, stats analytics.AggregatedStats) (int64, error) {
	data, err := json.Marshal(stats)
	if err != nil {
		return 0, fmt.Errorf("marshaling stats: %w", err)
	}
	capturedAt := stats.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = time.Now().UTC()
	}

	var id int64
	err = s.db.InTx(ctx, func(tx *sql.Tx) error {
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO analytics_snapshots (data, captured_at) VALUES ($1, $2) RETURNING id`,
			data, capturedAt,
		).Scan(&id); err != nil {
			return fmt.Errorf("inserting snapshot: %w", err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO analytics_query_counts (snapshot_id, query, count) VALUES ($1, $2, $3)`)
		if err != nil {
			return fmt.Errorf("preparing query count insert: %w", err)
		}
		defer stmt.Close()
		for _, q := range stats.TopQueries {
			if _, err := stmt.ExecContext(ctx, id, q.Query, q.Count); err != nil {
				return fmt.Errorf("inserting query count %q: %w", q.Query, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("saving analytics snapshot: %w", err)
	}

	s.logger.Info("analytics snapshot saved",
		"snapshot_id", id,
		"total_searches", stats.TotalSearches,
		"top_queries", len(stats.TopQueries),
	)
	return id, nil
}

// LatestSnapshot loads the most recent snapshot. It returns nil, nil when no
// snapshot has been saved yet.
func (s *Store) LatestSnapshot(ctx context.Context) (*analytics.AggregatedStats, error) {
	var data []byte
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT 1`,
	).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest snapshot: %w", err)
	}

	var stats analytics.AggregatedStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &stats, nil
}

// ListSnapshots returns up to limit snapshots, newest first.
func (s *Store) ListSnapshots(ctx context.Context, limit int) ([]analytics.AggregatedStats, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT data FROM analytics_snapshots ORDER BY captured_at DESC, id DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []analytics.AggregatedStats
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, fmt.Errorf("scanning snapshot row: %w", err)
		}
		var stats analytics.AggregatedStats
		if err := json.Unmarshal(data, &stats); err != nil {
			s.logger.Warn("skipping corrupt snapshot", "error", err)
			continue
		}
		snapshots = append(snapshots, stats)
	}
	return snapshots, rows.Err()
}

// QueryHistory returns the recorded count of query in each snapshot, newest
// first.
func (s *Store) QueryHistory(ctx context.Context, query string, limit int) ([]analytics.QueryCount, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT c.query, c.count
		   FROM analytics_query_counts c
		   JOIN analytics_snapshots s ON s.id = c.snapshot_id
		  WHERE c.query = $1
		  ORDER BY s.captured_at DESC, s.id DESC
		  LIMIT $2`,
		query, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history for %q: %w", query, err)
	}
	defer rows.Close()

	var out []analytics.QueryCount
	for rows.Next() {
		var qc analytics.QueryCount
		if err := rows.Scan(&qc.Query, &qc.Count); err != nil {
			return nil, fmt.Errorf("scanning query count row: %w", err)
		}
		out = append(out, qc)
	}
	return out, rows.Err()
}

// HistoryHandler serves the most recent snapshots; ?limit= defaults to 10.
func (s *Store) HistoryHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 10
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 1000 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be between 1 and 1000"})
				return
			}
			limit = n
		}
		snapshots, err := s.ListSnapshots(r.Context(), limit)
		if err != nil {
			s.logger.Error("listing snapshots failed", "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "listing snapshots failed"})
			return
		}
		if snapshots == nil {
			snapshots = []analytics.AggregatedStats{}
		}
		writeJSON(w, http.StatusOK, snapshots)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// StartPeriodicSave snapshots src every interval until ctx is cancelled, then
// saves once more.
func (s *Store) StartPeriodicSave(ctx context.Context, src StatsSource, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if _, err := s.SaveSnapshot(ctx, src.Stats()); err != nil {
					s.logger.Error("periodic snapshot failed", "error", err)
				}
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if _, err := s.SaveSnapshot(shutdownCtx, src.Stats()); err != nil {
					s.logger.Error("final snapshot failed", "error", err)
				}
				return
			}
		}
	}()
	s.logger.Info("periodic snapshot started", "interval", interval)
}
