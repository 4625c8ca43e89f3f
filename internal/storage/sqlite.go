package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

type sqliteStore struct {
	baseStore
}

// NewSQLite opens a SQLite-backed store using the pure Go driver.
func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:emergency_severity.db?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &sqliteStore{baseStore{db: db}}, nil
}

func (s *sqliteStore) Init(ctx context.Context) error {
	return s.exec(ctx, []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id TEXT PRIMARY KEY,
			assessed_at TEXT NOT NULL,
			city TEXT NOT NULL,
			time_of_day TEXT NOT NULL,
			day_of_week TEXT NOT NULL,
			weather TEXT NOT NULL,
			temp INTEGER NOT NULL,
			population_density INTEGER NOT NULL,
			emergency_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			confidence REAL NOT NULL,
			probabilities_json TEXT NOT NULL,
			warnings_json TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_assessed_at ON predictions(assessed_at)`,
	})
}

func (s *sqliteStore) SavePrediction(ctx context.Context, a domain.Assessment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, assessed_at, city, time_of_day, day_of_week, weather, temp,
			population_density, emergency_type, severity, confidence, probabilities_json, warnings_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		predictionArgs(a, a.AssessedAt.UTC().Format(time.RFC3339Nano))...,
	)
	if err != nil {
		return fmt.Errorf("save prediction %s: %w", a.ID, err)
	}
	return nil
}
