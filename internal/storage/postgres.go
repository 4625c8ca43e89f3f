package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

type postgresStore struct {
	baseStore
}

// NewPostgres opens a Postgres-backed store through the pgx database/sql driver.
func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/emergency_severity?sslmode=disable"
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	return &postgresStore{baseStore{db: db}}, nil
}

func (s *postgresStore) Init(ctx context.Context) error {
	return s.exec(ctx, []string{
		`CREATE TABLE IF NOT EXISTS predictions (
			id UUID PRIMARY KEY,
			assessed_at TIMESTAMPTZ NOT NULL,
			city TEXT NOT NULL,
			time_of_day TEXT NOT NULL,
			day_of_week TEXT NOT NULL,
			weather TEXT NOT NULL,
			temp INTEGER NOT NULL,
			population_density INTEGER NOT NULL,
			emergency_type TEXT NOT NULL,
			severity TEXT NOT NULL,
			confidence DOUBLE PRECISION NOT NULL,
			probabilities_json JSONB NOT NULL,
			warnings_json JSONB NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_predictions_assessed_at ON predictions(assessed_at)`,
	})
}

func (s *postgresStore) SavePrediction(ctx context.Context, a domain.Assessment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions (id, assessed_at, city, time_of_day, day_of_week, weather, temp,
			population_density, emergency_type, severity, confidence, probabilities_json, warnings_json)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		predictionArgs(a, a.AssessedAt.UTC())...,
	)
	if err != nil {
		return fmt.Errorf("save prediction %s: %w", a.ID, err)
	}
	return nil
}
