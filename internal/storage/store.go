// Package storage persists an audit log of severity assessments.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

// Store records every assessment the service produces.
type Store interface {
	Init(ctx context.Context) error
	Close() error
	SavePrediction(ctx context.Context, a domain.Assessment) error
}

// NewStore opens the store for driver. An empty driver disables the audit
// log and returns a nil Store.
func NewStore(driver, dsn string) (Store, error) {
	switch strings.ToLower(driver) {
	case "":
		return nil, nil
	case "sqlite":
		return NewSQLite(dsn)
	case "postgres", "postgresql":
		return NewPostgres(dsn)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}

type baseStore struct {
	db *sql.DB
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *baseStore) exec(ctx context.Context, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func encodeJSON(value any) string {
	data, _ := json.Marshal(value)
	return string(data)
}

// predictionArgs returns the insert arguments in column order:
// id, assessed_at, city, time_of_day, day_of_week, weather, temp,
// population_density, emergency_type, severity, confidence, probabilities, warnings.
func predictionArgs(a domain.Assessment, assessedAt any) []any {
	s := a.Situation
	warnings := a.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return []any{
		a.ID,
		assessedAt,
		string(s.City),
		string(s.TimeOfDay),
		string(s.DayOfWeek),
		string(s.Weather),
		s.Temperature,
		s.PopulationDensity,
		string(s.EmergencyType),
		string(a.Severity),
		a.Confidence,
		encodeJSON(a.Probabilities),
		encodeJSON(warnings),
	}
}
