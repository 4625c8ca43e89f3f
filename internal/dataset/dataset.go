// Package dataset persists the situation table as a CSV file that is read and
// written wholesale.
package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/synth"
)

// Header is the CSV column order.
var Header = []string{
	domain.FieldCity,
	domain.FieldTimeOfDay,
	domain.FieldDayOfWeek,
	domain.FieldWeather,
	domain.FieldTemperature,
	domain.FieldPopulationDensity,
	domain.FieldEmergencyType,
	domain.FieldSeverity,
}

// Write encodes records as CSV with a header row.
func Write(w io.Writer, records []domain.SituationRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			string(r.City),
			string(r.TimeOfDay),
			string(r.DayOfWeek),
			string(r.Weather),
			strconv.Itoa(r.Temperature),
			strconv.Itoa(r.PopulationDensity),
			string(r.EmergencyType),
			string(r.Severity),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Read decodes a CSV table. The header must match Header exactly and every
// row must be a valid, labeled record; the first invalid row fails the read.
func Read(r io.Reader) ([]domain.SituationRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Header)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("read table: empty file")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("read table: unexpected header %v", header)
	}

	var out []domain.SituationRecord
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		rec, err := decodeRow(row)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func decodeRow(row []string) (domain.SituationRecord, error) {
	temp, err := strconv.Atoi(row[4])
	if err != nil {
		return domain.SituationRecord{}, &domain.DataDomainError{Field: domain.FieldTemperature, Value: row[4], Reason: "not an integer"}
	}
	density, err := strconv.Atoi(row[5])
	if err != nil {
		return domain.SituationRecord{}, &domain.DataDomainError{Field: domain.FieldPopulationDensity, Value: row[5], Reason: "not an integer"}
	}

	city, _ := domain.ParseCity(row[0])
	tod, _ := domain.ParseTimeOfDay(row[1])
	dow, _ := domain.ParseDayOfWeek(row[2])
	weather, _ := domain.ParseWeather(row[3])
	etype, _ := domain.ParseEmergencyType(row[6])
	sev, _ := domain.ParseSeverity(row[7])

	rec := domain.SituationRecord{
		Situation: domain.Situation{
			City:              city,
			TimeOfDay:         tod,
			DayOfWeek:         dow,
			Weather:           weather,
			Temperature:       temp,
			PopulationDensity: density,
			EmergencyType:     etype,
		},
		Severity: sev,
	}
	if err := rec.Validate(); err != nil {
		return domain.SituationRecord{}, err
	}
	return rec, nil
}

// Store reads and writes the table at a fixed path.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store for the CSV file at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the table location.
func (s *Store) Path() string { return s.path }

// Load reads the whole table. A missing file surfaces as fs.ErrNotExist.
func (s *Store) Load() ([]domain.SituationRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	records, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", s.path, err)
	}
	return records, nil
}

// Save replaces the table. It writes a temporary file in the same directory
// and renames it over the target so readers never observe a partial table.
func (s *Store) Save(records []domain.SituationRecord) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create table directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".table-*.csv")
	if err != nil {
		return fmt.Errorf("create temp table: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after a successful rename

	if err := Write(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp table: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace table: %w", err)
	}
	return nil
}

// LoadOrGenerate returns the cached table unchanged when it exists. Otherwise
// it synthesizes count records from seed, saves them, and returns them with
// generated=true.
func (s *Store) LoadOrGenerate(ctx context.Context, count int, seed uint64) (records []domain.SituationRecord, generated bool, err error) {
	records, err = s.Load()
	if err == nil {
		s.logger.Info("loaded cached table", "path", s.path, "rows", len(records))
		return records, false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	records = synth.Generate(count, seed)
	if err := s.Save(records); err != nil {
		return nil, false, err
	}
	s.logger.Info("generated table", "path", s.path, "rows", len(records), "seed", seed)
	return records, true, nil
}
