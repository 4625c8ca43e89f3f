package domain

import (
	"context"
	"errors"
	"time"
)

// Numeric domain bounds.
const (
	MinTemperature       = 10
	MaxTemperature       = 45
	MinPopulationDensity = 500
	MaxPopulationDensity = 20000
)

// Situation is the observable context of a reported emergency. It is the
// input to severity prediction.
type Situation struct {
	City              City          `json:"city"`
	TimeOfDay         TimeOfDay     `json:"time_of_day"`
	DayOfWeek         DayOfWeek     `json:"day_of_week"`
	Weather           Weather       `json:"weather"`
	Temperature       int           `json:"temp"`
	PopulationDensity int           `json:"population_density"`
	EmergencyType     EmergencyType `json:"emergency_type"`
}

// SituationRecord is a labeled situation, one row of the training table.
type SituationRecord struct {
	Situation
	Severity Severity `json:"severity"`
}

// Validate checks every field against its domain. Categorical violations are
// reported as UnknownCategoryError and numeric ones as DataDomainError; all
// violations are joined into the returned error.
func (s Situation) Validate() error {
	var errs []error
	if !s.City.Valid() {
		errs = append(errs, &UnknownCategoryError{Field: FieldCity, Value: string(s.City)})
	}
	if !s.TimeOfDay.Valid() {
		errs = append(errs, &UnknownCategoryError{Field: FieldTimeOfDay, Value: string(s.TimeOfDay)})
	}
	if !s.DayOfWeek.Valid() {
		errs = append(errs, &UnknownCategoryError{Field: FieldDayOfWeek, Value: string(s.DayOfWeek)})
	}
	if !s.Weather.Valid() {
		errs = append(errs, &UnknownCategoryError{Field: FieldWeather, Value: string(s.Weather)})
	}
	if !s.EmergencyType.Valid() {
		errs = append(errs, &UnknownCategoryError{Field: FieldEmergencyType, Value: string(s.EmergencyType)})
	}
	if s.Temperature < MinTemperature || s.Temperature > MaxTemperature {
		errs = append(errs, &DataDomainError{Field: FieldTemperature, Value: s.Temperature, Reason: "outside [10, 45]"})
	}
	if s.PopulationDensity < MinPopulationDensity || s.PopulationDensity > MaxPopulationDensity {
		errs = append(errs, &DataDomainError{Field: FieldPopulationDensity, Value: s.PopulationDensity, Reason: "outside [500, 20000]"})
	}
	return errors.Join(errs...)
}

// Validate checks the situation fields and the severity label. Training rows
// must be fully valid, so every violation here is a DataDomainError.
func (r SituationRecord) Validate() error {
	var errs []error
	if err := r.Situation.Validate(); err != nil {
		for _, u := range UnknownCategories(err) {
			errs = append(errs, &DataDomainError{Field: u.Field, Value: u.Value, Reason: "not in enumerated domain"})
		}
		if HasDataDomainViolation(err) {
			errs = append(errs, numericViolations(err)...)
		}
	}
	if !r.Severity.Valid() {
		errs = append(errs, &DataDomainError{Field: FieldSeverity, Value: string(r.Severity), Reason: "not in enumerated domain"})
	}
	return errors.Join(errs...)
}

func numericViolations(err error) []error {
	var out []error
	walkErrors(err, func(e error) {
		if d, ok := e.(*DataDomainError); ok {
			out = append(out, d)
		}
	})
	return out
}

// Assessment is a scored situation as published to downstream consumers.
type Assessment struct {
	ID            string               `json:"id"`
	Situation     Situation            `json:"situation"`
	Severity      Severity             `json:"severity"`
	Confidence    float64              `json:"confidence"`
	Probabilities map[Severity]float64 `json:"probabilities"`
	Warnings      []string             `json:"warnings,omitempty"`
	AssessedAt    time.Time            `json:"assessed_at"`
}

// RawMessage is an unprocessed situation report from the source topic.
type RawMessage struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}
