package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

// rawSituation is the wire shape of an inbound situation report. Numeric
// fields accept either JSON numbers or numeric strings, since reports arrive
// from form-driven clients that post everything as text.
type rawSituation struct {
	City              string          `json:"city"`
	TimeOfDay         string          `json:"time_of_day"`
	DayOfWeek         string          `json:"day_of_week"`
	Weather           string          `json:"weather"`
	Temperature       json.RawMessage `json:"temp"`
	PopulationDensity json.RawMessage `json:"population_density"`
	EmergencyType     string          `json:"emergency_type"`
}

// ParseSituation decodes a JSON situation report. Categorical values are
// canonicalized when they match their enumeration; values that do not match
// are kept verbatim so the caller can decide how to treat them (see
// Situation.Validate). Malformed JSON or non-numeric numeric fields fail.
func ParseSituation(data []byte) (Situation, error) {
	var raw rawSituation
	if err := json.Unmarshal(data, &raw); err != nil {
		return Situation{}, fmt.Errorf("parse situation: %w", err)
	}

	temp, err := parseIntField(FieldTemperature, raw.Temperature)
	if err != nil {
		return Situation{}, err
	}
	density, err := parseIntField(FieldPopulationDensity, raw.PopulationDensity)
	if err != nil {
		return Situation{}, err
	}

	city, _ := ParseCity(raw.City)
	tod, _ := ParseTimeOfDay(raw.TimeOfDay)
	dow, _ := ParseDayOfWeek(raw.DayOfWeek)
	weather, _ := ParseWeather(raw.Weather)
	etype, _ := ParseEmergencyType(raw.EmergencyType)

	return Situation{
		City:              city,
		TimeOfDay:         tod,
		DayOfWeek:         dow,
		Weather:           weather,
		Temperature:       temp,
		PopulationDensity: density,
		EmergencyType:     etype,
	}, nil
}

// ParseRawMessage decodes the value of a source-topic message.
func ParseRawMessage(raw RawMessage) (Situation, error) {
	return ParseSituation(raw.Value)
}

func parseIntField(field string, v json.RawMessage) (int, error) {
	if len(v) == 0 || string(v) == "null" {
		return 0, &DataDomainError{Field: field, Value: nil, Reason: "missing"}
	}
	var n json.Number
	if err := json.Unmarshal(v, &n); err != nil {
		var s string
		if errS := json.Unmarshal(v, &s); errS != nil {
			return 0, &DataDomainError{Field: field, Value: string(v), Reason: "not a number"}
		}
		n = json.Number(s)
	}
	if i, err := strconv.Atoi(n.String()); err == nil {
		return i, nil
	}
	f, err := n.Float64()
	if err != nil {
		return 0, &DataDomainError{Field: field, Value: n.String(), Reason: "not a number"}
	}
	if f != float64(int(f)) {
		return 0, &DataDomainError{Field: field, Value: f, Reason: "not an integer"}
	}
	return int(f), nil
}

// OutputMessage is the serialized form destined for the sink topic.
type OutputMessage struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// SerializeAssessment marshals an assessment into an output message keyed by
// its ID, with severity and assessed_at headers for consumers that route on them.
func SerializeAssessment(a Assessment) (OutputMessage, error) {
	if a.ID == "" {
		return OutputMessage{}, errors.New("serialize assessment: missing id")
	}
	data, err := json.Marshal(a)
	if err != nil {
		return OutputMessage{}, fmt.Errorf("serialize assessment: %w", err)
	}
	return OutputMessage{
		Key:   []byte(a.ID),
		Value: data,
		Headers: map[string]string{
			"severity":    string(a.Severity),
			"assessed_at": a.AssessedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}
