package severity

import (
	"slices"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

// numericColumns pass through encoding unchanged and lead the feature vector.
var numericColumns = []string{domain.FieldTemperature, domain.FieldPopulationDensity}

// categoricalColumns are one-hot expanded in this order.
var categoricalColumns = []string{
	domain.FieldCity,
	domain.FieldTimeOfDay,
	domain.FieldDayOfWeek,
	domain.FieldWeather,
	domain.FieldEmergencyType,
}

// Schema is the frozen feature layout produced by one-hot expansion of a
// training table: the numeric columns, then one "<column>_<value>"
// indicator per categorical value present, values sorted within a column.
type Schema struct {
	columns []string
	index   map[string]int
}

// FitSchema derives the feature layout from the categorical values present in records.
func FitSchema(records []domain.SituationRecord) Schema {
	values := make(map[string]map[string]bool, len(categoricalColumns))
	for _, c := range categoricalColumns {
		values[c] = map[string]bool{}
	}
	for _, r := range records {
		for i, v := range categoricalValues(r.Situation) {
			values[categoricalColumns[i]][v] = true
		}
	}

	columns := slices.Clone(numericColumns)
	for _, c := range categoricalColumns {
		vs := make([]string, 0, len(values[c]))
		for v := range values[c] {
			vs = append(vs, v)
		}
		slices.Sort(vs)
		for _, v := range vs {
			columns = append(columns, indicator(c, v))
		}
	}
	return NewSchema(columns)
}

// NewSchema builds a schema from an explicit column list.
func NewSchema(columns []string) Schema {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		index[c] = i
	}
	return Schema{columns: slices.Clone(columns), index: index}
}

// Columns returns the feature names in vector order.
func (s Schema) Columns() []string { return slices.Clone(s.columns) }

// Len returns the feature vector length.
func (s Schema) Len() int { return len(s.columns) }

// Has reports whether the schema contains a column.
func (s Schema) Has(column string) bool {
	_, ok := s.index[column]
	return ok
}

// Encode expands a situation and reindexes it to the schema. Indicator
// columns the situation does not set stay 0; categorical values with no
// column of their own contribute nothing.
func (s Schema) Encode(sit domain.Situation) []float64 {
	x := make([]float64, len(s.columns))
	if i, ok := s.index[domain.FieldTemperature]; ok {
		x[i] = float64(sit.Temperature)
	}
	if i, ok := s.index[domain.FieldPopulationDensity]; ok {
		x[i] = float64(sit.PopulationDensity)
	}
	for ci, v := range categoricalValues(sit) {
		if i, ok := s.index[indicator(categoricalColumns[ci], v)]; ok {
			x[i] = 1
		}
	}
	return x
}

// EncodeAll encodes a batch of records.
func (s Schema) EncodeAll(records []domain.SituationRecord) [][]float64 {
	out := make([][]float64, len(records))
	for i, r := range records {
		out[i] = s.Encode(r.Situation)
	}
	return out
}

func categoricalValues(s domain.Situation) [5]string {
	return [5]string{
		string(s.City),
		string(s.TimeOfDay),
		string(s.DayOfWeek),
		string(s.Weather),
		string(s.EmergencyType),
	}
}

func indicator(column, value string) string {
	return column + "_" + value
}
