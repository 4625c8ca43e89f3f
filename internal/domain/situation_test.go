package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSituation() Situation {
	return Situation{
		City:              Delhi,
		TimeOfDay:         Night,
		DayOfWeek:         Friday,
		Weather:           Stormy,
		Temperature:       35,
		PopulationDensity: 9000,
		EmergencyType:     Fire,
	}
}

func TestSituation_Validate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		require.NoError(t, validSituation().Validate())
	})

	t.Run("bounds are inclusive", func(t *testing.T) {
		s := validSituation()
		s.Temperature = MinTemperature
		s.PopulationDensity = MaxPopulationDensity
		assert.NoError(t, s.Validate())
		s.Temperature = MaxTemperature
		s.PopulationDensity = MinPopulationDensity
		assert.NoError(t, s.Validate())
	})

	t.Run("temperature out of range", func(t *testing.T) {
		s := validSituation()
		s.Temperature = 46
		err := s.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDataDomain)
		assert.NotErrorIs(t, err, ErrUnknownCategory)
	})

	t.Run("unknown city", func(t *testing.T) {
		s := validSituation()
		s.City = "Paris"
		err := s.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnknownCategory)

		unknown := UnknownCategories(err)
		require.Len(t, unknown, 1)
		assert.Equal(t, FieldCity, unknown[0].Field)
		assert.Equal(t, "Paris", unknown[0].Value)
	})

	t.Run("collects every violation", func(t *testing.T) {
		s := Situation{Temperature: 5, PopulationDensity: 100}
		err := s.Validate()
		require.Error(t, err)
		assert.Len(t, UnknownCategories(err), 5)
		assert.True(t, HasDataDomainViolation(err))
	})
}

func TestSituationRecord_Validate(t *testing.T) {
	rec := SituationRecord{Situation: validSituation(), Severity: High}
	require.NoError(t, rec.Validate())

	rec.Severity = "Extreme"
	err := rec.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataDomain)

	rec = SituationRecord{Situation: validSituation(), Severity: Low}
	rec.Weather = "Snowy"
	err = rec.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDataDomain)
	assert.NotErrorIs(t, err, ErrUnknownCategory, "training rows report domain errors only")

	var dd *DataDomainError
	require.True(t, errors.As(err, &dd))
	assert.Equal(t, FieldWeather, dd.Field)
}

func TestParseEnums(t *testing.T) {
	c, err := ParseCity("  delhi ")
	require.NoError(t, err)
	assert.Equal(t, Delhi, c)

	d, err := ParseDayOfWeek("FRI")
	require.NoError(t, err)
	assert.Equal(t, Friday, d)

	_, err = ParseWeather("Snowy")
	require.Error(t, err)
	var u *UnknownCategoryError
	require.ErrorAs(t, err, &u)
	assert.Equal(t, FieldWeather, u.Field)
	assert.Equal(t, "Snowy", u.Value)
}

func TestSeverity_RankAndEscalation(t *testing.T) {
	assert.Equal(t, 0, Low.Rank())
	assert.Equal(t, 3, Critical.Rank())
	assert.Equal(t, -1, Severity("Extreme").Rank())

	assert.False(t, Low.Escalates())
	assert.False(t, Medium.Escalates())
	assert.True(t, High.Escalates())
	assert.True(t, Critical.Escalates())
}

func TestCity_HighDensity(t *testing.T) {
	assert.True(t, Delhi.HighDensity())
	assert.True(t, Mumbai.HighDensity())
	assert.False(t, Pune.HighDensity())
}

func TestDomainAccessorsReturnCopies(t *testing.T) {
	cs := Cities()
	cs[0] = "Paris"
	assert.Equal(t, Delhi, Cities()[0])
	assert.Len(t, DaysOfWeek(), 7)
	assert.Len(t, EmergencyTypes(), 6)
	assert.Equal(t, []Severity{Low, Medium, High, Critical}, Severities())
}
