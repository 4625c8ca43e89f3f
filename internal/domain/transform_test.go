package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testAssessmentID = "a-123"

func TestParseSituation(t *testing.T) {
	t.Run("numbers", func(t *testing.T) {
		data := []byte(`{"city":"Delhi","time_of_day":"Night","day_of_week":"Fri","weather":"Stormy","temp":35,"population_density":9000,"emergency_type":"Fire"}`)
		s, err := ParseSituation(data)
		require.NoError(t, err)
		assert.Equal(t, validSituation(), s)
	})

	t.Run("numeric strings and loose case", func(t *testing.T) {
		data := []byte(`{"city":"mumbai","time_of_day":"morning","day_of_week":"mon","weather":"clear","temp":"28","population_density":"4100.0","emergency_type":"medical"}`)
		s, err := ParseSituation(data)
		require.NoError(t, err)
		assert.Equal(t, Mumbai, s.City)
		assert.Equal(t, Morning, s.TimeOfDay)
		assert.Equal(t, Monday, s.DayOfWeek)
		assert.Equal(t, Clear, s.Weather)
		assert.Equal(t, 28, s.Temperature)
		assert.Equal(t, 4100, s.PopulationDensity)
		assert.Equal(t, Medical, s.EmergencyType)
	})

	t.Run("unknown category kept verbatim", func(t *testing.T) {
		data := []byte(`{"city":"Paris","time_of_day":"Night","day_of_week":"Fri","weather":"Stormy","temp":35,"population_density":9000,"emergency_type":"Fire"}`)
		s, err := ParseSituation(data)
		require.NoError(t, err)
		assert.Equal(t, City("Paris"), s.City)
		assert.ErrorIs(t, s.Validate(), ErrUnknownCategory)
	})

	t.Run("missing temperature", func(t *testing.T) {
		_, err := ParseSituation([]byte(`{"city":"Delhi","population_density":9000}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDataDomain)
	})

	t.Run("fractional density", func(t *testing.T) {
		_, err := ParseSituation([]byte(`{"temp":30,"population_density":12.5}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDataDomain)
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := ParseRawMessage(RawMessage{Value: []byte("not json")})
		assert.Error(t, err)
	})
}

func TestSerializeAssessment(t *testing.T) {
	fake := clockwork.NewFakeClockAt(time.Date(2024, time.April, 26, 15, 10, 0, 0, time.UTC))
	SetClock(fake)
	t.Cleanup(func() { SetClock(nil) })

	a := Assessment{
		ID:            testAssessmentID,
		Situation:     validSituation(),
		Severity:      Critical,
		Confidence:    0.64,
		Probabilities: map[Severity]float64{High: 0.36, Critical: 0.64},
		AssessedAt:    Now(),
	}
	out, err := SerializeAssessment(a)
	require.NoError(t, err)
	assert.Equal(t, []byte(testAssessmentID), out.Key)
	assert.Equal(t, "Critical", out.Headers["severity"])
	assert.Equal(t, "2024-04-26T15:10:00Z", out.Headers["assessed_at"])

	var roundtrip Assessment
	require.NoError(t, json.Unmarshal(out.Value, &roundtrip))
	assert.Equal(t, a.Situation, roundtrip.Situation)
	assert.Equal(t, Critical, roundtrip.Severity)
	assert.InDelta(t, 0.64, roundtrip.Probabilities[Critical], 1e-9)

	_, err = SerializeAssessment(Assessment{})
	assert.Error(t, err)
}
