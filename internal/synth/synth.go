// Package synth generates labeled situation records from weighted random
// draws and a severity heuristic with injected label noise.
//
// Every draw, including label noise, comes from a single PCG source seeded by
// the caller, in a fixed per-record order, so a (count, seed) pair always
// yields the same table.
package synth

import (
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

// weighted pairs a value with its relative draw weight.
type weighted[T any] struct {
	Value  T
	Weight float64
}

// Draw distributions. Reporting volume is highest in daytime and lowest at
// night; Clear weather dominates; Medical is the most common emergency and
// Earthquake the rarest.
var (
	timeOfDayWeights = []weighted[domain.TimeOfDay]{
		{domain.Morning, 0.30},
		{domain.Afternoon, 0.30},
		{domain.Evening, 0.25},
		{domain.Night, 0.15},
	}
	weatherWeights = []weighted[domain.Weather]{
		{domain.Clear, 0.40},
		{domain.Cloudy, 0.20},
		{domain.Rainy, 0.20},
		{domain.Foggy, 0.10},
		{domain.Stormy, 0.10},
	}
	emergencyWeights = []weighted[domain.EmergencyType]{
		{domain.Medical, 0.30},
		{domain.Accident, 0.25},
		{domain.Fire, 0.15},
		{domain.Theft, 0.15},
		{domain.Flood, 0.10},
		{domain.Earthquake, 0.05},
	}

	// Score band → label noise.
	lowBand    = []weighted[domain.Severity]{{domain.Low, 0.70}, {domain.Medium, 0.30}}
	middleBand = []weighted[domain.Severity]{{domain.Medium, 0.60}, {domain.High, 0.40}}
	highBand   = []weighted[domain.Severity]{{domain.High, 0.70}, {domain.Critical, 0.30}}
)

const (
	temperatureMean = 30
	temperatureStd  = 6

	densityMeanHigh = 5000
	densityMeanLow  = 3000
	densityStd      = 1500

	// densityScoreThreshold is the population density at or above which the
	// heuristic adds one point.
	densityScoreThreshold = 2000
)

// Generate returns count records drawn deterministically from seed.
// A non-positive count yields an empty table.
func Generate(count int, seed uint64) []domain.SituationRecord {
	if count <= 0 {
		return []domain.SituationRecord{}
	}
	rng := NewRand(seed)
	out := make([]domain.SituationRecord, count)
	for i := range out {
		out[i] = generateRecord(rng)
	}
	return out
}

// NewRand returns the PCG-backed generator used for a given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func generateRecord(rng *rand.Rand) domain.SituationRecord {
	cities := domain.Cities()
	days := domain.DaysOfWeek()

	city := cities[rng.IntN(len(cities))]
	tod := pick(rng, timeOfDayWeights)
	dow := days[rng.IntN(len(days))]
	weather := pick(rng, weatherWeights)
	temp := clampRound(rng.NormFloat64()*temperatureStd+temperatureMean, domain.MinTemperature, domain.MaxTemperature)

	densityMean := float64(densityMeanLow)
	if city.HighDensity() {
		densityMean = densityMeanHigh
	}
	density := clampRound(rng.NormFloat64()*densityStd+densityMean, domain.MinPopulationDensity, domain.MaxPopulationDensity)
	etype := pick(rng, emergencyWeights)

	s := domain.Situation{
		City:              city,
		TimeOfDay:         tod,
		DayOfWeek:         dow,
		Weather:           weather,
		Temperature:       temp,
		PopulationDensity: density,
		EmergencyType:     etype,
	}
	return domain.SituationRecord{
		Situation: s,
		Severity:  LabelForScore(rng, HeuristicScore(s)),
	}
}

// HeuristicScore is the deterministic part of the severity rule:
//
//	+2 Accident or Fire
//	+1 Stormy, Rainy or Foggy weather
//	+1 Night
//	+1 population density >= 2000
func HeuristicScore(s domain.Situation) int {
	score := 0
	if s.EmergencyType == domain.Accident || s.EmergencyType == domain.Fire {
		score += 2
	}
	switch s.Weather {
	case domain.Stormy, domain.Rainy, domain.Foggy:
		score++
	}
	if s.TimeOfDay == domain.Night {
		score++
	}
	if s.PopulationDensity >= densityScoreThreshold {
		score++
	}
	return score
}

// ScoreBand returns the labels a score can map to.
func ScoreBand(score int) []domain.Severity {
	band := bandFor(score)
	out := make([]domain.Severity, len(band))
	for i, w := range band {
		out[i] = w.Value
	}
	return out
}

// LabelForScore draws a label from the score's noise band:
//
//	score <= 1  Low 70% / Medium 30%
//	score == 2  Medium 60% / High 40%
//	score >= 3  High 70% / Critical 30%
func LabelForScore(rng *rand.Rand, score int) domain.Severity {
	return pick(rng, bandFor(score))
}

func bandFor(score int) []weighted[domain.Severity] {
	switch {
	case score <= 1:
		return lowBand
	case score == 2:
		return middleBand
	default:
		return highBand
	}
}

// pick draws one value proportionally to its weight. Weights need not sum to 1.
func pick[T any](rng *rand.Rand, choices []weighted[T]) T {
	total := 0.0
	for _, c := range choices {
		total += c.Weight
	}
	r := rng.Float64() * total
	for _, c := range choices {
		if r < c.Weight {
			return c.Value
		}
		r -= c.Weight
	}
	return choices[len(choices)-1].Value
}

func clampRound(v float64, lo, hi int) int {
	n := int(math.Round(v))
	return max(lo, min(hi, n))
}

// SeverityCounts tallies records per label.
func SeverityCounts(records []domain.SituationRecord) map[domain.Severity]int {
	counts := make(map[domain.Severity]int, 4)
	for _, r := range records {
		counts[r.Severity]++
	}
	return counts
}
