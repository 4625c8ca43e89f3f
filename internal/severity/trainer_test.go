package severity

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/synth"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	referenceOnce   sync.Once
	referenceTable  []domain.SituationRecord
	referenceModel  *Model
	referenceReport Report
	referenceErr    error
)

// reference trains the 2000-row, seed 42, 200-tree model once per test binary.
func reference(t *testing.T) (*Model, Report, []domain.SituationRecord) {
	t.Helper()
	referenceOnce.Do(func() {
		referenceTable = synth.Generate(2000, 42)
		trainer := NewTrainer(Options{Seed: 42}, discardLogger())
		referenceModel, referenceReport, referenceErr = trainer.Train(context.Background(), referenceTable)
	})
	require.NoError(t, referenceErr)
	return referenceModel, referenceReport, referenceTable
}

func TestTrain_ReportSanity(t *testing.T) {
	model, report, table := reference(t)

	assert.Equal(t, len(table), report.TrainSize+report.TestSize)
	assert.InDelta(t, 400, report.TestSize, 2)
	assert.Equal(t, uint64(42), model.Seed())
	assert.Equal(t, model.Labels().Classes(), report.Labels)

	total := 0
	for i, row := range report.Confusion {
		rowSum := 0
		for _, n := range row {
			rowSum += n
		}
		assert.Equal(t, report.TestClasses[report.Labels[i]], rowSum, "row %d", i)
		assert.Equal(t, report.Classes[i].Support, rowSum)
		total += rowSum
	}
	assert.Equal(t, report.TestSize, total)

	// Labels are noisy by construction; the forest must still beat the majority class.
	assert.Greater(t, report.Accuracy, 0.4)
	assert.LessOrEqual(t, report.Accuracy, 1.0)
}

func TestTrain_StratifiedPartitions(t *testing.T) {
	_, report, table := reference(t)
	full := synth.SeverityCounts(table)

	for _, l := range report.Labels {
		want := float64(full[l]) / float64(len(table))
		train := float64(report.TrainClasses[l]) / float64(report.TrainSize)
		test := float64(report.TestClasses[l]) / float64(report.TestSize)
		// Per-class rounding moves at most half a row per class, per partition.
		assert.InDelta(t, want, train, 2.0/float64(report.TrainSize), l)
		assert.InDelta(t, want, test, 2.0/float64(report.TestSize), l)
	}
}

func TestTrain_FeatureImportancesNormalized(t *testing.T) {
	model, report, _ := reference(t)
	require.Len(t, report.Importances, model.Schema().Len())

	sum := 0.0
	for i, fi := range report.Importances {
		assert.GreaterOrEqual(t, fi.Importance, 0.0)
		if i > 0 {
			assert.GreaterOrEqual(t, report.Importances[i-1].Importance, fi.Importance)
		}
		sum += fi.Importance
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestTrain_Deterministic(t *testing.T) {
	table := synth.Generate(600, 7)
	train := func() (*Model, Report) {
		m, r, err := NewTrainer(Options{Seed: 7, Trees: 30}, discardLogger()).Train(context.Background(), table)
		require.NoError(t, err)
		return m, r
	}
	m1, r1 := train()
	m2, r2 := train()

	assert.Equal(t, r1.Accuracy, r2.Accuracy)
	if diff := cmp.Diff(r1.Confusion, r2.Confusion); diff != "" {
		t.Fatalf("confusion differs between runs:\n%s", diff)
	}
	assert.Equal(t, r1.Importances, r2.Importances)
	assert.Equal(t, m1.Schema().Columns(), m2.Schema().Columns())
	for _, r := range table[:50] {
		p1, err := m1.Predict(r.Situation)
		require.NoError(t, err)
		p2, err := m2.Predict(r.Situation)
		require.NoError(t, err)
		assert.Equal(t, p1, p2)
	}
}

func TestTrain_DelhiNightStormFire(t *testing.T) {
	model, _, _ := reference(t)
	p, err := model.Predict(domain.Situation{
		City:              domain.Delhi,
		TimeOfDay:         domain.Night,
		DayOfWeek:         domain.Friday,
		Weather:           domain.Stormy,
		Temperature:       35,
		PopulationDensity: 9000,
		EmergencyType:     domain.Fire,
	})
	require.NoError(t, err)

	assert.Contains(t, []domain.Severity{domain.High, domain.Critical}, p.Label)
	assert.True(t, p.Escalate())
	urgent := p.Probabilities[domain.High] + p.Probabilities[domain.Critical]
	assert.Greater(t, urgent, p.Probabilities[domain.Low]+p.Probabilities[domain.Medium])
}

func TestTrain_RejectsInvalidTable(t *testing.T) {
	trainer := NewTrainer(Options{Trees: 1}, discardLogger())

	_, _, err := trainer.Train(context.Background(), nil)
	require.Error(t, err)

	bad := synth.Generate(50, 1)
	bad[3].Temperature = 99
	_, _, err = trainer.Train(context.Background(), bad)
	require.ErrorIs(t, err, domain.ErrDataDomain)
	assert.Contains(t, err.Error(), "row 3")
}

func TestTrain_StratifyFailureIsFatal(t *testing.T) {
	table := synth.Generate(40, 3)
	for i := range table {
		table[i].Severity = domain.Low
	}
	table[0].Severity = domain.Critical

	_, _, err := NewTrainer(Options{Trees: 1}, discardLogger()).Train(context.Background(), table)
	require.ErrorIs(t, err, ErrStratify)
}

func TestTrain_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewTrainer(Options{Trees: 1}, discardLogger()).Train(ctx, synth.Generate(50, 1))
	require.ErrorIs(t, err, context.Canceled)
}

func TestTrain_CustomClassifier(t *testing.T) {
	var seen uint64 = math.MaxUint64
	factory := func(seed uint64) Classifier {
		seen = seed
		return &constantClassifier{}
	}
	_, report, err := NewTrainer(Options{Seed: 5, NewClassifier: factory}, discardLogger()).
		Train(context.Background(), synth.Generate(200, 5))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), seen)
	// Always predicting class 0 puts every test row in the first column.
	for _, row := range report.Confusion {
		for j := 1; j < len(row); j++ {
			assert.Zero(t, row[j])
		}
	}
}

// constantClassifier always predicts class 0 with full confidence.
type constantClassifier struct {
	nClasses  int
	nFeatures int
}

func (c *constantClassifier) Fit(X [][]float64, _ []int, nClasses int) error {
	c.nClasses = nClasses
	c.nFeatures = len(X[0])
	return nil
}

func (c *constantClassifier) PredictProba(_ []float64) []float64 {
	out := make([]float64, c.nClasses)
	out[0] = 1
	return out
}

func (c *constantClassifier) FeatureImportances() []float64 {
	out := make([]float64, c.nFeatures)
	for i := range out {
		out[i] = 1 / float64(c.nFeatures)
	}
	return out
}
