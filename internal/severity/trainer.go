package severity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

// Options configures a Trainer. Zero values select the defaults.
type Options struct {
	Seed          uint64
	Trees         int
	TestFraction  float64
	NewClassifier ClassifierFactory // defaults to ForestFactory(Trees)
	Strict        bool              // models reject unknown categories instead of zero-filling
}

// Trainer fits severity models from a labeled table.
type Trainer struct {
	opts   Options
	logger *slog.Logger
}

// NewTrainer creates a Trainer, filling unset options with defaults.
func NewTrainer(opts Options, logger *slog.Logger) *Trainer {
	if opts.Trees <= 0 {
		opts.Trees = DefaultTrees
	}
	if opts.TestFraction <= 0 || opts.TestFraction >= 1 {
		opts.TestFraction = DefaultTestFraction
	}
	if opts.NewClassifier == nil {
		opts.NewClassifier = ForestFactory(opts.Trees)
	}
	return &Trainer{opts: opts, logger: logger}
}

// Train splits the table, fits a classifier on the training partition and
// evaluates it on the held-out partition. The fitted model and the report are
// a pure function of the table and the trainer options, apart from the
// timestamps in the report.
func (t *Trainer) Train(ctx context.Context, table []domain.SituationRecord) (*Model, Report, error) {
	if len(table) == 0 {
		return nil, Report{}, errors.New("train: empty table")
	}
	for i, r := range table {
		if err := r.Validate(); err != nil {
			return nil, Report{}, fmt.Errorf("train: row %d: %w", i, err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, Report{}, err
	}

	start := domain.Now()
	schema := FitSchema(table)
	labels := FitLabels(table)
	X := schema.EncodeAll(table)
	y := make([]int, len(table))
	for i, r := range table {
		y[i], _ = labels.Encode(r.Severity)
	}

	trainIdx, testIdx, err := StratifiedSplit(y, t.opts.TestFraction, t.opts.Seed)
	if err != nil {
		return nil, Report{}, fmt.Errorf("train: %w", err)
	}
	trainX, trainY := subset(X, y, trainIdx)
	testX, testY := subset(X, y, testIdx)

	clf := t.opts.NewClassifier(t.opts.Seed)
	if err := clf.Fit(trainX, trainY, labels.Len()); err != nil {
		return nil, Report{}, fmt.Errorf("train: %w", err)
	}

	model := &Model{
		schema:     schema,
		labels:     labels,
		classifier: clf,
		seed:       t.opts.Seed,
		trainedAt:  start,
		strict:     t.opts.Strict,
		logger:     t.logger,
	}

	pred := make([]int, len(testX))
	for i, x := range testX {
		pred[i] = argmax(clf.PredictProba(x))
	}
	confusion := ConfusionMatrix(testY, pred, labels.Len())
	classes := classMetrics(confusion, labels.Classes())
	macro, weighted := averages(classes)

	report := Report{
		Seed:         t.opts.Seed,
		TrainedAt:    start,
		Labels:       labels.Classes(),
		TrainSize:    len(trainIdx),
		TestSize:     len(testIdx),
		TrainClasses: classDistribution(trainY, labels),
		TestClasses:  classDistribution(testY, labels),
		Accuracy:     accuracy(confusion),
		Classes:      classes,
		MacroAvg:     macro,
		WeightedAvg:  weighted,
		Confusion:    confusion,
		Importances:  rankImportances(schema.Columns(), clf.FeatureImportances()),
	}
	report.Duration = domain.Now().Sub(start)

	t.logger.Info("model trained",
		"rows", len(table),
		"train_size", report.TrainSize,
		"test_size", report.TestSize,
		"features", schema.Len(),
		"accuracy", report.Accuracy,
		"duration", report.Duration,
	)
	return model, report, nil
}

func subset(X [][]float64, y []int, idx []int) ([][]float64, []int) {
	xs := make([][]float64, len(idx))
	ys := make([]int, len(idx))
	for i, j := range idx {
		xs[i] = X[j]
		ys[i] = y[j]
	}
	return xs, ys
}
