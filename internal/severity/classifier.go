package severity

// Classifier is a multi-class probabilistic learner over dense feature rows.
// Implementations must be deterministic for a given construction seed and
// safe for concurrent PredictProba calls once Fit has returned.
type Classifier interface {
	// Fit learns from rows X with integer labels y in [0, nClasses).
	Fit(X [][]float64, y []int, nClasses int) error
	// PredictProba returns one probability per class, summing to 1.
	PredictProba(x []float64) []float64
	// FeatureImportances returns one non-negative score per feature, summing to 1.
	FeatureImportances() []float64
}

// ClassifierFactory builds an unfitted classifier for a seed.
type ClassifierFactory func(seed uint64) Classifier

// ForestFactory returns a factory for random forests with the given size.
func ForestFactory(trees int) ClassifierFactory {
	return func(seed uint64) Classifier {
		return NewRandomForest(ForestOptions{Trees: trees, Seed: seed})
	}
}

// argmax returns the index of the largest value, preferring the lowest index on ties.
func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}
