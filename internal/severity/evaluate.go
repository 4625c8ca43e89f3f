package severity

import (
	"cmp"
	"slices"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

// ClassMetrics holds per-label evaluation scores.
type ClassMetrics struct {
	Label     domain.Severity `json:"label"`
	Precision float64         `json:"precision"`
	Recall    float64         `json:"recall"`
	F1        float64         `json:"f1"`
	Support   int             `json:"support"`
}

// AverageMetrics holds averaged precision, recall and F1.
type AverageMetrics struct {
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
}

// FeatureImportance is the share of impurity reduction attributed to one encoded column.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// Report summarizes a training run and its held-out evaluation.
type Report struct {
	Seed         uint64                  `json:"seed"`
	TrainedAt    time.Time               `json:"trained_at"`
	Duration     time.Duration           `json:"duration"`
	Labels       []domain.Severity       `json:"labels"`
	TrainSize    int                     `json:"train_size"`
	TestSize     int                     `json:"test_size"`
	TrainClasses map[domain.Severity]int `json:"train_classes"`
	TestClasses  map[domain.Severity]int `json:"test_classes"`
	Accuracy     float64                 `json:"accuracy"`
	Classes      []ClassMetrics          `json:"classes"`
	MacroAvg     AverageMetrics          `json:"macro_avg"`
	WeightedAvg  AverageMetrics          `json:"weighted_avg"`

	// Confusion rows are true labels, columns predicted, both in Labels order.
	Confusion   [][]int             `json:"confusion"`
	Importances []FeatureImportance `json:"importances"`
}

// ConfusionMatrix counts (true, predicted) pairs over nClasses labels.
func ConfusionMatrix(truth, pred []int, nClasses int) [][]int {
	m := make([][]int, nClasses)
	for i := range m {
		m[i] = make([]int, nClasses)
	}
	for i := range truth {
		m[truth[i]][pred[i]]++
	}
	return m
}

// classMetrics derives per-class scores from a confusion matrix. Undefined
// ratios are reported as 0.
func classMetrics(confusion [][]int, labels []domain.Severity) []ClassMetrics {
	out := make([]ClassMetrics, len(labels))
	for c := range labels {
		tp := confusion[c][c]
		support, predicted := 0, 0
		for k := range labels {
			support += confusion[c][k]
			predicted += confusion[k][c]
		}
		m := ClassMetrics{Label: labels[c], Support: support}
		m.Precision = ratio(tp, predicted)
		m.Recall = ratio(tp, support)
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		out[c] = m
	}
	return out
}

func averages(classes []ClassMetrics) (macro, weighted AverageMetrics) {
	if len(classes) == 0 {
		return macro, weighted
	}
	total := 0
	for _, c := range classes {
		macro.Precision += c.Precision
		macro.Recall += c.Recall
		macro.F1 += c.F1
		weighted.Precision += c.Precision * float64(c.Support)
		weighted.Recall += c.Recall * float64(c.Support)
		weighted.F1 += c.F1 * float64(c.Support)
		total += c.Support
	}
	n := float64(len(classes))
	macro.Precision /= n
	macro.Recall /= n
	macro.F1 /= n
	if total > 0 {
		weighted.Precision /= float64(total)
		weighted.Recall /= float64(total)
		weighted.F1 /= float64(total)
	}
	return macro, weighted
}

func accuracy(confusion [][]int) float64 {
	correct, total := 0, 0
	for i, row := range confusion {
		for j, n := range row {
			total += n
			if i == j {
				correct += n
			}
		}
	}
	return ratio(correct, total)
}

// rankImportances pairs importances with column names, largest first.
// Ties keep column order.
func rankImportances(columns []string, importances []float64) []FeatureImportance {
	out := make([]FeatureImportance, len(columns))
	for i, c := range columns {
		out[i] = FeatureImportance{Feature: c, Importance: importances[i]}
	}
	slices.SortStableFunc(out, func(a, b FeatureImportance) int {
		return cmp.Compare(b.Importance, a.Importance)
	})
	return out
}

func classDistribution(y []int, enc LabelEncoder) map[domain.Severity]int {
	out := make(map[domain.Severity]int, enc.Len())
	for _, l := range enc.Classes() {
		out[l] = 0
	}
	for _, i := range y {
		out[enc.Decode(i)]++
	}
	return out
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
