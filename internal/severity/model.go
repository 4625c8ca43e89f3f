package severity

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/domain"
)

// Prediction is the scored outcome for one situation.
type Prediction struct {
	Label         domain.Severity             `json:"label"`
	Confidence    float64                     `json:"confidence"`
	Probabilities map[domain.Severity]float64 `json:"probabilities"`
	Warnings      []string                    `json:"warnings,omitempty"`
}

// Escalate reports whether the label calls for notifying responders.
func (p Prediction) Escalate() bool { return p.Label.Escalates() }

// BatchResult pairs one batch input with its prediction or error.
type BatchResult struct {
	Prediction Prediction
	Err        error
}

// Model is an immutable fitted artifact: the feature schema, the label
// order and the classifier. It is safe for concurrent use.
type Model struct {
	schema     Schema
	labels     LabelEncoder
	classifier Classifier
	seed       uint64
	trainedAt  time.Time
	strict     bool
	logger     *slog.Logger
}

// Schema returns the feature layout captured at training time.
func (m *Model) Schema() Schema { return m.schema }

// Labels returns the label encoder captured at training time.
func (m *Model) Labels() LabelEncoder { return m.labels }

// Seed returns the seed the model was trained with.
func (m *Model) Seed() uint64 { return m.seed }

// TrainedAt returns when training started.
func (m *Model) TrainedAt() time.Time { return m.trainedAt }

// Predict scores one situation.
//
// Numeric values outside their domain fail the call with a DataDomainError.
// Categorical values outside their enumeration fail with an
// UnknownCategoryError in strict mode; otherwise the field contributes an
// all-zero indicator block and the prediction carries a warning per field.
func (m *Model) Predict(s domain.Situation) (Prediction, error) {
	err := s.Validate()
	if domain.HasDataDomainViolation(err) {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}
	unknown := domain.UnknownCategories(err)
	if len(unknown) > 0 && m.strict {
		return Prediction{}, fmt.Errorf("predict: %w", err)
	}

	var warnings []string
	for _, u := range unknown {
		m.logger.Warn("unknown category, encoding as zeros", "field", u.Field, "value", u.Value)
		warnings = append(warnings, u.Error())
	}

	proba := m.classifier.PredictProba(m.schema.Encode(s))
	best := argmax(proba)
	probabilities := make(map[domain.Severity]float64, len(proba))
	for i, p := range proba {
		probabilities[m.labels.Decode(i)] = p
	}
	return Prediction{
		Label:         m.labels.Decode(best),
		Confidence:    proba[best],
		Probabilities: probabilities,
		Warnings:      warnings,
	}, nil
}

// PredictBatch scores every situation independently; a failing item never
// affects the others.
func (m *Model) PredictBatch(situations []domain.Situation) []BatchResult {
	out := make([]BatchResult, len(situations))
	for i, s := range situations {
		p, err := m.Predict(s)
		out[i] = BatchResult{Prediction: p, Err: err}
	}
	return out
}
