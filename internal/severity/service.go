package severity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/observability"
	"github.com/google/uuid"
)

// TableSource supplies the training table, generating it only when none is cached.
type TableSource interface {
	LoadOrGenerate(ctx context.Context, count int, seed uint64) ([]domain.SituationRecord, bool, error)
}

// Recorder persists scored situations. Failures are logged, never returned to callers.
type Recorder interface {
	SavePrediction(ctx context.Context, a domain.Assessment) error
}

// ServiceConfig wires a Service. Recorder is optional.
type ServiceConfig struct {
	Source      TableSource
	Trainer     *Trainer
	DatasetSize int
	Seed        uint64
	Recorder    Recorder
	Metrics     *observability.Metrics
	Logger      *slog.Logger
}

// Service owns the training table and the model currently serving. Training
// runs are serialized; the model is replaced wholesale, so concurrent
// predictions observe either the old or the new model.
type Service struct {
	cfg ServiceConfig

	mu    sync.Mutex
	table []domain.SituationRecord

	current atomic.Pointer[artifact]
}

type artifact struct {
	model  *Model
	report Report
}

// NewService creates a Service with no model. Call Bootstrap before predicting.
func NewService(cfg ServiceConfig) *Service {
	return &Service{cfg: cfg}
}

// Bootstrap loads the cached table (generating it if absent) and trains the first model.
func (s *Service) Bootstrap(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	table, generated, err := s.cfg.Source.LoadOrGenerate(ctx, s.cfg.DatasetSize, s.cfg.Seed)
	if err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}
	s.cfg.Logger.Info("training table ready", "rows", len(table), "generated", generated)
	s.cfg.Metrics.DatasetRows.Set(float64(len(table)))
	s.table = table
	return s.trainLocked(ctx)
}

// Retrain fits a new model on the current table and swaps it in.
func (s *Service) Retrain(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == nil {
		return errors.New("retrain: no training table, bootstrap first")
	}
	return s.trainLocked(ctx)
}

func (s *Service) trainLocked(ctx context.Context) error {
	model, report, err := s.cfg.Trainer.Train(ctx, s.table)
	if err != nil {
		s.cfg.Metrics.TrainingRuns.WithLabelValues("error").Inc()
		return err
	}
	s.current.Store(&artifact{model: model, report: report})
	s.cfg.Metrics.TrainingRuns.WithLabelValues("success").Inc()
	s.cfg.Metrics.TrainingDuration.Observe(report.Duration.Seconds())
	s.cfg.Metrics.ModelAccuracy.Set(report.Accuracy)
	return nil
}

// Model returns the model currently serving, or nil before training.
func (s *Service) Model() *Model {
	if a := s.current.Load(); a != nil {
		return a.model
	}
	return nil
}

// Report returns the evaluation of the model currently serving.
func (s *Service) Report() (Report, bool) {
	if a := s.current.Load(); a != nil {
		return a.report, true
	}
	return Report{}, false
}

// Predict scores a situation and stamps it with an ID and time.
func (s *Service) Predict(ctx context.Context, sit domain.Situation) (domain.Assessment, error) {
	a := s.current.Load()
	if a == nil {
		s.cfg.Metrics.PredictionErrors.WithLabelValues("untrained").Inc()
		return domain.Assessment{}, domain.ErrModelUntrained
	}

	for _, u := range domain.UnknownCategories(sit.Validate()) {
		s.cfg.Metrics.UnknownCategories.WithLabelValues(u.Field).Inc()
	}

	p, err := a.model.Predict(sit)
	if err != nil {
		reason := "unknown_category"
		if errors.Is(err, domain.ErrDataDomain) {
			reason = "domain"
		}
		s.cfg.Metrics.PredictionErrors.WithLabelValues(reason).Inc()
		return domain.Assessment{}, err
	}
	s.cfg.Metrics.Predictions.WithLabelValues(string(p.Label)).Inc()

	assessment := domain.Assessment{
		ID:            uuid.NewString(),
		Situation:     sit,
		Severity:      p.Label,
		Confidence:    p.Confidence,
		Probabilities: p.Probabilities,
		Warnings:      p.Warnings,
		AssessedAt:    domain.Now(),
	}
	if s.cfg.Recorder != nil {
		if err := s.cfg.Recorder.SavePrediction(ctx, assessment); err != nil {
			s.cfg.Logger.Warn("record prediction failed", "id", assessment.ID, "error", err)
		}
	}
	return assessment, nil
}

// CheckReadiness returns nil once a model is serving.
func (s *Service) CheckReadiness(_ context.Context) error {
	if s.current.Load() == nil {
		return domain.ErrModelUntrained
	}
	return nil
}
