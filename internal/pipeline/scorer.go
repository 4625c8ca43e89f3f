package pipeline

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/couchcryptid/emergency-severity/internal/alert"
	"github.com/couchcryptid/emergency-severity/internal/domain"
)

// Predictor scores a decoded situation.
type Predictor interface {
	Predict(ctx context.Context, s domain.Situation) (domain.Assessment, error)
}

// Escalator acts on High and Critical assessments.
type Escalator interface {
	Escalate(ctx context.Context, a domain.Assessment) alert.Outcome
}

// SituationScorer implements Scorer: decode, predict, optionally escalate,
// then serialize for the sink topic.
type SituationScorer struct {
	predictor Predictor
	escalator Escalator
	logger    *slog.Logger
}

// NewScorer creates a SituationScorer. Pass a nil escalator to disable escalation.
func NewScorer(predictor Predictor, escalator Escalator, logger *slog.Logger) *SituationScorer {
	return &SituationScorer{
		predictor: predictor,
		escalator: escalator,
		logger:    logger,
	}
}

func (s *SituationScorer) Score(ctx context.Context, raw domain.RawMessage) (domain.OutputMessage, error) {
	sit, err := domain.ParseRawMessage(raw)
	if err != nil {
		return domain.OutputMessage{}, err
	}

	a, err := s.predictor.Predict(ctx, sit)
	if err != nil {
		return domain.OutputMessage{}, err
	}

	out, err := domain.SerializeAssessment(a)
	if err != nil {
		return domain.OutputMessage{}, err
	}

	if s.escalator != nil && a.Severity.Escalates() {
		outcome := s.escalator.Escalate(ctx, a)
		out.Headers["escalated"] = strconv.FormatBool(outcome.Escalated)
		out.Headers["voice_ok"] = strconv.FormatBool(outcome.VoiceOK)
	}
	return out, nil
}
