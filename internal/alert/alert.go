// Package alert turns High and Critical assessments into notifications and
// spoken guidance. Collaborator failures are reported in the Outcome and
// never returned as errors.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/observability"
)

const (
	// DefaultLanguage is the voice language used when none is configured.
	DefaultLanguage = "en"
	// FallbackHelpline is the national emergency number, used when an
	// emergency type has no profile.
	FallbackHelpline = "112"

	maxActions = 3
)

// ComposeMessage builds the alert text: the emergency type and city, the
// helpline, then the first few recommended actions.
func ComposeMessage(t domain.EmergencyType, city domain.City, profile domain.EmergencyProfile) string {
	helpline := profile.Helpline
	if helpline == "" {
		helpline = FallbackHelpline
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s emergency in %s. Call %s.", t, city, helpline)
	for _, action := range profile.Do[:min(maxActions, len(profile.Do))] {
		b.WriteString(" ")
		b.WriteString(strings.TrimSuffix(action, "."))
		b.WriteString(".")
	}
	return b.String()
}

// Outcome reports what an escalation attempt did.
type Outcome struct {
	Escalated  bool                    `json:"escalated"`
	Message    string                  `json:"message,omitempty"`
	Deliveries []domain.DeliveryStatus `json:"deliveries,omitempty"`
	VoiceOK    bool                    `json:"voice_ok"`
	VoiceError string                  `json:"voice_error,omitempty"`
	Voice      []byte                  `json:"-"`
}

// Delivered counts destinations that accepted the message.
func (o Outcome) Delivered() int {
	n := 0
	for _, d := range o.Deliveries {
		if d.Delivered {
			n++
		}
	}
	return n
}

// Escalator applies the escalation policy. Either collaborator may be nil,
// in which case that channel is skipped.
type Escalator struct {
	notifier   domain.Notifier
	voice      domain.VoiceSynthesizer
	recipients []string
	language   string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewEscalator creates an Escalator that notifies recipients and requests
// voice guidance in the default language.
func NewEscalator(notifier domain.Notifier, voice domain.VoiceSynthesizer, recipients []string, metrics *observability.Metrics, logger *slog.Logger) *Escalator {
	return &Escalator{
		notifier:   notifier,
		voice:      voice,
		recipients: recipients,
		language:   DefaultLanguage,
		metrics:    metrics,
		logger:     logger,
	}
}

// Escalate notifies responders about a High or Critical assessment and
// synthesizes the same text as audio. Lower severities are a no-op.
func (e *Escalator) Escalate(ctx context.Context, a domain.Assessment) Outcome {
	if !a.Severity.Escalates() {
		return Outcome{}
	}

	profile, ok := domain.Profile(a.Situation.EmergencyType)
	if !ok {
		e.logger.Warn("no emergency profile, using fallback helpline",
			"emergency_type", a.Situation.EmergencyType)
	}
	out := Outcome{
		Escalated: true,
		Message:   ComposeMessage(a.Situation.EmergencyType, a.Situation.City, profile),
	}

	out.Deliveries = e.notify(ctx, out.Message)
	e.metrics.Escalations.WithLabelValues(deliveryOutcome(out)).Inc()

	audio, err := e.synthesize(ctx, out.Message)
	switch {
	case errors.Is(err, errVoiceDisabled):
		e.metrics.VoiceAlerts.WithLabelValues("disabled").Inc()
	case err != nil:
		e.logger.Warn("voice synthesis failed", "id", a.ID, "error", err)
		e.metrics.VoiceAlerts.WithLabelValues("error").Inc()
		out.VoiceError = err.Error()
	default:
		e.metrics.VoiceAlerts.WithLabelValues("success").Inc()
		out.Voice = audio
		out.VoiceOK = true
	}

	e.logger.Info("assessment escalated",
		"id", a.ID,
		"severity", a.Severity,
		"delivered", out.Delivered(),
		"recipients", len(out.Deliveries),
		"voice_ok", out.VoiceOK,
	)
	return out
}

func (e *Escalator) notify(ctx context.Context, body string) []domain.DeliveryStatus {
	if e.notifier == nil || len(e.recipients) == 0 {
		return nil
	}
	statuses := e.notifier.Send(ctx, e.recipients, body)
	for _, s := range statuses {
		if !s.Delivered {
			e.logger.Warn("alert delivery failed", "destination", s.Destination, "error", s.Error)
		}
	}
	return statuses
}

var errVoiceDisabled = errors.New("voice synthesis disabled")

func (e *Escalator) synthesize(ctx context.Context, text string) ([]byte, error) {
	if e.voice == nil {
		return nil, errVoiceDisabled
	}
	audio, err := e.voice.Synthesize(ctx, text, e.language)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, errors.New("voice synthesis returned no audio")
	}
	return audio, nil
}

func deliveryOutcome(o Outcome) string {
	switch n := o.Delivered(); {
	case len(o.Deliveries) == 0:
		return "no_recipients"
	case n == len(o.Deliveries):
		return "delivered"
	case n == 0:
		return "failed"
	default:
		return "partial"
	}
}
