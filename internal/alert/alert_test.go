package alert

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockNotifier struct {
	calls  int
	body   string
	failOn map[string]bool
}

func (m *mockNotifier) Send(_ context.Context, destinations []string, body string) []domain.DeliveryStatus {
	m.calls++
	m.body = body
	out := make([]domain.DeliveryStatus, len(destinations))
	for i, d := range destinations {
		out[i] = domain.DeliveryStatus{Destination: d, Delivered: !m.failOn[d]}
		if m.failOn[d] {
			out[i].Error = "unreachable"
		}
	}
	return out
}

type mockVoice struct {
	calls int
	lang  string
	audio []byte
	err   error
}

func (m *mockVoice) Synthesize(_ context.Context, _ string, lang string) ([]byte, error) {
	m.calls++
	m.lang = lang
	return m.audio, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assessment(sev domain.Severity, etype domain.EmergencyType) domain.Assessment {
	return domain.Assessment{
		ID:       "a-1",
		Severity: sev,
		Situation: domain.Situation{
			City:          domain.Delhi,
			EmergencyType: etype,
		},
	}
}

func TestComposeMessage(t *testing.T) {
	profile := domain.EmergencyProfile{
		Helpline: "101",
		Do:       []string{"Move outside quickly", "Stay low to avoid smoke", "Cover mouth with wet cloth", "Wait for firefighters"},
	}
	got := ComposeMessage(domain.Fire, domain.Delhi, profile)
	assert.Equal(t, "Fire emergency in Delhi. Call 101. Move outside quickly. Stay low to avoid smoke. Cover mouth with wet cloth.", got)
}

func TestComposeMessage_NoProfile(t *testing.T) {
	got := ComposeMessage(domain.Flood, domain.Pune, domain.EmergencyProfile{})
	assert.Equal(t, "Flood emergency in Pune. Call 112.", got)
}

func TestComposeMessage_BuiltInProfile(t *testing.T) {
	p, ok := domain.Profile(domain.Fire)
	require.True(t, ok)
	got := ComposeMessage(domain.Fire, domain.Mumbai, p)
	assert.Contains(t, got, "Fire emergency in Mumbai. Call 101.")
}

func TestEscalate_SkipsLowerSeverities(t *testing.T) {
	n := &mockNotifier{}
	v := &mockVoice{audio: []byte("mp3")}
	e := NewEscalator(n, v, []string{"+91-1"}, observability.NewMetricsForTesting(), discardLogger())

	for _, sev := range []domain.Severity{domain.Low, domain.Medium} {
		out := e.Escalate(context.Background(), assessment(sev, domain.Fire))
		assert.False(t, out.Escalated)
	}
	assert.Zero(t, n.calls)
	assert.Zero(t, v.calls)
}

func TestEscalate_NotifiesAndSpeaks(t *testing.T) {
	n := &mockNotifier{}
	v := &mockVoice{audio: []byte("mp3")}
	e := NewEscalator(n, v, []string{"+91-1", "+91-2"}, observability.NewMetricsForTesting(), discardLogger())

	out := e.Escalate(context.Background(), assessment(domain.Critical, domain.Fire))

	assert.True(t, out.Escalated)
	assert.Equal(t, out.Message, n.body)
	assert.Equal(t, 2, out.Delivered())
	assert.True(t, out.VoiceOK)
	assert.Equal(t, []byte("mp3"), out.Voice)
	assert.Equal(t, DefaultLanguage, v.lang)
}

func TestEscalate_CollaboratorFailuresAreStatuses(t *testing.T) {
	n := &mockNotifier{failOn: map[string]bool{"+91-2": true}}
	v := &mockVoice{err: errors.New("tts down")}
	e := NewEscalator(n, v, []string{"+91-1", "+91-2"}, observability.NewMetricsForTesting(), discardLogger())

	out := e.Escalate(context.Background(), assessment(domain.High, domain.Accident))

	assert.True(t, out.Escalated)
	require.Len(t, out.Deliveries, 2)
	assert.True(t, out.Deliveries[0].Delivered)
	assert.False(t, out.Deliveries[1].Delivered)
	assert.Equal(t, "unreachable", out.Deliveries[1].Error)
	assert.Equal(t, "partial", deliveryOutcome(out))
	assert.False(t, out.VoiceOK)
	assert.Equal(t, "tts down", out.VoiceError)
}

func TestEscalate_EmptyAudioIsFailure(t *testing.T) {
	v := &mockVoice{}
	e := NewEscalator(nil, v, nil, observability.NewMetricsForTesting(), discardLogger())

	out := e.Escalate(context.Background(), assessment(domain.High, domain.Medical))
	assert.True(t, out.Escalated)
	assert.Empty(t, out.Deliveries)
	assert.False(t, out.VoiceOK)
	assert.NotEmpty(t, out.VoiceError)
}

func TestEscalate_NoCollaborators(t *testing.T) {
	e := NewEscalator(nil, nil, nil, observability.NewMetricsForTesting(), discardLogger())
	out := e.Escalate(context.Background(), assessment(domain.Critical, domain.Earthquake))
	assert.True(t, out.Escalated)
	assert.NotEmpty(t, out.Message)
	assert.False(t, out.VoiceOK)
	assert.Empty(t, out.VoiceError)
}

func TestDeliveryOutcome(t *testing.T) {
	ok := domain.DeliveryStatus{Delivered: true}
	bad := domain.DeliveryStatus{}
	assert.Equal(t, "no_recipients", deliveryOutcome(Outcome{}))
	assert.Equal(t, "delivered", deliveryOutcome(Outcome{Deliveries: []domain.DeliveryStatus{ok, ok}}))
	assert.Equal(t, "failed", deliveryOutcome(Outcome{Deliveries: []domain.DeliveryStatus{bad}}))
	assert.Equal(t, "partial", deliveryOutcome(Outcome{Deliveries: []domain.DeliveryStatus{ok, bad}}))
}
