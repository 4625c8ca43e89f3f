package domain

import "context"

// DeliveryStatus is the outcome of sending a message to one destination.
type DeliveryStatus struct {
	Destination string `json:"destination"`
	Delivered   bool   `json:"delivered"`
	Error       string `json:"error,omitempty"`
}

// Notifier delivers a free-text alert to a list of destinations. Failures are
// reported per destination rather than as an error.
type Notifier interface {
	Send(ctx context.Context, destinations []string, body string) []DeliveryStatus
}

// VoiceSynthesizer turns text into audio. An empty result with a nil error
// is not expected; callers treat any error as "no audio".
type VoiceSynthesizer interface {
	Synthesize(ctx context.Context, text, lang string) ([]byte, error)
}

// MapRenderer draws a map around center with the given markers.
type MapRenderer interface {
	Render(ctx context.Context, center Coordinate, markers []Marker) ([]byte, error)
}
