package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// maxAudioBytes caps the response body read from the voice endpoint.
const maxAudioBytes = 4 << 20

var errEmptyAudio = errors.New("tts: empty audio response")

// Client implements domain.VoiceSynthesizer against a translate-style TTS
// endpoint that returns MP3 audio for a GET with q and tl parameters.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *slog.Logger
}

// NewClient creates a voice synthesis client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: baseURL,
		logger:  logger,
	}
}

// Synthesize fetches spoken audio for text in the given language.
func (c *Client) Synthesize(ctx context.Context, text, lang string) ([]byte, error) {
	if text == "" {
		return nil, errors.New("tts: empty text")
	}
	if lang == "" {
		lang = "en"
	}

	params := url.Values{
		"ie":     {"UTF-8"},
		"q":      {text},
		"tl":     {lang},
		"client": {"tw-ob"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("tts request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tts API error: status %d: %s", resp.StatusCode, body)
	}

	audio, err := io.ReadAll(io.LimitReader(resp.Body, maxAudioBytes))
	if err != nil {
		return nil, fmt.Errorf("read audio: %w", err)
	}
	if len(audio) == 0 {
		return nil, errEmptyAudio
	}
	c.logger.Debug("voice synthesized", "lang", lang, "bytes", len(audio))
	return audio, nil
}
