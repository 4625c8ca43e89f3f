package mapbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/observability"
)

const (
	defaultBaseURL = "https://api.mapbox.com/styles/v1/mapbox/streets-v12/static"
	defaultZoom    = 13
	defaultWidth   = 600
	defaultHeight  = 400
	pinColor       = "e74c3c"
	centerColor    = "2c3e50"
	maxImageBytes  = 8 << 20
)

// Renderer implements domain.MapRenderer using the Mapbox Static Images API.
type Renderer struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewRenderer creates a Mapbox static map renderer.
func NewRenderer(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Renderer {
	return &Renderer{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// Render fetches a PNG centered on center with one pin per marker.
func (r *Renderer) Render(ctx context.Context, center domain.Coordinate, markers []domain.Marker) ([]byte, error) {
	u := StaticMapURL(r.baseURL, r.token, center, markers)

	start := time.Now()
	img, err := r.doRequest(ctx, u)
	r.metrics.MapAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		r.metrics.MapRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	r.metrics.MapRequests.WithLabelValues("success").Inc()
	r.logger.Debug("map rendered", "markers", len(markers), "bytes", len(img))
	return img, nil
}

// StaticMapURL builds a Static Images API request URL. Mapbox expects
// coordinates in lon,lat order.
func StaticMapURL(baseURL, token string, center domain.Coordinate, markers []domain.Marker) string {
	overlays := make([]string, 0, len(markers)+1)
	overlays = append(overlays, fmt.Sprintf("pin-l+%s(%.6f,%.6f)", centerColor, center.Lon, center.Lat))
	for _, m := range markers {
		overlays = append(overlays, fmt.Sprintf("pin-s+%s(%.6f,%.6f)", pinColor, m.Lon, m.Lat))
	}

	path := fmt.Sprintf("%s/%s/%.6f,%.6f,%d/%dx%d",
		baseURL, strings.Join(overlays, ","), center.Lon, center.Lat, defaultZoom, defaultWidth, defaultHeight)
	params := url.Values{"access_token": {token}}
	return path + "?" + params.Encode()
}

func (r *Renderer) doRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("static map request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	img, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	if len(img) == 0 {
		return nil, errors.New("mapbox: empty image response")
	}
	return img, nil
}
