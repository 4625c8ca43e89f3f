package mapbox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

var fakePNG = []byte{0x89, 'P', 'N', 'G'}

func testRenderer(baseURL string, timeout time.Duration) *Renderer {
	return &Renderer{
		token:      testToken,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

var delhi = domain.Coordinate{Lat: 28.6139, Lon: 77.2090}

func TestStaticMapURL(t *testing.T) {
	markers := []domain.Marker{
		{Coordinate: domain.Coordinate{Lat: 28.61, Lon: 77.21}, Label: "Fire Station 1"},
	}

	got := StaticMapURL("https://example.test/static", "tok", delhi, markers)

	assert.Equal(t,
		"https://example.test/static/pin-l+2c3e50(77.209000,28.613900),pin-s+e74c3c(77.210000,28.610000)/77.209000,28.613900,13/600x400?access_token=tok",
		got)
}

func TestStaticMapURL_NoMarkers(t *testing.T) {
	got := StaticMapURL("https://example.test/static", "tok", delhi, nil)
	assert.Contains(t, got, "/pin-l+2c3e50(77.209000,28.613900)/")
}

func TestRenderer_Render_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))
		assert.Contains(t, r.URL.Path, "pin-s+e74c3c")
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(fakePNG)
	}))
	defer srv.Close()

	markers := []domain.Marker{{Coordinate: domain.Coordinate{Lat: 28.61, Lon: 77.21}}}
	img, err := testRenderer(srv.URL, 5*time.Second).Render(context.Background(), delhi, markers)
	require.NoError(t, err)
	assert.Equal(t, fakePNG, img)
}

func TestRenderer_Render_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized - Invalid Token"}`))
	}))
	defer srv.Close()

	_, err := testRenderer(srv.URL, 5*time.Second).Render(context.Background(), delhi, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestRenderer_Render_EmptyImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	_, err := testRenderer(srv.URL, 5*time.Second).Render(context.Background(), delhi, nil)
	require.Error(t, err)
}

func TestRenderer_Render_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write(fakePNG)
	}))
	defer srv.Close()

	_, err := testRenderer(srv.URL, 50*time.Millisecond).Render(context.Background(), delhi, nil)
	require.Error(t, err)
}
