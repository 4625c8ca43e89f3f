package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"

	"github.com/couchcryptid/emergency-severity/internal/alert"
	"github.com/couchcryptid/emergency-severity/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

const maxBodyBytes = 1 << 20

type predictResponse struct {
	Assessment domain.Assessment        `json:"assessment"`
	Escalation *alert.Outcome           `json:"escalation,omitempty"`
	Profile    *domain.EmergencyProfile `json:"profile,omitempty"`
}

type detectRequest struct {
	Text string `json:"text"`
}

type detectResponse struct {
	Detected      bool                     `json:"detected"`
	EmergencyType domain.EmergencyType     `json:"emergency_type,omitempty"`
	Profile       *domain.EmergencyProfile `json:"profile,omitempty"`
}

type facilitiesResponse struct {
	City          domain.City          `json:"city"`
	EmergencyType domain.EmergencyType `json:"emergency_type"`
	Center        domain.Coordinate    `json:"center"`
	Markers       []domain.Marker      `json:"markers"`
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	sit, err := domain.ParseSituation(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	a, err := s.deps.Service.Predict(r.Context(), sit)
	switch {
	case errors.Is(err, domain.ErrModelUntrained):
		writeError(w, http.StatusServiceUnavailable, err)
		return
	case errors.Is(err, domain.ErrDataDomain), errors.Is(err, domain.ErrUnknownCategory):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		s.logger.Error("predict failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	resp := predictResponse{Assessment: a}
	if p, ok := domain.Profile(a.Situation.EmergencyType); ok {
		resp.Profile = &p
	}
	if s.deps.Escalator != nil && a.Severity.Escalates() {
		outcome := s.deps.Escalator.Escalate(r.Context(), a)
		resp.Escalation = &outcome
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReport(w http.ResponseWriter, _ *http.Request) {
	report, ok := s.deps.Service.Report()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, domain.ErrModelUntrained)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Service.Retrain(r.Context()); err != nil {
		s.logger.Error("retrain failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	report, _ := s.deps.Service.Report()
	sharedobs.WriteJSON(w, http.StatusOK, report)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	t, err := domain.ParseEmergencyType(r.PathValue("type"))
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	p, ok := domain.Profile(t)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no profile for %s", t))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, p)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	var req detectRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	t, ok := domain.DetectEmergency(req.Text)
	resp := detectResponse{Detected: ok}
	if ok {
		resp.EmergencyType = t
		if p, found := domain.Profile(t); found {
			resp.Profile = &p
		}
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleFacilities(w http.ResponseWriter, r *http.Request) {
	resp, ok := facilitiesFor(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	if s.deps.Maps == nil {
		writeError(w, http.StatusNotFound, errors.New("map rendering is disabled"))
		return
	}
	resp, ok := facilitiesFor(w, r)
	if !ok {
		return
	}

	img, err := s.deps.Maps.Render(r.Context(), resp.Center, resp.Markers)
	if err != nil {
		s.logger.Warn("map render failed", "city", resp.City, "error", err)
		writeError(w, http.StatusBadGateway, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

// facilitiesFor resolves the city and type query parameters into markers,
// writing a 400 and returning false when either is unknown.
func facilitiesFor(w http.ResponseWriter, r *http.Request) (facilitiesResponse, bool) {
	q := r.URL.Query()
	city, err := domain.ParseCity(q.Get("city"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return facilitiesResponse{}, false
	}
	t, err := domain.ParseEmergencyType(q.Get("type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return facilitiesResponse{}, false
	}
	p, _ := domain.Profile(t)

	center, _ := domain.CityCoordinate(city)
	rng := rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	return facilitiesResponse{
		City:          city,
		EmergencyType: t,
		Center:        center,
		Markers:       domain.NearbyFacilities(city, p.Places, rng),
	}, true
}

func writeError(w http.ResponseWriter, status int, err error) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": err.Error()})
}
