package httpserver

import (
	"encoding/json"
	"net/http"

	"github.com/radiusdt/vector-attribution/internal/attribution"
)

// ---- Visit tracking ----

func (s *Server) handleTrackVisit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

	var req attribution.VisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, &attribution.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}

	ev, err := s.visitService.RecordVisit(r.Context(), &req)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, ev)
}

// ---- Conversion tracking ----

func (s *Server) handleTrackConversion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

	var req attribution.ConversionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, &attribution.ValidationError{Field: "body", Reason: "is not valid JSON"})
		return
	}

	conv, err := s.conversionService.RecordConversion(r.Context(), &req)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusCreated, conv)
}
