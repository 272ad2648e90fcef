package httpserver

import (
	"net/http"

	"github.com/radiusdt/vector-attribution/internal/attribution"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

// cached runs fn behind the report cache. dest must be a pointer to the
// result type so cache hits can be decoded into it.
func (s *Server) cached(r *http.Request, key string, dest interface{}, fn func() (interface{}, error)) (interface{}, error) {
	if s.cache.Get(r.Context(), key, dest) {
		return dest, nil
	}
	result, err := fn()
	if err != nil {
		return nil, err
	}
	s.cache.Set(r.Context(), key, result)
	return result, nil
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	dr, err := s.dateRange(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var dash attribution.Dashboard
	result, err := s.cached(r, s.cache.Key("dashboard", dr), &dash, func() (interface{}, error) {
		return s.reporter.Dashboard(r.Context(), dr)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleFunnel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	dr, err := s.dateRange(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var steps []attribution.FunnelStep
	result, err := s.cached(r, s.cache.Key("funnel", dr), &steps, func() (interface{}, error) {
		return s.reporter.Funnel(r.Context(), dr)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]interface{}{"funnel": result})
}

func (s *Server) handleTouchpoints(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	dr, err := s.dateRange(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	q := r.URL.Query()
	filter := storage.TouchpointFilter{
		UserID:    q.Get("user_id"),
		SessionID: q.Get("session_id"),
		Start:     dr.Start,
		End:       dr.End,
	}

	journeys, err := s.reporter.Touchpoints(r.Context(), filter)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, journeys)
}

func (s *Server) handleModelComparison(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	dr, err := s.dateRange(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var cmp attribution.ModelComparison
	result, err := s.cached(r, s.cache.Key("model_comparison", dr), &cmp, func() (interface{}, error) {
		return s.reporter.CompareModels(r.Context(), dr)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleROI(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	dr, err := s.dateRange(r)
	if err != nil {
		s.fail(w, err)
		return
	}
	channelID := r.URL.Query().Get("channel_id")

	var rows []attribution.ROIRow
	result, err := s.cached(r, s.cache.Key("roi", dr, channelID), &rows, func() (interface{}, error) {
		return s.reporter.ROI(r.Context(), dr, channelID)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleChannelComparison(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	dr, err := s.dateRange(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []attribution.ChannelComparisonRow
	result, err := s.cached(r, s.cache.Key("channel_comparison", dr), &rows, func() (interface{}, error) {
		return s.reporter.CompareChannels(r.Context(), dr)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleTrends(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	dr, err := s.dateRange(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	q := r.URL.Query()
	granularity := q.Get("granularity")
	if granularity == "" {
		granularity = attribution.GranularityDay
	}
	channelID := q.Get("channel_id")

	var points []attribution.TrendPoint
	result, err := s.cached(r, s.cache.Key("trends", dr, granularity, channelID), &points, func() (interface{}, error) {
		return s.reporter.Trends(r.Context(), dr, granularity, channelID)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}

func (s *Server) handleUserQuality(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w)
		return
	}
	dr, err := s.dateRange(r)
	if err != nil {
		s.fail(w, err)
		return
	}

	var rows []attribution.UserQualityRow
	result, err := s.cached(r, s.cache.Key("user_quality", dr), &rows, func() (interface{}, error) {
		return s.reporter.UserQuality(r.Context(), dr)
	})
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, result)
}
