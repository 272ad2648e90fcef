package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/radiusdt/vector-attribution/internal/attribution"
	"github.com/radiusdt/vector-attribution/internal/models"
)

func badJSON() error {
	return &attribution.ValidationError{Field: "body", Reason: "is not valid JSON"}
}

// ---- Channels ----

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.catalogService.ListChannels(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, list)

	case http.MethodPost:
		var ch models.Channel
		if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
			s.fail(w, badJSON())
			return
		}
		if err := s.catalogService.CreateChannel(r.Context(), &ch); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusCreated, ch)

	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleChannelByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/channels/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		ch, err := s.catalogService.GetChannel(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, ch)

	case http.MethodPut:
		var ch models.Channel
		if err := json.NewDecoder(r.Body).Decode(&ch); err != nil {
			s.fail(w, badJSON())
			return
		}
		ch.ID = id
		if err := s.catalogService.UpdateChannel(r.Context(), &ch); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, ch)

	case http.MethodDelete:
		if err := s.catalogService.DeleteChannel(r.Context(), id); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, map[string]string{"id": id})

	default:
		s.methodNotAllowed(w)
	}
}

// ---- UTM Templates ----

func (s *Server) handleUTMTemplates(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.catalogService.ListUTMTemplates(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, list)

	case http.MethodPost:
		var t models.UTMTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			s.fail(w, badJSON())
			return
		}
		if err := s.catalogService.CreateUTMTemplate(r.Context(), &t); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusCreated, t)

	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleUTMTemplateByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/utm-templates/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		t, err := s.catalogService.GetUTMTemplate(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, t)

	case http.MethodPut:
		var t models.UTMTemplate
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			s.fail(w, badJSON())
			return
		}
		t.ID = id
		if err := s.catalogService.UpdateUTMTemplate(r.Context(), &t); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, t)

	case http.MethodDelete:
		if err := s.catalogService.DeleteUTMTemplate(r.Context(), id); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, map[string]string{"id": id})

	default:
		s.methodNotAllowed(w)
	}
}

// ---- Promotion Codes ----

func (s *Server) handlePromoCodes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.catalogService.ListPromotionCodes(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, list)

	case http.MethodPost:
		var p models.PromotionCode
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			s.fail(w, badJSON())
			return
		}
		if err := s.catalogService.CreatePromotionCode(r.Context(), &p); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusCreated, p)

	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handlePromoRedeem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w)
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.fail(w, badJSON())
		return
	}

	p, err := s.catalogService.RedeemPromotionCode(r.Context(), req.Code)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, p)
}

func (s *Server) handlePromoCodeByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/promo-codes/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		p, err := s.catalogService.GetPromotionCode(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, p)

	case http.MethodPut:
		var p models.PromotionCode
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			s.fail(w, badJSON())
			return
		}
		p.ID = id
		if err := s.catalogService.UpdatePromotionCode(r.Context(), &p); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, p)

	case http.MethodDelete:
		if err := s.catalogService.DeletePromotionCode(r.Context(), id); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, map[string]string{"id": id})

	default:
		s.methodNotAllowed(w)
	}
}

// ---- Conversion Event Definitions ----

func (s *Server) handleConversionEvents(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.catalogService.ListConversionEvents(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, list)

	case http.MethodPost:
		var d models.ConversionEventDef
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			s.fail(w, badJSON())
			return
		}
		if err := s.catalogService.CreateConversionEvent(r.Context(), &d); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusCreated, d)

	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleConversionEventByID(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/conversion-events/")
	if id == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		d, err := s.catalogService.GetConversionEvent(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, d)

	case http.MethodPut:
		var d models.ConversionEventDef
		if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
			s.fail(w, badJSON())
			return
		}
		d.ID = id
		if err := s.catalogService.UpdateConversionEvent(r.Context(), &d); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, d)

	case http.MethodDelete:
		if err := s.catalogService.DeleteConversionEvent(r.Context(), id); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, map[string]string{"id": id})

	default:
		s.methodNotAllowed(w)
	}
}

// ---- Cost Ledger ----

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		dr, err := s.dateRange(r)
		if err != nil {
			s.fail(w, err)
			return
		}
		list, err := s.catalogService.ListCosts(r.Context(), dr, r.URL.Query().Get("channel_id"))
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, list)

	case http.MethodPost:
		var req struct {
			ChannelID  string  `json:"channel_id"`
			CostDate   string  `json:"cost_date"`
			CostAmount float64 `json:"cost_amount"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.fail(w, badJSON())
			return
		}

		cost := models.ChannelCost{ChannelID: req.ChannelID, CostAmount: req.CostAmount}
		if req.CostDate != "" {
			t, err := time.Parse("2006-01-02", req.CostDate)
			if err != nil {
				s.fail(w, &attribution.ValidationError{Field: "cost_date", Reason: "must be YYYY-MM-DD"})
				return
			}
			cost.CostDate = t
		}
		if err := s.catalogService.UpsertCost(r.Context(), &cost); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, cost)

	default:
		s.methodNotAllowed(w)
	}
}

// ---- Stored Reports ----

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.catalogService.ListReports(r.Context())
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, list)

	case http.MethodPost:
		var rep models.CustomReport
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			s.fail(w, badJSON())
			return
		}
		if err := s.catalogService.CreateReport(r.Context(), &rep, s.dispatcher.KnownType); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusCreated, rep)

	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleReportByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/reports/")
	if rest == "" {
		http.NotFound(w, r)
		return
	}

	// GET /reports/{id}/data dispatches the stored report.
	if id, ok := strings.CutSuffix(rest, "/data"); ok {
		if r.Method != http.MethodGet {
			s.methodNotAllowed(w)
			return
		}
		s.handleReportData(w, r, id)
		return
	}

	id := rest
	switch r.Method {
	case http.MethodGet:
		rep, err := s.catalogService.GetReport(r.Context(), id)
		if err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, rep)

	case http.MethodPut:
		var rep models.CustomReport
		if err := json.NewDecoder(r.Body).Decode(&rep); err != nil {
			s.fail(w, badJSON())
			return
		}
		rep.ID = id
		if err := s.catalogService.UpdateReport(r.Context(), &rep, s.dispatcher.KnownType); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, rep)

	case http.MethodDelete:
		if err := s.catalogService.DeleteReport(r.Context(), id); err != nil {
			s.fail(w, err)
			return
		}
		s.respond(w, http.StatusOK, map[string]string{"id": id})

	default:
		s.methodNotAllowed(w)
	}
}

func (s *Server) handleReportData(w http.ResponseWriter, r *http.Request, id string) {
	rep, err := s.catalogService.GetReport(r.Context(), id)
	if err != nil {
		s.fail(w, err)
		return
	}

	data, err := s.dispatcher.Execute(r.Context(), rep.ReportType, rep.Config)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, http.StatusOK, map[string]interface{}{
		"report": rep,
		"data":   data,
	})
}
