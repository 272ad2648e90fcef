package attribution

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/geo"
	"github.com/radiusdt/vector-attribution/internal/metrics"
	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

// VisitRequest carries one tracked page view.
type VisitRequest struct {
	EventKey    string `json:"event_key,omitempty"`
	SessionID   string `json:"session_id"`
	UserID      string `json:"user_id,omitempty"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`
	Referrer    string `json:"referrer,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`
	DeviceType  string `json:"device_type,omitempty"`
	Browser     string `json:"browser,omitempty"`
	OS          string `json:"os,omitempty"`
	IPAddress   string `json:"ip_address,omitempty"`
	UserAgent   string `json:"user_agent,omitempty"`
}

// VisitService records visits and maintains the touchpoint ledger.
type VisitService struct {
	events   storage.EventStore
	resolver *ChannelResolver
	locator  geo.Locator // nil when geo enrichment is disabled
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// NewVisitService creates a visit ingestion service. locator may be nil.
func NewVisitService(events storage.EventStore, resolver *ChannelResolver, locator geo.Locator, logger *zap.Logger, m *metrics.Metrics) *VisitService {
	return &VisitService{
		events:   events,
		resolver: resolver,
		locator:  locator,
		logger:   logger,
		metrics:  m,
	}
}

// RecordVisit stores a visit event and, when the visit resolves to a
// channel, appends a touchpoint to the visitor's journey. Re-sending a
// request with a previously seen event_key returns the stored event
// without writing anything.
func (s *VisitService) RecordVisit(ctx context.Context, req *VisitRequest) (*models.AttributionEvent, error) {
	start := time.Now()

	if strings.TrimSpace(req.SessionID) == "" {
		return nil, &ValidationError{Field: "session_id", Reason: "is required"}
	}

	if req.EventKey != "" {
		existing, err := s.events.GetEventByKey(ctx, req.EventKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			if s.metrics != nil {
				s.metrics.RecordDedupedVisit()
			}
			s.logger.Debug("duplicate visit ignored",
				zap.String("event_key", req.EventKey),
				zap.String("event_id", existing.ID))
			return existing, nil
		}
	}

	channel, err := s.resolver.Resolve(ctx, req.UTMSource, req.UTMMedium)
	if err != nil {
		return nil, err
	}

	ev := &models.AttributionEvent{
		ID:          uuid.New().String(),
		EventKey:    req.EventKey,
		UserID:      req.UserID,
		SessionID:   req.SessionID,
		CreatedAt:   time.Now().UTC(),
		UTMSource:   req.UTMSource,
		UTMMedium:   req.UTMMedium,
		UTMCampaign: req.UTMCampaign,
		UTMTerm:     req.UTMTerm,
		UTMContent:  req.UTMContent,
		Referrer:    req.Referrer,
		LandingPage: req.LandingPage,
		DeviceType:  req.DeviceType,
		Browser:     req.Browser,
		OS:          req.OS,
		IPAddress:   req.IPAddress,
		UserAgent:   req.UserAgent,
	}
	if channel != nil {
		ev.ChannelID = channel.ID
	}

	if s.locator != nil && ev.IPAddress != "" {
		if loc, err := s.locator.Lookup(ev.IPAddress); err == nil {
			ev.GeoCountry = loc.Country
			ev.GeoRegion = loc.Region
			ev.GeoCity = loc.City
		} else {
			s.logger.Debug("geo lookup failed", zap.String("ip", ev.IPAddress), zap.Error(err))
		}
	}

	if err := s.events.SaveEvent(ctx, ev); err != nil {
		// A concurrent retry with the same event_key got there first;
		// the stored event is the one to return.
		if errors.Is(err, storage.ErrDuplicate) && req.EventKey != "" {
			existing, gerr := s.events.GetEventByKey(ctx, req.EventKey)
			if gerr != nil {
				return nil, gerr
			}
			if existing != nil {
				if s.metrics != nil {
					s.metrics.RecordDedupedVisit()
				}
				s.logger.Debug("duplicate visit ignored",
					zap.String("event_key", req.EventKey),
					zap.String("event_id", existing.ID))
				return existing, nil
			}
		}
		return nil, err
	}

	// A logged-in visit adopts the session's earlier anonymous
	// touchpoints, so the journey survives the login boundary.
	if ev.UserID != "" {
		if err := s.events.ClaimSessionTouchpoints(ctx, ev.SessionID, ev.UserID); err != nil {
			return nil, err
		}
	}

	// Untracked visits get no touchpoint; the journey only records
	// attributable channel contacts.
	if channel != nil {
		tp := &models.Touchpoint{
			ID:        uuid.New().String(),
			UserID:    ev.UserID,
			SessionID: ev.SessionID,
			ChannelID: channel.ID,
			EventID:   ev.ID,
			Weight:    1.0,
			CreatedAt: ev.CreatedAt,
		}
		if err := s.events.AppendTouchpoint(ctx, tp); err != nil {
			return nil, err
		}
		if s.metrics != nil {
			s.metrics.RecordTouchpoint(channel.ID)
		}
	}

	if s.metrics != nil {
		s.metrics.RecordVisit(ev.ChannelID, time.Since(start))
	}
	s.logger.Debug("visit recorded",
		zap.String("event_id", ev.ID),
		zap.String("session_id", ev.SessionID),
		zap.String("channel_id", ev.ChannelID))

	return ev, nil
}
