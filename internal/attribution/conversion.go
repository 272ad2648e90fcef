package attribution

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/metrics"
	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

// ConversionRequest reports a completed conversion for a user.
type ConversionRequest struct {
	UserID            string  `json:"user_id"`
	ConversionEventID string  `json:"conversion_event_id"`
	Value             float64 `json:"value,omitempty"`
}

// ConversionService records conversions with a stored last-touch channel.
type ConversionService struct {
	events      storage.EventStore
	definitions storage.ConversionEventRepo
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewConversionService creates a conversion recording service.
func NewConversionService(events storage.EventStore, definitions storage.ConversionEventRepo, logger *zap.Logger, m *metrics.Metrics) *ConversionService {
	return &ConversionService{
		events:      events,
		definitions: definitions,
		logger:      logger,
		metrics:     m,
	}
}

// RecordConversion stores a conversion. A reported value is always
// kept; the definition's fixed amount only fills in when no value was
// supplied. The last-touch channel is resolved once, from the user's
// latest touchpoint at conversion time, and stored on the row so later
// touchpoints never change history.
func (s *ConversionService) RecordConversion(ctx context.Context, req *ConversionRequest) (*models.UserConversion, error) {
	start := time.Now()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, &ValidationError{Field: "user_id", Reason: "is required"}
	}
	if strings.TrimSpace(req.ConversionEventID) == "" {
		return nil, &ValidationError{Field: "conversion_event_id", Reason: "is required"}
	}

	def, err := s.definitions.GetByID(ctx, req.ConversionEventID)
	if err != nil {
		return nil, err
	}
	if def == nil {
		return nil, &NotFoundError{Kind: "conversion event", ID: req.ConversionEventID}
	}

	value := req.Value
	if value == 0 && def.ValueCalculation == models.ValueCalculationFixed {
		value = def.FixedValue
	}

	conv := &models.UserConversion{
		ID:                uuid.New().String(),
		UserID:            req.UserID,
		ConversionEventID: def.ID,
		Value:             value,
		ConvertedAt:       time.Now().UTC(),
	}

	tps, err := s.events.ListTouchpointsByUser(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	for _, tp := range tps {
		if tp.CreatedAt.After(conv.ConvertedAt) {
			continue
		}
		// Touchpoints arrive sorted by order; the last one standing is
		// the greatest order at or before conversion time.
		conv.LastTouchChannelID = tp.ChannelID
	}

	if err := s.events.SaveConversion(ctx, conv); err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.RecordConversion(def.EventType, conv.Value, time.Since(start))
	}
	s.logger.Info("conversion recorded",
		zap.String("conversion_id", conv.ID),
		zap.String("user_id", conv.UserID),
		zap.String("event_type", def.EventType),
		zap.Float64("value", conv.Value),
		zap.String("last_touch_channel_id", conv.LastTouchChannelID))

	return conv, nil
}
