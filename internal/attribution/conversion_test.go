package attribution

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

func seedConversionDef(t *testing.T, repo storage.ConversionEventRepo, id, eventType, calc string, fixed float64) {
	t.Helper()
	err := repo.Create(context.Background(), &models.ConversionEventDef{
		ID:               id,
		Name:             eventType,
		EventType:        eventType,
		ValueCalculation: calc,
		FixedValue:       fixed,
		IsActive:         true,
		CreatedAt:        time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed conversion def %s: %v", id, err)
	}
}

func newTestConversionService(t *testing.T) (*ConversionService, *storage.InMemoryEventStore, *storage.InMemoryConversionEventRepo) {
	t.Helper()
	events := storage.NewInMemoryEventStore()
	defs := storage.NewInMemoryConversionEventRepo()
	svc := NewConversionService(events, defs, zap.NewNop(), nil)
	return svc, events, defs
}

func TestRecordConversionValidation(t *testing.T) {
	svc, _, _ := newTestConversionService(t)

	if _, err := svc.RecordConversion(context.Background(), &ConversionRequest{ConversionEventID: "d1"}); !IsValidation(err) {
		t.Errorf("missing user_id: expected ValidationError, got %v", err)
	}
	if _, err := svc.RecordConversion(context.Background(), &ConversionRequest{UserID: "u1"}); !IsValidation(err) {
		t.Errorf("missing conversion_event_id: expected ValidationError, got %v", err)
	}
}

func TestRecordConversionUnknownDefinition(t *testing.T) {
	svc, _, _ := newTestConversionService(t)

	_, err := svc.RecordConversion(context.Background(), &ConversionRequest{
		UserID:            "u1",
		ConversionEventID: "missing",
	})
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestRecordConversionFixedValueSubstitution(t *testing.T) {
	svc, _, defs := newTestConversionService(t)
	seedConversionDef(t, defs, "d-reg", "register", models.ValueCalculationFixed, 25)
	seedConversionDef(t, defs, "d-order", "first_purchase", models.ValueCalculationOrder, 0)

	// No value reported: the fixed amount fills in.
	conv, err := svc.RecordConversion(context.Background(), &ConversionRequest{
		UserID:            "u1",
		ConversionEventID: "d-reg",
	})
	if err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}
	if conv.Value != 25 {
		t.Errorf("fixed value = %v, want 25", conv.Value)
	}

	// A reported value wins even on a fixed definition.
	conv, err = svc.RecordConversion(context.Background(), &ConversionRequest{
		UserID:            "u1",
		ConversionEventID: "d-reg",
		Value:             999,
	})
	if err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}
	if conv.Value != 999 {
		t.Errorf("supplied value = %v, want 999", conv.Value)
	}

	conv, err = svc.RecordConversion(context.Background(), &ConversionRequest{
		UserID:            "u1",
		ConversionEventID: "d-order",
		Value:             149.90,
	})
	if err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}
	if conv.Value != 149.90 {
		t.Errorf("order value = %v, want 149.90", conv.Value)
	}
}

func appendTouchpoint(t *testing.T, events storage.EventStore, userID, channelID string, createdAt time.Time) {
	t.Helper()
	err := events.AppendTouchpoint(context.Background(), &models.Touchpoint{
		ID:        userID + "-" + channelID + createdAt.String(),
		UserID:    userID,
		SessionID: "s-" + userID,
		ChannelID: channelID,
		Weight:    1.0,
		CreatedAt: createdAt,
	})
	if err != nil {
		t.Fatalf("append touchpoint: %v", err)
	}
}

func TestRecordConversionResolvesLastTouch(t *testing.T) {
	svc, events, defs := newTestConversionService(t)
	seedConversionDef(t, defs, "d1", "first_purchase", models.ValueCalculationOrder, 0)

	now := time.Now().UTC()
	appendTouchpoint(t, events, "u1", "ch-1", now.Add(-2*time.Hour))
	appendTouchpoint(t, events, "u1", "ch-2", now.Add(-1*time.Hour))

	conv, err := svc.RecordConversion(context.Background(), &ConversionRequest{
		UserID:            "u1",
		ConversionEventID: "d1",
		Value:             100,
	})
	if err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}
	if conv.LastTouchChannelID != "ch-2" {
		t.Errorf("last touch = %q, want ch-2", conv.LastTouchChannelID)
	}
}

func TestRecordConversionNoTouchpointsStaysUnattributed(t *testing.T) {
	svc, _, defs := newTestConversionService(t)
	seedConversionDef(t, defs, "d1", "register", models.ValueCalculationFixed, 10)

	conv, err := svc.RecordConversion(context.Background(), &ConversionRequest{
		UserID:            "u-direct",
		ConversionEventID: "d1",
	})
	if err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}
	if conv.LastTouchChannelID != "" {
		t.Errorf("direct conversion got channel %q, want empty", conv.LastTouchChannelID)
	}
}

func TestLastTouchStability(t *testing.T) {
	svc, events, defs := newTestConversionService(t)
	seedConversionDef(t, defs, "d1", "first_purchase", models.ValueCalculationOrder, 0)

	now := time.Now().UTC()
	appendTouchpoint(t, events, "u1", "ch-1", now.Add(-time.Hour))

	conv, err := svc.RecordConversion(context.Background(), &ConversionRequest{
		UserID:            "u1",
		ConversionEventID: "d1",
		Value:             100,
	})
	if err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}

	// A later touchpoint must not rewrite the stored attribution.
	appendTouchpoint(t, events, "u1", "ch-2", now.Add(time.Hour))

	stored, err := events.ListConversions(context.Background(), now.Add(-time.Minute), now.Add(time.Minute))
	if err != nil {
		t.Fatalf("ListConversions: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("got %d conversions, want 1", len(stored))
	}
	if stored[0].LastTouchChannelID != conv.LastTouchChannelID || stored[0].LastTouchChannelID != "ch-1" {
		t.Errorf("last touch changed to %q, want ch-1", stored[0].LastTouchChannelID)
	}
}
