package attribution

import (
	"context"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

func saveConversion(t *testing.T, events storage.EventStore, userID, lastTouch string, value float64, convertedAt time.Time) {
	t.Helper()
	err := events.SaveConversion(context.Background(), &models.UserConversion{
		ID:                 userID + "-conv-" + convertedAt.String(),
		UserID:             userID,
		ConversionEventID:  "d1",
		Value:              value,
		LastTouchChannelID: lastTouch,
		ConvertedAt:        convertedAt,
	})
	if err != nil {
		t.Fatalf("save conversion: %v", err)
	}
}

func rowByChannel(rows []ModelRow, channelID string) (ModelRow, bool) {
	for _, r := range rows {
		if r.ChannelID == channelID {
			return r, true
		}
	}
	return ModelRow{}, false
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestModelsAcrossLoginBoundary walks a visitor through an anonymous
// paid-search visit, a login, and an email visit, then checks each model
// credits the journey the way the ledger recorded it.
func TestModelsAcrossLoginBoundary(t *testing.T) {
	channels := storage.NewInMemoryChannelRepo()
	events := storage.NewInMemoryEventStore()
	defs := storage.NewInMemoryConversionEventRepo()
	seedChannel(t, channels, "ch-1", "Google Ads", "paid_search", 1, true)
	seedChannel(t, channels, "ch-2", "Email Newsletter", "email", 2, true)
	seedConversionDef(t, defs, "d1", "first_purchase", models.ValueCalculationOrder, 0)

	visits := NewVisitService(events, NewChannelResolver(channels), nil, zap.NewNop(), nil)
	conversions := NewConversionService(events, defs, zap.NewNop(), nil)

	ctx := context.Background()

	// Anonymous visit via paid search.
	if _, err := visits.RecordVisit(ctx, &VisitRequest{SessionID: "s1", UTMSource: "google"}); err != nil {
		t.Fatalf("anonymous visit: %v", err)
	}
	// Same session logs in and comes back via the newsletter.
	if _, err := visits.RecordVisit(ctx, &VisitRequest{SessionID: "s1", UserID: "u1", UTMSource: "newsletter"}); err != nil {
		t.Fatalf("logged-in visit: %v", err)
	}

	tps, err := events.ListTouchpointsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTouchpointsByUser: %v", err)
	}
	if len(tps) != 2 {
		t.Fatalf("journey has %d touchpoints, want 2", len(tps))
	}
	if tps[0].Order != 1 || tps[0].ChannelID != "ch-1" {
		t.Errorf("first touchpoint = order %d channel %s, want order 1 channel ch-1", tps[0].Order, tps[0].ChannelID)
	}
	if tps[1].Order != 2 || tps[1].ChannelID != "ch-2" {
		t.Errorf("second touchpoint = order %d channel %s, want order 2 channel ch-2", tps[1].Order, tps[1].ChannelID)
	}

	conv, err := conversions.RecordConversion(ctx, &ConversionRequest{
		UserID:            "u1",
		ConversionEventID: "d1",
		Value:             100,
	})
	if err != nil {
		t.Fatalf("RecordConversion: %v", err)
	}
	if conv.LastTouchChannelID != "ch-2" {
		t.Fatalf("stored last touch = %q, want ch-2", conv.LastTouchChannelID)
	}

	engine := NewModelEngine(events, ModelOptions{})
	r := DateRange{Start: conv.ConvertedAt.Add(-time.Hour), End: conv.ConvertedAt.Add(time.Hour)}

	first, err := engine.FirstTouch(ctx, r)
	if err != nil {
		t.Fatalf("FirstTouch: %v", err)
	}
	if len(first) != 1 || first[0].ChannelID != "ch-1" || first[0].Revenue != 100 {
		t.Errorf("first-touch rows = %+v, want all 100 on ch-1", first)
	}

	last, err := engine.LastTouch(ctx, r)
	if err != nil {
		t.Fatalf("LastTouch: %v", err)
	}
	if len(last) != 1 || last[0].ChannelID != "ch-2" || last[0].Revenue != 100 {
		t.Errorf("last-touch rows = %+v, want all 100 on ch-2", last)
	}

	linear, err := engine.Linear(ctx, r)
	if err != nil {
		t.Fatalf("Linear: %v", err)
	}
	if len(linear) != 2 {
		t.Fatalf("linear rows = %+v, want two channels", linear)
	}
	for _, id := range []string{"ch-1", "ch-2"} {
		row, ok := rowByChannel(linear, id)
		if !ok || !almostEqual(row.Revenue, 50) || !almostEqual(row.Conversions, 0.5) {
			t.Errorf("linear share for %s = %+v, want 50 revenue / 0.5 conversions", id, row)
		}
	}
}

func TestLinearDistinctVersusTouchWeighted(t *testing.T) {
	events := storage.NewInMemoryEventStore()
	now := time.Now().UTC()

	// u1 touched ch-1 twice and ch-2 once before converting for 90.
	appendTouchpoint(t, events, "u1", "ch-1", now.Add(-3*time.Hour))
	appendTouchpoint(t, events, "u1", "ch-2", now.Add(-2*time.Hour))
	appendTouchpoint(t, events, "u1", "ch-1", now.Add(-time.Hour))
	saveConversion(t, events, "u1", "ch-1", 90, now)

	r := DateRange{Start: now.Add(-time.Minute), End: now.Add(time.Minute)}
	ctx := context.Background()

	rows, err := NewModelEngine(events, ModelOptions{}).Linear(ctx, r)
	if err != nil {
		t.Fatalf("Linear: %v", err)
	}
	for _, id := range []string{"ch-1", "ch-2"} {
		row, _ := rowByChannel(rows, id)
		if !almostEqual(row.Revenue, 45) {
			t.Errorf("distinct split for %s = %v, want 45", id, row.Revenue)
		}
	}

	rows, err = NewModelEngine(events, ModelOptions{TouchWeighted: true}).Linear(ctx, r)
	if err != nil {
		t.Fatalf("Linear (weighted): %v", err)
	}
	ch1, _ := rowByChannel(rows, "ch-1")
	ch2, _ := rowByChannel(rows, "ch-2")
	if !almostEqual(ch1.Revenue, 60) || !almostEqual(ch2.Revenue, 30) {
		t.Errorf("touch-weighted split = %v / %v, want 60 / 30", ch1.Revenue, ch2.Revenue)
	}
}

func TestLinearIgnoresTouchpointsAfterConversion(t *testing.T) {
	events := storage.NewInMemoryEventStore()
	now := time.Now().UTC()

	appendTouchpoint(t, events, "u1", "ch-1", now.Add(-time.Hour))
	saveConversion(t, events, "u1", "ch-1", 100, now)
	appendTouchpoint(t, events, "u1", "ch-2", now.Add(time.Hour))

	rows, err := NewModelEngine(events, ModelOptions{}).Linear(context.Background(),
		DateRange{Start: now.Add(-time.Minute), End: now.Add(time.Minute)})
	if err != nil {
		t.Fatalf("Linear: %v", err)
	}
	if len(rows) != 1 || rows[0].ChannelID != "ch-1" || !almostEqual(rows[0].Revenue, 100) {
		t.Errorf("rows = %+v, want all 100 on ch-1", rows)
	}
}

func TestModelsExcludeJourneylessConversions(t *testing.T) {
	events := storage.NewInMemoryEventStore()
	now := time.Now().UTC()

	// Direct conversion: no touchpoints, no stored last touch.
	saveConversion(t, events, "u-direct", "", 40, now)
	appendTouchpoint(t, events, "u1", "ch-1", now.Add(-time.Hour))
	saveConversion(t, events, "u1", "ch-1", 60, now)

	r := DateRange{Start: now.Add(-time.Minute), End: now.Add(time.Minute)}
	ctx := context.Background()
	engine := NewModelEngine(events, ModelOptions{})

	for name, fn := range map[string]func(context.Context, DateRange) ([]ModelRow, error){
		"first-touch": engine.FirstTouch,
		"last-touch":  engine.LastTouch,
		"linear":      engine.Linear,
	} {
		rows, err := fn(ctx, r)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if len(rows) != 1 || rows[0].ChannelID != "ch-1" || !almostEqual(rows[0].Revenue, 60) {
			t.Errorf("%s rows = %+v, want only ch-1 with 60", name, rows)
		}
	}
}

// The three models disagree on the split, never on the total.
func TestModelTotalsAgree(t *testing.T) {
	events := storage.NewInMemoryEventStore()
	now := time.Now().UTC()

	appendTouchpoint(t, events, "u1", "ch-1", now.Add(-4*time.Hour))
	appendTouchpoint(t, events, "u1", "ch-2", now.Add(-3*time.Hour))
	saveConversion(t, events, "u1", "ch-2", 120, now)

	appendTouchpoint(t, events, "u2", "ch-2", now.Add(-2*time.Hour))
	appendTouchpoint(t, events, "u2", "ch-3", now.Add(-time.Hour))
	saveConversion(t, events, "u2", "ch-3", 80, now)

	r := DateRange{Start: now.Add(-time.Minute), End: now.Add(time.Minute)}
	ctx := context.Background()
	engine := NewModelEngine(events, ModelOptions{})

	for name, fn := range map[string]func(context.Context, DateRange) ([]ModelRow, error){
		"first-touch": engine.FirstTouch,
		"last-touch":  engine.LastTouch,
		"linear":      engine.Linear,
	} {
		rows, err := fn(ctx, r)
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		var revenue, conversions float64
		for _, row := range rows {
			revenue += row.Revenue
			conversions += row.Conversions
		}
		if !almostEqual(revenue, 200) {
			t.Errorf("%s total revenue = %v, want 200", name, revenue)
		}
		if !almostEqual(conversions, 2) {
			t.Errorf("%s total conversions = %v, want 2", name, conversions)
		}
	}
}
