package storage

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/radiusdt/vector-attribution/internal/models"
)

func mustAppend(t *testing.T, s *InMemoryEventStore, userID, sessionID, channelID string, at time.Time) *models.Touchpoint {
	t.Helper()
	tp := &models.Touchpoint{
		ID:        fmt.Sprintf("tp-%s-%s-%s-%d", userID, sessionID, channelID, at.UnixNano()),
		UserID:    userID,
		SessionID: sessionID,
		ChannelID: channelID,
		Weight:    1.0,
		CreatedAt: at,
	}
	if err := s.AppendTouchpoint(context.Background(), tp); err != nil {
		t.Fatalf("AppendTouchpoint: %v", err)
	}
	return tp
}

func TestSaveEventDuplicateKey(t *testing.T) {
	s := NewInMemoryEventStore()
	ctx := context.Background()
	now := time.Now().UTC()

	first := &models.AttributionEvent{ID: "e1", EventKey: "k1", SessionID: "s1", CreatedAt: now}
	if err := s.SaveEvent(ctx, first); err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	retry := &models.AttributionEvent{ID: "e2", EventKey: "k1", SessionID: "s1", CreatedAt: now}
	if err := s.SaveEvent(ctx, retry); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("replayed key: err = %v, want ErrDuplicate", err)
	}

	stored, err := s.GetEventByKey(ctx, "k1")
	if err != nil {
		t.Fatalf("GetEventByKey: %v", err)
	}
	if stored == nil || stored.ID != "e1" {
		t.Errorf("stored event = %+v, want e1", stored)
	}

	// Keyless events never collide.
	for _, id := range []string{"e3", "e4"} {
		if err := s.SaveEvent(ctx, &models.AttributionEvent{ID: id, SessionID: "s1", CreatedAt: now}); err != nil {
			t.Fatalf("keyless SaveEvent %s: %v", id, err)
		}
	}
}

func TestAppendTouchpointOrdersPerJourney(t *testing.T) {
	s := NewInMemoryEventStore()
	now := time.Now().UTC()

	a := mustAppend(t, s, "u1", "s1", "ch-1", now)
	b := mustAppend(t, s, "u1", "s2", "ch-2", now.Add(time.Minute))
	c := mustAppend(t, s, "u2", "s3", "ch-1", now)

	if a.Order != 1 || b.Order != 2 {
		t.Errorf("u1 orders = %d, %d, want 1, 2", a.Order, b.Order)
	}
	if c.Order != 1 {
		t.Errorf("u2 starts at order %d, want 1", c.Order)
	}

	// Anonymous journeys are keyed by session, independent of users.
	d := mustAppend(t, s, "", "s1", "ch-1", now)
	if d.Order != 1 {
		t.Errorf("anonymous journey starts at order %d, want 1", d.Order)
	}
}

func TestClaimSessionTouchpoints(t *testing.T) {
	s := NewInMemoryEventStore()
	now := time.Now().UTC()
	ctx := context.Background()

	mustAppend(t, s, "", "s1", "ch-1", now)
	mustAppend(t, s, "", "s1", "ch-2", now.Add(time.Minute))

	if err := s.ClaimSessionTouchpoints(ctx, "s1", "u1"); err != nil {
		t.Fatalf("ClaimSessionTouchpoints: %v", err)
	}

	tps, err := s.ListTouchpointsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTouchpointsByUser: %v", err)
	}
	if len(tps) != 2 {
		t.Fatalf("got %d touchpoints, want 2", len(tps))
	}
	if tps[0].ChannelID != "ch-1" || tps[0].Order != 1 {
		t.Errorf("first claimed = %+v, want ch-1 at order 1", tps[0])
	}
	if tps[1].ChannelID != "ch-2" || tps[1].Order != 2 {
		t.Errorf("second claimed = %+v, want ch-2 at order 2", tps[1])
	}
	for _, tp := range tps {
		if tp.UserID != "u1" {
			t.Errorf("claimed touchpoint kept user %q", tp.UserID)
		}
	}

	// The next append continues the merged journey.
	next := mustAppend(t, s, "u1", "s1", "ch-3", now.Add(2*time.Minute))
	if next.Order != 3 {
		t.Errorf("post-claim order = %d, want 3", next.Order)
	}
}

func TestClaimRenumbersAfterExistingJourney(t *testing.T) {
	s := NewInMemoryEventStore()
	now := time.Now().UTC()
	ctx := context.Background()

	// u1 already has two touchpoints from an earlier device.
	mustAppend(t, s, "u1", "s-old", "ch-1", now.Add(-2*time.Hour))
	mustAppend(t, s, "u1", "s-old", "ch-2", now.Add(-time.Hour))
	// A fresh anonymous session accrues one more before login.
	mustAppend(t, s, "", "s-new", "ch-3", now)

	if err := s.ClaimSessionTouchpoints(ctx, "s-new", "u1"); err != nil {
		t.Fatalf("ClaimSessionTouchpoints: %v", err)
	}

	tps, err := s.ListTouchpointsByUser(ctx, "u1")
	if err != nil {
		t.Fatalf("ListTouchpointsByUser: %v", err)
	}
	if len(tps) != 3 {
		t.Fatalf("got %d touchpoints, want 3", len(tps))
	}
	for i, tp := range tps {
		if tp.Order != i+1 {
			t.Errorf("touchpoint %d has order %d, want gapless 1..3", i, tp.Order)
		}
	}
	if tps[2].ChannelID != "ch-3" {
		t.Errorf("claimed touchpoint ended at %+v, want ch-3 last", tps[2])
	}
}

func TestClaimWithNothingToClaim(t *testing.T) {
	s := NewInMemoryEventStore()
	ctx := context.Background()

	if err := s.ClaimSessionTouchpoints(ctx, "s-empty", "u1"); err != nil {
		t.Fatalf("claim of empty session: %v", err)
	}
	if err := s.ClaimSessionTouchpoints(ctx, "", "u1"); err != nil {
		t.Fatalf("claim with blank session: %v", err)
	}
	if err := s.ClaimSessionTouchpoints(ctx, "s1", ""); err != nil {
		t.Fatalf("claim with blank user: %v", err)
	}
}

func TestListTouchpointsFilter(t *testing.T) {
	s := NewInMemoryEventStore()
	now := time.Now().UTC()
	ctx := context.Background()

	mustAppend(t, s, "u1", "s1", "ch-1", now.Add(-2*time.Hour))
	mustAppend(t, s, "u1", "s1", "ch-2", now.Add(-time.Hour))
	mustAppend(t, s, "u2", "s2", "ch-1", now)

	byUser, err := s.ListTouchpoints(ctx, TouchpointFilter{UserID: "u1"})
	if err != nil {
		t.Fatalf("ListTouchpoints: %v", err)
	}
	if len(byUser) != 2 {
		t.Errorf("user filter returned %d rows, want 2", len(byUser))
	}

	recent, err := s.ListTouchpoints(ctx, TouchpointFilter{Start: now.Add(-90 * time.Minute)})
	if err != nil {
		t.Fatalf("ListTouchpoints: %v", err)
	}
	if len(recent) != 2 {
		t.Errorf("time filter returned %d rows, want 2", len(recent))
	}
}

func TestEventKeyLookup(t *testing.T) {
	s := NewInMemoryEventStore()
	ctx := context.Background()

	ev := &models.AttributionEvent{ID: "e1", EventKey: "k1", SessionID: "s1", CreatedAt: time.Now().UTC()}
	if err := s.SaveEvent(ctx, ev); err != nil {
		t.Fatalf("SaveEvent: %v", err)
	}

	got, err := s.GetEventByKey(ctx, "k1")
	if err != nil {
		t.Fatalf("GetEventByKey: %v", err)
	}
	if got == nil || got.ID != "e1" {
		t.Fatalf("got %+v, want event e1", got)
	}

	if got, _ := s.GetEventByKey(ctx, "missing"); got != nil {
		t.Errorf("unknown key returned %+v", got)
	}
	if got, _ := s.GetEventByKey(ctx, ""); got != nil {
		t.Errorf("empty key returned %+v", got)
	}
}

func TestCostUpsertKeyedByChannelAndDay(t *testing.T) {
	r := NewInMemoryCostRepo()
	ctx := context.Background()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	// Two writes on the same day collapse, even at different times.
	for _, c := range []*models.ChannelCost{
		{ChannelID: "ch-1", CostDate: day.Add(9 * time.Hour), CostAmount: 100},
		{ChannelID: "ch-1", CostDate: day.Add(17 * time.Hour), CostAmount: 250},
		{ChannelID: "ch-1", CostDate: day.AddDate(0, 0, 1), CostAmount: 50},
		{ChannelID: "ch-2", CostDate: day, CostAmount: 70},
	} {
		if err := r.Upsert(ctx, c); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	costs, err := r.List(ctx, day, day.AddDate(0, 0, 2), "ch-1")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(costs) != 2 {
		t.Fatalf("got %d rows, want 2", len(costs))
	}
	if costs[0].CostAmount != 250 || costs[1].CostAmount != 50 {
		t.Errorf("rows = %+v, want 250 then 50", costs)
	}
}
