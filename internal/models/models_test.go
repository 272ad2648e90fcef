package models

import (
	"testing"
	"time"
)

func TestJourneyKey(t *testing.T) {
	ev := &AttributionEvent{SessionID: "s1"}
	if got := ev.JourneyKey(); got != "s:s1" {
		t.Errorf("anonymous key = %q, want s:s1", got)
	}
	ev.UserID = "u1"
	if got := ev.JourneyKey(); got != "u:u1" {
		t.Errorf("logged-in key = %q, want u:u1", got)
	}

	tp := &Touchpoint{SessionID: "s1", UserID: "u1"}
	if tp.JourneyKey() != ev.JourneyKey() {
		t.Error("touchpoint and event keys disagree for the same visitor")
	}
}

func TestPromotionCodeRedeemable(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	tests := []struct {
		name string
		code PromotionCode
		want bool
	}{
		{"active with no limits", PromotionCode{IsActive: true}, true},
		{"inactive", PromotionCode{IsActive: false}, false},
		{"before window", PromotionCode{IsActive: true, StartDate: &future}, false},
		{"after window", PromotionCode{IsActive: true, EndDate: &past}, false},
		{"inside window", PromotionCode{IsActive: true, StartDate: &past, EndDate: &future}, true},
		{"usage cap hit", PromotionCode{IsActive: true, MaxUsage: 3, UsageCount: 3}, false},
		{"usage below cap", PromotionCode{IsActive: true, MaxUsage: 3, UsageCount: 2}, true},
		{"zero max is unlimited", PromotionCode{IsActive: true, MaxUsage: 0, UsageCount: 9999}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.Redeemable(now); got != tt.want {
				t.Errorf("Redeemable = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCostKeyIgnoresTimeOfDay(t *testing.T) {
	a := &ChannelCost{ChannelID: "ch-1", CostDate: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}
	b := &ChannelCost{ChannelID: "ch-1", CostDate: time.Date(2026, 3, 10, 17, 30, 0, 0, time.UTC)}
	if a.CostKey() != b.CostKey() {
		t.Errorf("keys differ for the same day: %q vs %q", a.CostKey(), b.CostKey())
	}
	c := &ChannelCost{ChannelID: "ch-2", CostDate: a.CostDate}
	if a.CostKey() == c.CostKey() {
		t.Error("keys collide across channels")
	}
}
