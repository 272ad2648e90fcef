package attribution

import (
	"testing"
	"time"
)

func TestBucketStart(t *testing.T) {
	// 2026-03-11 is a Wednesday.
	at := time.Date(2026, 3, 11, 14, 37, 12, 0, time.UTC)

	tests := []struct {
		granularity string
		want        time.Time
	}{
		{GranularityHour, time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC)},
		{GranularityDay, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)},
		{GranularityWeek, time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)},
		{GranularityMonth, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		if got := BucketStart(at, tt.granularity); !got.Equal(tt.want) {
			t.Errorf("BucketStart(%s) = %v, want %v", tt.granularity, got, tt.want)
		}
	}
}

func TestBucketStartSundayBelongsToPrecedingWeek(t *testing.T) {
	sunday := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	want := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	if got := BucketStart(sunday, GranularityWeek); !got.Equal(want) {
		t.Errorf("BucketStart(sunday) = %v, want Monday %v", got, want)
	}
}

func TestNextBucketCrossesMonthEnd(t *testing.T) {
	jan := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := NextBucket(jan, GranularityMonth); !got.Equal(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("NextBucket(month) = %v, want 2026-02-01", got)
	}
	day := time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC)
	if got := NextBucket(day, GranularityDay); !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("NextBucket(day) = %v, want 2026-03-01", got)
	}
}

func TestBucketLabel(t *testing.T) {
	at := time.Date(2026, 3, 11, 14, 0, 0, 0, time.UTC)
	tests := []struct {
		granularity string
		want        string
	}{
		{GranularityHour, "2026-03-11 14:00"},
		{GranularityDay, "2026-03-11"},
		{GranularityWeek, "2026-03-11"},
		{GranularityMonth, "2026-03"},
	}
	for _, tt := range tests {
		if got := BucketLabel(at, tt.granularity); got != tt.want {
			t.Errorf("BucketLabel(%s) = %q, want %q", tt.granularity, got, tt.want)
		}
	}
}

func TestDateRangeOrDefault(t *testing.T) {
	full := DateRange{
		Start: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
	}
	if got := full.OrDefault(30); !got.Start.Equal(full.Start) || !got.End.Equal(full.End) {
		t.Errorf("OrDefault changed an explicit range: %+v", got)
	}

	got := DateRange{}.OrDefault(30)
	if window := got.End.Sub(got.Start); window != 30*24*time.Hour {
		t.Errorf("default window = %v, want 30 days", window)
	}

	halfOpen := DateRange{Start: full.Start, End: full.End}
	if !halfOpen.Contains(full.Start) {
		t.Error("range must include its start")
	}
	if halfOpen.Contains(full.End) {
		t.Error("range must exclude its end")
	}
}

func TestValidGranularity(t *testing.T) {
	for _, g := range []string{GranularityHour, GranularityDay, GranularityWeek, GranularityMonth} {
		if !ValidGranularity(g) {
			t.Errorf("ValidGranularity(%q) = false", g)
		}
	}
	for _, g := range []string{"", "minute", "quarter", "Day"} {
		if ValidGranularity(g) {
			t.Errorf("ValidGranularity(%q) = true", g)
		}
	}
}
