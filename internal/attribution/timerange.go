package attribution

import (
	"time"
)

// DateRange is a half-open interval [Start, End) applied to event and
// conversion timestamps.
type DateRange struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// DefaultRange returns the trailing window of the given number of days
// ending now. It is applied whenever a caller omits a range.
func DefaultRange(days int) DateRange {
	now := time.Now().UTC()
	return DateRange{Start: now.AddDate(0, 0, -days), End: now}
}

// OrDefault fills missing endpoints from the default trailing window.
func (r DateRange) OrDefault(days int) DateRange {
	out := r
	if out.End.IsZero() {
		out.End = time.Now().UTC()
	}
	if out.Start.IsZero() {
		out.Start = out.End.AddDate(0, 0, -days)
	}
	return out
}

// Contains reports whether t falls within [Start, End).
func (r DateRange) Contains(t time.Time) bool {
	return !t.Before(r.Start) && t.Before(r.End)
}

// Granularities accepted by the trend aggregator.
const (
	GranularityHour  = "hour"
	GranularityDay   = "day"
	GranularityWeek  = "week"
	GranularityMonth = "month"
)

// BucketStart truncates t to the start of its bucket. Weeks start on
// Monday (ISO), months on the first.
func BucketStart(t time.Time, granularity string) time.Time {
	t = t.UTC()
	switch granularity {
	case GranularityHour:
		return t.Truncate(time.Hour)
	case GranularityWeek:
		day := t.Truncate(24 * time.Hour)
		wd := int(day.Weekday())
		if wd == 0 {
			wd = 7
		}
		return day.AddDate(0, 0, -(wd - 1))
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default: // day
		return t.Truncate(24 * time.Hour)
	}
}

// NextBucket advances a bucket start by one bucket width.
func NextBucket(t time.Time, granularity string) time.Time {
	switch granularity {
	case GranularityHour:
		return t.Add(time.Hour)
	case GranularityWeek:
		return t.AddDate(0, 0, 7)
	case GranularityMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// BucketLabel formats a bucket start for report output.
func BucketLabel(t time.Time, granularity string) string {
	switch granularity {
	case GranularityHour:
		return t.Format("2006-01-02 15:00")
	case GranularityMonth:
		return t.Format("2006-01")
	default:
		return t.Format("2006-01-02")
	}
}

// ValidGranularity reports whether g names a supported bucket width.
func ValidGranularity(g string) bool {
	switch g {
	case GranularityHour, GranularityDay, GranularityWeek, GranularityMonth:
		return true
	}
	return false
}
