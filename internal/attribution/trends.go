package attribution

import (
	"context"
)

// TrendPoint is one time bucket in a trend series.
type TrendPoint struct {
	Date           string  `json:"date"`
	Visits         int     `json:"visits"`
	Conversions    int     `json:"conversions"`
	Revenue        float64 `json:"revenue"`
	ConversionRate float64 `json:"conversion_rate"`
}

// Trends buckets visits and conversions into fixed-width time buckets
// over the range. Every bucket inside the range appears, including
// empty ones; there are no silent gaps. An optional channel filter
// restricts visits by resolved channel and conversions by last-touch
// channel.
func (r *Reporter) Trends(ctx context.Context, dr DateRange, granularity, channelID string) ([]TrendPoint, error) {
	if !ValidGranularity(granularity) {
		return nil, &ValidationError{Field: "granularity", Reason: "must be one of hour, day, week, month"}
	}

	var points []TrendPoint
	err := r.run(ctx, "trends", func(ctx context.Context) error {
		events, err := r.events.ListEvents(ctx, dr.Start, dr.End, channelID)
		if err != nil {
			return err
		}
		convs, err := r.events.ListConversions(ctx, dr.Start, dr.End)
		if err != nil {
			return err
		}

		type bucket struct {
			visits      int
			conversions int
			revenue     float64
		}
		buckets := make(map[string]*bucket)
		at := func(label string) *bucket {
			b, ok := buckets[label]
			if !ok {
				b = &bucket{}
				buckets[label] = b
			}
			return b
		}

		for _, ev := range events {
			label := BucketLabel(BucketStart(ev.CreatedAt, granularity), granularity)
			at(label).visits++
		}
		for _, conv := range convs {
			if channelID != "" && conv.LastTouchChannelID != channelID {
				continue
			}
			label := BucketLabel(BucketStart(conv.ConvertedAt, granularity), granularity)
			b := at(label)
			b.conversions++
			b.revenue += conv.Value
		}

		// Walk the full range so empty buckets still show up.
		for t := BucketStart(dr.Start, granularity); t.Before(dr.End); t = NextBucket(t, granularity) {
			label := BucketLabel(t, granularity)
			b := buckets[label]
			if b == nil {
				b = &bucket{}
			}
			rate := 0.0
			if b.visits > 0 {
				rate = float64(b.conversions) / float64(b.visits) * 100
			}
			points = append(points, TrendPoint{
				Date:           label,
				Visits:         b.visits,
				Conversions:    b.conversions,
				Revenue:        b.revenue,
				ConversionRate: rate,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return points, nil
}
