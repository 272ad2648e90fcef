package attribution

import (
	"context"
	"sort"
)

// ChannelComparisonRow puts traffic, conversion and spend metrics for
// one channel side by side.
type ChannelComparisonRow struct {
	ChannelID             string  `json:"channel_id"`
	ChannelName           string  `json:"channel_name,omitempty"`
	Visits                int     `json:"visits"`
	UniqueVisitors        int     `json:"unique_visitors"`
	Conversions           int     `json:"conversions"`
	Revenue               float64 `json:"revenue"`
	Cost                  float64 `json:"cost"`
	ConversionRate        float64 `json:"conversion_rate"`
	ROI                   float64 `json:"roi"`
	CPA                   float64 `json:"cpa"`
	AvgTimeToConvertHours float64 `json:"avg_time_to_convert_hours"`
}

// CompareChannels reports per-channel traffic and efficiency over the
// range. Conversions and revenue are attributed last-touch; time to
// convert is measured from the user's first touchpoint.
func (r *Reporter) CompareChannels(ctx context.Context, dr DateRange) ([]ChannelComparisonRow, error) {
	var rows []ChannelComparisonRow
	err := r.run(ctx, "channel_comparison", func(ctx context.Context) error {
		events, err := r.events.ListEvents(ctx, dr.Start, dr.End, "")
		if err != nil {
			return err
		}
		convs, err := r.events.ListConversions(ctx, dr.Start, dr.End)
		if err != nil {
			return err
		}
		costs, err := r.costs.List(ctx, dr.Start, dr.End, "")
		if err != nil {
			return err
		}

		type chanAcc struct {
			row        ChannelComparisonRow
			visitors   map[string]struct{}
			totalHours float64
			timed      int
		}
		acc := make(map[string]*chanAcc)
		at := func(id string) *chanAcc {
			a, ok := acc[id]
			if !ok {
				a = &chanAcc{
					row:      ChannelComparisonRow{ChannelID: id},
					visitors: make(map[string]struct{}),
				}
				acc[id] = a
			}
			return a
		}

		for _, ev := range events {
			if ev.ChannelID == "" {
				continue
			}
			a := at(ev.ChannelID)
			a.row.Visits++
			a.visitors[ev.JourneyKey()] = struct{}{}
		}

		for _, conv := range convs {
			if conv.LastTouchChannelID == "" {
				continue
			}
			a := at(conv.LastTouchChannelID)
			a.row.Conversions++
			a.row.Revenue += conv.Value

			tps, err := r.events.ListTouchpointsByUser(ctx, conv.UserID)
			if err != nil {
				return err
			}
			if len(tps) > 0 && !tps[0].CreatedAt.After(conv.ConvertedAt) {
				a.totalHours += conv.ConvertedAt.Sub(tps[0].CreatedAt).Hours()
				a.timed++
			}
		}

		for _, c := range costs {
			at(c.ChannelID).row.Cost += c.CostAmount
		}

		channels, err := r.channels.ListAll(ctx)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(channels))
		for _, ch := range channels {
			names[ch.ID] = ch.Name
		}

		for _, a := range acc {
			row := a.row
			row.ChannelName = names[row.ChannelID]
			row.UniqueVisitors = len(a.visitors)
			if row.Visits > 0 {
				row.ConversionRate = float64(row.Conversions) / float64(row.Visits) * 100
			}
			if row.Cost > 0 {
				row.ROI = (row.Revenue - row.Cost) / row.Cost * 100
			}
			if row.Conversions > 0 {
				row.CPA = row.Cost / float64(row.Conversions)
			}
			if a.timed > 0 {
				row.AvgTimeToConvertHours = a.totalHours / float64(a.timed)
			}
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].Revenue != rows[j].Revenue {
				return rows[i].Revenue > rows[j].Revenue
			}
			return rows[i].ChannelID < rows[j].ChannelID
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}
