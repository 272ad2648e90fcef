package attribution

import (
	"context"
)

// DashboardSummary is the headline row of the overview dashboard.
type DashboardSummary struct {
	Visits         int     `json:"visits"`
	Conversions    int     `json:"conversions"`
	ConversionRate float64 `json:"conversion_rate"`
	Revenue        float64 `json:"revenue"`
	Cost           float64 `json:"cost"`
	ROI            float64 `json:"roi"`
}

// Dashboard is the overview report: totals plus a per-channel breakdown.
type Dashboard struct {
	Summary  DashboardSummary       `json:"summary"`
	Channels []ChannelComparisonRow `json:"channels"`
}

// Dashboard aggregates the range's totals and per-channel metrics.
// Visits count every attribution event, tracked or not; conversion
// totals include unattributed conversions so the summary never hides
// direct revenue.
func (r *Reporter) Dashboard(ctx context.Context, dr DateRange) (*Dashboard, error) {
	var dash Dashboard
	err := r.run(ctx, "dashboard", func(ctx context.Context) error {
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

		dash.Summary.Visits = len(events)
		for _, conv := range convs {
			dash.Summary.Conversions++
			dash.Summary.Revenue += conv.Value
		}
		for _, c := range costs {
			dash.Summary.Cost += c.CostAmount
		}
		if dash.Summary.Visits > 0 {
			dash.Summary.ConversionRate = float64(dash.Summary.Conversions) / float64(dash.Summary.Visits) * 100
		}
		if dash.Summary.Cost > 0 {
			dash.Summary.ROI = (dash.Summary.Revenue - dash.Summary.Cost) / dash.Summary.Cost * 100
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	channels, err := r.CompareChannels(ctx, dr)
	if err != nil {
		return nil, err
	}
	dash.Channels = channels
	return &dash, nil
}
