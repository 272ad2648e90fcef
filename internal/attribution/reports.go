package attribution

import (
	"context"
	"encoding/json"
	"time"
)

// Report types understood by the dispatcher.
const (
	ReportChannelPerformance = "channel_performance"
	ReportConversionFunnel   = "conversion_funnel"
	ReportROIAnalysis        = "roi_analysis"
	ReportModelComparison    = "model_comparison"
	ReportTrendAnalysis      = "trend_analysis"
	ReportUserQuality        = "user_quality"
)

// ReportParams are the parameters a stored report's config blob can
// carry. Missing dates fall back to the default trailing window.
type ReportParams struct {
	StartDate   string `json:"start_date,omitempty"`
	EndDate     string `json:"end_date,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
	Granularity string `json:"granularity,omitempty"`
}

// ReportFunc executes one report type. Execution is read-only and
// idempotent.
type ReportFunc func(ctx context.Context, dr DateRange, p ReportParams) (interface{}, error)

// Dispatcher maps stored report types to aggregators. Unknown types are
// rejected with a NotFoundError naming the type, never an empty result.
type Dispatcher struct {
	reporter    *Reporter
	defaultDays int
	registry    map[string]ReportFunc
}

// NewDispatcher creates a dispatcher with the full report registry.
func NewDispatcher(reporter *Reporter, defaultDays int) *Dispatcher {
	d := &Dispatcher{
		reporter:    reporter,
		defaultDays: defaultDays,
	}
	d.registry = map[string]ReportFunc{
		ReportChannelPerformance: func(ctx context.Context, dr DateRange, p ReportParams) (interface{}, error) {
			return reporter.CompareChannels(ctx, dr)
		},
		ReportConversionFunnel: func(ctx context.Context, dr DateRange, p ReportParams) (interface{}, error) {
			return reporter.Funnel(ctx, dr)
		},
		ReportROIAnalysis: func(ctx context.Context, dr DateRange, p ReportParams) (interface{}, error) {
			return reporter.ROI(ctx, dr, p.ChannelID)
		},
		ReportModelComparison: func(ctx context.Context, dr DateRange, p ReportParams) (interface{}, error) {
			return reporter.CompareModels(ctx, dr)
		},
		ReportTrendAnalysis: func(ctx context.Context, dr DateRange, p ReportParams) (interface{}, error) {
			granularity := p.Granularity
			if granularity == "" {
				granularity = GranularityDay
			}
			return reporter.Trends(ctx, dr, granularity, p.ChannelID)
		},
		ReportUserQuality: func(ctx context.Context, dr DateRange, p ReportParams) (interface{}, error) {
			return reporter.UserQuality(ctx, dr)
		},
	}
	return d
}

// KnownType reports whether reportType has a registered handler.
func (d *Dispatcher) KnownType(reportType string) bool {
	_, ok := d.registry[reportType]
	return ok
}

// Execute runs the report type with the given raw config blob.
func (d *Dispatcher) Execute(ctx context.Context, reportType string, config json.RawMessage) (interface{}, error) {
	fn, ok := d.registry[reportType]
	if !ok {
		return nil, &NotFoundError{Kind: "report type", ID: reportType}
	}

	var params ReportParams
	if len(config) > 0 {
		if err := json.Unmarshal(config, &params); err != nil {
			return nil, &ValidationError{Field: "config", Reason: "is not valid JSON"}
		}
	}

	dr, err := paramsRange(params, d.defaultDays)
	if err != nil {
		return nil, err
	}
	return fn(ctx, dr, params)
}

func paramsRange(p ReportParams, defaultDays int) (DateRange, error) {
	var dr DateRange
	if p.StartDate != "" {
		t, err := time.Parse("2006-01-02", p.StartDate)
		if err != nil {
			return dr, &ValidationError{Field: "start_date", Reason: "must be YYYY-MM-DD"}
		}
		dr.Start = t
	}
	if p.EndDate != "" {
		t, err := time.Parse("2006-01-02", p.EndDate)
		if err != nil {
			return dr, &ValidationError{Field: "end_date", Reason: "must be YYYY-MM-DD"}
		}
		// End date is inclusive in stored configs.
		dr.End = t.AddDate(0, 0, 1)
	}
	return dr.OrDefault(defaultDays), nil
}
