package attribution

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/metrics"
	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

// Reporter computes all read-side analytics. Every method is a pure
// aggregation over immutable data, bounded by the configured query
// timeout; a deadline hit surfaces as AggregationTimeoutError so
// callers never mistake an outage for zero activity.
type Reporter struct {
	events      storage.EventStore
	channels    storage.ChannelRepo
	costs       storage.CostRepo
	definitions storage.ConversionEventRepo
	engine      *ModelEngine
	timeout     time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// NewReporter creates the analytics reporter.
func NewReporter(
	events storage.EventStore,
	channels storage.ChannelRepo,
	costs storage.CostRepo,
	definitions storage.ConversionEventRepo,
	engine *ModelEngine,
	timeout time.Duration,
	logger *zap.Logger,
	m *metrics.Metrics,
) *Reporter {
	return &Reporter{
		events:      events,
		channels:    channels,
		costs:       costs,
		definitions: definitions,
		engine:      engine,
		timeout:     timeout,
		logger:      logger,
		metrics:     m,
	}
}

// run executes one named aggregation under the query timeout and maps a
// deadline hit to AggregationTimeoutError.
func (r *Reporter) run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	start := time.Now()
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	err := fn(ctx)
	if err != nil && (errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded)) {
		if r.metrics != nil {
			r.metrics.RecordReportTimeout(operation)
		}
		r.logger.Warn("aggregation timed out",
			zap.String("operation", operation),
			zap.Duration("elapsed", time.Since(start)))
		return &AggregationTimeoutError{Operation: operation, Err: err}
	}
	if r.metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		r.metrics.RecordReport(operation, status, time.Since(start))
	}
	return err
}

// =============================================
// TOUCHPOINT JOURNEYS
// =============================================

// Journey is one visitor's ordered touchpoint sequence.
type Journey struct {
	UserID      string               `json:"user_id,omitempty"`
	SessionID   string               `json:"session_id,omitempty"`
	Touchpoints []*models.Touchpoint `json:"touchpoints"`
}

// Touchpoints returns journeys matching the filter, each sorted by
// touchpoint order.
func (r *Reporter) Touchpoints(ctx context.Context, f storage.TouchpointFilter) ([]*Journey, error) {
	var journeys []*Journey
	err := r.run(ctx, "touchpoints", func(ctx context.Context) error {
		tps, err := r.events.ListTouchpoints(ctx, f)
		if err != nil {
			return err
		}

		byKey := make(map[string]*Journey)
		var keys []string
		for _, tp := range tps {
			key := tp.JourneyKey()
			j, ok := byKey[key]
			if !ok {
				j = &Journey{UserID: tp.UserID, SessionID: tp.SessionID}
				byKey[key] = j
				keys = append(keys, key)
			}
			j.Touchpoints = append(j.Touchpoints, tp)
		}
		sort.Strings(keys)
		for _, key := range keys {
			j := byKey[key]
			sort.Slice(j.Touchpoints, func(a, b int) bool {
				return j.Touchpoints[a].Order < j.Touchpoints[b].Order
			})
			journeys = append(journeys, j)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return journeys, nil
}

// =============================================
// MODEL COMPARISON
// =============================================

// ModelComparison holds all three attribution models side by side.
type ModelComparison struct {
	FirstTouch []ModelRow `json:"first_touch"`
	LastTouch  []ModelRow `json:"last_touch"`
	Linear     []ModelRow `json:"linear"`
}

// CompareModels computes first-touch, last-touch and linear attribution
// over the same range.
func (r *Reporter) CompareModels(ctx context.Context, dr DateRange) (*ModelComparison, error) {
	var cmp ModelComparison
	err := r.run(ctx, "model_comparison", func(ctx context.Context) error {
		var err error
		if cmp.FirstTouch, err = r.engine.FirstTouch(ctx, dr); err != nil {
			return err
		}
		if cmp.LastTouch, err = r.engine.LastTouch(ctx, dr); err != nil {
			return err
		}
		cmp.Linear, err = r.engine.Linear(ctx, dr)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &cmp, nil
}
