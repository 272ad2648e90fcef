package attribution

import (
	"context"
	"sort"

	"github.com/radiusdt/vector-attribution/internal/storage"
)

// ModelRow is one channel's share of credit under an attribution model.
// Conversions is fractional under the linear model, whole otherwise.
type ModelRow struct {
	ChannelID   string  `json:"channel_id"`
	Conversions float64 `json:"conversions"`
	Revenue     float64 `json:"attributed_revenue"`
}

// ModelOptions tune the credit-assignment algorithms.
type ModelOptions struct {
	// TouchWeighted switches the linear model from an even split across
	// distinct channels to a split proportional to touch counts.
	TouchWeighted bool
}

// ModelEngine computes the deterministic attribution models. All three
// are stateless reads over conversions with converted_at in the range
// and the touchpoint ledger; they never mutate anything.
type ModelEngine struct {
	events storage.EventStore
	opts   ModelOptions
}

// NewModelEngine creates a model engine over the event store.
func NewModelEngine(events storage.EventStore, opts ModelOptions) *ModelEngine {
	return &ModelEngine{events: events, opts: opts}
}

// FirstTouch attributes each conversion's full value to the channel of
// the user's first touchpoint. Conversions from users with no journey
// are excluded, not zeroed.
func (e *ModelEngine) FirstTouch(ctx context.Context, r DateRange) ([]ModelRow, error) {
	convs, err := e.events.ListConversions(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}

	firstByUser := make(map[string]string)
	acc := make(map[string]*ModelRow)
	for _, conv := range convs {
		first, ok := firstByUser[conv.UserID]
		if !ok {
			tps, err := e.events.ListTouchpointsByUser(ctx, conv.UserID)
			if err != nil {
				return nil, err
			}
			for _, tp := range tps {
				if tp.Order == 1 {
					first = tp.ChannelID
					break
				}
			}
			firstByUser[conv.UserID] = first
		}
		if first == "" {
			continue
		}
		row := accRow(acc, first)
		row.Conversions++
		row.Revenue += conv.Value
	}
	return sortedRows(acc), nil
}

// LastTouch attributes each conversion's full value to its stored
// last-touch channel. No journey traversal happens at query time.
func (e *ModelEngine) LastTouch(ctx context.Context, r DateRange) ([]ModelRow, error) {
	convs, err := e.events.ListConversions(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}

	acc := make(map[string]*ModelRow)
	for _, conv := range convs {
		if conv.LastTouchChannelID == "" {
			continue
		}
		row := accRow(acc, conv.LastTouchChannelID)
		row.Conversions++
		row.Revenue += conv.Value
	}
	return sortedRows(acc), nil
}

// Linear splits each conversion's value across the channels touched up
// to the conversion time: evenly across the distinct set by default, or
// proportionally to touch counts when TouchWeighted is on.
func (e *ModelEngine) Linear(ctx context.Context, r DateRange) ([]ModelRow, error) {
	convs, err := e.events.ListConversions(ctx, r.Start, r.End)
	if err != nil {
		return nil, err
	}

	acc := make(map[string]*ModelRow)
	for _, conv := range convs {
		tps, err := e.events.ListTouchpointsByUser(ctx, conv.UserID)
		if err != nil {
			return nil, err
		}

		touches := make(map[string]int)
		total := 0
		for _, tp := range tps {
			if tp.CreatedAt.After(conv.ConvertedAt) {
				continue
			}
			touches[tp.ChannelID]++
			total++
		}
		if len(touches) == 0 {
			continue
		}

		for channelID, n := range touches {
			share := 1.0 / float64(len(touches))
			if e.opts.TouchWeighted {
				share = float64(n) / float64(total)
			}
			row := accRow(acc, channelID)
			row.Conversions += share
			row.Revenue += conv.Value * share
		}
	}
	return sortedRows(acc), nil
}

func accRow(acc map[string]*ModelRow, channelID string) *ModelRow {
	row, ok := acc[channelID]
	if !ok {
		row = &ModelRow{ChannelID: channelID}
		acc[channelID] = row
	}
	return row
}

func sortedRows(acc map[string]*ModelRow) []ModelRow {
	rows := make([]ModelRow, 0, len(acc))
	for _, row := range acc {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Revenue != rows[j].Revenue {
			return rows[i].Revenue > rows[j].Revenue
		}
		return rows[i].ChannelID < rows[j].ChannelID
	})
	return rows
}
