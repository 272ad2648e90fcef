package attribution

import (
	"context"
)

// FunnelStep is one milestone in the conversion funnel.
type FunnelStep struct {
	Step  int     `json:"step"`
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Rate  float64 `json:"rate"`
}

// Funnel counts distinct visitors reaching each milestone in the range.
//
// The first step is always "visit": the number of distinct sessions
// among attribution events. Each following step is an active conversion
// event definition, in catalog sort order, counting distinct users who
// converted on that event. Rates are relative to the first step's
// count, not the preceding step's.
func (r *Reporter) Funnel(ctx context.Context, dr DateRange) ([]FunnelStep, error) {
	var steps []FunnelStep
	err := r.run(ctx, "funnel", func(ctx context.Context) error {
		events, err := r.events.ListEvents(ctx, dr.Start, dr.End, "")
		if err != nil {
			return err
		}
		sessions := make(map[string]struct{})
		for _, ev := range events {
			sessions[ev.SessionID] = struct{}{}
		}
		visits := len(sessions)

		defs, err := r.definitions.ListAll(ctx)
		if err != nil {
			return err
		}

		convs, err := r.events.ListConversions(ctx, dr.Start, dr.End)
		if err != nil {
			return err
		}
		usersByDef := make(map[string]map[string]struct{})
		for _, conv := range convs {
			users, ok := usersByDef[conv.ConversionEventID]
			if !ok {
				users = make(map[string]struct{})
				usersByDef[conv.ConversionEventID] = users
			}
			users[conv.UserID] = struct{}{}
		}

		rate := func(count int) float64 {
			if visits == 0 {
				return 0
			}
			return float64(count) / float64(visits) * 100
		}

		steps = append(steps, FunnelStep{Step: 1, Name: "visit", Count: visits, Rate: rate(visits)})
		for _, def := range defs {
			if !def.IsActive {
				continue
			}
			name := def.DisplayName
			if name == "" {
				name = def.Name
			}
			count := len(usersByDef[def.ID])
			steps = append(steps, FunnelStep{
				Step:  len(steps) + 1,
				Name:  name,
				Count: count,
				Rate:  rate(count),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return steps, nil
}
