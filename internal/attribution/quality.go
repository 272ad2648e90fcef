package attribution

import (
	"context"
	"sort"
)

// UserQualityRow describes the quality of users a channel brings in,
// attributed last-touch.
type UserQualityRow struct {
	ChannelID     string  `json:"channel_id"`
	ChannelName   string  `json:"channel_name,omitempty"`
	TotalUsers    int     `json:"total_users"`
	RepeatUsers   int     `json:"repeat_users"`
	RepeatRate    float64 `json:"repeat_rate"`
	AvgOrderValue float64 `json:"avg_order_value"`
	LTV           float64 `json:"ltv"`
}

// UserQuality groups converting users by their last-touch channel and
// reports repeat behavior and per-user value. A repeat user converted
// more than once in the range.
func (r *Reporter) UserQuality(ctx context.Context, dr DateRange) ([]UserQualityRow, error) {
	var rows []UserQualityRow
	err := r.run(ctx, "user_quality", func(ctx context.Context) error {
		convs, err := r.events.ListConversions(ctx, dr.Start, dr.End)
		if err != nil {
			return err
		}

		type chanAcc struct {
			users       map[string]int // user -> conversion count
			revenue     float64
			conversions int
		}
		acc := make(map[string]*chanAcc)
		for _, conv := range convs {
			if conv.LastTouchChannelID == "" {
				continue
			}
			a, ok := acc[conv.LastTouchChannelID]
			if !ok {
				a = &chanAcc{users: make(map[string]int)}
				acc[conv.LastTouchChannelID] = a
			}
			a.users[conv.UserID]++
			a.revenue += conv.Value
			a.conversions++
		}

		channels, err := r.channels.ListAll(ctx)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(channels))
		for _, ch := range channels {
			names[ch.ID] = ch.Name
		}

		for channelID, a := range acc {
			row := UserQualityRow{
				ChannelID:   channelID,
				ChannelName: names[channelID],
				TotalUsers:  len(a.users),
			}
			for _, n := range a.users {
				if n > 1 {
					row.RepeatUsers++
				}
			}
			if row.TotalUsers > 0 {
				row.RepeatRate = float64(row.RepeatUsers) / float64(row.TotalUsers) * 100
				row.LTV = a.revenue / float64(row.TotalUsers)
			}
			if a.conversions > 0 {
				row.AvgOrderValue = a.revenue / float64(a.conversions)
			}
			rows = append(rows, row)
		}
		sort.Slice(rows, func(i, j int) bool {
			if rows[i].LTV != rows[j].LTV {
				return rows[i].LTV > rows[j].LTV
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
