package attribution

import (
	"context"
	"sort"
)

// ROIRow is one channel's spend efficiency over a range. Revenue and
// conversions are attributed last-touch.
type ROIRow struct {
	ChannelID   string  `json:"channel_id"`
	ChannelName string  `json:"channel_name,omitempty"`
	Revenue     float64 `json:"revenue"`
	Cost        float64 `json:"cost"`
	Conversions int     `json:"conversions"`
	ROI         float64 `json:"roi"`
	ROAS        float64 `json:"roas"`
	CPA         float64 `json:"cpa"`
}

// roiGuards fills the derived ratios with explicit zero-guards: every
// ratio is exactly 0 when its denominator is 0.
func (row *ROIRow) roiGuards() {
	if row.Cost > 0 {
		row.ROI = (row.Revenue - row.Cost) / row.Cost * 100
		row.ROAS = row.Revenue / row.Cost
	}
	if row.Conversions > 0 {
		row.CPA = row.Cost / float64(row.Conversions)
	}
}

// ROI joins last-touch revenue with the cost ledger per channel. With a
// channel filter only that channel is reported; otherwise every channel
// with either revenue or spend in the range appears.
func (r *Reporter) ROI(ctx context.Context, dr DateRange, channelID string) ([]ROIRow, error) {
	var rows []ROIRow
	err := r.run(ctx, "roi", func(ctx context.Context) error {
		convs, err := r.events.ListConversions(ctx, dr.Start, dr.End)
		if err != nil {
			return err
		}
		costs, err := r.costs.List(ctx, dr.Start, dr.End, channelID)
		if err != nil {
			return err
		}

		acc := make(map[string]*ROIRow)
		at := func(id string) *ROIRow {
			row, ok := acc[id]
			if !ok {
				row = &ROIRow{ChannelID: id}
				acc[id] = row
			}
			return row
		}

		for _, conv := range convs {
			if conv.LastTouchChannelID == "" {
				continue
			}
			if channelID != "" && conv.LastTouchChannelID != channelID {
				continue
			}
			row := at(conv.LastTouchChannelID)
			row.Revenue += conv.Value
			row.Conversions++
		}
		for _, c := range costs {
			at(c.ChannelID).Cost += c.CostAmount
		}

		channels, err := r.channels.ListAll(ctx)
		if err != nil {
			return err
		}
		names := make(map[string]string, len(channels))
		for _, ch := range channels {
			names[ch.ID] = ch.Name
		}

		for _, row := range acc {
			row.ChannelName = names[row.ChannelID]
			row.roiGuards()
			rows = append(rows, *row)
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
