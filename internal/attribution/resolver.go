package attribution

import (
	"context"
	"strings"

	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

// ChannelResolver maps raw UTM parameters to a configured channel.
//
// Matching is a case-insensitive substring test: a channel matches when
// its name contains utm_source or its channel_type contains utm_medium.
// Channels are scanned in catalog order (sort_order ASC, created_at
// DESC) and the first match wins, so operators control precedence
// through sort_order.
type ChannelResolver struct {
	channels storage.ChannelRepo
}

// NewChannelResolver creates a resolver over the channel catalog.
func NewChannelResolver(channels storage.ChannelRepo) *ChannelResolver {
	return &ChannelResolver{channels: channels}
}

// Resolve returns the first active channel matching the UTM parameters,
// or nil when nothing matches. Visits with neither parameter set never
// match.
func (r *ChannelResolver) Resolve(ctx context.Context, utmSource, utmMedium string) (*models.Channel, error) {
	if utmSource == "" && utmMedium == "" {
		return nil, nil
	}

	channels, err := r.channels.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	source := strings.ToLower(utmSource)
	medium := strings.ToLower(utmMedium)

	for _, ch := range channels {
		if source != "" && strings.Contains(strings.ToLower(ch.Name), source) {
			return ch, nil
		}
		if medium != "" && strings.Contains(strings.ToLower(ch.ChannelType), medium) {
			return ch, nil
		}
	}
	return nil, nil
}
