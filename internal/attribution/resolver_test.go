package attribution

import (
	"context"
	"testing"
	"time"

	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

func seedChannel(t *testing.T, repo storage.ChannelRepo, id, name, channelType string, sortOrder int, active bool) {
	t.Helper()
	err := repo.Create(context.Background(), &models.Channel{
		ID:          id,
		Name:        name,
		ChannelType: channelType,
		IsActive:    active,
		SortOrder:   sortOrder,
		CreatedAt:   time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed channel %s: %v", name, err)
	}
}

func TestResolverMatchesNameSubstring(t *testing.T) {
	repo := storage.NewInMemoryChannelRepo()
	seedChannel(t, repo, "ch-google", "Google Ads", "paid_search", 1, true)
	seedChannel(t, repo, "ch-email", "Email", "email", 2, true)

	r := NewChannelResolver(repo)

	tests := []struct {
		name      string
		utmSource string
		utmMedium string
		want      string
	}{
		{"source substring of name", "google", "", "ch-google"},
		{"case insensitive", "GOOGLE", "", "ch-google"},
		{"medium substring of type", "", "email", "ch-email"},
		{"medium matches paid_search", "", "paid_search", "ch-google"},
		{"no match", "tiktok", "billboard", ""},
		{"both empty", "", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch, err := r.Resolve(context.Background(), tt.utmSource, tt.utmMedium)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			got := ""
			if ch != nil {
				got = ch.ID
			}
			if got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.utmSource, tt.utmMedium, got, tt.want)
			}
		})
	}
}

func TestResolverFirstMatchWinsByCatalogOrder(t *testing.T) {
	repo := storage.NewInMemoryChannelRepo()
	// Both channels match utm_source "mail"; sort order decides.
	seedChannel(t, repo, "ch-b", "Mailchimp", "email", 2, true)
	seedChannel(t, repo, "ch-a", "Mail", "email", 1, true)

	r := NewChannelResolver(repo)
	ch, err := r.Resolve(context.Background(), "mail", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ch == nil || ch.ID != "ch-a" {
		t.Fatalf("expected first channel in catalog order (ch-a), got %+v", ch)
	}
}

func TestResolverSkipsInactiveChannels(t *testing.T) {
	repo := storage.NewInMemoryChannelRepo()
	seedChannel(t, repo, "ch-off", "Google Ads", "paid_search", 1, false)

	r := NewChannelResolver(repo)
	ch, err := r.Resolve(context.Background(), "google", "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if ch != nil {
		t.Fatalf("inactive channel must not match, got %+v", ch)
	}
}
