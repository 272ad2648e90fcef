package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/radiusdt/vector-attribution/internal/models"
)

func TestChannelCatalogOrder(t *testing.T) {
	r := NewInMemoryChannelRepo()
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	// Same sort order: newest first. Different sort order: lowest first.
	for _, c := range []*models.Channel{
		{ID: "c-old", Name: "Old", ChannelType: "email", SortOrder: 2, CreatedAt: base},
		{ID: "c-new", Name: "New", ChannelType: "email", SortOrder: 2, CreatedAt: base.AddDate(0, 1, 0)},
		{ID: "c-top", Name: "Top", ChannelType: "email", SortOrder: 1, CreatedAt: base},
	} {
		if err := r.Create(ctx, c); err != nil {
			t.Fatalf("Create %s: %v", c.Name, err)
		}
	}

	all, err := r.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	want := []string{"c-top", "c-new", "c-old"}
	for i, id := range want {
		if all[i].ID != id {
			t.Fatalf("catalog order = %v, want %v", ids(all), want)
		}
	}
}

func ids(cs []*models.Channel) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestChannelNameUniqueness(t *testing.T) {
	r := NewInMemoryChannelRepo()
	ctx := context.Background()

	if err := r.Create(ctx, &models.Channel{ID: "c1", Name: "Google Ads", ChannelType: "paid_search"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	err := r.Create(ctx, &models.Channel{ID: "c2", Name: "GOOGLE ADS", ChannelType: "paid_search"})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestListActiveFiltersInactive(t *testing.T) {
	r := NewInMemoryChannelRepo()
	ctx := context.Background()

	if err := r.Create(ctx, &models.Channel{ID: "c1", Name: "On", ChannelType: "email", IsActive: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := r.Create(ctx, &models.Channel{ID: "c2", Name: "Off", ChannelType: "email", IsActive: false}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	active, err := r.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	if len(active) != 1 || active[0].ID != "c1" {
		t.Errorf("active = %v, want only c1", ids(active))
	}
}

func TestUpdateAndDeleteMissingEntities(t *testing.T) {
	ctx := context.Background()

	if err := NewInMemoryChannelRepo().Update(ctx, &models.Channel{ID: "ghost"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("channel update: expected ErrNotFound, got %v", err)
	}
	if err := NewInMemoryUTMTemplateRepo().Delete(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("template delete: expected ErrNotFound, got %v", err)
	}
	if err := NewInMemoryPromotionCodeRepo().IncrementUsage(ctx, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Errorf("promo increment: expected ErrNotFound, got %v", err)
	}
}

func TestPromotionCodeLookupIsCaseInsensitive(t *testing.T) {
	r := NewInMemoryPromotionCodeRepo()
	ctx := context.Background()

	if err := r.Create(ctx, &models.PromotionCode{ID: "p1", Code: "SPRING20", Name: "Spring"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := r.GetByCode(ctx, "spring20")
	if err != nil {
		t.Fatalf("GetByCode: %v", err)
	}
	if got == nil || got.ID != "p1" {
		t.Fatalf("got %+v, want p1", got)
	}
}

func TestGetByIDReturnsNilWhenAbsent(t *testing.T) {
	ctx := context.Background()

	ch, err := NewInMemoryChannelRepo().GetByID(ctx, "ghost")
	if err != nil || ch != nil {
		t.Errorf("GetByID = %v, %v; want nil, nil", ch, err)
	}
	rep, err := NewInMemoryCustomReportRepo().GetByID(ctx, "ghost")
	if err != nil || rep != nil {
		t.Errorf("GetByID = %v, %v; want nil, nil", rep, err)
	}
}
