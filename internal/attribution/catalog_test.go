package attribution

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

func newTestCatalog(t *testing.T) *CatalogService {
	t.Helper()
	return NewCatalogService(
		storage.NewInMemoryChannelRepo(),
		storage.NewInMemoryUTMTemplateRepo(),
		storage.NewInMemoryPromotionCodeRepo(),
		storage.NewInMemoryConversionEventRepo(),
		storage.NewInMemoryCustomReportRepo(),
		storage.NewInMemoryCostRepo(),
		zap.NewNop(),
	)
}

func TestCreateChannelValidation(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := context.Background()

	err := svc.CreateChannel(ctx, &models.Channel{ChannelType: "email"})
	if !IsValidation(err) {
		t.Errorf("missing name: expected ValidationError, got %v", err)
	}
	err = svc.CreateChannel(ctx, &models.Channel{Name: "Email"})
	if !IsValidation(err) {
		t.Errorf("missing channel_type: expected ValidationError, got %v", err)
	}
}

func TestCreateChannelDuplicateName(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := context.Background()

	if err := svc.CreateChannel(ctx, &models.Channel{Name: "Google Ads", ChannelType: "paid_search"}); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	// Uniqueness is case-insensitive on the name.
	err := svc.CreateChannel(ctx, &models.Channel{Name: "google ads", ChannelType: "paid_search"})
	if !IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestChannelLifecycle(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := context.Background()

	ch := &models.Channel{Name: "Email", ChannelType: "email", IsActive: true}
	if err := svc.CreateChannel(ctx, ch); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	if ch.ID == "" {
		t.Fatal("CreateChannel did not assign an ID")
	}

	got, err := svc.GetChannel(ctx, ch.ID)
	if err != nil {
		t.Fatalf("GetChannel: %v", err)
	}
	if got.Name != "Email" {
		t.Errorf("got name %q", got.Name)
	}

	ch.Name = "Email Newsletter"
	if err := svc.UpdateChannel(ctx, ch); err != nil {
		t.Fatalf("UpdateChannel: %v", err)
	}

	if err := svc.DeleteChannel(ctx, ch.ID); err != nil {
		t.Fatalf("DeleteChannel: %v", err)
	}
	if _, err := svc.GetChannel(ctx, ch.ID); !IsNotFound(err) {
		t.Errorf("expected NotFoundError after delete, got %v", err)
	}
	if err := svc.DeleteChannel(ctx, ch.ID); !IsNotFound(err) {
		t.Errorf("second delete: expected NotFoundError, got %v", err)
	}
}

func TestUTMTemplateGeneratedURL(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := context.Background()

	tpl := &models.UTMTemplate{
		Name:        "Spring launch",
		TargetURL:   "https://example.com/landing",
		UTMSource:   "newsletter",
		UTMMedium:   "email",
		UTMCampaign: "spring",
	}
	if err := svc.CreateUTMTemplate(ctx, tpl); err != nil {
		t.Fatalf("CreateUTMTemplate: %v", err)
	}
	if !strings.HasPrefix(tpl.GeneratedURL, "https://example.com/landing?") {
		t.Errorf("generated URL %q must start a new query string", tpl.GeneratedURL)
	}
	for _, part := range []string{"utm_source=newsletter", "utm_medium=email", "utm_campaign=spring"} {
		if !strings.Contains(tpl.GeneratedURL, part) {
			t.Errorf("generated URL %q missing %q", tpl.GeneratedURL, part)
		}
	}

	withQuery := &models.UTMTemplate{
		Name:      "Ref link",
		TargetURL: "https://example.com/landing?ref=abc",
		UTMSource: "newsletter",
		UTMMedium: "email",
	}
	if err := svc.CreateUTMTemplate(ctx, withQuery); err != nil {
		t.Fatalf("CreateUTMTemplate: %v", err)
	}
	if !strings.HasPrefix(withQuery.GeneratedURL, "https://example.com/landing?ref=abc&") {
		t.Errorf("generated URL %q must extend the existing query string", withQuery.GeneratedURL)
	}
}

func TestPromotionCodeRedemption(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := context.Background()

	p := &models.PromotionCode{
		Code:     "spring20",
		Name:     "Spring promo",
		IsActive: true,
		MaxUsage: 2,
	}
	if err := svc.CreatePromotionCode(ctx, p); err != nil {
		t.Fatalf("CreatePromotionCode: %v", err)
	}
	if p.Code != "SPRING20" {
		t.Errorf("stored code %q, want uppercase SPRING20", p.Code)
	}

	if _, err := svc.RedeemPromotionCode(ctx, ""); !IsValidation(err) {
		t.Errorf("empty code: expected ValidationError, got %v", err)
	}
	if _, err := svc.RedeemPromotionCode(ctx, "NOPE"); !IsNotFound(err) {
		t.Errorf("unknown code: expected NotFoundError, got %v", err)
	}

	// Lookup is case-insensitive; two redemptions exhaust the cap.
	got, err := svc.RedeemPromotionCode(ctx, "spring20")
	if err != nil {
		t.Fatalf("first redemption: %v", err)
	}
	if got.UsageCount != 1 {
		t.Errorf("usage count = %d, want 1", got.UsageCount)
	}
	if _, err := svc.RedeemPromotionCode(ctx, "SPRING20"); err != nil {
		t.Fatalf("second redemption: %v", err)
	}
	if _, err := svc.RedeemPromotionCode(ctx, "SPRING20"); !IsValidation(err) {
		t.Errorf("exhausted code: expected ValidationError, got %v", err)
	}
}

func TestPromotionCodeValidityWindow(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := context.Background()
	past := time.Now().UTC().Add(-time.Hour)

	expired := &models.PromotionCode{Code: "OLD", Name: "Expired", IsActive: true, EndDate: &past}
	if err := svc.CreatePromotionCode(ctx, expired); err != nil {
		t.Fatalf("CreatePromotionCode: %v", err)
	}
	if _, err := svc.RedeemPromotionCode(ctx, "OLD"); !IsValidation(err) {
		t.Errorf("expired code: expected ValidationError, got %v", err)
	}

	inactive := &models.PromotionCode{Code: "PAUSED", Name: "Paused", IsActive: false}
	if err := svc.CreatePromotionCode(ctx, inactive); err != nil {
		t.Fatalf("CreatePromotionCode: %v", err)
	}
	if _, err := svc.RedeemPromotionCode(ctx, "PAUSED"); !IsValidation(err) {
		t.Errorf("inactive code: expected ValidationError, got %v", err)
	}
}

func TestPromotionCodeDuplicate(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := context.Background()

	if err := svc.CreatePromotionCode(ctx, &models.PromotionCode{Code: "SAVE10", Name: "A", IsActive: true}); err != nil {
		t.Fatalf("CreatePromotionCode: %v", err)
	}
	err := svc.CreatePromotionCode(ctx, &models.PromotionCode{Code: "save10", Name: "B", IsActive: true})
	if !IsConflict(err) {
		t.Fatalf("expected ConflictError, got %v", err)
	}
}

func TestCreateReportUnknownType(t *testing.T) {
	svc := newTestCatalog(t)
	known := func(rt string) bool { return rt == ReportROIAnalysis }

	err := svc.CreateReport(context.Background(), &models.CustomReport{
		Name:       "Weekly mystery",
		ReportType: "mystery",
	}, known)
	if !IsNotFound(err) {
		t.Fatalf("expected NotFoundError for unknown report type, got %v", err)
	}

	err = svc.CreateReport(context.Background(), &models.CustomReport{
		Name:       "Weekly ROI",
		ReportType: ReportROIAnalysis,
	}, known)
	if err != nil {
		t.Fatalf("CreateReport: %v", err)
	}
}

func TestUpsertCost(t *testing.T) {
	svc := newTestCatalog(t)
	ctx := context.Background()

	ch := &models.Channel{Name: "Google Ads", ChannelType: "paid_search", IsActive: true}
	if err := svc.CreateChannel(ctx, ch); err != nil {
		t.Fatalf("CreateChannel: %v", err)
	}
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	err := svc.UpsertCost(ctx, &models.ChannelCost{CostDate: day, CostAmount: 10})
	if !IsValidation(err) {
		t.Errorf("missing channel_id: expected ValidationError, got %v", err)
	}
	err = svc.UpsertCost(ctx, &models.ChannelCost{ChannelID: ch.ID, CostAmount: 10})
	if !IsValidation(err) {
		t.Errorf("missing cost_date: expected ValidationError, got %v", err)
	}
	err = svc.UpsertCost(ctx, &models.ChannelCost{ChannelID: ch.ID, CostDate: day, CostAmount: -5})
	if !IsValidation(err) {
		t.Errorf("negative amount: expected ValidationError, got %v", err)
	}
	err = svc.UpsertCost(ctx, &models.ChannelCost{ChannelID: "ghost", CostDate: day, CostAmount: 10})
	if !IsNotFound(err) {
		t.Errorf("unknown channel: expected NotFoundError, got %v", err)
	}

	// Writing the same (channel, date) twice keeps one row with the
	// latest amount.
	if err := svc.UpsertCost(ctx, &models.ChannelCost{ChannelID: ch.ID, CostDate: day, CostAmount: 100}); err != nil {
		t.Fatalf("UpsertCost: %v", err)
	}
	if err := svc.UpsertCost(ctx, &models.ChannelCost{ChannelID: ch.ID, CostDate: day, CostAmount: 250}); err != nil {
		t.Fatalf("UpsertCost: %v", err)
	}
	costs, err := svc.ListCosts(ctx, DateRange{Start: day.AddDate(0, 0, -1), End: day.AddDate(0, 0, 1)}, ch.ID)
	if err != nil {
		t.Fatalf("ListCosts: %v", err)
	}
	if len(costs) != 1 || costs[0].CostAmount != 250 {
		t.Errorf("costs = %+v, want one row with 250", costs)
	}
}
