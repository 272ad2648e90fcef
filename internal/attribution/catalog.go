package attribution

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radiusdt/vector-attribution/internal/models"
	"github.com/radiusdt/vector-attribution/internal/storage"
)

// CatalogService handles the admin-facing catalog: channels, UTM
// templates, promotion codes, conversion event definitions, stored
// reports and the cost ledger. All writes validate required fields and
// enforce uniqueness on natural keys.
type CatalogService struct {
	channels  storage.ChannelRepo
	templates storage.UTMTemplateRepo
	promos    storage.PromotionCodeRepo
	defs      storage.ConversionEventRepo
	reports   storage.CustomReportRepo
	costs     storage.CostRepo
	logger    *zap.Logger
}

// NewCatalogService creates the catalog service.
func NewCatalogService(
	channels storage.ChannelRepo,
	templates storage.UTMTemplateRepo,
	promos storage.PromotionCodeRepo,
	defs storage.ConversionEventRepo,
	reports storage.CustomReportRepo,
	costs storage.CostRepo,
	logger *zap.Logger,
) *CatalogService {
	return &CatalogService{
		channels:  channels,
		templates: templates,
		promos:    promos,
		defs:      defs,
		reports:   reports,
		costs:     costs,
		logger:    logger,
	}
}

func validationErr(err error) error {
	var fe *models.FieldError
	if errors.As(err, &fe) {
		return &ValidationError{Field: fe.Field, Reason: fe.Reason}
	}
	return err
}

// =============================================
// CHANNELS
// =============================================

// ListChannels returns all channels in catalog order.
func (s *CatalogService) ListChannels(ctx context.Context) ([]*models.Channel, error) {
	return s.channels.ListAll(ctx)
}

// GetChannel returns one channel or NotFoundError.
func (s *CatalogService) GetChannel(ctx context.Context, id string) (*models.Channel, error) {
	ch, err := s.channels.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ch == nil {
		return nil, &NotFoundError{Kind: "channel", ID: id}
	}
	return ch, nil
}

// CreateChannel validates and stores a new channel. A duplicate name
// surfaces as ConflictError.
func (s *CatalogService) CreateChannel(ctx context.Context, ch *models.Channel) error {
	if err := ch.Validate(); err != nil {
		return validationErr(err)
	}
	ch.ID = uuid.New().String()
	now := time.Now().UTC()
	ch.CreatedAt = now
	ch.UpdatedAt = now

	if err := s.channels.Create(ctx, ch); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return &ConflictError{Kind: "channel", Key: ch.Name}
		}
		return err
	}
	s.logger.Info("channel created", zap.String("channel_id", ch.ID), zap.String("name", ch.Name))
	return nil
}

// UpdateChannel validates and rewrites an existing channel.
func (s *CatalogService) UpdateChannel(ctx context.Context, ch *models.Channel) error {
	if err := ch.Validate(); err != nil {
		return validationErr(err)
	}
	ch.UpdatedAt = time.Now().UTC()

	if err := s.channels.Update(ctx, ch); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "channel", ID: ch.ID}
		}
		if errors.Is(err, storage.ErrDuplicate) {
			return &ConflictError{Kind: "channel", Key: ch.Name}
		}
		return err
	}
	return nil
}

// DeleteChannel hard-deletes a channel.
func (s *CatalogService) DeleteChannel(ctx context.Context, id string) error {
	if err := s.channels.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "channel", ID: id}
		}
		return err
	}
	s.logger.Info("channel deleted", zap.String("channel_id", id))
	return nil
}

// =============================================
// UTM TEMPLATES
// =============================================

// ListUTMTemplates returns all UTM templates.
func (s *CatalogService) ListUTMTemplates(ctx context.Context) ([]*models.UTMTemplate, error) {
	return s.templates.ListAll(ctx)
}

// GetUTMTemplate returns one template or NotFoundError.
func (s *CatalogService) GetUTMTemplate(ctx context.Context, id string) (*models.UTMTemplate, error) {
	t, err := s.templates.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &NotFoundError{Kind: "utm template", ID: id}
	}
	return t, nil
}

// CreateUTMTemplate validates a template, derives its generated URL and
// stores it.
func (s *CatalogService) CreateUTMTemplate(ctx context.Context, t *models.UTMTemplate) error {
	if err := t.Validate(); err != nil {
		return validationErr(err)
	}
	t.ID = uuid.New().String()
	t.GeneratedURL = t.BuildGeneratedURL()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.templates.Create(ctx, t); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return &ConflictError{Kind: "utm template", Key: t.Name}
		}
		return err
	}
	return nil
}

// UpdateUTMTemplate validates, re-derives the generated URL and
// rewrites an existing template.
func (s *CatalogService) UpdateUTMTemplate(ctx context.Context, t *models.UTMTemplate) error {
	if err := t.Validate(); err != nil {
		return validationErr(err)
	}
	t.GeneratedURL = t.BuildGeneratedURL()
	t.UpdatedAt = time.Now().UTC()

	if err := s.templates.Update(ctx, t); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "utm template", ID: t.ID}
		}
		return err
	}
	return nil
}

// DeleteUTMTemplate hard-deletes a template.
func (s *CatalogService) DeleteUTMTemplate(ctx context.Context, id string) error {
	if err := s.templates.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "utm template", ID: id}
		}
		return err
	}
	return nil
}

// =============================================
// PROMOTION CODES
// =============================================

// ListPromotionCodes returns all promotion codes.
func (s *CatalogService) ListPromotionCodes(ctx context.Context) ([]*models.PromotionCode, error) {
	return s.promos.ListAll(ctx)
}

// GetPromotionCode returns one promotion code or NotFoundError.
func (s *CatalogService) GetPromotionCode(ctx context.Context, id string) (*models.PromotionCode, error) {
	p, err := s.promos.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "promotion code", ID: id}
	}
	return p, nil
}

// CreatePromotionCode validates and stores a new promotion code. Codes
// are stored uppercase; a reused code surfaces as ConflictError.
func (s *CatalogService) CreatePromotionCode(ctx context.Context, p *models.PromotionCode) error {
	if err := p.Validate(); err != nil {
		return validationErr(err)
	}
	p.ID = uuid.New().String()
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.UsageCount = 0
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := s.promos.Create(ctx, p); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return &ConflictError{Kind: "promotion code", Key: p.Code}
		}
		return err
	}
	s.logger.Info("promotion code created", zap.String("promo_id", p.ID), zap.String("code", p.Code))
	return nil
}

// UpdatePromotionCode validates and rewrites an existing code.
func (s *CatalogService) UpdatePromotionCode(ctx context.Context, p *models.PromotionCode) error {
	if err := p.Validate(); err != nil {
		return validationErr(err)
	}
	p.Code = strings.ToUpper(strings.TrimSpace(p.Code))
	p.UpdatedAt = time.Now().UTC()

	if err := s.promos.Update(ctx, p); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "promotion code", ID: p.ID}
		}
		if errors.Is(err, storage.ErrDuplicate) {
			return &ConflictError{Kind: "promotion code", Key: p.Code}
		}
		return err
	}
	return nil
}

// DeletePromotionCode hard-deletes a code.
func (s *CatalogService) DeletePromotionCode(ctx context.Context, id string) error {
	if err := s.promos.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "promotion code", ID: id}
		}
		return err
	}
	return nil
}

// RedeemPromotionCode looks a code up, checks its validity window and
// usage cap, and bumps the usage counter.
func (s *CatalogService) RedeemPromotionCode(ctx context.Context, code string) (*models.PromotionCode, error) {
	if strings.TrimSpace(code) == "" {
		return nil, &ValidationError{Field: "code", Reason: "is required"}
	}
	p, err := s.promos.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, &NotFoundError{Kind: "promotion code", ID: code}
	}
	if !p.Redeemable(time.Now().UTC()) {
		return nil, &ValidationError{Field: "code", Reason: "is expired, inactive or used up"}
	}
	if err := s.promos.IncrementUsage(ctx, p.ID); err != nil {
		return nil, err
	}
	p.UsageCount++
	s.logger.Info("promotion code redeemed", zap.String("promo_id", p.ID), zap.String("code", p.Code))
	return p, nil
}

// =============================================
// CONVERSION EVENT DEFINITIONS
// =============================================

// ListConversionEvents returns all conversion event definitions.
func (s *CatalogService) ListConversionEvents(ctx context.Context) ([]*models.ConversionEventDef, error) {
	return s.defs.ListAll(ctx)
}

// GetConversionEvent returns one definition or NotFoundError.
func (s *CatalogService) GetConversionEvent(ctx context.Context, id string) (*models.ConversionEventDef, error) {
	d, err := s.defs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, &NotFoundError{Kind: "conversion event", ID: id}
	}
	return d, nil
}

// CreateConversionEvent validates and stores a new definition.
func (s *CatalogService) CreateConversionEvent(ctx context.Context, d *models.ConversionEventDef) error {
	if err := d.Validate(); err != nil {
		return validationErr(err)
	}
	if d.ValueCalculation == "" {
		d.ValueCalculation = models.ValueCalculationFixed
	}
	d.ID = uuid.New().String()
	now := time.Now().UTC()
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := s.defs.Create(ctx, d); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return &ConflictError{Kind: "conversion event", Key: d.Name}
		}
		return err
	}
	return nil
}

// UpdateConversionEvent validates and rewrites a definition.
func (s *CatalogService) UpdateConversionEvent(ctx context.Context, d *models.ConversionEventDef) error {
	if err := d.Validate(); err != nil {
		return validationErr(err)
	}
	d.UpdatedAt = time.Now().UTC()

	if err := s.defs.Update(ctx, d); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "conversion event", ID: d.ID}
		}
		return err
	}
	return nil
}

// DeleteConversionEvent hard-deletes a definition.
func (s *CatalogService) DeleteConversionEvent(ctx context.Context, id string) error {
	if err := s.defs.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "conversion event", ID: id}
		}
		return err
	}
	return nil
}

// =============================================
// CUSTOM REPORTS
// =============================================

// ListReports returns all stored report definitions.
func (s *CatalogService) ListReports(ctx context.Context) ([]*models.CustomReport, error) {
	return s.reports.ListAll(ctx)
}

// GetReport returns one stored report or NotFoundError.
func (s *CatalogService) GetReport(ctx context.Context, id string) (*models.CustomReport, error) {
	rep, err := s.reports.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rep == nil {
		return nil, &NotFoundError{Kind: "report", ID: id}
	}
	return rep, nil
}

// CreateReport validates and stores a report definition. knownType
// guards against storing a type the dispatcher cannot execute.
func (s *CatalogService) CreateReport(ctx context.Context, rep *models.CustomReport, knownType func(string) bool) error {
	if err := rep.Validate(); err != nil {
		return validationErr(err)
	}
	if knownType != nil && !knownType(rep.ReportType) {
		return &NotFoundError{Kind: "report type", ID: rep.ReportType}
	}
	rep.ID = uuid.New().String()
	now := time.Now().UTC()
	rep.CreatedAt = now
	rep.UpdatedAt = now

	if err := s.reports.Create(ctx, rep); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return &ConflictError{Kind: "report", Key: rep.Name}
		}
		return err
	}
	return nil
}

// UpdateReport validates and rewrites a report definition.
func (s *CatalogService) UpdateReport(ctx context.Context, rep *models.CustomReport, knownType func(string) bool) error {
	if err := rep.Validate(); err != nil {
		return validationErr(err)
	}
	if knownType != nil && !knownType(rep.ReportType) {
		return &NotFoundError{Kind: "report type", ID: rep.ReportType}
	}
	rep.UpdatedAt = time.Now().UTC()

	if err := s.reports.Update(ctx, rep); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "report", ID: rep.ID}
		}
		if errors.Is(err, storage.ErrDuplicate) {
			return &ConflictError{Kind: "report", Key: rep.Name}
		}
		return err
	}
	return nil
}

// DeleteReport hard-deletes a report definition.
func (s *CatalogService) DeleteReport(ctx context.Context, id string) error {
	if err := s.reports.Delete(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return &NotFoundError{Kind: "report", ID: id}
		}
		return err
	}
	return nil
}

// =============================================
// COST LEDGER
// =============================================

// UpsertCost validates and writes one day's spend for a channel. The
// channel must exist; the write replaces any existing row for the same
// (channel, date) key.
func (s *CatalogService) UpsertCost(ctx context.Context, c *models.ChannelCost) error {
	if strings.TrimSpace(c.ChannelID) == "" {
		return &ValidationError{Field: "channel_id", Reason: "is required"}
	}
	if c.CostDate.IsZero() {
		return &ValidationError{Field: "cost_date", Reason: "is required"}
	}
	if c.CostAmount < 0 {
		return &ValidationError{Field: "cost_amount", Reason: "must not be negative"}
	}

	ch, err := s.channels.GetByID(ctx, c.ChannelID)
	if err != nil {
		return err
	}
	if ch == nil {
		return &NotFoundError{Kind: "channel", ID: c.ChannelID}
	}
	return s.costs.Upsert(ctx, c)
}

// ListCosts returns cost rows in the range, optionally for one channel.
func (s *CatalogService) ListCosts(ctx context.Context, dr DateRange, channelID string) ([]*models.ChannelCost, error) {
	return s.costs.List(ctx, dr.Start, dr.End, channelID)
}
