package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radiusdt/vector-attribution/internal/models"
)

// isUniqueViolation reports whether err is a Postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func fromNull(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// =============================================
// CHANNELS
// =============================================

// PostgresChannelRepo implements ChannelRepo using PostgreSQL.
type PostgresChannelRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresChannelRepo creates a new PostgreSQL-backed channel repo.
func NewPostgresChannelRepo(pool *pgxpool.Pool) *PostgresChannelRepo {
	return &PostgresChannelRepo{pool: pool}
}

const channelColumns = `id, name, display_name, channel_type, icon, color, is_active, sort_order, description, created_at, updated_at`

func scanChannel(row pgx.Row) (*models.Channel, error) {
	var c models.Channel
	var displayName, icon, color, description *string
	err := row.Scan(&c.ID, &c.Name, &displayName, &c.ChannelType, &icon, &color,
		&c.IsActive, &c.SortOrder, &description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	c.DisplayName = fromNull(displayName)
	c.Icon = fromNull(icon)
	c.Color = fromNull(color)
	c.Description = fromNull(description)
	return &c, nil
}

func (r *PostgresChannelRepo) list(ctx context.Context, where string) ([]*models.Channel, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+channelColumns+`
		FROM attribution_channels `+where+`
		ORDER BY sort_order ASC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	var channels []*models.Channel
	for rows.Next() {
		c, err := scanChannel(rows)
		if err != nil {
			return nil, err
		}
		channels = append(channels, c)
	}
	return channels, rows.Err()
}

// ListAll returns every channel in catalog order.
func (r *PostgresChannelRepo) ListAll(ctx context.Context) ([]*models.Channel, error) {
	return r.list(ctx, "")
}

// ListActive returns active channels in catalog order.
func (r *PostgresChannelRepo) ListActive(ctx context.Context) ([]*models.Channel, error) {
	return r.list(ctx, "WHERE is_active = true")
}

// GetByID retrieves a channel by ID.
func (r *PostgresChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	c, err := scanChannel(r.pool.QueryRow(ctx, `
		SELECT `+channelColumns+`
		FROM attribution_channels WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return c, nil
}

// Create stores a new channel.
func (r *PostgresChannelRepo) Create(ctx context.Context, c *models.Channel) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attribution_channels (id, name, display_name, channel_type, icon, color, is_active, sort_order, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, c.ID, c.Name, nullString(c.DisplayName), c.ChannelType, nullString(c.Icon), nullString(c.Color),
		c.IsActive, c.SortOrder, nullString(c.Description), c.CreatedAt, c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create channel: %w", err)
	}
	return nil
}

// Update rewrites an existing channel.
func (r *PostgresChannelRepo) Update(ctx context.Context, c *models.Channel) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE attribution_channels
		SET name = $2, display_name = $3, channel_type = $4, icon = $5, color = $6,
		    is_active = $7, sort_order = $8, description = $9, updated_at = $10
		WHERE id = $1
	`, c.ID, c.Name, nullString(c.DisplayName), c.ChannelType, nullString(c.Icon), nullString(c.Color),
		c.IsActive, c.SortOrder, nullString(c.Description), c.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a channel.
func (r *PostgresChannelRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attribution_channels WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete channel: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================
// UTM TEMPLATES
// =============================================

// PostgresUTMTemplateRepo implements UTMTemplateRepo using PostgreSQL.
type PostgresUTMTemplateRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresUTMTemplateRepo creates a new PostgreSQL-backed template repo.
func NewPostgresUTMTemplateRepo(pool *pgxpool.Pool) *PostgresUTMTemplateRepo {
	return &PostgresUTMTemplateRepo{pool: pool}
}

const utmTemplateColumns = `id, name, channel_id, utm_source, utm_medium, utm_campaign, utm_term, utm_content, target_url, generated_url, description, created_by, created_at, updated_at`

func scanUTMTemplate(row pgx.Row) (*models.UTMTemplate, error) {
	var t models.UTMTemplate
	var channelID, campaign, term, content, description, createdBy *string
	err := row.Scan(&t.ID, &t.Name, &channelID, &t.UTMSource, &t.UTMMedium, &campaign, &term, &content,
		&t.TargetURL, &t.GeneratedURL, &description, &createdBy, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	t.ChannelID = fromNull(channelID)
	t.UTMCampaign = fromNull(campaign)
	t.UTMTerm = fromNull(term)
	t.UTMContent = fromNull(content)
	t.Description = fromNull(description)
	t.CreatedBy = fromNull(createdBy)
	return &t, nil
}

// ListAll returns every UTM template, newest first.
func (r *PostgresUTMTemplateRepo) ListAll(ctx context.Context) ([]*models.UTMTemplate, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+utmTemplateColumns+`
		FROM attribution_utm_templates ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list utm templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.UTMTemplate
	for rows.Next() {
		t, err := scanUTMTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// GetByID retrieves a template by ID.
func (r *PostgresUTMTemplateRepo) GetByID(ctx context.Context, id string) (*models.UTMTemplate, error) {
	t, err := scanUTMTemplate(r.pool.QueryRow(ctx, `
		SELECT `+utmTemplateColumns+`
		FROM attribution_utm_templates WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get utm template: %w", err)
	}
	return t, nil
}

// Create stores a new template.
func (r *PostgresUTMTemplateRepo) Create(ctx context.Context, t *models.UTMTemplate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attribution_utm_templates (id, name, channel_id, utm_source, utm_medium, utm_campaign, utm_term, utm_content, target_url, generated_url, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, t.ID, t.Name, nullString(t.ChannelID), t.UTMSource, t.UTMMedium, nullString(t.UTMCampaign),
		nullString(t.UTMTerm), nullString(t.UTMContent), t.TargetURL, t.GeneratedURL,
		nullString(t.Description), nullString(t.CreatedBy), t.CreatedAt, t.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create utm template: %w", err)
	}
	return nil
}

// Update rewrites an existing template.
func (r *PostgresUTMTemplateRepo) Update(ctx context.Context, t *models.UTMTemplate) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE attribution_utm_templates
		SET name = $2, channel_id = $3, utm_source = $4, utm_medium = $5, utm_campaign = $6,
		    utm_term = $7, utm_content = $8, target_url = $9, generated_url = $10,
		    description = $11, updated_at = $12
		WHERE id = $1
	`, t.ID, t.Name, nullString(t.ChannelID), t.UTMSource, t.UTMMedium, nullString(t.UTMCampaign),
		nullString(t.UTMTerm), nullString(t.UTMContent), t.TargetURL, t.GeneratedURL,
		nullString(t.Description), t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update utm template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a template.
func (r *PostgresUTMTemplateRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attribution_utm_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete utm template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================
// PROMOTION CODES
// =============================================

// PostgresPromotionCodeRepo implements PromotionCodeRepo using PostgreSQL.
type PostgresPromotionCodeRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresPromotionCodeRepo creates a new PostgreSQL-backed promo repo.
func NewPostgresPromotionCodeRepo(pool *pgxpool.Pool) *PostgresPromotionCodeRepo {
	return &PostgresPromotionCodeRepo{pool: pool}
}

const promoColumns = `id, code, name, channel_id, utm_source, utm_medium, utm_campaign, target_url, start_date, end_date, max_usage, usage_count, is_active, description, created_by, created_at, updated_at`

func scanPromotionCode(row pgx.Row) (*models.PromotionCode, error) {
	var p models.PromotionCode
	var channelID, source, medium, campaign, targetURL, description, createdBy *string
	var maxUsage *int
	err := row.Scan(&p.ID, &p.Code, &p.Name, &channelID, &source, &medium, &campaign, &targetURL,
		&p.StartDate, &p.EndDate, &maxUsage, &p.UsageCount, &p.IsActive,
		&description, &createdBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.ChannelID = fromNull(channelID)
	p.UTMSource = fromNull(source)
	p.UTMMedium = fromNull(medium)
	p.UTMCampaign = fromNull(campaign)
	p.TargetURL = fromNull(targetURL)
	p.Description = fromNull(description)
	p.CreatedBy = fromNull(createdBy)
	if maxUsage != nil {
		p.MaxUsage = *maxUsage
	}
	return &p, nil
}

// ListAll returns every promotion code, newest first.
func (r *PostgresPromotionCodeRepo) ListAll(ctx context.Context) ([]*models.PromotionCode, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+promoColumns+`
		FROM promotion_codes ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotion codes: %w", err)
	}
	defer rows.Close()

	var codes []*models.PromotionCode
	for rows.Next() {
		p, err := scanPromotionCode(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, p)
	}
	return codes, rows.Err()
}

// GetByID retrieves a promotion code by ID.
func (r *PostgresPromotionCodeRepo) GetByID(ctx context.Context, id string) (*models.PromotionCode, error) {
	p, err := scanPromotionCode(r.pool.QueryRow(ctx, `
		SELECT `+promoColumns+`
		FROM promotion_codes WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion code: %w", err)
	}
	return p, nil
}

// GetByCode retrieves a promotion code by its code, case-insensitively.
func (r *PostgresPromotionCodeRepo) GetByCode(ctx context.Context, code string) (*models.PromotionCode, error) {
	p, err := scanPromotionCode(r.pool.QueryRow(ctx, `
		SELECT `+promoColumns+`
		FROM promotion_codes WHERE LOWER(code) = LOWER($1)
	`, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion code: %w", err)
	}
	return p, nil
}

// Create stores a new promotion code. Reusing a code returns ErrDuplicate.
func (r *PostgresPromotionCodeRepo) Create(ctx context.Context, p *models.PromotionCode) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO promotion_codes (id, code, name, channel_id, utm_source, utm_medium, utm_campaign, target_url, start_date, end_date, max_usage, usage_count, is_active, description, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, p.ID, p.Code, p.Name, nullString(p.ChannelID), nullString(p.UTMSource), nullString(p.UTMMedium),
		nullString(p.UTMCampaign), nullString(p.TargetURL), p.StartDate, p.EndDate,
		p.MaxUsage, p.UsageCount, p.IsActive, nullString(p.Description), nullString(p.CreatedBy),
		p.CreatedAt, p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create promotion code: %w", err)
	}
	return nil
}

// Update rewrites an existing promotion code.
func (r *PostgresPromotionCodeRepo) Update(ctx context.Context, p *models.PromotionCode) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE promotion_codes
		SET code = $2, name = $3, channel_id = $4, utm_source = $5, utm_medium = $6,
		    utm_campaign = $7, target_url = $8, start_date = $9, end_date = $10,
		    max_usage = $11, is_active = $12, description = $13, updated_at = $14
		WHERE id = $1
	`, p.ID, p.Code, p.Name, nullString(p.ChannelID), nullString(p.UTMSource), nullString(p.UTMMedium),
		nullString(p.UTMCampaign), nullString(p.TargetURL), p.StartDate, p.EndDate,
		p.MaxUsage, p.IsActive, nullString(p.Description), p.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update promotion code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a promotion code.
func (r *PostgresPromotionCodeRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM promotion_codes WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete promotion code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementUsage bumps the usage counter by one.
func (r *PostgresPromotionCodeRepo) IncrementUsage(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE promotion_codes SET usage_count = usage_count + 1, updated_at = NOW() WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("failed to increment promotion code usage: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================
// CONVERSION EVENT DEFINITIONS
// =============================================

// PostgresConversionEventRepo implements ConversionEventRepo using
// PostgreSQL.
type PostgresConversionEventRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresConversionEventRepo creates a new PostgreSQL-backed
// conversion event definition repo.
func NewPostgresConversionEventRepo(pool *pgxpool.Pool) *PostgresConversionEventRepo {
	return &PostgresConversionEventRepo{pool: pool}
}

const conversionEventColumns = `id, name, display_name, event_type, description, value_calculation, fixed_value, sort_order, is_active, created_at, updated_at`

func scanConversionEventDef(row pgx.Row) (*models.ConversionEventDef, error) {
	var d models.ConversionEventDef
	var displayName, description *string
	err := row.Scan(&d.ID, &d.Name, &displayName, &d.EventType, &description,
		&d.ValueCalculation, &d.FixedValue, &d.SortOrder, &d.IsActive, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	d.DisplayName = fromNull(displayName)
	d.Description = fromNull(description)
	return &d, nil
}

// ListAll returns every conversion event definition in sort order.
func (r *PostgresConversionEventRepo) ListAll(ctx context.Context) ([]*models.ConversionEventDef, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversionEventColumns+`
		FROM conversion_event_definitions ORDER BY sort_order ASC, created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversion events: %w", err)
	}
	defer rows.Close()

	var defs []*models.ConversionEventDef
	for rows.Next() {
		d, err := scanConversionEventDef(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, rows.Err()
}

// GetByID retrieves a conversion event definition by ID.
func (r *PostgresConversionEventRepo) GetByID(ctx context.Context, id string) (*models.ConversionEventDef, error) {
	d, err := scanConversionEventDef(r.pool.QueryRow(ctx, `
		SELECT `+conversionEventColumns+`
		FROM conversion_event_definitions WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversion event: %w", err)
	}
	return d, nil
}

// Create stores a new conversion event definition.
func (r *PostgresConversionEventRepo) Create(ctx context.Context, d *models.ConversionEventDef) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO conversion_event_definitions (id, name, display_name, event_type, description, value_calculation, fixed_value, sort_order, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, d.ID, d.Name, nullString(d.DisplayName), d.EventType, nullString(d.Description),
		d.ValueCalculation, d.FixedValue, d.SortOrder, d.IsActive, d.CreatedAt, d.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create conversion event: %w", err)
	}
	return nil
}

// Update rewrites an existing conversion event definition.
func (r *PostgresConversionEventRepo) Update(ctx context.Context, d *models.ConversionEventDef) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE conversion_event_definitions
		SET name = $2, display_name = $3, event_type = $4, description = $5,
		    value_calculation = $6, fixed_value = $7, sort_order = $8, is_active = $9, updated_at = $10
		WHERE id = $1
	`, d.ID, d.Name, nullString(d.DisplayName), d.EventType, nullString(d.Description),
		d.ValueCalculation, d.FixedValue, d.SortOrder, d.IsActive, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update conversion event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a conversion event definition.
func (r *PostgresConversionEventRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM conversion_event_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete conversion event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// =============================================
// CUSTOM REPORTS
// =============================================

// PostgresCustomReportRepo implements CustomReportRepo using PostgreSQL.
type PostgresCustomReportRepo struct {
	pool *pgxpool.Pool
}

// NewPostgresCustomReportRepo creates a new PostgreSQL-backed report repo.
func NewPostgresCustomReportRepo(pool *pgxpool.Pool) *PostgresCustomReportRepo {
	return &PostgresCustomReportRepo{pool: pool}
}

const customReportColumns = `id, name, description, report_type, config, schedule, created_by, created_at, updated_at`

func scanCustomReport(row pgx.Row) (*models.CustomReport, error) {
	var rep models.CustomReport
	var description, createdBy *string
	err := row.Scan(&rep.ID, &rep.Name, &description, &rep.ReportType,
		&rep.Config, &rep.Schedule, &createdBy, &rep.CreatedAt, &rep.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rep.Description = fromNull(description)
	rep.CreatedBy = fromNull(createdBy)
	return &rep, nil
}

// ListAll returns every stored report definition, newest first.
func (r *PostgresCustomReportRepo) ListAll(ctx context.Context) ([]*models.CustomReport, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+customReportColumns+`
		FROM attribution_custom_reports ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom reports: %w", err)
	}
	defer rows.Close()

	var reports []*models.CustomReport
	for rows.Next() {
		rep, err := scanCustomReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// GetByID retrieves a report definition by ID.
func (r *PostgresCustomReportRepo) GetByID(ctx context.Context, id string) (*models.CustomReport, error) {
	rep, err := scanCustomReport(r.pool.QueryRow(ctx, `
		SELECT `+customReportColumns+`
		FROM attribution_custom_reports WHERE id = $1
	`, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get custom report: %w", err)
	}
	return rep, nil
}

// Create stores a new report definition. Reusing a name returns
// ErrDuplicate.
func (r *PostgresCustomReportRepo) Create(ctx context.Context, rep *models.CustomReport) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO attribution_custom_reports (id, name, description, report_type, config, schedule, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, rep.ID, rep.Name, nullString(rep.Description), rep.ReportType,
		rep.Config, rep.Schedule, nullString(rep.CreatedBy), rep.CreatedAt, rep.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to create custom report: %w", err)
	}
	return nil
}

// Update rewrites an existing report definition.
func (r *PostgresCustomReportRepo) Update(ctx context.Context, rep *models.CustomReport) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE attribution_custom_reports
		SET name = $2, description = $3, report_type = $4, config = $5, schedule = $6, updated_at = $7
		WHERE id = $1
	`, rep.ID, rep.Name, nullString(rep.Description), rep.ReportType, rep.Config, rep.Schedule, rep.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("failed to update custom report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a report definition.
func (r *PostgresCustomReportRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM attribution_custom_reports WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete custom report: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
