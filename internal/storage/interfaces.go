package storage

import (
	"context"
	"errors"
	"time"

	"github.com/radiusdt/vector-attribution/internal/models"
)

// Sentinel errors returned by repositories. Services translate these
// into the API error kinds.
var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("duplicate natural key")
)

// =============================================
// CHANNEL REPOSITORY
// =============================================

// ChannelRepo defines operations for channel catalog storage. List
// methods return channels in catalog order (sort_order ASC, created_at
// DESC); the resolver depends on this ordering.
type ChannelRepo interface {
	ListAll(ctx context.Context) ([]*models.Channel, error)
	ListActive(ctx context.Context) ([]*models.Channel, error)
	GetByID(ctx context.Context, id string) (*models.Channel, error)
	Create(ctx context.Context, c *models.Channel) error
	Update(ctx context.Context, c *models.Channel) error
	Delete(ctx context.Context, id string) error
}

// =============================================
// UTM TEMPLATE REPOSITORY
// =============================================

// UTMTemplateRepo defines operations for UTM template storage.
type UTMTemplateRepo interface {
	ListAll(ctx context.Context) ([]*models.UTMTemplate, error)
	GetByID(ctx context.Context, id string) (*models.UTMTemplate, error)
	Create(ctx context.Context, t *models.UTMTemplate) error
	Update(ctx context.Context, t *models.UTMTemplate) error
	Delete(ctx context.Context, id string) error
}

// =============================================
// PROMOTION CODE REPOSITORY
// =============================================

// PromotionCodeRepo defines operations for promotion code storage.
// Code is a unique natural key; Create returns ErrDuplicate on reuse.
type PromotionCodeRepo interface {
	ListAll(ctx context.Context) ([]*models.PromotionCode, error)
	GetByID(ctx context.Context, id string) (*models.PromotionCode, error)
	GetByCode(ctx context.Context, code string) (*models.PromotionCode, error)
	Create(ctx context.Context, p *models.PromotionCode) error
	Update(ctx context.Context, p *models.PromotionCode) error
	Delete(ctx context.Context, id string) error

	// IncrementUsage bumps the usage counter by one, atomically with
	// respect to concurrent redemptions.
	IncrementUsage(ctx context.Context, id string) error
}

// =============================================
// CONVERSION EVENT DEFINITION REPOSITORY
// =============================================

// ConversionEventRepo defines operations for conversion event
// definition storage.
type ConversionEventRepo interface {
	ListAll(ctx context.Context) ([]*models.ConversionEventDef, error)
	GetByID(ctx context.Context, id string) (*models.ConversionEventDef, error)
	Create(ctx context.Context, d *models.ConversionEventDef) error
	Update(ctx context.Context, d *models.ConversionEventDef) error
	Delete(ctx context.Context, id string) error
}

// =============================================
// CUSTOM REPORT REPOSITORY
// =============================================

// CustomReportRepo defines operations for stored report definitions.
// Name is a unique natural key.
type CustomReportRepo interface {
	ListAll(ctx context.Context) ([]*models.CustomReport, error)
	GetByID(ctx context.Context, id string) (*models.CustomReport, error)
	Create(ctx context.Context, r *models.CustomReport) error
	Update(ctx context.Context, r *models.CustomReport) error
	Delete(ctx context.Context, id string) error
}

// =============================================
// EVENT STORE
// =============================================

// TouchpointFilter narrows touchpoint listings. Zero values mean "no
// constraint".
type TouchpointFilter struct {
	UserID    string
	SessionID string
	Start     time.Time
	End       time.Time
}

// EventStore defines operations for the append-only attribution data:
// visit events, the touchpoint ledger and conversions. All three are
// immutable once written.
type EventStore interface {
	// Events. SaveEvent returns ErrDuplicate when a concurrent write
	// with the same event_key won; callers re-read the stored event.
	SaveEvent(ctx context.Context, ev *models.AttributionEvent) error
	// GetEventByKey looks up an event by its client-supplied
	// idempotency key. Returns nil when absent or when key is empty.
	GetEventByKey(ctx context.Context, eventKey string) (*models.AttributionEvent, error)
	// ListEvents returns events with created_at in [start, end),
	// optionally filtered to one channel.
	ListEvents(ctx context.Context, start, end time.Time, channelID string) ([]*models.AttributionEvent, error)

	// Touchpoints. AppendTouchpoint assigns tp.Order as
	// 1 + max(order) for the journey key, atomically with respect to
	// concurrent appends for the same key.
	AppendTouchpoint(ctx context.Context, tp *models.Touchpoint) error
	// ClaimSessionTouchpoints merges a session's anonymous touchpoints
	// into the user's journey when the visitor logs in: claimed rows
	// get the user ID and are renumbered after the user's existing
	// touchpoints, preserving their relative order.
	ClaimSessionTouchpoints(ctx context.Context, sessionID, userID string) error
	ListTouchpointsByUser(ctx context.Context, userID string) ([]*models.Touchpoint, error)
	ListTouchpoints(ctx context.Context, f TouchpointFilter) ([]*models.Touchpoint, error)

	// Conversions
	SaveConversion(ctx context.Context, conv *models.UserConversion) error
	// ListConversions returns conversions with converted_at in
	// [start, end).
	ListConversions(ctx context.Context, start, end time.Time) ([]*models.UserConversion, error)
}

// =============================================
// COST REPOSITORY
// =============================================

// CostRepo defines operations for the per-channel daily spend ledger.
// Upsert is keyed by (channel_id, cost_date); at most one row per key.
type CostRepo interface {
	Upsert(ctx context.Context, c *models.ChannelCost) error
	// List returns cost rows with cost_date in [start, end),
	// optionally filtered to one channel.
	List(ctx context.Context, start, end time.Time, channelID string) ([]*models.ChannelCost, error)
}
