package models

import (
	"time"
)

// ===========================================
// ATTRIBUTION EVENT
// ===========================================

// AttributionEvent is one recorded visit. It is immutable once written.
// ChannelID is empty for untracked/direct visits; such events never get
// a touchpoint.
type AttributionEvent struct {
	ID        string    `json:"id"`
	EventKey  string    `json:"event_key,omitempty"` // client-supplied idempotency key
	UserID    string    `json:"user_id,omitempty"`   // empty until the visitor logs in
	SessionID string    `json:"session_id"`
	ChannelID string    `json:"channel_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// UTM parameters
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	UTMTerm     string `json:"utm_term,omitempty"`
	UTMContent  string `json:"utm_content,omitempty"`

	// Context
	Referrer    string `json:"referrer,omitempty"`
	LandingPage string `json:"landing_page,omitempty"`

	// Device info
	DeviceType string `json:"device_type,omitempty"`
	Browser    string `json:"browser,omitempty"`
	OS         string `json:"os,omitempty"`
	IPAddress  string `json:"ip_address,omitempty"`
	UserAgent  string `json:"user_agent,omitempty"`

	// Geo info, filled by GeoIP enrichment when enabled
	GeoCountry string `json:"geo_country,omitempty"`
	GeoRegion  string `json:"geo_region,omitempty"`
	GeoCity    string `json:"geo_city,omitempty"`
}

// JourneyKey returns the key under which this event's touchpoints are
// ordered: the user ID once known, the session ID before login.
func (e *AttributionEvent) JourneyKey() string {
	if e.UserID != "" {
		return "u:" + e.UserID
	}
	return "s:" + e.SessionID
}

// ===========================================
// TOUCHPOINT
// ===========================================

// Touchpoint is one entry in a visitor's ordered channel journey. Order
// is 1-based, strictly increasing per journey key with no gaps, and is
// assigned atomically at append time by the event store.
type Touchpoint struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	SessionID string    `json:"session_id"`
	ChannelID string    `json:"channel_id"`
	EventID   string    `json:"attribution_event_id"`
	Order     int       `json:"touchpoint_order"`
	Weight    float64   `json:"weight"`
	CreatedAt time.Time `json:"created_at"`
}

// JourneyKey mirrors AttributionEvent.JourneyKey.
func (t *Touchpoint) JourneyKey() string {
	if t.UserID != "" {
		return "u:" + t.UserID
	}
	return "s:" + t.SessionID
}

// ===========================================
// USER CONVERSION
// ===========================================

// UserConversion is a completed conversion. LastTouchChannelID is
// resolved once, at conversion time, and never recomputed; it stays
// empty for direct/unattributed conversions.
type UserConversion struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	ConversionEventID  string    `json:"conversion_event_id"`
	Value              float64   `json:"value"`
	LastTouchChannelID string    `json:"last_touch_channel_id,omitempty"`
	ConvertedAt        time.Time `json:"converted_at"`
}

// ===========================================
// CHANNEL COST
// ===========================================

// ChannelCost is the daily spend for a channel. Keyed by
// (channel_id, cost_date) with upsert semantics.
type ChannelCost struct {
	ChannelID  string    `json:"channel_id"`
	CostDate   time.Time `json:"cost_date"`
	CostAmount float64   `json:"cost_amount"`
}

// CostKey returns the natural key for upserts.
func (c *ChannelCost) CostKey() string {
	return c.ChannelID + ":" + c.CostDate.Format("2006-01-02")
}
