package models

import (
	"encoding/json"
	"net/url"
	"strings"
	"time"
)

// ===========================================
// CHANNEL
// ===========================================

// Channel is a configured marketing channel. The resolver scans channels
// in catalog order (SortOrder ASC, CreatedAt DESC) and the first match
// wins, so ordering is part of the matching contract.
type Channel struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	ChannelType string `json:"channel_type"`
	Icon        string `json:"icon,omitempty"`
	Color       string `json:"color,omitempty"`
	IsActive    bool   `json:"is_active"`
	SortOrder   int    `json:"sort_order"`
	Description string `json:"description,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required channel fields.
func (c *Channel) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return &FieldError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(c.ChannelType) == "" {
		return &FieldError{Field: "channel_type", Reason: "must not be empty"}
	}
	return nil
}

// ===========================================
// UTM TEMPLATE
// ===========================================

// UTMTemplate is a pre-built trackable URL for a channel.
type UTMTemplate struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ChannelID    string `json:"channel_id,omitempty"`
	UTMSource    string `json:"utm_source"`
	UTMMedium    string `json:"utm_medium"`
	UTMCampaign  string `json:"utm_campaign,omitempty"`
	UTMTerm      string `json:"utm_term,omitempty"`
	UTMContent   string `json:"utm_content,omitempty"`
	TargetURL    string `json:"target_url"`
	GeneratedURL string `json:"generated_url"`
	Description  string `json:"description,omitempty"`
	CreatedBy    string `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required template fields.
func (t *UTMTemplate) Validate() error {
	switch {
	case strings.TrimSpace(t.Name) == "":
		return &FieldError{Field: "name", Reason: "must not be empty"}
	case strings.TrimSpace(t.TargetURL) == "":
		return &FieldError{Field: "target_url", Reason: "must not be empty"}
	case strings.TrimSpace(t.UTMSource) == "":
		return &FieldError{Field: "utm_source", Reason: "must not be empty"}
	case strings.TrimSpace(t.UTMMedium) == "":
		return &FieldError{Field: "utm_medium", Reason: "must not be empty"}
	}
	return nil
}

// BuildGeneratedURL appends the template's UTM parameters to the target
// URL, choosing the separator by whether a query string already exists.
func (t *UTMTemplate) BuildGeneratedURL() string {
	params := url.Values{}
	params.Set("utm_source", t.UTMSource)
	params.Set("utm_medium", t.UTMMedium)
	if t.UTMCampaign != "" {
		params.Set("utm_campaign", t.UTMCampaign)
	}
	if t.UTMTerm != "" {
		params.Set("utm_term", t.UTMTerm)
	}
	if t.UTMContent != "" {
		params.Set("utm_content", t.UTMContent)
	}

	sep := "?"
	if strings.Contains(t.TargetURL, "?") {
		sep = "&"
	}
	return t.TargetURL + sep + params.Encode()
}

// ===========================================
// PROMOTION CODE
// ===========================================

// PromotionCode is a human-shareable code mapped to a channel/campaign.
// Code is a natural key and must be unique.
type PromotionCode struct {
	ID          string     `json:"id"`
	Code        string     `json:"code"`
	Name        string     `json:"name"`
	ChannelID   string     `json:"channel_id,omitempty"`
	UTMSource   string     `json:"utm_source,omitempty"`
	UTMMedium   string     `json:"utm_medium,omitempty"`
	UTMCampaign string     `json:"utm_campaign,omitempty"`
	TargetURL   string     `json:"target_url,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	MaxUsage    int        `json:"max_usage,omitempty"` // 0 = unlimited
	UsageCount  int        `json:"usage_count"`
	IsActive    bool       `json:"is_active"`
	Description string     `json:"description,omitempty"`
	CreatedBy   string     `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required promotion code fields.
func (p *PromotionCode) Validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return &FieldError{Field: "code", Reason: "must not be empty"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return &FieldError{Field: "name", Reason: "must not be empty"}
	}
	return nil
}

// Redeemable reports whether the code can be redeemed at the given time.
func (p *PromotionCode) Redeemable(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.StartDate != nil && now.Before(*p.StartDate) {
		return false
	}
	if p.EndDate != nil && now.After(*p.EndDate) {
		return false
	}
	if p.MaxUsage > 0 && p.UsageCount >= p.MaxUsage {
		return false
	}
	return true
}

// ===========================================
// CONVERSION EVENT DEFINITION
// ===========================================

// Value calculation modes for conversion event definitions.
const (
	ValueCalculationFixed = "fixed"
	ValueCalculationOrder = "order_amount"
)

// ConversionEventDef names a conversion event type together with the
// rule used to value it when the reporter supplies no value.
type ConversionEventDef struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	DisplayName      string  `json:"display_name,omitempty"`
	EventType        string  `json:"event_type"`
	Description      string  `json:"description,omitempty"`
	ValueCalculation string  `json:"value_calculation"`
	FixedValue       float64 `json:"fixed_value"`
	SortOrder        int     `json:"sort_order"`
	IsActive         bool    `json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required event definition fields.
func (d *ConversionEventDef) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return &FieldError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(d.EventType) == "" {
		return &FieldError{Field: "event_type", Reason: "must not be empty"}
	}
	return nil
}

// ===========================================
// CUSTOM REPORT
// ===========================================

// CustomReport is a stored, parametrized report definition. Config is an
// opaque JSON blob interpreted by the report dispatcher.
type CustomReport struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	ReportType  string          `json:"report_type"`
	Config      json.RawMessage `json:"config,omitempty"`
	Schedule    json.RawMessage `json:"schedule,omitempty"`
	CreatedBy   string          `json:"created_by,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required report fields.
func (r *CustomReport) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &FieldError{Field: "name", Reason: "must not be empty"}
	}
	if strings.TrimSpace(r.ReportType) == "" {
		return &FieldError{Field: "report_type", Reason: "must not be empty"}
	}
	return nil
}

// FieldError reports a missing or malformed field on a catalog entity.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason
}
