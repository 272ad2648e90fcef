package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/radiusdt/vector-attribution/internal/models"
)

// PostgresEventStore implements EventStore using PostgreSQL.
type PostgresEventStore struct {
	pool *pgxpool.Pool
}

// NewPostgresEventStore creates a new PostgreSQL-backed event store.
func NewPostgresEventStore(pool *pgxpool.Pool) *PostgresEventStore {
	return &PostgresEventStore{pool: pool}
}

// =============================================
// EVENTS
// =============================================

const eventColumns = `id, event_key, user_id, session_id, channel_id, created_at,
	utm_source, utm_medium, utm_campaign, utm_term, utm_content,
	referrer, landing_page, device_type, browser, os, ip_address, user_agent,
	geo_country, geo_region, geo_city`

func scanEvent(row pgx.Row) (*models.AttributionEvent, error) {
	var ev models.AttributionEvent
	var eventKey, userID, channelID *string
	var source, medium, campaign, term, content *string
	var referrer, landing, device, browser, osName, ip, ua *string
	var country, region, city *string

	err := row.Scan(&ev.ID, &eventKey, &userID, &ev.SessionID, &channelID, &ev.CreatedAt,
		&source, &medium, &campaign, &term, &content,
		&referrer, &landing, &device, &browser, &osName, &ip, &ua,
		&country, &region, &city)
	if err != nil {
		return nil, err
	}

	ev.EventKey = fromNull(eventKey)
	ev.UserID = fromNull(userID)
	ev.ChannelID = fromNull(channelID)
	ev.UTMSource = fromNull(source)
	ev.UTMMedium = fromNull(medium)
	ev.UTMCampaign = fromNull(campaign)
	ev.UTMTerm = fromNull(term)
	ev.UTMContent = fromNull(content)
	ev.Referrer = fromNull(referrer)
	ev.LandingPage = fromNull(landing)
	ev.DeviceType = fromNull(device)
	ev.Browser = fromNull(browser)
	ev.OS = fromNull(osName)
	ev.IPAddress = fromNull(ip)
	ev.UserAgent = fromNull(ua)
	ev.GeoCountry = fromNull(country)
	ev.GeoRegion = fromNull(region)
	ev.GeoCity = fromNull(city)
	return &ev, nil
}

// SaveEvent stores a visit event. The partial unique index on
// event_key arbitrates concurrent retries of the same key; the loser's
// insert is dropped and ErrDuplicate tells the caller to re-read the
// stored event.
func (s *PostgresEventStore) SaveEvent(ctx context.Context, ev *models.AttributionEvent) error {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO attribution_events (id, event_key, user_id, session_id, channel_id, created_at,
			utm_source, utm_medium, utm_campaign, utm_term, utm_content,
			referrer, landing_page, device_type, browser, os, ip_address, user_agent,
			geo_country, geo_region, geo_city)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT DO NOTHING
	`, ev.ID, nullString(ev.EventKey), nullString(ev.UserID), ev.SessionID, nullString(ev.ChannelID), ev.CreatedAt,
		nullString(ev.UTMSource), nullString(ev.UTMMedium), nullString(ev.UTMCampaign),
		nullString(ev.UTMTerm), nullString(ev.UTMContent),
		nullString(ev.Referrer), nullString(ev.LandingPage), nullString(ev.DeviceType),
		nullString(ev.Browser), nullString(ev.OS), nullString(ev.IPAddress), nullString(ev.UserAgent),
		nullString(ev.GeoCountry), nullString(ev.GeoRegion), nullString(ev.GeoCity))
	if err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicate
	}
	return nil
}

// GetEventByKey retrieves an event by its idempotency key.
func (s *PostgresEventStore) GetEventByKey(ctx context.Context, eventKey string) (*models.AttributionEvent, error) {
	if eventKey == "" {
		return nil, nil
	}
	ev, err := scanEvent(s.pool.QueryRow(ctx, `
		SELECT `+eventColumns+`
		FROM attribution_events WHERE event_key = $1
	`, eventKey))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event by key: %w", err)
	}
	return ev, nil
}

// ListEvents returns events with created_at in [start, end), optionally
// filtered to one channel.
func (s *PostgresEventStore) ListEvents(ctx context.Context, start, end time.Time, channelID string) ([]*models.AttributionEvent, error) {
	query := `
		SELECT ` + eventColumns + `
		FROM attribution_events
		WHERE created_at >= $1 AND created_at < $2`
	args := []interface{}{start, end}
	if channelID != "" {
		query += ` AND channel_id = $3`
		args = append(args, channelID)
	}
	query += ` ORDER BY created_at ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	var events []*models.AttributionEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// =============================================
// TOUCHPOINTS
// =============================================

const touchpointColumns = `id, user_id, session_id, channel_id, attribution_event_id, touchpoint_order, weight, created_at`

func scanTouchpoint(row pgx.Row) (*models.Touchpoint, error) {
	var tp models.Touchpoint
	var userID *string
	err := row.Scan(&tp.ID, &userID, &tp.SessionID, &tp.ChannelID, &tp.EventID,
		&tp.Order, &tp.Weight, &tp.CreatedAt)
	if err != nil {
		return nil, err
	}
	tp.UserID = fromNull(userID)
	return &tp, nil
}

// AppendTouchpoint assigns the next touchpoint_order for the journey key
// and inserts the row. An advisory lock on the key serializes concurrent
// appends for the same journey, so orders come out gapless.
func (s *PostgresEventStore) AppendTouchpoint(ctx context.Context, tp *models.Touchpoint) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin touchpoint tx: %w", err)
	}
	defer tx.Rollback(ctx)

	key := tp.JourneyKey()
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
		return fmt.Errorf("failed to lock journey: %w", err)
	}

	var order int
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(MAX(touchpoint_order), 0) + 1
		FROM attribution_touchpoints
		WHERE (user_id = NULLIF($1, '') AND $1 <> '')
		   OR ($1 = '' AND user_id IS NULL AND session_id = $2)
	`, tp.UserID, tp.SessionID).Scan(&order)
	if err != nil {
		return fmt.Errorf("failed to compute touchpoint order: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO attribution_touchpoints (id, user_id, session_id, channel_id, attribution_event_id, touchpoint_order, weight, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, tp.ID, nullString(tp.UserID), tp.SessionID, tp.ChannelID, tp.EventID, order, tp.Weight, tp.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save touchpoint: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit touchpoint: %w", err)
	}
	tp.Order = order
	return nil
}

// ClaimSessionTouchpoints assigns the session's anonymous touchpoints to
// the user, renumbering them after the user's existing journey. Both
// journey keys are advisory-locked so concurrent appends cannot race
// the claim.
func (s *PostgresEventStore) ClaimSessionTouchpoints(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" || userID == "" {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin claim tx: %w", err)
	}
	defer tx.Rollback(ctx)

	// "s:" sorts before "u:", so the lock order is fixed and cannot
	// deadlock against another claim.
	for _, key := range []string{"s:" + sessionID, "u:" + userID} {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key); err != nil {
			return fmt.Errorf("failed to lock journey: %w", err)
		}
	}

	// The MAX subquery sees the statement snapshot, so every claimed row
	// shifts by the same offset and relative order is preserved.
	_, err = tx.Exec(ctx, `
		UPDATE attribution_touchpoints
		SET user_id = $1,
		    touchpoint_order = touchpoint_order + (
		        SELECT COALESCE(MAX(touchpoint_order), 0)
		        FROM attribution_touchpoints
		        WHERE user_id = $1
		    )
		WHERE user_id IS NULL AND session_id = $2
	`, userID, sessionID)
	if err != nil {
		return fmt.Errorf("failed to claim session touchpoints: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit claim: %w", err)
	}
	return nil
}

// ListTouchpointsByUser returns a user's touchpoints in journey order.
func (s *PostgresEventStore) ListTouchpointsByUser(ctx context.Context, userID string) ([]*models.Touchpoint, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+touchpointColumns+`
		FROM attribution_touchpoints
		WHERE user_id = $1
		ORDER BY touchpoint_order ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list touchpoints: %w", err)
	}
	defer rows.Close()

	var tps []*models.Touchpoint
	for rows.Next() {
		tp, err := scanTouchpoint(rows)
		if err != nil {
			return nil, err
		}
		tps = append(tps, tp)
	}
	return tps, rows.Err()
}

// ListTouchpoints returns touchpoints matching the filter, grouped by
// journey and sorted by order.
func (s *PostgresEventStore) ListTouchpoints(ctx context.Context, f TouchpointFilter) ([]*models.Touchpoint, error) {
	query := `
		SELECT ` + touchpointColumns + `
		FROM attribution_touchpoints
		WHERE 1=1`
	var args []interface{}
	n := 0
	arg := func(v interface{}) string {
		n++
		args = append(args, v)
		return fmt.Sprintf("$%d", n)
	}
	if f.UserID != "" {
		query += ` AND user_id = ` + arg(f.UserID)
	}
	if f.SessionID != "" {
		query += ` AND session_id = ` + arg(f.SessionID)
	}
	if !f.Start.IsZero() {
		query += ` AND created_at >= ` + arg(f.Start)
	}
	if !f.End.IsZero() {
		query += ` AND created_at < ` + arg(f.End)
	}
	query += ` ORDER BY COALESCE(user_id, session_id), touchpoint_order ASC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list touchpoints: %w", err)
	}
	defer rows.Close()

	var tps []*models.Touchpoint
	for rows.Next() {
		tp, err := scanTouchpoint(rows)
		if err != nil {
			return nil, err
		}
		tps = append(tps, tp)
	}
	return tps, rows.Err()
}

// =============================================
// CONVERSIONS
// =============================================

// SaveConversion stores a conversion.
func (s *PostgresEventStore) SaveConversion(ctx context.Context, conv *models.UserConversion) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO user_conversions (id, user_id, conversion_event_id, value, last_touch_channel_id, converted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO NOTHING
	`, conv.ID, conv.UserID, conv.ConversionEventID, conv.Value,
		nullString(conv.LastTouchChannelID), conv.ConvertedAt)
	if err != nil {
		return fmt.Errorf("failed to save conversion: %w", err)
	}
	return nil
}

// ListConversions returns conversions with converted_at in [start, end).
func (s *PostgresEventStore) ListConversions(ctx context.Context, start, end time.Time) ([]*models.UserConversion, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, conversion_event_id, value, last_touch_channel_id, converted_at
		FROM user_conversions
		WHERE converted_at >= $1 AND converted_at < $2
		ORDER BY converted_at ASC
	`, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversions: %w", err)
	}
	defer rows.Close()

	var convs []*models.UserConversion
	for rows.Next() {
		var conv models.UserConversion
		var lastTouch *string
		if err := rows.Scan(&conv.ID, &conv.UserID, &conv.ConversionEventID, &conv.Value, &lastTouch, &conv.ConvertedAt); err != nil {
			return nil, err
		}
		conv.LastTouchChannelID = fromNull(lastTouch)
		convs = append(convs, &conv)
	}
	return convs, rows.Err()
}
