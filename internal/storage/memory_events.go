package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/radiusdt/vector-attribution/internal/models"
)

// InMemoryEventStore keeps the append-only attribution data in memory.
// Touchpoint order assignment happens under the store lock together
// with the append itself, so the per-journey counter can never hand out
// the same order twice.
type InMemoryEventStore struct {
	mu          sync.RWMutex
	events      []*models.AttributionEvent
	eventsByKey map[string]*models.AttributionEvent
	touchpoints []*models.Touchpoint
	tpByJourney map[string][]*models.Touchpoint
	orders      map[string]int // journey key -> last assigned order
	conversions []*models.UserConversion
}

// NewInMemoryEventStore creates a new empty in-memory event store.
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		eventsByKey: make(map[string]*models.AttributionEvent),
		tpByJourney: make(map[string][]*models.Touchpoint),
		orders:      make(map[string]int),
	}
}

// =============================================
// Events
// =============================================

// SaveEvent stores a visit event. A previously seen event_key wins the
// race: the new row is dropped and ErrDuplicate tells the caller to
// re-read the stored event.
func (s *InMemoryEventStore) SaveEvent(ctx context.Context, ev *models.AttributionEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.EventKey != "" {
		if _, ok := s.eventsByKey[ev.EventKey]; ok {
			return ErrDuplicate
		}
	}
	cp := *ev
	s.events = append(s.events, &cp)
	if cp.EventKey != "" {
		s.eventsByKey[cp.EventKey] = &cp
	}
	return nil
}

func (s *InMemoryEventStore) GetEventByKey(ctx context.Context, eventKey string) (*models.AttributionEvent, error) {
	if eventKey == "" {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if ev, ok := s.eventsByKey[eventKey]; ok {
		cp := *ev
		return &cp, nil
	}
	return nil, nil
}

func (s *InMemoryEventStore) ListEvents(ctx context.Context, start, end time.Time, channelID string) ([]*models.AttributionEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*models.AttributionEvent
	for _, ev := range s.events {
		if !inRange(ev.CreatedAt, start, end) {
			continue
		}
		if channelID != "" && ev.ChannelID != channelID {
			continue
		}
		cp := *ev
		res = append(res, &cp)
	}
	return res, nil
}

// =============================================
// Touchpoints
// =============================================

// AppendTouchpoint assigns the next order for the touchpoint's journey
// key and appends the row in one critical section.
func (s *InMemoryEventStore) AppendTouchpoint(ctx context.Context, tp *models.Touchpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := tp.JourneyKey()
	s.orders[key]++
	cp := *tp
	cp.Order = s.orders[key]
	tp.Order = cp.Order

	s.touchpoints = append(s.touchpoints, &cp)
	s.tpByJourney[key] = append(s.tpByJourney[key], &cp)
	return nil
}

// ClaimSessionTouchpoints moves a session's anonymous touchpoints into
// the user's journey. Claimed rows keep their relative order and are
// renumbered after any touchpoints the user already has.
func (s *InMemoryEventStore) ClaimSessionTouchpoints(ctx context.Context, sessionID, userID string) error {
	if sessionID == "" || userID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sessKey := "s:" + sessionID
	claimed := s.tpByJourney[sessKey]
	if len(claimed) == 0 {
		return nil
	}
	userKey := "u:" + userID
	sort.Slice(claimed, func(i, j int) bool { return claimed[i].Order < claimed[j].Order })
	for _, tp := range claimed {
		tp.UserID = userID
		s.orders[userKey]++
		tp.Order = s.orders[userKey]
		s.tpByJourney[userKey] = append(s.tpByJourney[userKey], tp)
	}
	delete(s.tpByJourney, sessKey)
	delete(s.orders, sessKey)
	return nil
}

func (s *InMemoryEventStore) ListTouchpointsByUser(ctx context.Context, userID string) ([]*models.Touchpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.tpByJourney["u:"+userID]
	res := make([]*models.Touchpoint, 0, len(src))
	for _, tp := range src {
		cp := *tp
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Order < res[j].Order })
	return res, nil
}

func (s *InMemoryEventStore) ListTouchpoints(ctx context.Context, f TouchpointFilter) ([]*models.Touchpoint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*models.Touchpoint
	for _, tp := range s.touchpoints {
		if f.UserID != "" && tp.UserID != f.UserID {
			continue
		}
		if f.SessionID != "" && tp.SessionID != f.SessionID {
			continue
		}
		if !f.Start.IsZero() && tp.CreatedAt.Before(f.Start) {
			continue
		}
		if !f.End.IsZero() && !tp.CreatedAt.Before(f.End) {
			continue
		}
		cp := *tp
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].JourneyKey() != res[j].JourneyKey() {
			return res[i].JourneyKey() < res[j].JourneyKey()
		}
		return res[i].Order < res[j].Order
	})
	return res, nil
}

// =============================================
// Conversions
// =============================================

func (s *InMemoryEventStore) SaveConversion(ctx context.Context, conv *models.UserConversion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *conv
	s.conversions = append(s.conversions, &cp)
	return nil
}

func (s *InMemoryEventStore) ListConversions(ctx context.Context, start, end time.Time) ([]*models.UserConversion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []*models.UserConversion
	for _, conv := range s.conversions {
		if !inRange(conv.ConvertedAt, start, end) {
			continue
		}
		cp := *conv
		res = append(res, &cp)
	}
	return res, nil
}

func inRange(t, start, end time.Time) bool {
	if !start.IsZero() && t.Before(start) {
		return false
	}
	if !end.IsZero() && !t.Before(end) {
		return false
	}
	return true
}

// InMemoryCostRepo stores channel costs in memory, keyed by
// (channel_id, cost_date).
type InMemoryCostRepo struct {
	mu    sync.RWMutex
	costs map[string]*models.ChannelCost
}

// NewInMemoryCostRepo creates a new empty in-memory cost repo.
func NewInMemoryCostRepo() *InMemoryCostRepo {
	return &InMemoryCostRepo{costs: make(map[string]*models.ChannelCost)}
}

func (r *InMemoryCostRepo) Upsert(ctx context.Context, c *models.ChannelCost) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	cp.CostDate = truncateToDay(cp.CostDate)
	r.costs[cp.CostKey()] = &cp
	return nil
}

func (r *InMemoryCostRepo) List(ctx context.Context, start, end time.Time, channelID string) ([]*models.ChannelCost, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var res []*models.ChannelCost
	for _, c := range r.costs {
		if channelID != "" && c.ChannelID != channelID {
			continue
		}
		if !inRange(c.CostDate, start, end) {
			continue
		}
		cp := *c
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CostDate.Before(res[j].CostDate) })
	return res, nil
}

func truncateToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
