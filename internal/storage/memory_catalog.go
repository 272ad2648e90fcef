package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/radiusdt/vector-attribution/internal/models"
)

// In-memory catalog repositories. They keep entities in maps keyed by
// ID and enforce the same natural-key uniqueness as the Postgres
// implementations. Intended for development and testing; production
// deployments use the Postgres-backed repos.

// =============================================
// CHANNELS
// =============================================

// InMemoryChannelRepo stores channels in memory.
type InMemoryChannelRepo struct {
	mu       sync.RWMutex
	channels map[string]*models.Channel
}

// NewInMemoryChannelRepo creates a new empty in-memory channel repo.
func NewInMemoryChannelRepo() *InMemoryChannelRepo {
	return &InMemoryChannelRepo{channels: make(map[string]*models.Channel)}
}

func (r *InMemoryChannelRepo) ListAll(ctx context.Context) ([]*models.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.Channel, 0, len(r.channels))
	for _, c := range r.channels {
		cp := *c
		res = append(res, &cp)
	}
	sortChannels(res)
	return res, nil
}

func (r *InMemoryChannelRepo) ListActive(ctx context.Context) ([]*models.Channel, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	res := all[:0]
	for _, c := range all {
		if c.IsActive {
			res = append(res, c)
		}
	}
	return res, nil
}

func (r *InMemoryChannelRepo) GetByID(ctx context.Context, id string) (*models.Channel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if c, ok := r.channels[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryChannelRepo) Create(ctx context.Context, c *models.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.channels {
		if strings.EqualFold(existing.Name, c.Name) {
			return ErrDuplicate
		}
	}
	cp := *c
	r.channels[c.ID] = &cp
	return nil
}

func (r *InMemoryChannelRepo) Update(ctx context.Context, c *models.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	r.channels[c.ID] = &cp
	return nil
}

func (r *InMemoryChannelRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.channels[id]; !ok {
		return ErrNotFound
	}
	delete(r.channels, id)
	return nil
}

// sortChannels applies catalog order: sort_order ASC, created_at DESC.
// The resolver's first-match-wins contract depends on this.
func sortChannels(cs []*models.Channel) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].SortOrder != cs[j].SortOrder {
			return cs[i].SortOrder < cs[j].SortOrder
		}
		return cs[i].CreatedAt.After(cs[j].CreatedAt)
	})
}

// =============================================
// UTM TEMPLATES
// =============================================

// InMemoryUTMTemplateRepo stores UTM templates in memory.
type InMemoryUTMTemplateRepo struct {
	mu        sync.RWMutex
	templates map[string]*models.UTMTemplate
}

// NewInMemoryUTMTemplateRepo creates a new empty in-memory template repo.
func NewInMemoryUTMTemplateRepo() *InMemoryUTMTemplateRepo {
	return &InMemoryUTMTemplateRepo{templates: make(map[string]*models.UTMTemplate)}
}

func (r *InMemoryUTMTemplateRepo) ListAll(ctx context.Context) ([]*models.UTMTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.UTMTemplate, 0, len(r.templates))
	for _, t := range r.templates {
		cp := *t
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r *InMemoryUTMTemplateRepo) GetByID(ctx context.Context, id string) (*models.UTMTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.templates[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryUTMTemplateRepo) Create(ctx context.Context, t *models.UTMTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *t
	r.templates[t.ID] = &cp
	return nil
}

func (r *InMemoryUTMTemplateRepo) Update(ctx context.Context, t *models.UTMTemplate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[t.ID]; !ok {
		return ErrNotFound
	}
	cp := *t
	r.templates[t.ID] = &cp
	return nil
}

func (r *InMemoryUTMTemplateRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return ErrNotFound
	}
	delete(r.templates, id)
	return nil
}

// =============================================
// PROMOTION CODES
// =============================================

// InMemoryPromotionCodeRepo stores promotion codes in memory.
type InMemoryPromotionCodeRepo struct {
	mu    sync.RWMutex
	codes map[string]*models.PromotionCode
}

// NewInMemoryPromotionCodeRepo creates a new empty in-memory code repo.
func NewInMemoryPromotionCodeRepo() *InMemoryPromotionCodeRepo {
	return &InMemoryPromotionCodeRepo{codes: make(map[string]*models.PromotionCode)}
}

func (r *InMemoryPromotionCodeRepo) ListAll(ctx context.Context) ([]*models.PromotionCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.PromotionCode, 0, len(r.codes))
	for _, p := range r.codes {
		cp := *p
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r *InMemoryPromotionCodeRepo) GetByID(ctx context.Context, id string) (*models.PromotionCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if p, ok := r.codes[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryPromotionCodeRepo) GetByCode(ctx context.Context, code string) (*models.PromotionCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.codes {
		if strings.EqualFold(p.Code, code) {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *InMemoryPromotionCodeRepo) Create(ctx context.Context, p *models.PromotionCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.codes {
		if strings.EqualFold(existing.Code, p.Code) {
			return ErrDuplicate
		}
	}
	cp := *p
	r.codes[p.ID] = &cp
	return nil
}

func (r *InMemoryPromotionCodeRepo) Update(ctx context.Context, p *models.PromotionCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	r.codes[p.ID] = &cp
	return nil
}

func (r *InMemoryPromotionCodeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.codes[id]; !ok {
		return ErrNotFound
	}
	delete(r.codes, id)
	return nil
}

func (r *InMemoryPromotionCodeRepo) IncrementUsage(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.codes[id]
	if !ok {
		return ErrNotFound
	}
	p.UsageCount++
	return nil
}

// =============================================
// CONVERSION EVENT DEFINITIONS
// =============================================

// InMemoryConversionEventRepo stores event definitions in memory.
type InMemoryConversionEventRepo struct {
	mu   sync.RWMutex
	defs map[string]*models.ConversionEventDef
}

// NewInMemoryConversionEventRepo creates a new empty in-memory repo.
func NewInMemoryConversionEventRepo() *InMemoryConversionEventRepo {
	return &InMemoryConversionEventRepo{defs: make(map[string]*models.ConversionEventDef)}
}

func (r *InMemoryConversionEventRepo) ListAll(ctx context.Context) ([]*models.ConversionEventDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.ConversionEventDef, 0, len(r.defs))
	for _, d := range r.defs {
		cp := *d
		res = append(res, &cp)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].SortOrder != res[j].SortOrder {
			return res[i].SortOrder < res[j].SortOrder
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (r *InMemoryConversionEventRepo) GetByID(ctx context.Context, id string) (*models.ConversionEventDef, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.defs[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryConversionEventRepo) Create(ctx context.Context, d *models.ConversionEventDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *d
	r.defs[d.ID] = &cp
	return nil
}

func (r *InMemoryConversionEventRepo) Update(ctx context.Context, d *models.ConversionEventDef) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[d.ID]; !ok {
		return ErrNotFound
	}
	cp := *d
	r.defs[d.ID] = &cp
	return nil
}

func (r *InMemoryConversionEventRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.defs[id]; !ok {
		return ErrNotFound
	}
	delete(r.defs, id)
	return nil
}

// =============================================
// CUSTOM REPORTS
// =============================================

// InMemoryCustomReportRepo stores report definitions in memory.
type InMemoryCustomReportRepo struct {
	mu      sync.RWMutex
	reports map[string]*models.CustomReport
}

// NewInMemoryCustomReportRepo creates a new empty in-memory report repo.
func NewInMemoryCustomReportRepo() *InMemoryCustomReportRepo {
	return &InMemoryCustomReportRepo{reports: make(map[string]*models.CustomReport)}
}

func (r *InMemoryCustomReportRepo) ListAll(ctx context.Context) ([]*models.CustomReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]*models.CustomReport, 0, len(r.reports))
	for _, rep := range r.reports {
		cp := *rep
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res, nil
}

func (r *InMemoryCustomReportRepo) GetByID(ctx context.Context, id string) (*models.CustomReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rep, ok := r.reports[id]; ok {
		cp := *rep
		return &cp, nil
	}
	return nil, nil
}

func (r *InMemoryCustomReportRepo) Create(ctx context.Context, rep *models.CustomReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.reports {
		if strings.EqualFold(existing.Name, rep.Name) {
			return ErrDuplicate
		}
	}
	cp := *rep
	r.reports[rep.ID] = &cp
	return nil
}

func (r *InMemoryCustomReportRepo) Update(ctx context.Context, rep *models.CustomReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[rep.ID]; !ok {
		return ErrNotFound
	}
	cp := *rep
	r.reports[rep.ID] = &cp
	return nil
}

func (r *InMemoryCustomReportRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.reports[id]; !ok {
		return ErrNotFound
	}
	delete(r.reports, id)
	return nil
}
