package usecases_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/samirrijal/spotmap/internal/core/domain"
	"github.com/samirrijal/spotmap/internal/pkg/geospatial"
)

// memStore is an in-memory rendition of the Postgres schema. Slices are
// append-only and indexed by id-1; soft deletes only flip Status.
type memStore struct {
	mu       sync.Mutex
	spots    []domain.Spot
	tags     []domain.Tag
	actions  []domain.UserAction
	spotTags []domain.SpotTag
	fail     map[string]error
}

func newMemStore() *memStore {
	return &memStore{fail: map[string]error{}}
}

func (m *memStore) err(op string) error { return m.fail[op] }

func (m *memStore) spotRepo() *memSpots           { return &memSpots{m} }
func (m *memStore) tagRepo() *memTags             { return &memTags{m} }
func (m *memStore) actionRepo() *memActions       { return &memActions{m} }
func (m *memStore) spotTagRepo() *memSpotTagsRepo { return &memSpotTagsRepo{m} }

func (m *memStore) tagByName(name string) *domain.Tag {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tags {
		if m.tags[i].Name == name {
			t := m.tags[i]
			return &t
		}
	}
	return nil
}

func (m *memStore) countActiveTags(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, t := range m.tags {
		if t.Name == name && t.Status == domain.StatusActive {
			n++
		}
	}
	return n
}

// --- spots ---

type memSpots struct{ *memStore }

func (r *memSpots) Create(ctx context.Context, spot *domain.Spot) error {
	if err := r.err("spots.Create"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	spot.ID = int64(len(r.spots) + 1)
	spot.Status = domain.StatusActive
	spot.CreatedAt = time.Now()
	r.spots = append(r.spots, *spot)
	return nil
}

func (r *memSpots) GetByID(ctx context.Context, id int64) (*domain.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 1 || int(id) > len(r.spots) || r.spots[id-1].Status != domain.StatusActive {
		return nil, domain.ErrNotFound
	}
	s := r.spots[id-1]
	return &s, nil
}

func (r *memSpots) ListByUser(ctx context.Context, userID int64) ([]domain.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Spot{}
	for i := len(r.spots) - 1; i >= 0; i-- {
		if r.spots[i].UserID == userID && r.spots[i].Status == domain.StatusActive {
			out = append(out, r.spots[i])
		}
	}
	return out, nil
}

func (r *memSpots) SoftDelete(ctx context.Context, id int64) (*domain.Spot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if id < 1 || int(id) > len(r.spots) || r.spots[id-1].Status != domain.StatusActive {
		return nil, domain.ErrNotFound
	}
	r.spots[id-1].Status = domain.StatusDeleted
	s := r.spots[id-1]
	return &s, nil
}

func within(s domain.Spot, c domain.GeoPoint, radiusKm float64) bool {
	return geospatial.Within(c, s.Location, radiusKm)
}

func (r *memSpots) ExistsNearbyForUser(ctx context.Context, userID int64, c domain.GeoPoint, radiusKm float64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.spots {
		if s.UserID == userID && s.Status == domain.StatusActive && within(s, c, radiusKm) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memSpots) ListNearby(ctx context.Context, c domain.GeoPoint, radiusKm float64) ([]domain.GeoPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.GeoPoint{}
	for _, s := range r.spots {
		if s.Status == domain.StatusActive && within(s, c, radiusKm) {
			out = append(out, s.Location)
		}
	}
	return out, nil
}

// --- tags ---

type memTags struct{ *memStore }

func (r *memTags) FindActiveByName(ctx context.Context, name string) (*domain.Tag, error) {
	if err := r.err("tags.FindActiveByName"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if t.Name == name && t.Status == domain.StatusActive {
			return &t, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memTags) Create(ctx context.Context, name string) (*domain.Tag, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tags {
		if t.Name == name && t.Status == domain.StatusActive {
			return &t, false, nil
		}
	}
	t := domain.Tag{ID: int64(len(r.tags) + 1), Name: name, Status: domain.StatusActive, CreatedAt: time.Now()}
	r.tags = append(r.tags, t)
	return &t, true, nil
}

func (r *memTags) GetByIDs(ctx context.Context, ids []int64) ([]domain.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Tag{}
	for _, id := range ids {
		if id >= 1 && int(id) <= len(r.tags) && r.tags[id-1].Status == domain.StatusActive {
			out = append(out, r.tags[id-1])
		}
	}
	return out, nil
}

func (r *memTags) ListActive(ctx context.Context) ([]domain.Tag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.Tag{}
	for _, t := range r.tags {
		if t.Status == domain.StatusActive {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *memTags) DeleteOrphans(ctx context.Context, ids []int64) ([]int64, error) {
	if err := r.err("tags.DeleteOrphans"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	scope := map[int64]bool{}
	for _, id := range ids {
		scope[id] = true
	}
	collected := []int64{}
	for i := range r.tags {
		t := &r.tags[i]
		if t.Status != domain.StatusActive || (len(ids) > 0 && !scope[t.ID]) {
			continue
		}
		referenced := false
		for _, e := range r.spotTags {
			if e.TagID == t.ID && e.Status == domain.StatusActive {
				referenced = true
				break
			}
		}
		if !referenced {
			t.Status = domain.StatusDeleted
			collected = append(collected, t.ID)
		}
	}
	return collected, nil
}

// --- user actions ---

type memActions struct{ *memStore }

func (r *memActions) Create(ctx context.Context, spotID int64, typ domain.UserActionType) (*domain.UserAction, error) {
	if err := r.err("actions.Create"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	a := domain.UserAction{ID: int64(len(r.actions) + 1), Type: typ, SpotID: spotID, Status: domain.StatusActive}
	r.actions = append(r.actions, a)
	return &a, nil
}

func (r *memActions) FindActive(ctx context.Context, spotID int64, typ domain.UserActionType) (*domain.UserAction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.actions {
		if a.SpotID == spotID && a.Type == typ && a.Status == domain.StatusActive {
			return &a, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memActions) SoftDelete(ctx context.Context, id int64) error {
	if err := r.err("actions.SoftDelete"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if id >= 1 && int(id) <= len(r.actions) {
		r.actions[id-1].Status = domain.StatusDeleted
	}
	return nil
}

func (r *memActions) ListHeldByDeletedSpots(ctx context.Context, typ domain.UserActionType) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []int64{}
	for _, a := range r.actions {
		if a.Type != typ || a.Status != domain.StatusActive {
			continue
		}
		if a.SpotID >= 1 && int(a.SpotID) <= len(r.spots) && r.spots[a.SpotID-1].Status == domain.StatusDeleted {
			out = append(out, a.SpotID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// --- spot tags ---

type memSpotTagsRepo struct{ *memStore }

func (r *memSpotTagsRepo) Create(ctx context.Context, userActionID, tagID int64) (*domain.SpotTag, error) {
	if err := r.err("spotTags.Create"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e := domain.SpotTag{ID: int64(len(r.spotTags) + 1), UserActionID: userActionID, TagID: tagID, Status: domain.StatusActive}
	r.spotTags = append(r.spotTags, e)
	return &e, nil
}

func (r *memSpotTagsRepo) ListActive(ctx context.Context, userActionID int64) ([]domain.SpotTag, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []domain.SpotTag{}
	for _, e := range r.spotTags {
		if e.UserActionID == userActionID && e.Status == domain.StatusActive {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memSpotTagsRepo) SoftDeleteByUserAction(ctx context.Context, userActionID int64) ([]int64, error) {
	if err := r.err("spotTags.SoftDeleteByUserAction"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := []int64{}
	for i := range r.spotTags {
		e := &r.spotTags[i]
		if e.UserActionID == userActionID && e.Status == domain.StatusActive {
			e.Status = domain.StatusDeleted
			ids = append(ids, e.TagID)
		}
	}
	return ids, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	deletes []string
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	c.deletes = append(c.deletes, key)
	return nil
}

func (c *mockCache) get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	return v, ok
}

// gatedCache parks the first Set until release is closed.
type gatedCache struct {
	*mockCache
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (c *gatedCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	first := false
	c.once.Do(func() { first = true })
	if first {
		close(c.entered)
		<-c.release
	}
	return c.mockCache.Set(ctx, key, value, ttlSeconds)
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	events []domain.SpotEvent
	err    error
}

func (p *mockPublisher) PublishSpotEvent(ctx context.Context, ev *domain.SpotEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, *ev)
	return nil
}

// --- Mock Geocoder ---

type mockGeocoder struct {
	reverseFn func(ctx context.Context, lat, lng string) (*domain.Address, error)
	calls     int
}

func (g *mockGeocoder) Reverse(ctx context.Context, lat, lng string) (*domain.Address, error) {
	g.calls++
	if g.reverseFn != nil {
		return g.reverseFn(ctx, lat, lng)
	}
	return &domain.Address{}, nil
}
