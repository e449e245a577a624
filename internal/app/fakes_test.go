package app_test

import (
	"context"
	"encoding/json"
	"sync"

	"tenant_search/internal/domain"
)

// ---- fakes ----

type fakeAPI struct {
	mu         sync.Mutex
	listings   []map[string]any
	searchErr  error
	reviews    []map[string]any
	reviewsErr error

	started chan struct{} // closed on the first search call when set
	release chan struct{} // search blocks until closed when set

	searchCalls int
	reviewCalls int
	lastQuery   domain.SearchQuery
	lastType    string
	lastIDs     []int64
}

func (f *fakeAPI) SearchProperties(ctx context.Context, q domain.SearchQuery) ([]map[string]any, error) {
	f.mu.Lock()
	f.searchCalls++
	f.lastQuery = q
	first := f.searchCalls == 1
	f.mu.Unlock()

	if f.started != nil && first {
		close(f.started)
	}
	if f.release != nil {
		<-f.release
	}
	return f.listings, f.searchErr
}

func (f *fakeAPI) ListReviews(ctx context.Context, reviewType string, ids []int64) ([]map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewCalls++
	f.lastType = reviewType
	f.lastIDs = append([]int64(nil), ids...)
	return f.reviews, f.reviewsErr
}

func (f *fakeAPI) calls() (search, reviews int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls, f.reviewCalls
}

type fakeUI struct {
	mu     sync.Mutex
	alerts []domain.Alert
	routes []domain.Route
}

func (u *fakeUI) Alert(a domain.Alert) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.alerts = append(u.alerts, a)
}

func (u *fakeUI) Navigate(r domain.Route) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.routes = append(u.routes, r)
}

type fakeLog struct {
	mu   sync.Mutex
	recs []domain.SearchRecord
}

func (l *fakeLog) RecordSearch(ctx context.Context, r domain.SearchRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, r)
	return nil
}

func (l *fakeLog) RecentSearches(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	return nil, nil
}

// fakeCache round-trips through JSON like the Redis adapter does.
type fakeCache struct {
	store map[string][]byte
	gets  int
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.gets++
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	delete(c.store, key)
	return nil
}

func listing(id, landlordID int64, name string) map[string]any {
	return map[string]any{
		"id":            float64(id),
		"name":          name,
		"propertyType":  "Apartment",
		"address":       "1 Main St",
		"city":          "Austin",
		"bedrooms":      2.0,
		"price":         1200.0,
		"exteriorImage": "https://img.example/" + name + ".jpg",
		"landlord":      map[string]any{"id": float64(landlordID), "name": "Lee"},
	}
}

func review(itemID int64, score float64) map[string]any {
	return map[string]any{"reviewedItemId": float64(itemID), "score": score}
}
