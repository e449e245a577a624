package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpserver "tenant_search/internal/adapters/http_server"
	"tenant_search/internal/app"
	"tenant_search/internal/domain"
)

type stubAPI struct {
	mu        sync.Mutex
	listings  []map[string]any
	searchErr error
	reviews   []map[string]any
	lastQuery domain.SearchQuery
}

func (s *stubAPI) SearchProperties(ctx context.Context, q domain.SearchQuery) ([]map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastQuery = q
	return s.listings, s.searchErr
}

func (s *stubAPI) ListReviews(ctx context.Context, reviewType string, ids []int64) ([]map[string]any, error) {
	return s.reviews, nil
}

type stubLog struct {
	mu   sync.Mutex
	recs []domain.SearchRecord
}

func (l *stubLog) RecordSearch(ctx context.Context, r domain.SearchRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recs = append(l.recs, r)
	return nil
}

func (l *stubLog) RecentSearches(ctx context.Context, limit int) ([]domain.SearchRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.SearchRecord{}, l.recs...), nil
}

func fixtureListings() []map[string]any {
	return []map[string]any{
		{"id": 1.0, "name": "Loft", "city": "Austin", "address": "1 Main St", "bedrooms": 1.0, "price": 1200.0, "landlord": map[string]any{"id": 10.0, "name": "Ana"}},
		{"id": 2.0, "name": "House", "city": "Austin", "address": "2 Oak Ave", "bedrooms": 3.0, "price": 2100.0, "landlord": map[string]any{"id": 20.0, "name": "Bo"}},
		{"id": 3.0, "name": "Flat", "city": "Austin", "address": "3 Elm Rd", "bedrooms": 2.0, "price": 1500.0, "landlord": map[string]any{"id": 30.0, "name": "Cy"}},
	}
}

func newTestServer(t *testing.T, api *stubAPI, sl domain.SearchLog) *httptest.Server {
	t.Helper()
	agg := app.NewRatingAggregator(app.NewAPIReviews(api))
	sessions := httpserver.NewSessions(func(id string, n domain.Notifier, nav domain.Navigator) *app.Session {
		opts := []app.Option{app.WithHooks(httpserver.MetricsHooks())}
		if sl != nil {
			opts = append(opts, app.WithSearchLog(sl))
		}
		return app.NewSession(id, api, agg, n, nav, opts...)
	})
	srv := httpserver.New(5 * time.Second)
	h := &httpserver.Handlers{Sessions: sessions, RatingsWait: 2 * time.Second}
	if sl != nil {
		h.SearchLog = sl
	}
	srv.MountHandlers(h)
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

type viewBody struct {
	SessionID string            `json:"sessionId"`
	State     string            `json:"state"`
	Loading   bool              `json:"loading"`
	Outcome   string            `json:"outcome"`
	Ratings   map[string]string `json:"ratings"`
	Listings  []domain.Listing  `json:"listings"`
	Rows      []app.Row         `json:"rows"`
	Events    []struct {
		Type  string        `json:"type"`
		Alert *domain.Alert `json:"alert"`
		Route *domain.Route `json:"route"`
	} `json:"events"`
}

func do(t *testing.T, method, url, body string, hdr map[string]string) (*http.Response, viewBody) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	for k, v := range hdr {
		req.Header.Set(k, v)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer res.Body.Close()
	var v viewBody
	if res.StatusCode < 300 && res.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(res.Body).Decode(&v); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return res, v
}

func TestOneShotSearch_WaitsForRatings(t *testing.T) {
	api := &stubAPI{
		listings: fixtureListings(),
		reviews: []map[string]any{
			{"reviewedItemId": 1.0, "score": 4.0},
			{"reviewedItemId": 1.0, "score": 5.0},
			{"reviewedItemId": 2.0, "score": 3.0},
		},
	}
	ts := newTestServer(t, api, nil)

	res, v := do(t, http.MethodGet, ts.URL+"/v1/search?city=Austin&propertyType=Any", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
	if v.Outcome != "populated" || v.State != "ratings_ready" {
		t.Fatalf("unexpected outcome/state: %s/%s", v.Outcome, v.State)
	}
	if v.Ratings["1"] != "4.5" || v.Ratings["2"] != "3.0" || v.Ratings["3"] != "N/A" {
		t.Fatalf("unexpected ratings: %v", v.Ratings)
	}
	if len(v.Rows) != 2 || len(v.Rows[1].Cards) != 1 || !v.Rows[1].Filler {
		t.Fatalf("unexpected rows: %+v", v.Rows)
	}
	if c := v.Rows[0].Cards[0]; c.Stars != "⭐ 4.5 / 5.0" || c.Landlord != "Landlord: Ana" {
		t.Fatalf("unexpected card: %+v", c)
	}
	if api.lastQuery.PropertyType != nil {
		t.Fatalf("propertyType Any must not be sent")
	}
}

func TestOneShotSearch_EmptyAndError(t *testing.T) {
	api := &stubAPI{}
	ts := newTestServer(t, api, nil)

	_, v := do(t, http.MethodGet, ts.URL+"/v1/search?city=Nowhere", "", nil)
	if v.Outcome != "empty" || len(v.Events) != 1 || v.Events[0].Alert == nil || v.Events[0].Alert.Title != "No results" {
		t.Fatalf("unexpected empty view: %+v", v)
	}

	api.searchErr = errors.New("down")
	_, v = do(t, http.MethodGet, ts.URL+"/v1/search", "", nil)
	if v.Outcome != "error" || len(v.Events) != 1 || v.Events[0].Alert.Message != "Failed to fetch properties." {
		t.Fatalf("unexpected error view: %+v", v)
	}
}

func TestSessionFlow(t *testing.T) {
	api := &stubAPI{listings: fixtureListings()}
	sl := &stubLog{}
	ts := newTestServer(t, api, sl)

	res, v := do(t, http.MethodPost, ts.URL+"/v1/sessions", "", nil)
	if res.StatusCode != http.StatusCreated || v.SessionID == "" || v.State != "idle" {
		t.Fatalf("open: status %d view %+v", res.StatusCode, v)
	}
	base := ts.URL + "/v1/sessions/" + v.SessionID

	_, v = do(t, http.MethodPost, base+"/search?wait=true", `{"city":"Austin","maxPrice":"2500"}`, nil)
	if v.Outcome != "populated" || len(v.Listings) != 3 || v.State != "ratings_ready" {
		t.Fatalf("search: %+v", v)
	}
	if api.lastQuery.MaxPrice == nil || *api.lastQuery.MaxPrice != 2500 {
		t.Fatalf("maxPrice not forwarded: %+v", api.lastQuery)
	}

	_, v = do(t, http.MethodPost, base+"/listings/2/details", "", nil)
	if len(v.Events) != 1 || v.Events[0].Route == nil || v.Events[0].Route.Name != domain.RoutePropertyDetails {
		t.Fatalf("details: %+v", v.Events)
	}
	_, v = do(t, http.MethodPost, base+"/listings/2/landlord-reviews", "", nil)
	r := v.Events[0].Route
	if r.Name != domain.RouteAllReviews || r.Params["reviewType"] != "user" || r.Params["itemId"] != 20.0 {
		t.Fatalf("landlord reviews: %+v", r)
	}
	_, v = do(t, http.MethodPost, base+"/back", "", nil)
	if v.Events[0].Route.Name != domain.RouteBack {
		t.Fatalf("back: %+v", v.Events)
	}

	res, _ = do(t, http.MethodPost, base+"/listings/99/details", "", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown listing: status %d", res.StatusCode)
	}
	res, _ = do(t, http.MethodPost, base+"/listings/abc/details", "", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad listing id: status %d", res.StatusCode)
	}

	res, _ = do(t, http.MethodGet, base, "", nil)
	etag := res.Header.Get("ETag")
	if res.StatusCode != http.StatusOK || etag == "" {
		t.Fatalf("get: status %d etag %q", res.StatusCode, etag)
	}
	res, _ = do(t, http.MethodGet, base, "", map[string]string{"If-None-Match": etag})
	if res.StatusCode != http.StatusNotModified {
		t.Fatalf("conditional get: status %d", res.StatusCode)
	}

	res, _ = do(t, http.MethodGet, ts.URL+"/v1/searches/recent?limit=10", "", nil)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("recent: status %d", res.StatusCode)
	}
	if len(sl.recs) != 1 || sl.recs[0].SessionID == "" || sl.recs[0].Outcome != "populated" {
		t.Fatalf("unexpected search log: %+v", sl.recs)
	}

	res, _ = do(t, http.MethodDelete, base, "", nil)
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete: status %d", res.StatusCode)
	}
	res, _ = do(t, http.MethodGet, base, "", nil)
	if res.StatusCode != http.StatusNotFound {
		t.Fatalf("get after delete: status %d", res.StatusCode)
	}
}

func TestSessionSearch_BadBody(t *testing.T) {
	ts := newTestServer(t, &stubAPI{}, nil)
	_, v := do(t, http.MethodPost, ts.URL+"/v1/sessions", "", nil)

	res, _ := do(t, http.MethodPost, ts.URL+"/v1/sessions/"+v.SessionID+"/search", `{"city":`, nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type %q", ct)
	}
}

func TestRecentSearches_DisabledAndLimits(t *testing.T) {
	ts := newTestServer(t, &stubAPI{}, nil)
	res, _ := do(t, http.MethodGet, ts.URL+"/v1/searches/recent", "", nil)
	if res.StatusCode != http.StatusNotImplemented {
		t.Fatalf("disabled: status %d", res.StatusCode)
	}

	ts = newTestServer(t, &stubAPI{}, &stubLog{})
	res, _ = do(t, http.MethodGet, ts.URL+"/v1/searches/recent?limit=500", "", nil)
	if res.StatusCode != http.StatusBadRequest {
		t.Fatalf("limit: status %d", res.StatusCode)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, &stubAPI{}, nil)
	res, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status %d", res.StatusCode)
	}
}
