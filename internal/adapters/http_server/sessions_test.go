package httpserver

import (
	"context"
	"testing"
	"time"

	"tenant_search/internal/app"
	"tenant_search/internal/domain"
)

type nopAPI struct{}

func (nopAPI) SearchProperties(ctx context.Context, q domain.SearchQuery) ([]map[string]any, error) {
	return nil, nil
}

func (nopAPI) ListReviews(ctx context.Context, reviewType string, ids []int64) ([]map[string]any, error) {
	return nil, nil
}

func nopFactory(id string, n domain.Notifier, nav domain.Navigator) *app.Session {
	return app.NewSession(id, nopAPI{}, app.NewRatingAggregator(app.NewAPIReviews(nopAPI{})), n, nav)
}

func TestSessions_OpenGetClose(t *testing.T) {
	s := NewSessions(nopFactory)
	e := s.Open()
	if e.sess.ID() == "" || s.Len() != 1 {
		t.Fatalf("expected one open session")
	}
	if got, ok := s.Get(e.sess.ID()); !ok || got != e {
		t.Fatalf("Get did not return the opened session")
	}
	if !s.Close(e.sess.ID()) {
		t.Fatalf("Close returned false")
	}
	if s.Close(e.sess.ID()) {
		t.Fatalf("second Close must report missing session")
	}
	if _, ok := s.Get(e.sess.ID()); ok {
		t.Fatalf("closed session still reachable")
	}
}

func TestSessions_SweepIdle(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewSessions(nopFactory)
	s.now = func() time.Time { return now }

	old := s.Open()
	now = now.Add(20 * time.Minute)
	fresh := s.Open()

	if n := s.Sweep(15 * time.Minute); n != 1 {
		t.Fatalf("expected 1 swept, got %d", n)
	}
	if _, ok := s.Get(old.sess.ID()); ok {
		t.Fatalf("idle session survived the sweep")
	}
	if _, ok := s.Get(fresh.sess.ID()); !ok {
		t.Fatalf("fresh session was swept")
	}
}

func TestOutbox_DrainEmpties(t *testing.T) {
	var box outbox
	box.Alert(domain.AlertNoResults)
	box.Navigate(domain.BackRoute())

	got := box.drain()
	if len(got) != 2 || got[0].Type != "alert" || got[1].Type != "navigate" {
		t.Fatalf("unexpected events: %+v", got)
	}
	if again := box.drain(); again == nil || len(again) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", again)
	}
}
