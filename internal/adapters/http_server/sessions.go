package httpserver

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"tenant_search/internal/adapters/observability"
	"tenant_search/internal/app"
	"tenant_search/internal/domain"
)

// Event is an alert or a navigation request waiting to be picked up by the client.
type Event struct {
	Type  string        `json:"type"` // alert|navigate
	Alert *domain.Alert `json:"alert,omitempty"`
	Route *domain.Route `json:"route,omitempty"`
}

// outbox collects the session's alerts and routes until the next snapshot.
type outbox struct {
	mu     sync.Mutex
	events []Event
}

func (o *outbox) Alert(a domain.Alert) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, Event{Type: "alert", Alert: &a})
}

func (o *outbox) Navigate(r domain.Route) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, Event{Type: "navigate", Route: &r})
}

func (o *outbox) drain() []Event {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.events
	o.events = nil
	if out == nil {
		out = []Event{}
	}
	return out
}

// SessionFactory builds a session whose alerts and routes go to n and nav.
type SessionFactory func(id string, n domain.Notifier, nav domain.Navigator) *app.Session

type entry struct {
	sess     *app.Session
	box      *outbox
	lastSeen time.Time
}

// Sessions is the in-memory registry of open search sessions.
type Sessions struct {
	mu      sync.Mutex
	items   map[string]*entry
	factory SessionFactory
	now     func() time.Time
}

func NewSessions(f SessionFactory) *Sessions {
	return &Sessions{items: map[string]*entry{}, factory: f, now: time.Now}
}

func (s *Sessions) Open() *entry {
	id := uuid.NewString()
	box := &outbox{}
	e := &entry{sess: s.factory(id, box, box), box: box, lastSeen: s.now()}

	s.mu.Lock()
	s.items[id] = e
	n := len(s.items)
	s.mu.Unlock()

	observability.ActiveSessions.Set(float64(n))
	return e
}

func (s *Sessions) Get(id string) (*entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.items[id]
	if ok {
		e.lastSeen = s.now()
	}
	return e, ok
}

func (s *Sessions) Close(id string) bool {
	s.mu.Lock()
	_, ok := s.items[id]
	delete(s.items, id)
	n := len(s.items)
	s.mu.Unlock()

	observability.ActiveSessions.Set(float64(n))
	return ok
}

// Sweep drops sessions idle for longer than maxIdle and returns how many went.
func (s *Sessions) Sweep(maxIdle time.Duration) int {
	cutoff := s.now().Add(-maxIdle)
	s.mu.Lock()
	dropped := 0
	for id, e := range s.items {
		if e.lastSeen.Before(cutoff) {
			delete(s.items, id)
			dropped++
		}
	}
	n := len(s.items)
	s.mu.Unlock()

	observability.ActiveSessions.Set(float64(n))
	return dropped
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// MetricsHooks reports search and rating outcomes to Prometheus.
func MetricsHooks() app.Hooks {
	return app.Hooks{
		OnSearch: func(o app.Outcome, took time.Duration) {
			observability.ObserveSearch(string(o), took)
		},
		OnRatings: func(st app.State) {
			observability.ObserveRatings(string(st))
		},
	}
}
