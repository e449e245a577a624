package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"tenant_search/internal/domain"
)

type State string

const (
	StateIdle           State = "idle"
	StateSearching      State = "searching"
	StateEmpty          State = "empty"
	StateError          State = "error"
	StatePopulated      State = "populated"
	StateRatingsPending State = "ratings_pending"
	StateRatingsReady   State = "ratings_ready"
	StateRatingsFailed  State = "ratings_failed"
)

type Outcome string

const (
	OutcomePopulated Outcome = "populated"
	OutcomeEmpty     Outcome = "empty"
	OutcomeError     Outcome = "error"
)

// Hooks are optional callbacks used for metrics.
type Hooks struct {
	OnSearch  func(o Outcome, took time.Duration)
	OnRatings func(s State)
}

type Option func(*Session)

func WithSearchLog(l domain.SearchLog) Option { return func(s *Session) { s.searchLog = l } }

func WithHooks(h Hooks) Option { return func(s *Session) { s.hooks = h } }

// Session is the state behind one results screen: the last listings, their
// ratings and the loading flag. All mutation goes through the transition
// methods below, under mu.
type Session struct {
	id        string
	api       domain.RentalAPI
	ratings   *RatingAggregator
	notifier  domain.Notifier
	nav       domain.Navigator
	searchLog domain.SearchLog
	hooks     Hooks

	mu          sync.Mutex
	state       State
	loading     bool
	round       uint64
	shownRound  uint64 // round whose outcome is on screen
	listings    []domain.Listing
	ratingMap   domain.Ratings
	ratingsDone chan struct{}
}

func NewSession(id string, api domain.RentalAPI, agg *RatingAggregator, n domain.Notifier, nav domain.Navigator, opts ...Option) *Session {
	s := &Session{
		id:        id,
		api:       api,
		ratings:   agg,
		notifier:  n,
		nav:       nav,
		state:     StateIdle,
		ratingMap: domain.Ratings{},
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Session) ID() string { return s.id }

// Search runs one round. It returns once the search call has settled and the
// listings are stored; rating aggregation continues in the background (see Wait).
func (s *Session) Search(ctx context.Context, f domain.SearchFilter) Outcome {
	start := time.Now()
	round := s.beginSearch()

	q, err := BuildQuery(f)
	var listings []domain.Listing
	if err == nil {
		listings, err = SearchListings(ctx, s.api, q)
	}

	var outcome Outcome
	switch {
	case err != nil:
		log.Warn().Err(err).Str("session", s.id).Msg("property search failed")
		s.failSearch(round)
		s.alert(domain.AlertSearchFailed)
		outcome = OutcomeError
	case len(listings) == 0:
		s.emptySearch(round)
		s.alert(domain.AlertNoResults)
		outcome = OutcomeEmpty
	default:
		ids := UniqueIDs(listings)
		done := s.populate(round, listings)
		// Aggregation outlives the caller's context; only the search is bound to it.
		go s.aggregate(context.WithoutCancel(ctx), round, ids, done)
		outcome = OutcomePopulated
	}

	if s.hooks.OnSearch != nil {
		s.hooks.OnSearch(outcome, time.Since(start))
	}
	s.record(ctx, q, err, outcome, len(listings))
	return outcome
}

// Wait blocks until the aggregation started by the latest populated round is done.
func (s *Session) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.ratingsDone
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Session) OpenDetails(listingID int64) error {
	l, err := s.listing(listingID)
	if err != nil {
		return err
	}
	s.navigate(domain.DetailsRoute(l))
	return nil
}

func (s *Session) OpenLandlordReviews(listingID int64) error {
	l, err := s.listing(listingID)
	if err != nil {
		return err
	}
	s.navigate(domain.LandlordReviewsRoute(l.Landlord.ID))
	return nil
}

func (s *Session) Back() { s.navigate(domain.BackRoute()) }

type Snapshot struct {
	SessionID string           `json:"sessionId"`
	State     State            `json:"state"`
	Loading   bool             `json:"loading"`
	Listings  []domain.Listing `json:"listings"`
	Ratings   domain.Ratings   `json:"ratings"`
	Rows      []Row            `json:"rows"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	listings := append([]domain.Listing{}, s.listings...)
	ratings := make(domain.Ratings, len(s.ratingMap))
	for k, v := range s.ratingMap {
		ratings[k] = v
	}
	return Snapshot{
		SessionID: s.id,
		State:     s.state,
		Loading:   s.loading,
		Listings:  listings,
		Ratings:   ratings,
		Rows:      GridRows(listings, ratings),
	}
}

// ---- transitions ----

func (s *Session) beginSearch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.round++
	s.state = StateSearching
	s.loading = true
	return s.round
}

func (s *Session) failSearch(round uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shownRound = round
	s.state = StateError
	s.loading = false
	s.listings = nil
	s.ratingMap = domain.Ratings{}
	s.ratingsDone = nil
}

func (s *Session) emptySearch(round uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shownRound = round
	s.state = StateEmpty
	s.loading = false
	s.listings = nil
	s.ratingMap = domain.Ratings{}
	s.ratingsDone = nil
}

// populate stores the listings and moves straight on to RatingsPending.
// A late response from an older round still wins; its aggregation then owns
// the state.
func (s *Session) populate(round uint64, listings []domain.Listing) chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shownRound = round
	s.state = StatePopulated
	s.loading = false
	s.listings = listings
	s.ratingMap = domain.Ratings{}
	s.state = StateRatingsPending
	s.ratingsDone = make(chan struct{})
	return s.ratingsDone
}

// finishRatings is last-write-wins on the map; only the round on screen moves the state.
func (s *Session) finishRatings(round uint64, r domain.Ratings, failed bool) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratingMap = r
	next := StateRatingsReady
	if failed {
		next = StateRatingsFailed
	}
	if s.shownRound == round && s.state == StateRatingsPending {
		s.state = next
	}
	return next
}

// ---- helpers ----

func (s *Session) aggregate(ctx context.Context, round uint64, ids []int64, done chan struct{}) {
	defer close(done)
	r, err := s.ratings.Aggregate(ctx, ids)
	if err != nil {
		log.Warn().Err(err).Str("session", s.id).Int("ids", len(ids)).Msg("rating aggregation failed")
	}
	st := s.finishRatings(round, r, err != nil)
	if s.hooks.OnRatings != nil {
		s.hooks.OnRatings(st)
	}
}

func (s *Session) listing(id int64) (domain.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.listings {
		if l.ID == id {
			return l, nil
		}
	}
	return domain.Listing{}, fmt.Errorf("listing %d: %w", id, domain.ErrNotFound)
}

func (s *Session) alert(a domain.Alert) {
	if s.notifier != nil {
		s.notifier.Alert(a)
	}
}

func (s *Session) navigate(r domain.Route) {
	if s.nav != nil {
		s.nav.Navigate(r)
	}
}

func (s *Session) record(ctx context.Context, q domain.SearchQuery, err error, o Outcome, n int) {
	if s.searchLog == nil {
		return
	}
	query := q.Values().Encode()
	if errors.Is(err, domain.ErrInvalidFilter) {
		query = "invalid"
	}
	rec := domain.SearchRecord{SessionID: s.id, Query: query, Outcome: string(o), Results: n, CreatedAt: time.Now().UTC()}
	if lerr := s.searchLog.RecordSearch(ctx, rec); lerr != nil {
		log.Warn().Err(lerr).Str("session", s.id).Msg("search log write failed")
	}
}

// SearchListings runs the search call and maps the payload.
func SearchListings(ctx context.Context, api domain.RentalAPI, q domain.SearchQuery) ([]domain.Listing, error) {
	raw, err := api.SearchProperties(ctx, q)
	if err != nil {
		return nil, err
	}
	return mapListings(raw), nil
}

// UniqueIDs returns the listing ids without duplicates, in first-seen order.
func UniqueIDs(listings []domain.Listing) []int64 {
	seen := make(map[int64]struct{}, len(listings))
	out := make([]int64, 0, len(listings))
	for _, l := range listings {
		if _, ok := seen[l.ID]; ok {
			continue
		}
		seen[l.ID] = struct{}{}
		out = append(out, l.ID)
	}
	return out
}
