package app

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"gopkg.in/yaml.v2"

	"tenant_search/internal/domain"
)

type SavedSearch struct {
	Name   string              `yaml:"name"`
	Filter domain.SearchFilter `yaml:"filter"`
}

type SavedResult struct {
	Name     string
	Outcome  Outcome
	Snapshot Snapshot
}

// LoadSavedSearches decodes a YAML document of the form
//
//	searches:
//	  - name: cheap-flats
//	    filter: {city: Austin, maxPrice: "1500", propertyType: Apartment}
func LoadSavedSearches(r io.Reader) ([]SavedSearch, error) {
	var doc struct {
		Searches []SavedSearch `yaml:"searches"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode saved searches: %w", err)
	}
	for i, s := range doc.Searches {
		if s.Name == "" {
			doc.Searches[i].Name = fmt.Sprintf("search-%d", i+1)
		}
	}
	return doc.Searches, nil
}

// RunSaved runs each saved search in its own session, at most workers at a
// time, and waits up to wait for its ratings. Results keep the input order.
func RunSaved(ctx context.Context, searches []SavedSearch, workers int, wait time.Duration, newSession func(name string) *Session) ([]SavedResult, error) {
	if workers <= 0 {
		workers = 1
	}
	sem := semaphore.NewWeighted(int64(workers))
	out := make([]SavedResult, len(searches))
	var wg sync.WaitGroup

	for i, ss := range searches {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			wg.Wait()
			return out, err
		}

		wg.Add(1)
		go func(i int, ss SavedSearch) {
			defer wg.Done()
			defer sem.Release(1)

			sess := newSession(ss.Name)
			o := sess.Search(ctx, ss.Filter)
			if err := waitFor(ctx, sess, wait); err != nil {
				log.Warn().Str("search", ss.Name).Err(err).Msg("ratings not ready")
			}
			out[i] = SavedResult{Name: ss.Name, Outcome: o, Snapshot: sess.Snapshot()}
			log.Info().Str("search", ss.Name).Str("outcome", string(o)).Msg("saved search done")
		}(i, ss)
	}

	wg.Wait()
	return out, nil
}

func waitFor(ctx context.Context, sess *Session, wait time.Duration) error {
	if wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}
	return sess.Wait(ctx)
}
