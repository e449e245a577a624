package app

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tenant_search/internal/domain"
)

// CachedReviews is a cache-aside ReviewSource. Only successful lookups are
// cached, so a failed fetch is retried by the next search.
type CachedReviews struct {
	next     domain.ReviewSource
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewCachedReviews(next domain.ReviewSource, c domain.Cache, ttl time.Duration) *CachedReviews {
	return &CachedReviews{next: next, cache: c, cacheTTL: ttl}
}

func (s *CachedReviews) PropertyReviews(ctx context.Context, ids []int64) ([]domain.ReviewRecord, error) {
	key := reviewsKey(ids)
	var out []domain.ReviewRecord
	if ok, err := s.cache.Get(ctx, key, &out); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("reviews cache read failed")
	} else if ok {
		return out, nil
	}

	recs, err := s.next.PropertyReviews(ctx, ids)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []domain.ReviewRecord{}
	}
	if err := s.cache.Set(ctx, key, recs, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("reviews cache write failed")
	}
	return recs, nil
}

// reviewsKey is order-independent: the same id set always maps to one key.
func reviewsKey(ids []int64) string {
	sorted := slices.Clone(ids)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	parts := make([]string, len(sorted))
	for i, id := range sorted {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return fmt.Sprintf("reviews:%s:%s", domain.ReviewTypeProperty, strings.Join(parts, ","))
}
