package app

import (
	"context"
	"math"
	"strconv"

	"tenant_search/internal/domain"
)

// APIReviews reads property-scoped reviews from the rental API.
type APIReviews struct {
	api domain.RentalAPI
}

func NewAPIReviews(api domain.RentalAPI) *APIReviews {
	return &APIReviews{api: api}
}

func (r *APIReviews) PropertyReviews(ctx context.Context, ids []int64) ([]domain.ReviewRecord, error) {
	raw, err := r.api.ListReviews(ctx, domain.ReviewTypeProperty, ids)
	if err != nil {
		return nil, err
	}
	return mapReviews(raw), nil
}

type RatingAggregator struct {
	src domain.ReviewSource
}

func NewRatingAggregator(src domain.ReviewSource) *RatingAggregator {
	return &RatingAggregator{src: src}
}

// Aggregate returns a rating for every id in ids. When the lookup fails every
// id gets RatingUnavailable and the error is returned alongside the map.
func (a *RatingAggregator) Aggregate(ctx context.Context, ids []int64) (domain.Ratings, error) {
	recs, err := a.src.PropertyReviews(ctx, ids)
	if err != nil {
		out := make(domain.Ratings, len(ids))
		for _, id := range ids {
			out[id] = domain.RatingUnavailable
		}
		return out, err
	}
	return SummarizeRatings(ids, recs), nil
}

// SummarizeRatings groups records by item and averages each group.
// Records for ids outside ids are ignored.
func SummarizeRatings(ids []int64, recs []domain.ReviewRecord) domain.Ratings {
	byItem := make(map[int64][]float64, len(ids))
	for _, r := range recs {
		byItem[r.ReviewedItemID] = append(byItem[r.ReviewedItemID], r.Score)
	}

	out := make(domain.Ratings, len(ids))
	for _, id := range ids {
		scores := byItem[id]
		if len(scores) == 0 {
			out[id] = domain.RatingNA
			continue
		}
		var sum float64
		for _, s := range scores {
			sum += s
		}
		out[id] = formatRating(sum / float64(len(scores)))
	}
	return out
}

// formatRating renders one decimal from the exact binary value of mean, so
// 23/20 (stored just below 1.15) gives "1.1". FormatFloat breaks exact ties to
// even; those ties round up instead, and only odd multiples of 1/4 can be one.
func formatRating(mean float64) string {
	if q := mean * 4; q == math.Trunc(q) && math.Mod(math.Abs(q), 2) == 1 {
		return strconv.FormatFloat(math.Ceil(mean*10)/10, 'f', 1, 64)
	}
	return strconv.FormatFloat(mean, 'f', 1, 64)
}
