package domain

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrInvalidFilter = errors.New("invalid search filter")
)

// RentalAPI is the remote rental backend. Records are raw JSON objects;
// mapping into Listing/ReviewRecord happens in the app layer.
type RentalAPI interface {
	SearchProperties(ctx context.Context, q SearchQuery) ([]map[string]any, error)
	ListReviews(ctx context.Context, reviewType string, ids []int64) ([]map[string]any, error)
}

// ReviewSource returns typed review records for a set of item ids.
type ReviewSource interface {
	PropertyReviews(ctx context.Context, ids []int64) ([]ReviewRecord, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}

type SearchLog interface {
	RecordSearch(ctx context.Context, r SearchRecord) error
	RecentSearches(ctx context.Context, limit int) ([]SearchRecord, error)
}

// Notifier shows a user-facing alert.
type Notifier interface {
	Alert(a Alert)
}

// Navigator pushes a route on the client's navigation stack.
type Navigator interface {
	Navigate(r Route)
}
