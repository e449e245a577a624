package app

import (
	"fmt"
	"strconv"
	"strings"

	"tenant_search/internal/domain"
)

// BuildQuery turns the raw form fields into a query. Empty fields are
// omitted, as is the "Any" property type.
func BuildQuery(f domain.SearchFilter) (domain.SearchQuery, error) {
	var q domain.SearchQuery

	if city := strings.TrimSpace(f.City); city != "" {
		q.City = &city
	}

	n, err := optionalCount("maxPrice", f.MaxPrice)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	q.MaxPrice = n

	n, err = optionalCount("bedrooms", f.Bedrooms)
	if err != nil {
		return domain.SearchQuery{}, err
	}
	q.Bedrooms = n

	if raw := strings.TrimSpace(f.PropertyType); raw != "" {
		pt, ok := domain.ParsePropertyType(raw)
		if !ok {
			return domain.SearchQuery{}, fmt.Errorf("%w: unknown propertyType %q", domain.ErrInvalidFilter, raw)
		}
		if pt != domain.PropertyAny {
			s := string(pt)
			q.PropertyType = &s
		}
	}
	return q, nil
}

func optionalCount(field, raw string) (*int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a whole number", domain.ErrInvalidFilter, field)
	}
	if n < 0 {
		return nil, fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidFilter, field)
	}
	return &n, nil
}
