package domain

import (
	"net/url"
	"strconv"
	"time"
)

// SearchFilter holds the form fields exactly as typed.
type SearchFilter struct {
	City         string `json:"city" yaml:"city"`
	MaxPrice     string `json:"maxPrice" yaml:"maxPrice"`
	PropertyType string `json:"propertyType" yaml:"propertyType"`
	Bedrooms     string `json:"bedrooms" yaml:"bedrooms"`
}

// SearchQuery is the parsed filter; nil fields are not sent.
type SearchQuery struct {
	City         *string
	MaxPrice     *int
	PropertyType *string
	Bedrooms     *int
}

func (q SearchQuery) Values() url.Values {
	v := url.Values{}
	if q.City != nil {
		v.Set("city", *q.City)
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", strconv.Itoa(*q.MaxPrice))
	}
	if q.PropertyType != nil {
		v.Set("propertyType", *q.PropertyType)
	}
	if q.Bedrooms != nil {
		v.Set("bedrooms", strconv.Itoa(*q.Bedrooms))
	}
	return v
}

func (q SearchQuery) Empty() bool {
	return q.City == nil && q.MaxPrice == nil && q.PropertyType == nil && q.Bedrooms == nil
}

// SearchRecord is one settled search round kept in the search log.
type SearchRecord struct {
	ID        int64     `json:"id"`
	SessionID string    `json:"sessionId"`
	Query     string    `json:"query"`
	Outcome   string    `json:"outcome"`
	Results   int       `json:"results"`
	CreatedAt time.Time `json:"createdAt"`
}
