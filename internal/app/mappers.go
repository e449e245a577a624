package app

import (
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"tenant_search/internal/domain"
)

/********** alias registries (single source of truth) **********/

var listingAliases = map[string][]string{
	"name":     {"name", "title", "propertyName"},
	"type":     {"propertyType", "property_type", "type"},
	"address":  {"address", "address.line", "street", "street_address"},
	"city":     {"city", "address.city", "town"},
	"image":    {"exteriorImageUrl", "exteriorImage", "exterior_image", "image", "images.exterior"},
	"landlord": {"landlord.name", "landlordName", "owner.name"},
}

var (
	listingIDPaths      = []string{"id", "propertyId", "property_id"}
	listingBedroomPaths = []string{"bedrooms", "rooms", "minRooms"}
	listingPricePaths   = []string{"price", "rent", "monthlyRent"}
	landlordIDPaths     = []string{"landlord.id", "landlordId", "landlord_id", "owner.id"}
	reviewItemPaths     = []string{"reviewedItemId", "reviewed_item_id", "itemId"}
	reviewScorePaths    = []string{"score", "rating", "rating.value"}
)

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		v, ok := obj[part]
		if !ok {
			return nil
		}
		cur = v
	}
	return cur
}

// firstStr: first non-empty string for a named alias set, or "".
func firstStr(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s, ok := lookupAny(m, p).(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case int64:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

/********** listing mapper **********/

// mapListings drops records without an id; the grid and the ratings are
// both keyed by it.
func mapListings(in []map[string]any) []domain.Listing {
	out := make([]domain.Listing, 0, len(in))
	for _, p := range in {
		id := firstInt64Flexible(p, listingIDPaths...)
		if id == nil {
			log.Warn().Str("context", "mapListings").Msg("listing without id skipped")
			continue
		}
		l := domain.Listing{
			ID:               *id,
			Name:             firstStr(p, listingAliases, "name"),
			PropertyType:     firstStr(p, listingAliases, "type"),
			Address:          firstStr(p, listingAliases, "address"),
			City:             firstStr(p, listingAliases, "city"),
			ExteriorImageURL: firstStr(p, listingAliases, "image"),
			Landlord: domain.Landlord{
				Name: firstStr(p, listingAliases, "landlord"),
			},
		}
		if n := firstInt64Flexible(p, listingBedroomPaths...); n != nil {
			l.Bedrooms = int(*n)
		}
		if f := getFloatFlexible(p, listingPricePaths...); f != nil {
			l.Price = *f
		}
		if lid := firstInt64Flexible(p, landlordIDPaths...); lid != nil {
			l.Landlord.ID = *lid
		}
		out = append(out, l)
	}
	return out
}

/********** reviews mapper **********/

// mapReviews keeps only records that name an item and carry a score.
func mapReviews(in []map[string]any) []domain.ReviewRecord {
	out := make([]domain.ReviewRecord, 0, len(in))
	for _, r := range in {
		id := firstInt64Flexible(r, reviewItemPaths...)
		score := getFloatFlexible(r, reviewScorePaths...)
		if id == nil || score == nil {
			log.Debug().Str("context", "mapReviews").Msg("review without item id or score skipped")
			continue
		}
		out = append(out, domain.ReviewRecord{ReviewedItemID: *id, Score: *score})
	}
	return out
}
