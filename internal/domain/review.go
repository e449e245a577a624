package domain

const (
	ReviewTypeProperty = "property"
	ReviewTypeUser     = "user"
)

type ReviewRecord struct {
	ReviewedItemID int64   `json:"reviewedItemId"`
	Score          float64 `json:"score"`
}

const (
	RatingNA          = "N/A"        // no reviews for the item
	RatingUnavailable = "No ratings" // the reviews lookup itself failed
)

// Ratings maps a listing id to its display rating or a sentinel.
type Ratings map[int64]string

// For returns the rating for id, or RatingNA when the id is unknown.
func (r Ratings) For(id int64) string {
	if v, ok := r[id]; ok && v != "" {
		return v
	}
	return RatingNA
}
