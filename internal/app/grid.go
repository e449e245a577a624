package app

import (
	"fmt"
	"strconv"

	"tenant_search/internal/domain"
)

// GridColumns is the number of cards per row on the results screen.
const GridColumns = 2

// Rows partitions items into consecutive rows of at most width items.
func Rows[T any](items []T, width int) [][]T {
	if width <= 0 {
		width = 1
	}
	rows := make([][]T, 0, (len(items)+width-1)/width)
	for i := 0; i < len(items); i += width {
		end := min(i+width, len(items))
		rows = append(rows, items[i:end])
	}
	return rows
}

type Card struct {
	Listing  domain.Listing `json:"listing"`
	Rating   string         `json:"rating"`
	Price    string         `json:"priceLabel"`
	Location string         `json:"locationLabel"`
	Rooms    string         `json:"bedroomsLabel"`
	Landlord string         `json:"landlordLabel"`
	Stars    string         `json:"ratingLabel"`
}

// Row is one grid line. Filler is set when the row is short and the client
// should pad it with an empty cell.
type Row struct {
	Cards  []Card `json:"cards"`
	Filler bool   `json:"filler"`
}

func NewCard(l domain.Listing, ratings domain.Ratings) Card {
	rating := ratings.For(l.ID)
	return Card{
		Listing:  l,
		Rating:   rating,
		Price:    fmt.Sprintf("$%s / month", strconv.FormatFloat(l.Price, 'f', -1, 64)),
		Location: fmt.Sprintf("%s, %s", l.Address, l.City),
		Rooms:    fmt.Sprintf("Bedrooms: %d", l.Bedrooms),
		Landlord: "Landlord: " + l.Landlord.Name,
		Stars:    fmt.Sprintf("⭐ %s / 5.0", rating),
	}
}

func GridRows(listings []domain.Listing, ratings domain.Ratings) []Row {
	out := make([]Row, 0, (len(listings)+GridColumns-1)/GridColumns)
	for _, chunk := range Rows(listings, GridColumns) {
		row := Row{Cards: make([]Card, 0, len(chunk)), Filler: len(chunk) < GridColumns}
		for _, l := range chunk {
			row.Cards = append(row.Cards, NewCard(l, ratings))
		}
		out = append(out, row)
	}
	return out
}
