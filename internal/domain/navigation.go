package domain

const (
	RoutePropertyDetails = "propertyDetails"
	RouteAllReviews      = "allReviews"
	RouteBack            = "back"
)

// Route is a navigation request handed to the client's navigator.
type Route struct {
	Name   string         `json:"name"`
	Params map[string]any `json:"params,omitempty"`
}

func DetailsRoute(l Listing) Route {
	return Route{Name: RoutePropertyDetails, Params: map[string]any{"property": l}}
}

func LandlordReviewsRoute(landlordID int64) Route {
	return Route{Name: RouteAllReviews, Params: map[string]any{"reviewType": ReviewTypeUser, "itemId": landlordID}}
}

func BackRoute() Route { return Route{Name: RouteBack} }

type Alert struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var (
	AlertSearchFailed = Alert{Title: "Error", Message: "Failed to fetch properties."}
	AlertNoResults    = Alert{Title: "No results", Message: "No properties match your search."}
)
