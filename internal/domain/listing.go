package domain

import "strings"

type Landlord struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Listing is a single rental property as returned by the search endpoint.
type Listing struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	PropertyType     string   `json:"propertyType"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	Bedrooms         int      `json:"bedrooms"`
	Price            float64  `json:"price"`
	ExteriorImageURL string   `json:"exteriorImageUrl"`
	Landlord         Landlord `json:"landlord"`
}

type PropertyType string

const (
	PropertyAny       PropertyType = "Any"
	PropertyApartment PropertyType = "Apartment"
	PropertyHouse     PropertyType = "House"
	PropertyCondo     PropertyType = "Condo"
	PropertyTownhouse PropertyType = "Townhouse"
	PropertyStudio    PropertyType = "Studio"
	PropertyDuplex    PropertyType = "Duplex"
)

// PropertyTypes lists the picker options in display order.
var PropertyTypes = []PropertyType{
	PropertyAny, PropertyApartment, PropertyHouse, PropertyCondo,
	PropertyTownhouse, PropertyStudio, PropertyDuplex,
}

// ParsePropertyType matches s case-insensitively against PropertyTypes.
func ParsePropertyType(s string) (PropertyType, bool) {
	s = strings.TrimSpace(s)
	for _, t := range PropertyTypes {
		if strings.EqualFold(s, string(t)) {
			return t, true
		}
	}
	return "", false
}
