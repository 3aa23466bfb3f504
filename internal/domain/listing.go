// Package domain contains the core business entities for the DozenDreams marketplace.
package domain

import (
	"time"
)

// ListingType distinguishes items for sale from bookable items.
type ListingType string

const (
	// TypeSale marks a listing sold outright.
	TypeSale ListingType = "SALE"
	// TypeRent marks a bookable listing (stays, rentals, experiences).
	TypeRent ListingType = "RENT"
)

// Valid reports whether the listing type is one of the known values.
func (t ListingType) Valid() bool {
	return t == TypeSale || t == TypeRent
}

// Kind is the structural variant of a listing. Exactly one attribute
// cluster is populated per kind; the others stay nil.
type Kind string

const (
	KindVehicle    Kind = "vehicle"
	KindProperty   Kind = "property"
	KindAcreage    Kind = "acreage"
	KindWatercraft Kind = "watercraft"
	KindAircraft   Kind = "aircraft"
)

// kindByCategory maps canonical category names to their structural variant.
// Categories absent from this table default to KindProperty.
var kindByCategory = map[string]Kind{
	CategoryCarSale:      KindVehicle,
	CategoryCarRental:    KindVehicle,
	CategoryYachtSale:    KindWatercraft,
	CategoryYachtRental:  KindWatercraft,
	CategoryJetSale:      KindAircraft,
	CategoryFarmSale:     KindAcreage,
	CategoryFarmlandSale: KindAcreage,
	CategoryPlotSale:     KindAcreage,
}

// KindForCategory resolves the structural variant for a category name.
func KindForCategory(category string) Kind {
	if k, ok := kindByCategory[category]; ok {
		return k
	}
	return KindProperty
}

// Listing is a sellable or bookable marketplace item.
//
// It is a tagged union: Kind names the variant, and only the matching
// attribute cluster (Vehicle, Property or Acreage) is populated.
// Watercraft and aircraft carry no extra attributes beyond the common set.
type Listing struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Price       int64       `json:"price"`
	Location    string      `json:"location"`
	ImageURL    string      `json:"image_url"`
	Type        ListingType `json:"type"`
	CategoryID  int64       `json:"category_id"`
	// Category is the display name resolved through the category map.
	// Empty when the id has no reverse mapping.
	Category string  `json:"category"`
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	OwnerID  string  `json:"user_id,omitempty"`
	Featured bool    `json:"featured,omitempty"`
	// PriceDisplay is the formatted price shown in feeds, including the
	// booking unit suffix for rentals.
	PriceDisplay string `json:"price_display,omitempty"`

	Kind     Kind           `json:"kind"`
	Vehicle  *VehicleAttrs  `json:"vehicle,omitempty"`
	Property *PropertyAttrs `json:"property,omitempty"`
	Acreage  *AcreageAttrs  `json:"acreage,omitempty"`

	Extended ExtendedAttrs `json:"extended,omitzero"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// VehicleAttrs describes car listings.
type VehicleAttrs struct {
	Make  string `json:"make"`
	Model string `json:"model"`
	Year  int    `json:"year"`
	// PricePer qualifies rental pricing ("day", "week"). Empty for sales.
	PricePer string `json:"price_per,omitempty"`
}

// PropertyAttrs describes real-estate-like listings.
type PropertyAttrs struct {
	Bedrooms  int `json:"bedrooms"`
	Bathrooms int `json:"bathrooms"`
	Sqft      int `json:"sqft"`
	// PricePer qualifies booking pricing ("night", "week", "month"). Empty for sales.
	PricePer string `json:"price_per,omitempty"`
}

// AcreageAttrs describes land listings.
type AcreageAttrs struct {
	Acres float64 `json:"acres"`
}

// ExtendedAttrs is the structured attribute set that the legacy client
// smuggled into the description as a sentinel-delimited JSON blob.
type ExtendedAttrs struct {
	Amenities []string `json:"amenities,omitempty"`
	VideoURL  string   `json:"video_url,omitempty"`
	Virtual   bool     `json:"virtual_tour,omitempty"`
}

// IsZero reports whether no extended attributes are set.
func (e ExtendedAttrs) IsZero() bool {
	return len(e.Amenities) == 0 && e.VideoURL == "" && !e.Virtual
}

// Normalize clears attribute clusters that do not belong to the listing's
// kind, enforcing the one-cluster-per-listing invariant.
func (l *Listing) Normalize() {
	l.Kind = KindForCategory(l.Category)
	switch l.Kind {
	case KindVehicle:
		l.Property = nil
		l.Acreage = nil
	case KindAcreage:
		l.Vehicle = nil
		l.Property = nil
	case KindWatercraft, KindAircraft:
		l.Vehicle = nil
		l.Property = nil
		l.Acreage = nil
	default:
		l.Vehicle = nil
		l.Acreage = nil
	}
	l.PriceDisplay = FormatPrice(l.Price) + PriceSuffix(l)
}

// Bedrooms returns the bedroom count, or zero for listings without one.
func (l *Listing) Bedrooms() int {
	if l.Property == nil {
		return 0
	}
	return l.Property.Bedrooms
}
