package listing

import (
	"time"

	"github.com/dozendreams/dozendreams-server/internal/catalog"
	"github.com/dozendreams/dozendreams-server/internal/domain"
)

// listingRow mirrors the backend's listings table column for column.
// Bedrooms is denormalized out of the property cluster so the backend can
// apply the minimum-bedrooms predicate server side.
type listingRow struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Price       int64              `json:"price"`
	Location    string             `json:"location"`
	ImageURL    string             `json:"image_url"`
	Type        domain.ListingType `json:"type"`
	CategoryID  int64              `json:"category_id"`
	Lat         float64            `json:"lat"`
	Lon         float64            `json:"lon"`
	OwnerID     string             `json:"user_id"`
	Featured    bool               `json:"featured"`
	Bedrooms    int                `json:"bedrooms"`

	Vehicle  *domain.VehicleAttrs  `json:"vehicle,omitempty"`
	Property *domain.PropertyAttrs `json:"property,omitempty"`
	Acreage  *domain.AcreageAttrs  `json:"acreage,omitempty"`
	Extended domain.ExtendedAttrs  `json:"extended,omitzero"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}

// toDomain shapes a stored row for display: category id reversed to its
// name (empty when unknown), legacy description metadata stripped, and
// attribute clusters normalized to the listing's kind.
func (r listingRow) toDomain(cat *catalog.Catalog) domain.Listing {
	description, legacy := domain.SplitLegacyMeta(r.Description)

	l := domain.Listing{
		ID:          r.ID,
		Title:       r.Title,
		Description: description,
		Price:       r.Price,
		Location:    r.Location,
		ImageURL:    r.ImageURL,
		Type:        r.Type,
		CategoryID:  r.CategoryID,
		Category:    cat.NameForID(r.CategoryID),
		Lat:         r.Lat,
		Lon:         r.Lon,
		OwnerID:     r.OwnerID,
		Featured:    r.Featured,
		Vehicle:     r.Vehicle,
		Property:    r.Property,
		Acreage:     r.Acreage,
		Extended:    r.Extended,
		CreatedAt:   r.CreatedAt,
	}
	if l.Extended.IsZero() {
		l.Extended = legacy
	}
	l.Normalize()
	return l
}

func fromDomain(l domain.Listing) listingRow {
	return listingRow{
		ID:          l.ID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Location:    l.Location,
		ImageURL:    l.ImageURL,
		Type:        l.Type,
		CategoryID:  l.CategoryID,
		Lat:         l.Lat,
		Lon:         l.Lon,
		OwnerID:     l.OwnerID,
		Featured:    l.Featured,
		Bedrooms:    l.Bedrooms(),
		Vehicle:     l.Vehicle,
		Property:    l.Property,
		Acreage:     l.Acreage,
		Extended:    l.Extended,
		CreatedAt:   l.CreatedAt,
	}
}
