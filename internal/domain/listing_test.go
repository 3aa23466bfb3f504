package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForCategory(t *testing.T) {
	tests := []struct {
		category string
		want     Kind
	}{
		{CategoryCarSale, KindVehicle},
		{CategoryCarRental, KindVehicle},
		{CategoryYachtRental, KindWatercraft},
		{CategoryJetSale, KindAircraft},
		{CategoryPlotSale, KindAcreage},
		{CategoryFarmlandSale, KindAcreage},
		{CategoryVillaSale, KindProperty},
		{CategoryHotelBook, KindProperty},
		{"", KindProperty},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindForCategory(tt.category), "category %q", tt.category)
	}
}

func TestNormalizeKeepsOneCluster(t *testing.T) {
	l := &Listing{
		Category: CategoryCarSale,
		Vehicle:  &VehicleAttrs{Make: "Bentley", Model: "Continental", Year: 2024},
		Property: &PropertyAttrs{Bedrooms: 4},
		Acreage:  &AcreageAttrs{Acres: 12},
	}
	l.Normalize()

	assert.Equal(t, KindVehicle, l.Kind)
	assert.NotNil(t, l.Vehicle)
	assert.Nil(t, l.Property)
	assert.Nil(t, l.Acreage)
	assert.Equal(t, "₹0", l.PriceDisplay)
}

func TestNormalizeAircraftCarriesNoCluster(t *testing.T) {
	l := &Listing{
		Category: CategoryJetSale,
		Vehicle:  &VehicleAttrs{Make: "Gulfstream"},
	}
	l.Normalize()

	assert.Equal(t, KindAircraft, l.Kind)
	assert.Nil(t, l.Vehicle)
	assert.Nil(t, l.Property)
	assert.Nil(t, l.Acreage)
}

func TestBedrooms(t *testing.T) {
	l := &Listing{}
	assert.Equal(t, 0, l.Bedrooms())

	l.Property = &PropertyAttrs{Bedrooms: 5}
	assert.Equal(t, 5, l.Bedrooms())
}

func TestSplitLegacyMeta(t *testing.T) {
	t.Run("well-formed block is stripped and decoded", func(t *testing.T) {
		desc := "A stunning villa.\n<!--DD_META:{\"amenities\":[\"pool\",\"gym\"],\"video_url\":\"https://v.example/tour\"}-->"
		clean, ext := SplitLegacyMeta(desc)

		assert.Equal(t, "A stunning villa.", clean)
		assert.Equal(t, []string{"pool", "gym"}, ext.Amenities)
		assert.Equal(t, "https://v.example/tour", ext.VideoURL)
	})

	t.Run("no block passes through", func(t *testing.T) {
		clean, ext := SplitLegacyMeta("Just a description.")
		assert.Equal(t, "Just a description.", clean)
		assert.True(t, ext.IsZero())
	})

	t.Run("malformed block is stripped, attributes degrade to zero", func(t *testing.T) {
		clean, ext := SplitLegacyMeta("Broken.\n<!--DD_META:{not json}-->")
		assert.Equal(t, "Broken.", clean)
		assert.True(t, ext.IsZero())
	})
}

func TestCounterpartyID(t *testing.T) {
	c := &Conversation{BuyerID: "buyer-1", SellerID: "seller-1"}

	assert.Equal(t, "seller-1", c.CounterpartyID("buyer-1"))
	assert.Equal(t, "buyer-1", c.CounterpartyID("seller-1"))
	assert.True(t, c.Involves("buyer-1"))
	assert.False(t, c.Involves("someone-else"))
}

func TestFilterStateClone(t *testing.T) {
	three := 3
	f := FilterState{
		ListingType:  TypeSale,
		Categories:   []string{CategoryVillaSale},
		PriceCeiling: 1000,
		Bedrooms:     &three,
	}

	clone := f.Clone()
	clone.Categories[0] = "changed"
	*clone.Bedrooms = 9

	assert.Equal(t, CategoryVillaSale, f.Categories[0])
	assert.Equal(t, 3, *f.Bedrooms)
}

func TestMinBedrooms(t *testing.T) {
	var f FilterState
	assert.Equal(t, 0, f.MinBedrooms())

	zero := 0
	f.Bedrooms = &zero
	assert.Equal(t, 0, f.MinBedrooms())

	two := 2
	f.Bedrooms = &two
	assert.Equal(t, 2, f.MinBedrooms())
}

func TestFormatPrice(t *testing.T) {
	got := FormatPrice(50_000_000)
	// Indian digit grouping: 5,00,00,000
	assert.Contains(t, got, "5,00,00,000")
}

func TestPriceSuffix(t *testing.T) {
	sale := &Listing{Type: TypeSale, Property: &PropertyAttrs{PricePer: "night"}}
	assert.Equal(t, "", PriceSuffix(sale))

	stay := &Listing{Type: TypeRent, Property: &PropertyAttrs{PricePer: "night"}}
	assert.Equal(t, " / night", PriceSuffix(stay))

	car := &Listing{Type: TypeRent, Vehicle: &VehicleAttrs{PricePer: "day"}}
	assert.Equal(t, " / day", PriceSuffix(car))
}
