package domain

// Canonical category names. The backend assigns each a numeric id in its
// categories table; the name is the stable key the client code uses.
const (
	// Sale categories.
	CategoryCarSale        = "CAR_SALE"
	CategoryRealEstateSale = "REAL_ESTATE_SALE"
	CategoryFarmSale       = "FARM_SALE"
	CategoryPenthouseSale  = "PENTHOUSE_SALE"
	CategoryYachtSale      = "YACHT_SALE"
	CategoryJetSale        = "JET_SALE"
	CategoryPlotSale       = "PLOT_SALE"
	CategoryVillaSale      = "VILLA_SALE"
	CategoryFlatSale       = "FLAT_SALE"
	CategoryBungalowSale   = "BUNGALOW_SALE"
	CategoryFarmHouseSale  = "FARM_HOUSE_SALE"
	CategoryFarmlandSale   = "FARMLAND_SALE"
	CategoryCommercialSale = "COMMERCIAL_SALE"

	// Rent / book categories.
	CategoryCarRental       = "CAR_RENTAL"
	CategoryFarmhouseRental = "FARMHOUSE_RENTAL"
	CategoryStayRental      = "STAY_RENTAL"
	CategoryYachtRental     = "YACHT_RENTAL"
	CategoryDestinationBook = "DESTINATION_BOOK"
	CategoryPartyPlaceBook  = "PARTY_PLACE_BOOK"
	CategoryBanquetBook     = "BANQUET_BOOK"
	CategoryHotelBook       = "HOTEL_BOOK"
	CategoryCinemaBook      = "CINEMA_BOOK"
	CategoryTourBook        = "TOUR_BOOK"
)

// Category is a row of the backend's categories table.
type Category struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Label string `json:"label,omitempty"`
	// ImageURL is the icon shown in the category scroller.
	ImageURL string `json:"image_url,omitempty"`
	// Type partitions categories between the sale and book tabs.
	Type ListingType `json:"type,omitempty"`
}

// SaleCategories lists the canonical sale category names in display order.
var SaleCategories = []string{
	CategoryRealEstateSale,
	CategoryVillaSale,
	CategoryFlatSale,
	CategoryBungalowSale,
	CategoryPenthouseSale,
	CategoryPlotSale,
	CategoryFarmlandSale,
	CategoryFarmHouseSale,
	CategoryCommercialSale,
	CategoryCarSale,
	CategoryYachtSale,
	CategoryJetSale,
}

// BookCategories lists the canonical bookable category names in display order.
var BookCategories = []string{
	CategoryStayRental,
	CategoryDestinationBook,
	CategoryPartyPlaceBook,
	CategoryBanquetBook,
	CategoryHotelBook,
	CategoryCinemaBook,
	CategoryTourBook,
	CategoryFarmhouseRental,
	CategoryCarRental,
	CategoryYachtRental,
}
