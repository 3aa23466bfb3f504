package domain

// DefaultPriceCeiling is the inclusive upper price bound applied when the
// user has not narrowed the range. The floor is always zero.
const DefaultPriceCeiling int64 = 50_000_000

// FilterState is the user's current search intent. It is held per client
// session in volatile memory only and mutated exclusively through setter
// flows; read paths never modify it.
type FilterState struct {
	ListingType ListingType `json:"listing_type"`
	// Categories holds selected category names (zero or one in practice).
	Categories []string `json:"categories"`
	// PriceCeiling is inclusive; a listing priced exactly at the ceiling matches.
	PriceCeiling int64 `json:"price_ceiling"`
	// Location is a free-text substring matched case-insensitively.
	Location string `json:"location"`
	// Bedrooms is the minimum bedroom count; nil or <= 0 imposes no filter.
	Bedrooms *int `json:"bedrooms,omitempty"`
}

// DefaultFilters returns the filter state applied at session start.
func DefaultFilters() FilterState {
	return FilterState{
		ListingType:  TypeSale,
		Categories:   nil,
		PriceCeiling: DefaultPriceCeiling,
		Location:     "",
		Bedrooms:     nil,
	}
}

// Clone returns a deep copy so stored state cannot be mutated through
// a returned reference.
func (f FilterState) Clone() FilterState {
	out := f
	if f.Categories != nil {
		out.Categories = append([]string(nil), f.Categories...)
	}
	if f.Bedrooms != nil {
		b := *f.Bedrooms
		out.Bedrooms = &b
	}
	return out
}

// MinBedrooms returns the effective bedroom minimum, zero when unset.
func (f FilterState) MinBedrooms() int {
	if f.Bedrooms == nil || *f.Bedrooms <= 0 {
		return 0
	}
	return *f.Bedrooms
}
