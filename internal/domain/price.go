package domain

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Prices are stored as whole rupees (no minor units).
var pricePrinter = message.NewPrinter(language.MustParse("en-IN"))

// FormatPrice renders a price with Indian digit grouping, e.g. ₹5,00,00,000.
func FormatPrice(amount int64) string {
	return pricePrinter.Sprintf("₹%v", number.Decimal(amount))
}

// PriceSuffix returns the unit qualifier for bookable listings
// (" / night", " / day"), or "" for sales.
func PriceSuffix(l *Listing) string {
	if l.Type != TypeRent {
		return ""
	}
	switch {
	case l.Vehicle != nil && l.Vehicle.PricePer != "":
		return " / " + l.Vehicle.PricePer
	case l.Property != nil && l.Property.PricePer != "":
		return " / " + l.Property.PricePer
	default:
		return ""
	}
}
