// Package listing implements the marketplace's listing feed: filterable
// browse queries, result shaping, ownership mutations, and saved-listing
// bookmarks.
package listing

import (
	"strings"

	"github.com/dozendreams/dozendreams-server/internal/backend"
	"github.com/dozendreams/dozendreams-server/internal/domain"
)

const (
	listingsTable = "listings"
	savedTable    = "saved_listings"
)

// BuildQuery translates filter state plus a settled keyword into a backend
// query. categoryIDs must already be resolved through the category map;
// names the map did not know are dropped before this point, and an empty
// id set means no category predicate at all.
//
// Predicates are conjunctive: type, inclusive price ceiling, category
// membership, location substring, minimum bedrooms, then keyword matched
// against title or description. Featured rows sort first, ties break on id
// ascending so pagination stays stable.
func BuildQuery(filters domain.FilterState, keyword string, categoryIDs []int64) backend.Query {
	q := backend.From(listingsTable).
		Where(backend.Eq("type", string(filters.ListingType)))

	if filters.PriceCeiling > 0 {
		q = q.Where(backend.Lte("price", filters.PriceCeiling))
	}
	if len(categoryIDs) > 0 {
		q = q.Where(backend.In("category_id", categoryIDs))
	}
	if location := strings.TrimSpace(filters.Location); location != "" {
		q = q.Where(backend.Contains("location", location))
	}
	if minBeds := filters.MinBedrooms(); minBeds > 0 {
		q = q.Where(backend.Gte("bedrooms", minBeds))
	}
	if kw := strings.TrimSpace(keyword); kw != "" {
		q = q.WhereAny(
			backend.Contains("title", kw),
			backend.Contains("description", kw),
		)
	}

	return q.OrderBy("featured", true).OrderBy("id", false)
}
