// Package backend is the narrow client for the hosted backend service.
//
// The backend owns all persistence, consistency, and access control
// (row-level security keyed off the caller's bearer token). This package
// only shapes requests: query-builder style reads, keyed writes, file
// uploads, auth session calls, and a change-feed subscription primitive.
package backend

import "fmt"

// Op is a filter operator understood by the backend's query API.
type Op string

const (
	// OpEq matches rows where the column equals the value.
	OpEq Op = "eq"
	// OpGte matches rows where the column is >= the value.
	OpGte Op = "gte"
	// OpLte matches rows where the column is <= the value (inclusive ceiling).
	OpLte Op = "lte"
	// OpIn matches rows where the column is a member of the value slice.
	OpIn Op = "in"
	// OpContains matches rows whose column case-insensitively contains the
	// value as a substring.
	OpContains Op = "ilike"
	// OpNeq matches rows where the column differs from the value.
	OpNeq Op = "neq"
)

// Filter is one predicate of a query.
type Filter struct {
	Column string
	Op     Op
	Value  any
}

// Eq builds an equality filter.
func Eq(column string, value any) Filter {
	return Filter{Column: column, Op: OpEq, Value: value}
}

// Neq builds an inequality filter.
func Neq(column string, value any) Filter {
	return Filter{Column: column, Op: OpNeq, Value: value}
}

// Gte builds a lower-bound filter.
func Gte(column string, value any) Filter {
	return Filter{Column: column, Op: OpGte, Value: value}
}

// Lte builds an inclusive upper-bound filter.
func Lte(column string, value any) Filter {
	return Filter{Column: column, Op: OpLte, Value: value}
}

// In builds a set-membership filter.
func In[T any](column string, values []T) Filter {
	anyValues := make([]any, len(values))
	for i, v := range values {
		anyValues[i] = v
	}
	return Filter{Column: column, Op: OpIn, Value: anyValues}
}

// Contains builds a case-insensitive substring filter.
func Contains(column, substring string) Filter {
	return Filter{Column: column, Op: OpContains, Value: substring}
}

// Order is one sort key of a query.
type Order struct {
	Column     string
	Descending bool
}

// Query is a declarative read request. The zero value selects every column
// of no table; use From to start a usable query.
type Query struct {
	Table   string
	Columns []string
	// Filters are combined with logical AND.
	Filters []Filter
	// AnyOf is a single disjunctive group, OR-ed internally and AND-ed
	// with Filters. Used for keyword matching across title/description.
	AnyOf []Filter
	Orders []Order
	Limit  int
}

// From starts a query against the given table.
func From(table string) Query {
	return Query{Table: table}
}

// Select restricts the returned columns. Defaults to all columns.
func (q Query) Select(columns ...string) Query {
	q.Columns = columns
	return q
}

// Where appends AND-combined filters.
func (q Query) Where(filters ...Filter) Query {
	q.Filters = append(q.Filters, filters...)
	return q
}

// WhereAny appends a disjunctive group; a row matches if any filter in the
// group matches.
func (q Query) WhereAny(filters ...Filter) Query {
	q.AnyOf = append(q.AnyOf, filters...)
	return q
}

// OrderBy appends a sort key.
func (q Query) OrderBy(column string, descending bool) Query {
	q.Orders = append(q.Orders, Order{Column: column, Descending: descending})
	return q
}

// Take bounds the number of returned rows.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

// String renders a compact description for logs.
func (q Query) String() string {
	return fmt.Sprintf("%s filters=%d any=%d orders=%d limit=%d",
		q.Table, len(q.Filters), len(q.AnyOf), len(q.Orders), q.Limit)
}
