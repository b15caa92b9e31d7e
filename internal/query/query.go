// Package query turns the flat query parameters of the product listing into a
// predicate and an ordering that the store can render as SQL.
package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
)

// Sortable fields
const (
	SortByPrice  = "price"
	SortByRating = "rating"
	SortByName   = "name"
)

// Sort directions
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// sortColumns whitelists the sortBy values; anything else falls back to newest first.
var sortColumns = map[string]string{
	SortByPrice:  "price",
	SortByRating: "rating",
	SortByName:   "name",
}

// ProductQuery is the parsed form of GET /products parameters. Nil or empty
// fields were not supplied.
type ProductQuery struct {
	Category string
	Brand    string
	InStock  *bool
	MinPrice *float64
	MaxPrice *float64
	SortBy   string
	Order    string
}

// Parse reads a ProductQuery from URL query values. It never fails: values
// that cannot be parsed are dropped.
func Parse(values url.Values) ProductQuery {
	q := ProductQuery{
		Category: values.Get("category"),
		Brand:    values.Get("brand"),
		SortBy:   values.Get("sortBy"),
		Order:    strings.ToLower(values.Get("order")),
	}

	if values.Has("inStock") {
		inStock := values.Get("inStock") == "true"
		q.InStock = &inStock
	}

	q.MinPrice = parseFloat(values.Get("minPrice"))
	q.MaxPrice = parseFloat(values.Get("maxPrice"))

	return q
}

// Values is the inverse of Parse, used by the HTTP client.
func (q ProductQuery) Values() url.Values {
	values := url.Values{}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if q.Brand != "" {
		values.Set("brand", q.Brand)
	}
	if q.InStock != nil {
		values.Set("inStock", strconv.FormatBool(*q.InStock))
	}
	if q.MinPrice != nil {
		values.Set("minPrice", strconv.FormatFloat(*q.MinPrice, 'f', -1, 64))
	}
	if q.MaxPrice != nil {
		values.Set("maxPrice", strconv.FormatFloat(*q.MaxPrice, 'f', -1, 64))
	}
	if q.SortBy != "" {
		values.Set("sortBy", q.SortBy)
	}
	if q.Order != "" {
		values.Set("order", q.Order)
	}
	return values
}

func parseFloat(raw string) *float64 {
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Operators used by conditions
const (
	OpEq  = "="
	OpGte = ">="
	OpLte = "<="
)

// Condition is a single column comparison
type Condition struct {
	Column string
	Op     string
	Value  interface{}
}

// Predicate is a conjunction of conditions
type Predicate []Condition

// Ordering is a single-key sort directive
type Ordering struct {
	Column string
	Desc   bool
}

// DefaultOrdering lists newest products first.
var DefaultOrdering = Ordering{Column: "created_at", Desc: true}

// Build translates the query into a predicate and an ordering.
func Build(q ProductQuery) (Predicate, Ordering) {
	var pred Predicate

	if q.Category != "" {
		pred = append(pred, Condition{Column: "category", Op: OpEq, Value: q.Category})
	}
	if q.Brand != "" {
		pred = append(pred, Condition{Column: "brand", Op: OpEq, Value: q.Brand})
	}
	if q.InStock != nil {
		pred = append(pred, Condition{Column: "in_stock", Op: OpEq, Value: *q.InStock})
	}
	if q.MinPrice != nil {
		pred = append(pred, Condition{Column: "price", Op: OpGte, Value: *q.MinPrice})
	}
	if q.MaxPrice != nil {
		pred = append(pred, Condition{Column: "price", Op: OpLte, Value: *q.MaxPrice})
	}

	return pred, buildOrdering(q.SortBy, q.Order)
}

func buildOrdering(sortBy, order string) Ordering {
	column, ok := sortColumns[sortBy]
	if !ok {
		return DefaultOrdering
	}
	return Ordering{Column: column, Desc: order == OrderDesc}
}

// SQL renders the predicate as a WHERE clause using $n placeholders starting
// at startArg. An empty predicate renders as an empty string.
func (p Predicate) SQL(startArg int) (string, []interface{}) {
	if len(p) == 0 {
		return "", nil
	}

	parts := make([]string, 0, len(p))
	args := make([]interface{}, 0, len(p))
	for i, c := range p {
		parts = append(parts, fmt.Sprintf("%s %s $%d", c.Column, c.Op, startArg+i))
		args = append(args, c.Value)
	}

	return "WHERE " + strings.Join(parts, " AND "), args
}

// SQL renders the ordering as an ORDER BY clause.
func (o Ordering) SQL() string {
	dir := "ASC"
	if o.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf("ORDER BY %s %s", o.Column, dir)
}
