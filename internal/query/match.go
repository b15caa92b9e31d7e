package query

import (
	"sort"

	"product-catalog/internal/models"

	"github.com/shopspring/decimal"
)

// Match evaluates the predicate against an already loaded product.
func (p Predicate) Match(product models.Product) bool {
	for _, c := range p {
		if !c.match(product) {
			return false
		}
	}
	return true
}

func (c Condition) match(product models.Product) bool {
	switch c.Column {
	case "category":
		return product.Category == c.Value
	case "brand":
		return product.Brand == c.Value
	case "in_stock":
		return product.InStock == c.Value
	case "price":
		bound, ok := c.Value.(float64)
		if !ok {
			return false
		}
		cmp := product.Price.Cmp(decimal.NewFromFloat(bound))
		switch c.Op {
		case OpGte:
			return cmp >= 0
		case OpLte:
			return cmp <= 0
		default:
			return cmp == 0
		}
	}
	return false
}

// Filter returns the products matching the predicate, sorted by the ordering.
// The input slice is left untouched.
func Filter(products []models.Product, pred Predicate, order Ordering) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if pred.Match(p) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return order.Less(out[i], out[j])
	})
	return out
}

// Less reports whether a sorts before b.
func (o Ordering) Less(a, b models.Product) bool {
	if o.Desc {
		a, b = b, a
	}
	switch o.Column {
	case "price":
		return a.Price.LessThan(b.Price)
	case "rating":
		return ratingOf(a) < ratingOf(b)
	case "name":
		return a.Name < b.Name
	default:
		return a.CreatedAt.Before(b.CreatedAt)
	}
}

func ratingOf(p models.Product) float64 {
	if p.Rating == nil {
		return 0
	}
	return *p.Rating
}
