// Package stock derives availability from a product's variants.
package stock

import "product-catalog/internal/models"

// Available sums the stock of variants that are not flagged unavailable.
// Products without variants fall back to their scalar stock field.
func Available(p *models.Product) int {
	if p == nil {
		return 0
	}
	if len(p.Variants) == 0 {
		if p.Stock == nil || *p.Stock < 0 {
			return 0
		}
		return *p.Stock
	}

	total := 0
	for _, v := range p.Variants {
		if v.Available && v.Stock > 0 {
			total += v.Stock
		}
	}
	return total
}

// InStock reports whether the product can be sold. The merchandising flag
// alone is enough, even when no variant has stock.
func InStock(p *models.Product) bool {
	if p == nil {
		return false
	}
	return p.InStock || Available(p) > 0
}

// CanIncrease reports whether one more unit fits next to current units
// already in the cart.
func CanIncrease(p *models.Product, current int) bool {
	return InStock(p) && current < Available(p)
}

// Remaining is the number of units that can still be added.
func Remaining(p *models.Product, current int) int {
	if n := Available(p) - current; n > 0 {
		return n
	}
	return 0
}
