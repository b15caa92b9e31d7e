// Package storefront applies the product page's stock rules on top of the cart.
package storefront

import (
	"context"
	"errors"
	"fmt"

	"product-catalog/internal/cart"
	"product-catalog/internal/models"
	"product-catalog/internal/stock"
)

// ErrOutOfStock is returned when a product cannot be sold at all.
var ErrOutOfStock = errors.New("Product is out of stock")

// StockLimitError is returned when the requested quantity exceeds what is
// available.
type StockLimitError struct {
	Available int
}

func (e *StockLimitError) Error() string {
	return fmt.Sprintf("Only %d items available in stock", e.Available)
}

// AddToCart adds one unit of p when it is in stock.
func AddToCart(ctx context.Context, c *cart.Cart, p *models.Product) error {
	if !stock.InStock(p) || stock.Available(p) == 0 {
		return ErrOutOfStock
	}
	return c.AddToCart(ctx, p)
}

// Increase adds one unit of p, bounded by its available stock.
func Increase(ctx context.Context, c *cart.Cart, p *models.Product) error {
	if !stock.InStock(p) {
		return ErrOutOfStock
	}

	current := c.Quantity(p.ID)
	if available := stock.Available(p); current >= available {
		if available == 0 {
			return ErrOutOfStock
		}
		return &StockLimitError{Available: available}
	}

	if current == 0 {
		return c.AddToCart(ctx, p)
	}
	return c.UpdateQuantity(ctx, p.ID, current+1)
}

// Decrease removes one unit of p. The line goes away at the last unit.
func Decrease(ctx context.Context, c *cart.Cart, productID int64) error {
	current := c.Quantity(productID)
	if current > 1 {
		return c.UpdateQuantity(ctx, productID, current-1)
	}
	return c.RemoveFromCart(ctx, productID)
}

// SetQuantity sets a line's quantity, checked against the stock recorded on
// the line. Less than one removes it.
func SetQuantity(ctx context.Context, c *cart.Cart, productID int64, quantity int) error {
	if quantity < 1 {
		return c.RemoveFromCart(ctx, productID)
	}

	line, ok := c.Line(productID)
	if !ok {
		return fmt.Errorf("product %d is not in the cart", productID)
	}
	if quantity > line.Stock {
		return &StockLimitError{Available: line.Stock}
	}
	return c.UpdateQuantity(ctx, productID, quantity)
}
