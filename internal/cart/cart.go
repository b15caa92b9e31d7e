// Package cart keeps the shopper's cart and persists it after every change.
package cart

import (
	"context"
	"fmt"
	"sync"

	"product-catalog/internal/models"
	"product-catalog/internal/stock"
	"product-catalog/internal/util"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Line is one product in the cart. Product fields are copied when the line
// is created and not refreshed afterwards.
type Line struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Image    string          `json:"image"`
	Category string          `json:"category"`
	Stock    int             `json:"stock"`
	Quantity int             `json:"quantity"`
}

// Subtotal is price times quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Storage persists the cart lines
type Storage interface {
	Load(ctx context.Context) ([]Line, error)
	Save(ctx context.Context, lines []Line) error
}

// Cart is safe for concurrent use
type Cart struct {
	mu      sync.Mutex
	lines   []Line
	storage Storage
	logger  *zap.Logger
}

// Open restores the cart from storage
func Open(ctx context.Context, storage Storage) (*Cart, error) {
	lines, err := storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	return &Cart{
		lines:   lines,
		storage: storage,
		logger:  util.GetLogger(),
	}, nil
}

// AddToCart adds one unit of p, creating the line when needed.
func (c *Cart) AddToCart(ctx context.Context, p *models.Product) error {
	return c.mutate(ctx, func(lines []Line) []Line {
		for i := range lines {
			if lines[i].ID == p.ID {
				lines[i].Quantity++
				return lines
			}
		}
		return append(lines, Line{
			ID:       p.ID,
			Name:     p.Name,
			Price:    p.Price,
			Image:    p.Image,
			Category: p.Category,
			Stock:    stock.Available(p),
			Quantity: 1,
		})
	})
}

// RemoveFromCart drops the line for productID
func (c *Cart) RemoveFromCart(ctx context.Context, productID int64) error {
	return c.mutate(ctx, func(lines []Line) []Line {
		return removeLine(lines, productID)
	})
}

// UpdateQuantity overwrites a line's quantity. Zero or less removes the line.
// The stock ceiling is not enforced here.
func (c *Cart) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	return c.mutate(ctx, func(lines []Line) []Line {
		if quantity <= 0 {
			return removeLine(lines, productID)
		}
		for i := range lines {
			if lines[i].ID == productID {
				lines[i].Quantity = quantity
			}
		}
		return lines
	})
}

// ClearCart removes every line
func (c *Cart) ClearCart(ctx context.Context) error {
	return c.mutate(ctx, func([]Line) []Line {
		return []Line{}
	})
}

// Lines returns a copy of the cart lines in insertion order
func (c *Cart) Lines() []Line {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Line{}, c.lines...)
}

// Line returns the line for productID
func (c *Cart) Line(productID int64) (Line, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, l := range c.lines {
		if l.ID == productID {
			return l, true
		}
	}
	return Line{}, false
}

// Quantity returns how many units of productID are in the cart
func (c *Cart) Quantity(productID int64) int {
	l, _ := c.Line(productID)
	return l.Quantity
}

// Total is the sum of all line subtotals
func (c *Cart) Total() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount is the number of units across all lines
func (c *Cart) ItemCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, l := range c.lines {
		n += l.Quantity
	}
	return n
}

// mutate applies fn to a copy of the lines and saves the result. The cart
// keeps the new lines even when saving fails.
func (c *Cart) mutate(ctx context.Context, fn func([]Line) []Line) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lines = fn(append([]Line{}, c.lines...))

	if err := c.storage.Save(ctx, c.lines); err != nil {
		c.logger.Error("Failed to persist cart", zap.Error(err))
		return fmt.Errorf("failed to save cart: %w", err)
	}
	return nil
}

func removeLine(lines []Line, productID int64) []Line {
	out := lines[:0]
	for _, l := range lines {
		if l.ID != productID {
			out = append(out, l)
		}
	}
	return out
}
