package storefront

import (
	"context"
	"errors"
	"testing"

	"product-catalog/internal/cart"
	"product-catalog/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	lines []cart.Line
}

func (m *memStorage) Load(context.Context) ([]cart.Line, error) { return m.lines, nil }

func (m *memStorage) Save(_ context.Context, lines []cart.Line) error {
	m.lines = append([]cart.Line{}, lines...)
	return nil
}

func newCart(t *testing.T) *cart.Cart {
	t.Helper()
	c, err := cart.Open(context.Background(), &memStorage{})
	require.NoError(t, err)
	return c
}

func product(inStock bool, variants ...models.Variant) *models.Product {
	return &models.Product{
		ID:       7,
		Name:     "Mechanical Keyboard RGB",
		Price:    decimal.RequireFromString("149.99"),
		InStock:  inStock,
		Variants: variants,
	}
}

func TestAddToCartRejectsOutOfStock(t *testing.T) {
	c := newCart(t)
	p := product(true, models.Variant{Available: false, Stock: 4})

	err := AddToCart(context.Background(), c, p)
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.Empty(t, c.Lines())
}

func TestIncreaseStopsAtAvailable(t *testing.T) {
	c := newCart(t)
	ctx := context.Background()
	p := product(true, models.Variant{Available: true, Stock: 2}, models.Variant{Available: false, Stock: 3})

	require.NoError(t, Increase(ctx, c, p))
	require.NoError(t, Increase(ctx, c, p))
	assert.Equal(t, 2, c.Quantity(p.ID))

	err := Increase(ctx, c, p)
	var limit *StockLimitError
	require.True(t, errors.As(err, &limit))
	assert.Equal(t, 2, limit.Available)
	assert.Equal(t, "Only 2 items available in stock", err.Error())
	assert.Equal(t, 2, c.Quantity(p.ID))
}

func TestIncreaseNotInStock(t *testing.T) {
	c := newCart(t)
	err := Increase(context.Background(), c, product(false))
	assert.ErrorIs(t, err, ErrOutOfStock)
}

func TestDecreaseRemovesLastUnit(t *testing.T) {
	c := newCart(t)
	ctx := context.Background()
	p := product(true, models.Variant{Available: true, Stock: 5})

	require.NoError(t, Increase(ctx, c, p))
	require.NoError(t, Increase(ctx, c, p))

	require.NoError(t, Decrease(ctx, c, p.ID))
	assert.Equal(t, 1, c.Quantity(p.ID))

	require.NoError(t, Decrease(ctx, c, p.ID))
	_, ok := c.Line(p.ID)
	assert.False(t, ok)
}

func TestSetQuantity(t *testing.T) {
	c := newCart(t)
	ctx := context.Background()
	p := product(true, models.Variant{Available: true, Stock: 3})
	require.NoError(t, AddToCart(ctx, c, p))

	require.NoError(t, SetQuantity(ctx, c, p.ID, 3))
	assert.Equal(t, 3, c.Quantity(p.ID))

	err := SetQuantity(ctx, c, p.ID, 4)
	assert.EqualError(t, err, "Only 3 items available in stock")
	assert.Equal(t, 3, c.Quantity(p.ID))

	require.NoError(t, SetQuantity(ctx, c, p.ID, 0))
	assert.Empty(t, c.Lines())

	assert.Error(t, SetQuantity(ctx, c, 99, 1))
}
