package stock

import (
	"testing"

	"product-catalog/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestAvailableSkipsUnavailableVariants(t *testing.T) {
	p := &models.Product{Variants: []models.Variant{
		{Name: "Black", Available: true, Stock: 5},
		{Name: "White", Available: false, Stock: 3},
	}}

	assert.Equal(t, 5, Available(p))
	assert.True(t, InStock(p))
	assert.True(t, CanIncrease(p, 4))
	assert.False(t, CanIncrease(p, 5))
	assert.Equal(t, 2, Remaining(p, 3))
}

func TestAvailableWithoutVariants(t *testing.T) {
	assert.Equal(t, 0, Available(&models.Product{}))
	assert.False(t, InStock(&models.Product{}))

	legacy := 4
	assert.Equal(t, 4, Available(&models.Product{Stock: &legacy}))
	assert.Equal(t, 0, Available(nil))
}

func TestInStockFlagWithoutStock(t *testing.T) {
	p := &models.Product{InStock: true, Variants: []models.Variant{{Name: "Brown", Available: false}}}

	assert.True(t, InStock(p))
	assert.Equal(t, 0, Available(p))
	assert.False(t, CanIncrease(p, 0))
	assert.Equal(t, 0, Remaining(p, 2))
}
