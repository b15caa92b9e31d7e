package store

import (
	"context"
	"os"
	"testing"

	"product-catalog/internal/models"
	"product-catalog/internal/query"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// openTestStore connects to TEST_DATABASE_URL; integration tests are skipped
// without it.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires database")
	}

	store, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))
	_, err = store.GetDB().ExecContext(ctx, "TRUNCATE products, variants, catalog_events RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return store
}

func newProduct(sku string, price string) *models.Product {
	rating, reviews := 4.5, 10
	return &models.Product{
		Name:     "Headphones " + sku,
		Price:    decimal.RequireFromString(price),
		InStock:  true,
		Category: "Audio",
		Rating:   &rating,
		Reviews:  &reviews,
		Brand:    "AudioPro",
		SKU:      sku,
		Variants: []models.Variant{
			{Name: "Black", Available: true, Stock: 5},
			{Name: "White", Available: false, Stock: 3},
		},
	}
}

func TestCreateAndGetProduct(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	product := newProduct("APH-001", "299.99")
	require.NoError(t, store.CreateProduct(ctx, product))
	assert.NotZero(t, product.ID)
	for _, v := range product.Variants {
		assert.NotZero(t, v.ID)
		assert.Equal(t, product.ID, v.ProductID)
	}

	got, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, product.SKU, got.SKU)
	assert.True(t, product.Price.Equal(got.Price))
	assert.Equal(t, product.Variants, got.Variants)
}

func TestDuplicateSKUConstraint(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.CreateProduct(ctx, newProduct("DUP-1", "10.00")))
	err := store.CreateProduct(ctx, newProduct("DUP-1", "12.00"))
	assert.ErrorIs(t, err, ErrDuplicateSKU)

	n, err := store.CountProducts(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestDeleteCascadesVariants(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	product := newProduct("DEL-1", "10.00")
	require.NoError(t, store.CreateProduct(ctx, product))
	require.NoError(t, store.DeleteProduct(ctx, product.ID))

	var orphans int
	require.NoError(t, store.GetDB().GetContext(ctx, &orphans,
		"SELECT COUNT(*) FROM variants WHERE product_id = $1", product.ID))
	assert.Zero(t, orphans)

	assert.ErrorIs(t, store.DeleteProduct(ctx, product.ID), ErrNotFound)
}

func TestUpdateReplacesVariants(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	product := newProduct("UPD-1", "10.00")
	require.NoError(t, store.CreateProduct(ctx, product))

	product.Variants = []models.Variant{{Name: "Red", Available: true, Stock: 1}}
	require.NoError(t, store.UpdateProduct(ctx, product, true))

	got, err := store.GetProductByID(ctx, product.ID)
	require.NoError(t, err)
	require.Len(t, got.Variants, 1)
	assert.Equal(t, "Red", got.Variants[0].Name)
}

func TestListProductsFilter(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	for sku, price := range map[string]string{"P-5": "5.00", "P-10": "10.00", "P-30": "30.00", "P-50": "50.00", "P-60": "60.00"} {
		require.NoError(t, store.CreateProduct(ctx, newProduct(sku, price)))
	}

	lo, hi := 10.0, 50.0
	pred, order := query.Build(query.ProductQuery{MinPrice: &lo, MaxPrice: &hi, SortBy: "price", Order: "desc"})
	products, err := store.ListProducts(ctx, pred, order)
	require.NoError(t, err)

	require.Len(t, products, 3)
	assert.Equal(t, "P-50", products[0].SKU)
	assert.Equal(t, "P-10", products[2].SKU)
	assert.Len(t, products[0].Variants, 2)

	categories, err := store.ListCategories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.CategoryCount{{Name: "Audio", Count: 5}}, categories)
}

func TestSKUExistsExcludesSelf(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	product := newProduct("SELF-1", "10.00")
	require.NoError(t, store.CreateProduct(ctx, product))

	exists, err := store.SKUExists(ctx, "SELF-1", product.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	exists, err = store.SKUExists(ctx, "SELF-1", 0)
	require.NoError(t, err)
	assert.True(t, exists)
}
