package query

import (
	"net/url"
	"testing"
	"time"

	"product-catalog/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAndBuild(t *testing.T) {
	values := url.Values{
		"category": {"Audio"},
		"brand":    {"AudioPro"},
		"inStock":  {"true"},
		"minPrice": {"10"},
		"maxPrice": {"50.5"},
		"sortBy":   {"price"},
		"order":    {"desc"},
	}

	pred, order := Build(Parse(values))

	where, args := pred.SQL(1)
	assert.Equal(t, "WHERE category = $1 AND brand = $2 AND in_stock = $3 AND price >= $4 AND price <= $5", where)
	assert.Equal(t, []interface{}{"Audio", "AudioPro", true, 10.0, 50.5}, args)
	assert.Equal(t, "ORDER BY price DESC", order.SQL())
}

func TestInStockOnlyLiteralTrue(t *testing.T) {
	q := Parse(url.Values{"inStock": {"1"}})
	require.NotNil(t, q.InStock)
	assert.False(t, *q.InStock)

	q = Parse(url.Values{"inStock": {"true"}})
	require.NotNil(t, q.InStock)
	assert.True(t, *q.InStock)

	q = Parse(url.Values{})
	assert.Nil(t, q.InStock)
}

func TestDefaultAndInvalidSort(t *testing.T) {
	_, order := Build(ProductQuery{})
	assert.Equal(t, "ORDER BY created_at DESC", order.SQL())

	_, order = Build(ProductQuery{SortBy: "sku; DROP TABLE products", Order: "asc"})
	assert.Equal(t, DefaultOrdering, order)

	_, order = Build(ProductQuery{SortBy: "rating"})
	assert.Equal(t, "ORDER BY rating ASC", order.SQL())
}

func TestUnparsablePriceIgnored(t *testing.T) {
	pred, _ := Build(Parse(url.Values{"minPrice": {"abc"}, "maxPrice": {""}}))
	where, args := pred.SQL(1)
	assert.Empty(t, where)
	assert.Empty(t, args)
}

func TestNonFinitePriceIgnored(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Infinity", "+inf"} {
		q := Parse(url.Values{"minPrice": {raw}, "maxPrice": {raw}})
		assert.Nil(t, q.MinPrice, raw)
		assert.Nil(t, q.MaxPrice, raw)
	}

	q := Parse(url.Values{"minPrice": {"NaN"}, "maxPrice": {"99.5"}})
	pred, _ := Build(q)
	where, args := pred.SQL(1)
	assert.Equal(t, "WHERE price <= $1", where)
	assert.Equal(t, []interface{}{99.5}, args)
}

func TestValuesRoundTrip(t *testing.T) {
	lo, hi, inStock := 10.0, 50.0, true
	q := ProductQuery{Category: "Audio", InStock: &inStock, MinPrice: &lo, MaxPrice: &hi, SortBy: "name", Order: "desc"}
	assert.Equal(t, q, Parse(q.Values()))
}

func product(name string, price string, rating float64, created time.Time) models.Product {
	return models.Product{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Rating:    &rating,
		CreatedAt: created,
	}
}

func TestFilterPriceRangeAndSort(t *testing.T) {
	now := time.Now()
	products := []models.Product{
		product("a", "5.00", 4.1, now),
		product("b", "10.00", 3.2, now.Add(time.Minute)),
		product("c", "49.99", 4.9, now.Add(2*time.Minute)),
		product("d", "50.00", 1.0, now.Add(3*time.Minute)),
		product("e", "50.01", 2.0, now.Add(4*time.Minute)),
	}

	lo, hi := 10.0, 50.0
	pred, order := Build(ProductQuery{MinPrice: &lo, MaxPrice: &hi, SortBy: "price", Order: "desc"})
	got := Filter(products, pred, order)

	require.Len(t, got, 3)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Price.GreaterThan(got[i-1].Price), "prices must be non-increasing")
	}
	assert.Equal(t, "d", got[0].Name)
	assert.Equal(t, "b", got[2].Name)

	_, order = Build(ProductQuery{})
	got = Filter(products, nil, order)
	assert.Equal(t, "e", got[0].Name)
	assert.Equal(t, "a", got[4].Name)
}
