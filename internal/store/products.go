package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"product-catalog/internal/models"
	"product-catalog/internal/query"

	"github.com/jmoiron/sqlx"
)

const productColumns = `id, name, description, price, image, in_stock, category,
	rating, reviews, brand, sku, created_at, updated_at`

// ListProducts returns the products matching pred in the given order, with
// their variants attached.
func (s *Store) ListProducts(ctx context.Context, pred query.Predicate, order query.Ordering) ([]models.Product, error) {
	where, args := pred.SQL(1)
	q := fmt.Sprintf("SELECT %s FROM products %s %s", productColumns, where, order.SQL())

	products := []models.Product{}
	if err := s.db.SelectContext(ctx, &products, q, args...); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	if err := s.attachVariants(ctx, products); err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductByID retrieves a product and its variants
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product,
		fmt.Sprintf("SELECT %s FROM products WHERE id = $1", productColumns), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	variants, err := s.GetVariantsByProductID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Variants = variants
	return &product, nil
}

// GetVariantsByProductID retrieves the variants of one product
func (s *Store) GetVariantsByProductID(ctx context.Context, productID int64) ([]models.Variant, error) {
	variants := []models.Variant{}
	err := s.db.SelectContext(ctx, &variants,
		"SELECT id, product_id, name, available, stock FROM variants WHERE product_id = $1 ORDER BY id", productID)
	return variants, err
}

// attachVariants loads the variants of all products in one query
func (s *Store) attachVariants(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}

	ids := make([]int64, len(products))
	for i := range products {
		ids[i] = products[i].ID
		products[i].Variants = []models.Variant{}
	}

	q, args, err := sqlx.In("SELECT id, product_id, name, available, stock FROM variants WHERE product_id IN (?) ORDER BY id", ids)
	if err != nil {
		return err
	}
	q = s.db.Rebind(q)

	var variants []models.Variant
	if err := s.db.SelectContext(ctx, &variants, q, args...); err != nil {
		return fmt.Errorf("failed to load variants: %w", err)
	}

	index := make(map[int64]int, len(products))
	for i := range products {
		index[products[i].ID] = i
	}
	for _, v := range variants {
		if i, ok := index[v.ProductID]; ok {
			products[i].Variants = append(products[i].Variants, v)
		}
	}
	return nil
}

// SKUExists reports whether another product already uses sku. excludeID is
// ignored when zero.
func (s *Store) SKUExists(ctx context.Context, sku string, excludeID int64) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM products WHERE sku = $1 AND id <> $2)", sku, excludeID)
	return exists, err
}

// CreateProduct inserts a product and its variants in one transaction
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `
		INSERT INTO products (name, description, price, image, in_stock, category, rating, reviews, brand, sku)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`

	err = tx.QueryRowxContext(ctx, q,
		product.Name, product.Description, product.Price, product.Image, product.InStock,
		product.Category, product.Rating, product.Reviews, product.Brand, product.SKU,
	).Scan(&product.ID, &product.CreatedAt, &product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return fmt.Errorf("failed to insert product: %w", err)
	}

	if err := insertVariants(ctx, tx, product); err != nil {
		return err
	}

	return tx.Commit()
}

// UpdateProduct writes every product column. When replaceVariants is set the
// existing variants are deleted and product.Variants inserted in their place.
func (s *Store) UpdateProduct(ctx context.Context, product *models.Product, replaceVariants bool) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	q := `
		UPDATE products SET
			name = $1, description = $2, price = $3, image = $4, in_stock = $5,
			category = $6, rating = $7, reviews = $8, brand = $9, sku = $10,
			updated_at = NOW()
		WHERE id = $11
		RETURNING updated_at`

	err = tx.QueryRowxContext(ctx, q,
		product.Name, product.Description, product.Price, product.Image, product.InStock,
		product.Category, product.Rating, product.Reviews, product.Brand, product.SKU,
		product.ID,
	).Scan(&product.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateSKU
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	if replaceVariants {
		if _, err := tx.ExecContext(ctx, "DELETE FROM variants WHERE product_id = $1", product.ID); err != nil {
			return fmt.Errorf("failed to delete variants: %w", err)
		}
		if err := insertVariants(ctx, tx, product); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func insertVariants(ctx context.Context, tx *sqlx.Tx, product *models.Product) error {
	for i := range product.Variants {
		v := &product.Variants[i]
		v.ProductID = product.ID
		err := tx.GetContext(ctx, &v.ID,
			"INSERT INTO variants (product_id, name, available, stock) VALUES ($1, $2, $3, $4) RETURNING id",
			v.ProductID, v.Name, v.Available, v.Stock)
		if err != nil {
			return fmt.Errorf("failed to insert variant %q: %w", v.Name, err)
		}
	}
	return nil
}

// DeleteProduct removes a product together with its variants
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM variants WHERE product_id = $1", id); err != nil {
		return fmt.Errorf("failed to delete variants: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// ListCategories returns every category with the number of products in it
func (s *Store) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	categories := []models.CategoryCount{}
	err := s.db.SelectContext(ctx, &categories,
		"SELECT category AS name, COUNT(*) AS count FROM products GROUP BY category ORDER BY category")
	return categories, err
}

// CountProducts returns the number of stored products
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, "SELECT COUNT(*) FROM products")
	return n, err
}
