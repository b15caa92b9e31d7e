package store

import (
	"context"
	"fmt"

	"product-catalog/internal/models"

	"github.com/shopspring/decimal"
)

type seedProduct struct {
	name, description, price, image string
	inStock                          bool
	category                         string
	rating                           float64
	reviews                          int
	brand, sku                       string
	variants                         []models.Variant
}

func v(name string, available bool, stock int) models.Variant {
	return models.Variant{Name: name, Available: available, Stock: stock}
}

var seedProducts = []seedProduct{
	{"Premium Wireless Headphones", "High-quality wireless headphones with active noise cancellation and 30-hour battery life",
		"299.99", "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=500&h=500&fit=crop",
		true, "Audio", 4.8, 1243, "AudioPro", "APH-001",
		[]models.Variant{v("Black", true, 15), v("White", true, 8), v("Silver", true, 12)}},
	{"Smart Watch Series 5", "Advanced fitness tracking with heart rate monitor, GPS, and health monitoring",
		"399.99", "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=500&h=500&fit=crop",
		true, "Wearables", 4.6, 892, "TechWatch", "TW-SW5-001",
		[]models.Variant{v("42mm", true, 20), v("46mm", true, 15)}},
	{"Mechanical Keyboard RGB", "Premium mechanical keyboard with customizable RGB lighting and hot-swappable switches",
		"149.99", "https://images.unsplash.com/photo-1587829741301-dc798b83add3?w=500&h=500&fit=crop",
		false, "Accessories", 4.9, 567, "KeyMaster", "KM-RGB-001",
		[]models.Variant{v("Brown Switch", false, 0), v("Blue Switch", false, 0), v("Red Switch", false, 0)}},
	{"Ultra HD Webcam 4K", "Professional 4K webcam with auto-focus, low-light correction, and dual microphones",
		"129.99", "https://images.unsplash.com/photo-1589003077984-894e133dabab?w=500&h=500&fit=crop",
		true, "Cameras", 4.7, 423, "WebCamPro", "WCP-4K-001",
		[]models.Variant{v("1080p", true, 25), v("4K", true, 18)}},
	{"Portable SSD 1TB", "Fast and reliable external storage with USB-C, read speeds up to 1050MB/s",
		"179.99", "https://images.unsplash.com/photo-1531492746076-161ca9bcad58?w=500&h=500&fit=crop",
		true, "Storage", 4.9, 1876, "StoragePlus", "SP-SSD-1TB",
		[]models.Variant{v("512GB", true, 30), v("1TB", true, 22), v("2TB", true, 10)}},
	{"Wireless Gaming Mouse", "High-precision gaming mouse with 16000 DPI, RGB lighting, and programmable buttons",
		"89.99", "https://images.unsplash.com/photo-1527814050087-3793815479db?w=500&h=500&fit=crop",
		true, "Accessories", 4.8, 923, "GameGear", "GG-WM-001",
		[]models.Variant{v("Black", true, 40), v("White", true, 35)}},
	{"USB-C Hub 7-in-1", "Versatile USB-C hub with HDMI, USB 3.0, SD card reader, and power delivery",
		"59.99", "https://images.unsplash.com/photo-1625948515291-69613efd103f?w=500&h=500&fit=crop",
		false, "Accessories", 4.5, 312, "HubMaster", "HM-7IN1-001",
		[]models.Variant{v("Space Gray", false, 0), v("Silver", false, 0)}},
	{"Laptop Stand Adjustable", "Ergonomic adjustable laptop stand for better posture with cooling ventilation",
		"49.99", "https://images.unsplash.com/photo-1527864550417-7fd91fc51a46?w=500&h=500&fit=crop",
		true, "Accessories", 4.6, 654, "ErgoDesk", "ED-LS-001",
		[]models.Variant{v("Aluminum", true, 50), v("Wood", true, 28)}},
}

// Seed fills an empty catalog with demo products. It returns the number of
// products inserted, zero when the catalog already has data.
func (s *Store) Seed(ctx context.Context) (int, error) {
	n, err := s.CountProducts(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	for _, sp := range seedProducts {
		rating, reviews := sp.rating, sp.reviews
		product := &models.Product{
			Name:        sp.name,
			Description: sp.description,
			Price:       decimal.RequireFromString(sp.price),
			Image:       sp.image,
			InStock:     sp.inStock,
			Category:    sp.category,
			Rating:      &rating,
			Reviews:     &reviews,
			Brand:       sp.brand,
			SKU:         sp.sku,
			Variants:    append([]models.Variant(nil), sp.variants...),
		}
		if err := s.CreateProduct(ctx, product); err != nil {
			return 0, fmt.Errorf("failed to seed %s: %w", sp.sku, err)
		}
	}

	return len(seedProducts), nil
}
