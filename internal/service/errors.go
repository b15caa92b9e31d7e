package service

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrNotFound is returned when the requested product does not exist
	ErrNotFound = errors.New("Product not found")

	// ErrInvalidID is returned for ids that are not integers
	ErrInvalidID = errors.New("Invalid product ID")
)

// ValidationError rejects a product payload. Message is safe to show to
// API clients.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

var errDuplicateSKU = invalid("sku", "Product with this SKU already exists")

// ParseID parses a product id taken from a URL path.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, ErrInvalidID
	}
	return id, nil
}
