package service

import (
	"errors"
	"reflect"
	"strings"
	"sync"

	"product-catalog/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// MaxPrice is the largest price the price column can hold.
var MaxPrice = decimal.RequireFromString("9999999999.99")

// CreateProductInput is the create view of models.ProductInput. Fields are
// declared in the order they are checked; the first failure wins.
type CreateProductInput struct {
	Name        *string               `json:"name" binding:"required,notblank"`
	Price       *decimal.Decimal      `json:"price" binding:"required,positive,cents,maxprice"`
	Category    *string               `json:"category" binding:"required,notblank"`
	SKU         *string               `json:"sku" binding:"required,notblank"`
	Brand       *string               `json:"brand" binding:"required,notblank"`
	Rating      *float64              `json:"rating" binding:"omitempty,gte=0,lte=5"`
	Reviews     *int                  `json:"reviews" binding:"omitempty,gte=0"`
	Description *string               `json:"description"`
	Image       *string               `json:"image"`
	InStock     *bool                 `json:"inStock"`
	Variants    []models.VariantInput `json:"variants" binding:"omitempty,dive"`
}

// UpdateProductInput is the partial-update view of models.ProductInput.
// Absent fields are skipped; present ones must not be blank.
type UpdateProductInput struct {
	Name        *string               `json:"name" binding:"omitempty,notblank"`
	Price       *decimal.Decimal      `json:"price" binding:"omitempty,positive,cents,maxprice"`
	Category    *string               `json:"category" binding:"omitempty,notblank"`
	SKU         *string               `json:"sku" binding:"omitempty,notblank"`
	Brand       *string               `json:"brand" binding:"omitempty,notblank"`
	Rating      *float64              `json:"rating" binding:"omitempty,gte=0,lte=5"`
	Reviews     *int                  `json:"reviews" binding:"omitempty,gte=0"`
	Description *string               `json:"description"`
	Image       *string               `json:"image"`
	InStock     *bool                 `json:"inStock"`
	Variants    []models.VariantInput `json:"variants" binding:"omitempty,dive"`
}

// Messages keyed by field, or field.tag when one field fails in more than
// one way.
var (
	createMessages = map[string]string{
		"name":     "Product name is required",
		"price":    "Valid price is required (must be greater than 0)",
		"category": "Category is required",
		"sku":      "SKU is required",
		"brand":    "Brand is required",
	}
	updateMessages = map[string]string{
		"name":     "Product name cannot be empty",
		"price":    "Price must be greater than 0",
		"category": "Category cannot be empty",
		"sku":      "SKU cannot be empty",
		"brand":    "Brand cannot be empty",
	}
	commonMessages = map[string]string{
		"price.cents":    "Price cannot have more than 2 decimal places",
		"price.maxprice": "Price cannot exceed 9999999999.99",
		"rating":         "Rating must be between 0 and 5",
		"reviews":        "Reviews count cannot be negative",
		"variants.name":  "Variant name is required",
		"variants.stock": "Variant stock cannot be negative",
	}
)

var registerOnce sync.Once

// registerValidations adds the catalog rules to gin's validator.
func registerValidations() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// Prices are validated through their string form.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	_ = v.RegisterValidation("positive", priceRule(func(d decimal.Decimal) bool {
		return d.IsPositive()
	}))
	_ = v.RegisterValidation("cents", priceRule(func(d decimal.Decimal) bool {
		return d.Equal(d.Round(2))
	}))
	_ = v.RegisterValidation("maxprice", priceRule(func(d decimal.Decimal) bool {
		return d.LessThanOrEqual(MaxPrice)
	}))
}

func priceRule(ok func(decimal.Decimal) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		d, err := decimal.NewFromString(fl.Field().String())
		return err == nil && ok(d)
	}
}

// validateCreate checks a new product.
func validateCreate(in *models.ProductInput) error {
	return validate((*CreateProductInput)(in), createMessages)
}

// validateUpdate checks only the fields present in a partial update.
func validateUpdate(in *models.ProductInput) error {
	return validate((*UpdateProductInput)(in), updateMessages)
}

func validate(obj interface{}, messages map[string]string) error {
	registerOnce.Do(registerValidations)

	err := binding.Validator.ValidateStruct(obj)
	if err == nil {
		return nil
	}

	var errs validator.ValidationErrors
	if !errors.As(err, &errs) || len(errs) == 0 {
		return err
	}
	return fieldError(errs[0], messages)
}

// fieldError maps a validator failure to the API message for that field.
func fieldError(fe validator.FieldError, messages map[string]string) *ValidationError {
	field := fe.Field()
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		ns = ns[i+1:]
	}
	if strings.HasPrefix(ns, "variants[") {
		field = "variants." + fe.Field()
	}

	for _, key := range []string{field + "." + fe.Tag(), field} {
		if msg, ok := messages[key]; ok {
			return invalid(fieldName(field), msg)
		}
		if msg, ok := commonMessages[key]; ok {
			return invalid(fieldName(field), msg)
		}
	}
	return invalid(fieldName(field), fe.Error())
}

func fieldName(field string) string {
	if strings.HasPrefix(field, "variants.") {
		return "variants"
	}
	return field
}

// apply copies the supplied fields of in onto product. Variants are replaced
// when in.Variants is non-nil; it reports whether that happened.
func apply(product *models.Product, in *models.ProductInput) bool {
	if in.Name != nil {
		product.Name = *in.Name
	}
	if in.Description != nil {
		product.Description = *in.Description
	}
	if in.Price != nil {
		product.Price = *in.Price
	}
	if in.Image != nil {
		product.Image = *in.Image
	}
	if in.InStock != nil {
		product.InStock = *in.InStock
	}
	if in.Category != nil {
		product.Category = *in.Category
	}
	if in.Rating != nil {
		product.Rating = in.Rating
	}
	if in.Reviews != nil {
		product.Reviews = in.Reviews
	}
	if in.Brand != nil {
		product.Brand = *in.Brand
	}
	if in.SKU != nil {
		product.SKU = *in.SKU
	}

	if in.Variants == nil {
		return false
	}
	product.Variants = make([]models.Variant, 0, len(in.Variants))
	for _, v := range in.Variants {
		product.Variants = append(product.Variants, v.ToVariant(product.ID))
	}
	return true
}
