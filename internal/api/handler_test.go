package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"product-catalog/internal/imagestore"
	"product-catalog/internal/models"
	"product-catalog/internal/query"
	"product-catalog/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProducts struct {
	lastQuery query.ProductQuery
	lastInput *models.ProductInput
	err       error
	panicOn   string
}

func (f *fakeProducts) List(_ context.Context, q query.ProductQuery) ([]models.Product, error) {
	f.lastQuery = q
	if f.err != nil {
		return nil, f.err
	}
	return []models.Product{
		{ID: 1, Name: "Portable SSD 1TB", Price: decimal.RequireFromString("179.99"), Variants: []models.Variant{}},
		{ID: 2, Name: "USB-C Hub 7-in-1", Price: decimal.RequireFromString("59.99"), Variants: []models.Variant{}},
	}, nil
}

func (f *fakeProducts) Get(_ context.Context, id int64) (*models.Product, error) {
	if f.panicOn == "get" {
		panic("boom")
	}
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return &models.Product{ID: 1, Name: "Portable SSD 1TB", Price: decimal.RequireFromString("179.99")}, nil
}

func (f *fakeProducts) Create(_ context.Context, in *models.ProductInput) (*models.Product, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Product{ID: 7, Name: *in.Name, Price: *in.Price}, nil
}

func (f *fakeProducts) Update(_ context.Context, id int64, in *models.ProductInput) (*models.Product, error) {
	f.lastInput = in
	if f.err != nil {
		return nil, f.err
	}
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return &models.Product{ID: id, Name: "Updated"}, nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) (*models.DeletedProduct, error) {
	if id != 1 {
		return nil, service.ErrNotFound
	}
	return &models.DeletedProduct{ID: 1, Name: "Portable SSD 1TB", DeletedAt: time.Now()}, nil
}

func (f *fakeProducts) ListCategories(_ context.Context) ([]models.CategoryCount, error) {
	return []models.CategoryCount{{Name: "Accessories", Count: 4}, {Name: "Audio", Count: 1}}, nil
}

type fakeUploader struct {
	max      int64
	received []byte
	err      error
}

func (f *fakeUploader) Upload(_ context.Context, filename, contentType string, size int64, r io.Reader) (*imagestore.Image, error) {
	if !strings.HasPrefix(contentType, "image/") {
		return nil, imagestore.ErrNotImage
	}
	if f.err != nil {
		return nil, f.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.received = data
	return &imagestore.Image{URL: "https://cdn.example.test/products/" + filename, PublicID: "products/" + filename}, nil
}

func (f *fakeUploader) MaxBytes() int64 { return f.max }

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func newRouter(products *fakeProducts, uploader ImageUploader, db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewHandler(products, uploader, db).SetupRoutes(router)
	return router
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestListProducts(t *testing.T) {
	products := &fakeProducts{}
	router := newRouter(products, nil, nil)

	w := do(router, http.MethodGet, "/api/products?category=Audio&inStock=true&minPrice=10&sortBy=price&order=desc", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["total"])
	data := body["data"].([]interface{})
	first := data[0].(map[string]interface{})
	assert.Equal(t, 179.99, first["price"])

	assert.Equal(t, "Audio", products.lastQuery.Category)
	require.NotNil(t, products.lastQuery.InStock)
	assert.True(t, *products.lastQuery.InStock)
	require.NotNil(t, products.lastQuery.MinPrice)
	assert.Equal(t, 10.0, *products.lastQuery.MinPrice)
	assert.Equal(t, "desc", products.lastQuery.Order)
}

func TestListProductsFailure(t *testing.T) {
	router := newRouter(&fakeProducts{err: errors.New("connection refused")}, nil, nil)

	w := do(router, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	body := decode(t, w)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to fetch products", body["message"])
	assert.Equal(t, "connection refused", body["error"])
}

func TestGetProductStatusCodes(t *testing.T) {
	router := newRouter(&fakeProducts{}, nil, nil)

	w := do(router, http.MethodGet, "/api/products/1", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodGet, "/api/products/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Product not found", decode(t, w)["message"])

	w = do(router, http.MethodGet, "/api/products/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Invalid product ID", decode(t, w)["message"])
}

func TestCategoriesRouteIsNotAnID(t *testing.T) {
	router := newRouter(&fakeProducts{}, nil, nil)

	w := do(router, http.MethodGet, "/api/products/categories", "")
	require.Equal(t, http.StatusOK, w.Code)

	data := decode(t, w)["data"].([]interface{})
	assert.Len(t, data, 2)
	assert.Equal(t, "Accessories", data[0].(map[string]interface{})["name"])
}

func TestCreateProduct(t *testing.T) {
	products := &fakeProducts{}
	router := newRouter(products, nil, nil)

	w := do(router, http.MethodPost, "/api/products", `{"name":"Laptop Stand","price":49.99,"category":"Accessories","sku":"ED-LS-001","brand":"ErgoDesk","variants":[{"name":"Wood","stock":28}]}`)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Product created successfully", body["message"])
	assert.Equal(t, float64(7), body["data"].(map[string]interface{})["id"])

	require.Len(t, products.lastInput.Variants, 1)
	assert.Nil(t, products.lastInput.Variants[0].Available)
	assert.Equal(t, 28, *products.lastInput.Variants[0].Stock)
	assert.Nil(t, products.lastInput.Rating)
}

func TestCreateProductValidationError(t *testing.T) {
	router := newRouter(&fakeProducts{err: &service.ValidationError{Field: "sku", Message: "Product with this SKU already exists"}}, nil, nil)

	w := do(router, http.MethodPost, "/api/products", `{"name":"x","price":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Product with this SKU already exists", decode(t, w)["message"])
}

func TestCreateProductMalformedBody(t *testing.T) {
	router := newRouter(&fakeProducts{}, nil, nil)

	w := do(router, http.MethodPost, "/api/products", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])
}

func TestUpdateProductKeepsVariantsAbsent(t *testing.T) {
	products := &fakeProducts{}
	router := newRouter(products, nil, nil)

	w := do(router, http.MethodPut, "/api/products/1", `{"price":249.99}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Product updated successfully", decode(t, w)["message"])
	assert.Nil(t, products.lastInput.Variants)

	w = do(router, http.MethodPut, "/api/products/1", `{"variants":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotNil(t, products.lastInput.Variants)
	assert.Empty(t, products.lastInput.Variants)

	w = do(router, http.MethodPut, "/api/products/2", `{"name":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteProduct(t *testing.T) {
	router := newRouter(&fakeProducts{}, nil, nil)

	w := do(router, http.MethodDelete, "/api/products/1", "")
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "Product deleted successfully", body["message"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Portable SSD 1TB", data["name"])
	assert.NotEmpty(t, data["deletedAt"])

	w = do(router, http.MethodDelete, "/api/products/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNoRouteAndRecovery(t *testing.T) {
	router := newRouter(&fakeProducts{panicOn: "get"}, nil, nil)

	w := do(router, http.MethodGet, "/api/nothing-here", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", decode(t, w)["error"])

	w = do(router, http.MethodGet, "/api/products/1", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "boom", decode(t, w)["error"])
}

func TestCORSPreflight(t *testing.T) {
	router := newRouter(&fakeProducts{}, nil, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/products", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), http.MethodPut)
}

func TestReadiness(t *testing.T) {
	w := do(newRouter(&fakeProducts{}, nil, fakePinger{}), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(newRouter(&fakeProducts{}, nil, fakePinger{err: errors.New("db down")}), http.MethodGet, "/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(newRouter(&fakeProducts{}, nil, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func multipartImage(t *testing.T, field, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &buf, mw.FormDataContentType()
}

func upload(router http.Handler, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/upload/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestUploadImage(t *testing.T) {
	uploader := &fakeUploader{max: imagestore.DefaultMaxBytes}
	router := newRouter(&fakeProducts{}, uploader, nil)

	body, ct := multipartImage(t, "image", "ssd.png", "image/png", []byte("png-bytes"))
	w := upload(router, body, ct)
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode(t, w)
	assert.Equal(t, true, resp["success"])
	assert.Equal(t, "products/ssd.png", resp["publicId"])
	assert.Equal(t, "https://cdn.example.test/products/ssd.png", resp["url"])
	assert.Equal(t, []byte("png-bytes"), uploader.received)
}

func TestUploadRejections(t *testing.T) {
	router := newRouter(&fakeProducts{}, &fakeUploader{max: imagestore.DefaultMaxBytes}, nil)

	body, ct := multipartImage(t, "file", "ssd.png", "image/png", []byte("png"))
	w := upload(router, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "No image file provided", resp["message"])
	assert.Equal(t, "No image file provided", resp["error"])

	body, ct = multipartImage(t, "image", "notes.txt", "text/plain", []byte("hello"))
	w = upload(router, body, ct)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	resp = decode(t, w)
	assert.Equal(t, imagestore.ErrNotImage.Error(), resp["message"])
	assert.Equal(t, imagestore.ErrNotImage.Error(), resp["error"])
}

func TestUploadStoreFailure(t *testing.T) {
	uploader := &fakeUploader{max: imagestore.DefaultMaxBytes, err: errors.New("bucket unreachable")}
	router := newRouter(&fakeProducts{}, uploader, nil)

	body, ct := multipartImage(t, "image", "ssd.png", "image/png", []byte("png"))
	w := upload(router, body, ct)
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	resp := decode(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Failed to upload image", resp["error"])
	assert.Equal(t, "bucket unreachable", resp["message"])
}

func TestUploadWithoutStorage(t *testing.T) {
	router := newRouter(&fakeProducts{}, nil, nil)

	body, ct := multipartImage(t, "image", "ssd.png", "image/png", []byte("png"))
	w := upload(router, body, ct)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	resp := decode(t, w)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Image storage is not configured", resp["message"])
}
