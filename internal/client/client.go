// Package client talks to the catalog REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"product-catalog/internal/imagestore"
	"product-catalog/internal/models"
	"product-catalog/internal/query"
	"product-catalog/internal/util"

	"go.uber.org/zap"
)

// DefaultTimeout applies to every request when none is configured.
const DefaultTimeout = 10 * time.Second

// APIError is a non-2xx answer from the API
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return e.Message
}

// envelope is the body shape shared by all catalog responses
type envelope struct {
	Success  bool            `json:"success"`
	Message  string          `json:"message"`
	Error    string          `json:"error"`
	Data     json.RawMessage `json:"data"`
	Total    int             `json:"total"`
	URL      string          `json:"url"`
	PublicID string          `json:"publicId"`
}

// Client is an HTTP client for the catalog API
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// New creates a client for the API rooted at baseURL (".../api").
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  util.GetLogger(),
	}
}

// ListProducts fetches the products matching q
func (c *Client) ListProducts(ctx context.Context, q query.ProductQuery) ([]models.Product, error) {
	path := "/products"
	if v := q.Values(); len(v) > 0 {
		path += "?" + v.Encode()
	}

	var products []models.Product
	if err := c.do(ctx, http.MethodGet, path, nil, "", &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []models.Product{}
	}
	return products, nil
}

// GetProduct fetches one product
func (c *Client) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	if err := c.do(ctx, http.MethodGet, productPath(id), nil, "", &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListCategories fetches the category counts. Failures are logged and
// reported as an empty list.
func (c *Client) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	var categories []models.CategoryCount
	if err := c.do(ctx, http.MethodGet, "/products/categories", nil, "", &categories); err != nil {
		c.logger.Warn("Failed to get categories", zap.Error(err))
		return []models.CategoryCount{}, nil
	}
	if categories == nil {
		categories = []models.CategoryCount{}
	}
	return categories, nil
}

// CreateProduct creates a product
func (c *Client) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.doJSON(ctx, http.MethodPost, "/products", in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct applies a partial update
func (c *Client) UpdateProduct(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, error) {
	var product models.Product
	if err := c.doJSON(ctx, http.MethodPut, productPath(id), in, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// DeleteProduct deletes a product
func (c *Client) DeleteProduct(ctx context.Context, id int64) (*models.DeletedProduct, error) {
	var deleted models.DeletedProduct
	if err := c.do(ctx, http.MethodDelete, productPath(id), nil, "", &deleted); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// UploadImage sends r as the "image" form field and returns where it was stored.
func (c *Client) UploadImage(ctx context.Context, filename string, r io.Reader) (*imagestore.Image, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", filename, err)
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", contentType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, err
	}
	if _, err := part.Write(content); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	env, err := c.send(ctx, http.MethodPost, "/upload/upload", &body, mw.FormDataContentType())
	if err != nil {
		return nil, err
	}
	return &imagestore.Image{URL: env.URL, PublicID: env.PublicID}, nil
}

func productPath(id int64) string {
	return "/products/" + strconv.FormatInt(id, 10)
}

func (c *Client) doJSON(ctx context.Context, method, path string, in interface{}, out interface{}) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, bytes.NewReader(payload), "application/json", out)
}

// do sends a request and decodes the data member of the response into out.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	env, err := c.send(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, body io.Reader, contentType string) (*envelope, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("API request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	c.logger.Debug("API response",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if decodeErr == nil {
			apiErr.Message = env.Message
			if apiErr.Message == "" {
				apiErr.Message = env.Error
			}
		}
		return nil, apiErr
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode %s %s: %w", method, path, decodeErr)
	}
	return &env, nil
}
