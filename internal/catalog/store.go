// Package catalog caches the product catalog on the client side and keeps it
// consistent with the mutations made through it.
package catalog

import (
	"context"
	"errors"
	"sync"

	"product-catalog/internal/client"
	"product-catalog/internal/models"
	"product-catalog/internal/query"
	"product-catalog/internal/util"

	"go.uber.org/zap"
)

// Repository is the remote catalog
type Repository interface {
	ListProducts(ctx context.Context, q query.ProductQuery) ([]models.Product, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.CategoryCount, error)
	CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) (*models.DeletedProduct, error)
}

// State is an immutable snapshot. Callers must not modify the slices.
type State struct {
	Products         []models.Product
	Categories       []models.CategoryCount
	Selected         *models.Product
	Loading          bool
	Err              string
	ProductsLoaded   bool
	CategoriesLoaded bool
}

// Store holds the client's view of the catalog
type Store struct {
	repo Repository

	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSub     int

	logger *zap.Logger
}

// NewStore creates an empty store backed by repo
func NewStore(repo Repository) *Store {
	return &Store{
		repo:        repo,
		state:       emptyState(),
		subscribers: map[int]func(State){},
		logger:      util.GetLogger(),
	}
}

func emptyState() State {
	return State{
		Products:   []models.Product{},
		Categories: []models.CategoryCount{},
	}
}

// State returns the current snapshot
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe calls fn with every new snapshot until the returned func is called.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSub
	s.nextSub++
	s.subscribers[id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subscribers, id)
	}
}

// update derives a new snapshot from the current one and notifies
// subscribers outside the lock.
func (s *Store) update(fn func(State) State) {
	s.mu.Lock()
	s.state = fn(s.state)
	next := s.state
	subs := make([]func(State), 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.mu.Unlock()

	for _, sub := range subs {
		sub(next)
	}
}

func (s *Store) begin() {
	s.update(func(st State) State {
		st.Loading = true
		st.Err = ""
		return st
	})
}

func (s *Store) failed(err error, fallback string) string {
	msg := errorMessage(err, fallback)
	s.logger.Warn(fallback, zap.Error(err))
	s.update(func(st State) State {
		st.Loading = false
		st.Err = msg
		return st
	})
	return msg
}

// Error is returned by failed mutations. Message is the text stored in
// State.Err.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Err }

// errorMessage prefers the message sent by the API.
func errorMessage(err error, fallback string) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// FetchProducts loads the product list. A loaded, non-empty list is kept
// unless force is set. Failures are recorded in the state only.
func (s *Store) FetchProducts(ctx context.Context, force bool) {
	if st := s.State(); st.ProductsLoaded && len(st.Products) > 0 && !force {
		s.logger.Debug("Using cached products")
		return
	}

	s.begin()
	products, err := s.repo.ListProducts(ctx, query.ProductQuery{})
	if err != nil {
		msg := s.failed(err, "Failed to fetch products")
		s.update(func(st State) State {
			st.Products = []models.Product{}
			st.Err = msg
			return st
		})
		return
	}

	s.update(func(st State) State {
		st.Products = products
		st.ProductsLoaded = true
		st.Loading = false
		return st
	})
}

// FetchCategories loads the category counts with the same caching rule as
// FetchProducts.
func (s *Store) FetchCategories(ctx context.Context, force bool) {
	if st := s.State(); st.CategoriesLoaded && len(st.Categories) > 0 && !force {
		s.logger.Debug("Using cached categories")
		return
	}

	s.begin()
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		msg := s.failed(err, "Failed to fetch categories")
		s.update(func(st State) State {
			st.Categories = []models.CategoryCount{}
			st.Err = msg
			return st
		})
		return
	}

	s.update(func(st State) State {
		st.Categories = categories
		st.CategoriesLoaded = true
		st.Loading = false
		return st
	})
}

// FetchProduct selects a product, served from the loaded list when present.
func (s *Store) FetchProduct(ctx context.Context, id int64) (*models.Product, error) {
	if cached := findProduct(s.State().Products, id); cached != nil {
		s.update(func(st State) State {
			st.Selected = cached
			st.Loading = false
			st.Err = ""
			return st
		})
		return cached, nil
	}

	s.begin()
	product, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		s.failed(err, "Failed to fetch product")
		return nil, err
	}

	s.update(func(st State) State {
		st.Selected = product
		st.Loading = false
		return st
	})
	return product, nil
}

// CreateProduct creates a product and puts it first in the list
func (s *Store) CreateProduct(ctx context.Context, in *models.ProductInput) (*models.Product, error) {
	s.begin()
	product, err := s.repo.CreateProduct(ctx, in)
	if err != nil {
		return nil, &Error{Message: s.failed(err, "Failed to create product"), Err: err}
	}

	s.update(func(st State) State {
		products := make([]models.Product, 0, len(st.Products)+1)
		products = append(products, *product)
		st.Products = append(products, st.Products...)
		st.ProductsLoaded = true
		st.Loading = false
		return st
	})
	return product, nil
}

// UpdateProduct updates a product and replaces it in the list and selection
func (s *Store) UpdateProduct(ctx context.Context, id int64, in *models.ProductInput) (*models.Product, error) {
	s.begin()
	product, err := s.repo.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, &Error{Message: s.failed(err, "Failed to update product"), Err: err}
	}

	s.update(func(st State) State {
		products := make([]models.Product, len(st.Products))
		for i, p := range st.Products {
			if p.ID == id {
				p = *product
			}
			products[i] = p
		}
		st.Products = products
		if st.Selected != nil && st.Selected.ID == id {
			st.Selected = product
		}
		st.Loading = false
		return st
	})
	return product, nil
}

// DeleteProduct deletes a product and drops it from the list and selection
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	s.begin()
	if _, err := s.repo.DeleteProduct(ctx, id); err != nil {
		return &Error{Message: s.failed(err, "Failed to delete product"), Err: err}
	}

	s.update(func(st State) State {
		products := make([]models.Product, 0, len(st.Products))
		for _, p := range st.Products {
			if p.ID != id {
				products = append(products, p)
			}
		}
		st.Products = products
		if st.Selected != nil && st.Selected.ID == id {
			st.Selected = nil
		}
		st.Loading = false
		return st
	})
	return nil
}

// Filter applies q to the loaded products locally, without a repository call.
func (s *Store) Filter(q query.ProductQuery) []models.Product {
	pred, order := query.Build(q)
	return query.Filter(s.State().Products, pred, order)
}

// RefreshProducts reloads the product list
func (s *Store) RefreshProducts(ctx context.Context) {
	s.FetchProducts(ctx, true)
}

// RefreshCategories reloads the categories
func (s *Store) RefreshCategories(ctx context.Context) {
	s.FetchCategories(ctx, true)
}

// ClearSelectedProduct drops the selection together with any error
func (s *Store) ClearSelectedProduct() {
	s.update(func(st State) State {
		st.Selected = nil
		st.Err = ""
		return st
	})
}

// ClearError drops the last error
func (s *Store) ClearError() {
	s.update(func(st State) State {
		st.Err = ""
		return st
	})
}

// Reset returns the store to its initial state
func (s *Store) Reset() {
	s.update(func(State) State {
		return emptyState()
	})
}

func findProduct(products []models.Product, id int64) *models.Product {
	for i := range products {
		if products[i].ID == id {
			p := products[i]
			return &p
		}
	}
	return nil
}
