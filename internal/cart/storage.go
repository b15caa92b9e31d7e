package cart

import (
	"context"
	"errors"

	"product-catalog/internal/redisclient"
)

// DefaultKey is where the cart is persisted
const DefaultKey = "cart-storage"

// persisted mirrors the layout browsers wrote for the same key, so carts
// survive a switch between clients.
type persisted struct {
	State struct {
		Cart []Line `json:"cart"`
	} `json:"state"`
	Version int `json:"version"`
}

// RedisStorage keeps the cart as one JSON document in Redis
type RedisStorage struct {
	client *redisclient.Client
	key    string
}

// NewRedisStorage stores the cart under key, DefaultKey when empty
func NewRedisStorage(client *redisclient.Client, key string) *RedisStorage {
	if key == "" {
		key = DefaultKey
	}
	return &RedisStorage{client: client, key: key}
}

func (s *RedisStorage) Load(ctx context.Context) ([]Line, error) {
	var doc persisted
	err := s.client.GetJSON(ctx, s.key, &doc)
	if errors.Is(err, redisclient.ErrMiss) {
		return []Line{}, nil
	}
	if err != nil {
		return nil, err
	}
	if doc.State.Cart == nil {
		return []Line{}, nil
	}
	return doc.State.Cart, nil
}

func (s *RedisStorage) Save(ctx context.Context, lines []Line) error {
	var doc persisted
	doc.State.Cart = lines
	return s.client.SetJSON(ctx, s.key, doc, 0)
}
