package cache

import (
	"context"
	"encoding/json"
	"sync"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"github.com/pkg/errors"
)

// Redisが無い環境（ローカル・テスト）用
type MemoryCartStore struct {
	mu    sync.RWMutex
	carts map[string][]byte
}

func NewMemoryCartStore() *MemoryCartStore {
	return &MemoryCartStore{carts: make(map[string][]byte)}
}

var _ repo.CartStore = (*MemoryCartStore)(nil)

// 呼び出し側が書き換えても共有されないよう、JSONで持つ
func (s *MemoryCartStore) Load(ctx context.Context, sessionID string) (*model.Cart, error) {
	s.mu.RLock()
	data, ok := s.carts[sessionID]
	s.mu.RUnlock()

	cart := model.NewCart()
	if !ok {
		return cart, nil
	}
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart")
	}
	return cart, nil
}

func (s *MemoryCartStore) Save(ctx context.Context, sessionID string, cart *model.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	s.mu.Lock()
	s.carts[sessionID] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryCartStore) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.carts, sessionID)
	s.mu.Unlock()
	return nil
}
