package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// RedisCartStore はセッションカートをJSONでRedisに置く。
// 保存するたびにTTLを延ばす（触られないカートは消える）。
type RedisCartStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartStore(client *redis.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{client: client, ttl: ttl}
}

var _ repo.CartStore = (*RedisCartStore)(nil)

func (s *RedisCartStore) Load(ctx context.Context, sessionID string) (*model.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.NewCart(), nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "redis get cart")
	}

	cart := model.NewCart()
	if err := json.Unmarshal(data, cart); err != nil {
		return nil, errors.Wrap(err, "unmarshal cart")
	}
	if cart.Lines == nil {
		cart.Lines = []model.CartLine{}
	}
	return cart, nil
}

func (s *RedisCartStore) Save(ctx context.Context, sessionID string, cart *model.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return errors.Wrap(err, "marshal cart")
	}
	if err := s.client.Set(ctx, cartKey(sessionID), data, s.ttl).Err(); err != nil {
		return errors.Wrap(err, "redis set cart")
	}
	return nil
}

func (s *RedisCartStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, cartKey(sessionID)).Err(); err != nil {
		return errors.Wrap(err, "redis delete cart")
	}
	return nil
}

func cartKey(sessionID string) string {
	return fmt.Sprintf("cart:%s", sessionID)
}
