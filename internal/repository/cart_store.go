package repository

import (
	"context"

	"haritsattva/internal/domain/model"
)

// セッションカートの置き場所（Redis / メモリ）
type CartStore interface {
	//無ければ空のカートを返す
	Load(ctx context.Context, sessionID string) (*model.Cart, error)
	Save(ctx context.Context, sessionID string, cart *model.Cart) error
	Delete(ctx context.Context, sessionID string) error
}
