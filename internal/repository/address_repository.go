package repository

import (
	"context"

	"haritsattva/internal/domain/model"
)

// 保存済み配送先の窓口
type AddressRepository interface {
	//作成後はIDなどが埋まったものを返す
	Create(ctx context.Context, address model.Address) (model.Address, error)

	//デフォルトが先頭
	ListByUserID(ctx context.Context, userID int64) ([]model.Address, error)

	FindByID(ctx context.Context, addressID int64) (model.Address, error)

	Update(ctx context.Context, address model.Address) error

	Delete(ctx context.Context, addressID int64) error

	//ユーザー内でデフォルトは1つだけ
	SetDefault(ctx context.Context, userID, addressID int64) error
}
