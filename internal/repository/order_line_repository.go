package repository

import (
	"context"

	"haritsattva/internal/domain/model"
)

type OrderLineRepository interface {
	CreateBulk(ctx context.Context, orderID int64, lines []model.OrderLine) error
	ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error)
	//一覧画面用にまとめて取る
	ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderLine, error)
}
