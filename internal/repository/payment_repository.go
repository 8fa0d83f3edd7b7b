package repository

import (
	"context"

	"haritsattva/internal/domain/model"
)

type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	FindByID(ctx context.Context, id int64) (model.Payment, error)
	FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Payment, error)
	//注文に紐づく最新の決済
	FindLatestByOrderID(ctx context.Context, orderID int64) (model.Payment, error)
	Update(ctx context.Context, p model.Payment) error
}
