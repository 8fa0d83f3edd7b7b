package repository

import (
	"context"

	"haritsattva/internal/domain/model"

	"gorm.io/gorm"
)

type OrderLineGormRepository struct {
	db *gorm.DB
}

func NewOrderLineGormRepository(db *gorm.DB) *OrderLineGormRepository {
	return &OrderLineGormRepository{db: db}
}

func (r *OrderLineGormRepository) CreateBulk(ctx context.Context, orderID int64, lines []model.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	rows := make([]model.OrderLine, len(lines))
	for i, l := range lines {
		l.ID = 0
		l.OrderID = orderID
		rows[i] = l
	}
	if err := r.db.WithContext(ctx).Create(&rows).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *OrderLineGormRepository) ListByOrderID(ctx context.Context, orderID int64) ([]model.OrderLine, error) {
	var lines []model.OrderLine
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id asc").
		Find(&lines).Error; err != nil {
		return []model.OrderLine{}, translateError(err)
	}
	return lines, nil
}

func (r *OrderLineGormRepository) ListByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]model.OrderLine, error) {
	out := make(map[int64][]model.OrderLine, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}

	var lines []model.OrderLine
	if err := r.db.WithContext(ctx).
		Where("order_id IN ?", orderIDs).
		Order("order_id desc, id asc").
		Find(&lines).Error; err != nil {
		return nil, translateError(err)
	}
	for _, l := range lines {
		out[l.OrderID] = append(out[l.OrderID], l)
	}
	return out, nil
}
