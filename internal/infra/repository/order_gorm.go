package repository

import (
	"context"
	"errors"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) orders(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.Order{})
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	if err := r.db.WithContext(ctx).Take(&o, orderID).Error; err != nil {
		return model.Order{}, translateError(err)
	}
	return o, nil
}

// マイページ用。新しい順
func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	return countAndFind[model.Order](r.orders(ctx).Where("user_id = ?", userID), page, limit)
}

// ヘッダだけ保存する。明細は OrderLineRepository 側
func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	order.Lines = nil
	if err := r.db.WithContext(ctx).Omit("Lines").Create(&order).Error; err != nil {
		return 0, translateError(err)
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	return r.setColumn(ctx, orderID, "status", string(status))
}

func (r *OrderGormRepository) UpdatePaymentStatus(ctx context.Context, orderID int64, status model.OrderPaymentStatus) error {
	return r.setColumn(ctx, orderID, "payment_status", string(status))
}

func (r *OrderGormRepository) setColumn(ctx context.Context, orderID int64, column, value string) error {
	return affected(r.orders(ctx).Where("id = ?", orderID).Update(column, value))
}

// 見つからないのはエラーではなく found=false
func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, userID int64, key string) (model.Order, bool, error) {
	var o model.Order
	err := translateError(r.db.WithContext(ctx).
		Where(&model.Order{UserID: userID, IdempotencyKey: &key}).
		Take(&o).Error)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return model.Order{}, false, nil
	case err != nil:
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.orders(ctx).Scopes(
		whereEq("status", f.Status),
		whereEq("payment_status", f.PaymentStatus),
		createdBetween(f.From, f.To),
	)
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	return countAndFind[model.Order](q, f.Page, f.Limit)
}
