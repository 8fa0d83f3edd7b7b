package repository

import (
	"context"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"gorm.io/gorm"
)

type PaymentGormRepository struct {
	db *gorm.DB
}

func NewPaymentGormRepository(db *gorm.DB) *PaymentGormRepository {
	return &PaymentGormRepository{db: db}
}

func (r *PaymentGormRepository) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Payment{}, translateError(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) FindByID(ctx context.Context, id int64) (model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Payment{}, translateError(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) FindByGatewayOrderID(ctx context.Context, gatewayOrderID string) (model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).
		Where("gateway_order_id = ?", gatewayOrderID).
		First(&p).Error; err != nil {
		return model.Payment{}, translateError(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) FindLatestByOrderID(ctx context.Context, orderID int64) (model.Payment, error) {
	var p model.Payment
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("id desc").
		First(&p).Error; err != nil {
		return model.Payment{}, translateError(err)
	}
	return p, nil
}

func (r *PaymentGormRepository) Update(ctx context.Context, p model.Payment) error {
	res := r.db.WithContext(ctx).Model(&model.Payment{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"gateway_payment_id": p.GatewayPaymentID,
		"gateway_signature":  p.GatewaySignature,
		"status":             p.Status,
		"payment_method":     p.PaymentMethod,
		"payment_details":    p.PaymentDetails,
	})
	if res.Error != nil {
		return translateError(res.Error)
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
