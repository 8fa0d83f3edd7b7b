package repository

import (
	"context"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type analyticsGormRepository struct {
	db *gorm.DB
}

func NewAnalyticsGormRepository(db *gorm.DB) repo.AnalyticsRepository {
	return &analyticsGormRepository{db: db}
}

// 期間絞り込み（orders.created_at）
func (r *analyticsGormRepository) orders(ctx context.Context, rg repo.AnalyticsRange) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&model.Order{})
	if rg.From != nil {
		q = q.Where("orders.created_at >= ?", *rg.From)
	}
	if rg.To != nil {
		q = q.Where("orders.created_at <= ?", *rg.To)
	}
	return q
}

func (r *analyticsGormRepository) CountOrders(ctx context.Context, rg repo.AnalyticsRange) (int64, error) {
	var n int64
	if err := r.orders(ctx, rg).Count(&n).Error; err != nil {
		return 0, translateError(err)
	}
	return n, nil
}

func (r *analyticsGormRepository) PaidRevenue(ctx context.Context, rg repo.AnalyticsRange) (decimal.Decimal, int64, error) {
	var row struct {
		Revenue decimal.NullDecimal
		Count   int64
	}
	err := r.orders(ctx, rg).
		Select("SUM(orders.total) AS revenue, COUNT(*) AS count").
		Where("orders.payment_status = ?", model.OrderPaymentPaid).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, 0, translateError(err)
	}
	if !row.Revenue.Valid {
		return decimal.Zero, row.Count, nil
	}
	return row.Revenue.Decimal, row.Count, nil
}

func (r *analyticsGormRepository) CountByStatus(ctx context.Context, rg repo.AnalyticsRange) ([]repo.StatusCount, error) {
	var rows []repo.StatusCount
	err := r.orders(ctx, rg).
		Select("orders.status AS status, COUNT(*) AS count").
		Group("orders.status").
		Order("orders.status").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}

// 注文明細のスナップショットから集計（キャンセルは除く）
func (r *analyticsGormRepository) TopProducts(ctx context.Context, rg repo.AnalyticsRange, limit int) ([]repo.ProductSales, error) {
	if limit <= 0 || limit > 50 {
		limit = 5
	}

	var rows []repo.ProductSales
	err := r.orders(ctx, rg).
		Select(`order_lines.product_id AS product_id,
			MAX(order_lines.product_name) AS product_name,
			SUM(order_lines.quantity) AS quantity,
			SUM(order_lines.unit_price_per_kg * order_lines.weight_kg * order_lines.quantity) AS revenue`).
		Joins("JOIN order_lines ON order_lines.order_id = orders.id").
		Where("orders.status <> ?", model.OrderStatusCancelled).
		Group("order_lines.product_id").
		Order("quantity desc").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}
	return rows, nil
}
