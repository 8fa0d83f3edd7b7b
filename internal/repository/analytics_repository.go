package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type AnalyticsRange struct {
	From *time.Time
	To   *time.Time
}

type StatusCount struct {
	Status string
	Count  int64
}

type ProductSales struct {
	ProductID   int64
	ProductName string
	Quantity    int64
	Revenue     decimal.Decimal
}

// 集計クエリの約束
type AnalyticsRepository interface {
	CountOrders(ctx context.Context, r AnalyticsRange) (int64, error)
	//支払済み注文の売上合計と件数
	PaidRevenue(ctx context.Context, r AnalyticsRange) (decimal.Decimal, int64, error)
	CountByStatus(ctx context.Context, r AnalyticsRange) ([]StatusCount, error)
	TopProducts(ctx context.Context, r AnalyticsRange, limit int) ([]ProductSales, error)
}
