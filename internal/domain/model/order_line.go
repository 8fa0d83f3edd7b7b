package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 注文明細。商品名と単価は注文時点のコピーで、後から商品マスタを見に行かない
type OrderLine struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID        int64           `gorm:"not null;index" json:"order_id"`
	ProductID      int64           `gorm:"not null;index" json:"product_id"`
	ProductName    string          `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity       int64           `gorm:"not null" json:"quantity"`
	WeightKg       decimal.Decimal `gorm:"type:numeric(6,3);not null" json:"weight_kg"`
	UnitPricePerKg decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"unit_price_per_kg"`
	CreatedAt      time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (l OrderLine) Amount() decimal.Decimal {
	return l.UnitPricePerKg.Mul(l.WeightKg).Mul(decimal.NewFromInt(l.Quantity))
}
