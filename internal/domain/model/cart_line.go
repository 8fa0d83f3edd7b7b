package model

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// compositeIDの区切り文字
const compositeIDSeparator = "_"

// カートの1行（商品×内容量）
type CartLine struct {
	CompositeID    string          `json:"composite_id"`
	ProductID      int64           `json:"product_id"`
	Name           string          `json:"name"`
	UnitPricePerKg decimal.Decimal `json:"unit_price_per_kg"`
	ImageRef       string          `json:"image_ref"`
	WeightKg       decimal.Decimal `json:"weight_kg"`
	Quantity       int64           `json:"quantity"`
}

// 同じ商品・同じ重さなら必ず同じIDになる（0.50 -> 0.5）
func ComputeCompositeID(productID int64, weightKg decimal.Decimal) string {
	return strconv.FormatInt(productID, 10) + compositeIDSeparator + weightKg.String()
}

// 単価(kg) × 重さ × 数量。丸めは表示時のみ
func (l CartLine) Amount() decimal.Decimal {
	return l.UnitPricePerKg.Mul(l.WeightKg).Mul(decimal.NewFromInt(l.Quantity))
}
