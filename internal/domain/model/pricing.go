package model

import "github.com/shopspring/decimal"

// 配送料のルール。カート表示と注文確定で同じものを使う
type DeliveryPolicy struct {
	Fee decimal.Decimal
	// 0なら送料無料なし
	FreeAbove decimal.Decimal
}

func (p DeliveryPolicy) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if !subtotal.IsPositive() {
		return decimal.Zero
	}
	if p.FreeAbove.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeAbove) {
		return decimal.Zero
	}
	return p.Fee
}

// 支払総額。小計と配送料をそれぞれ2桁に丸めてから足す
func (p DeliveryPolicy) Payable(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Round(2).Add(p.FeeFor(subtotal).Round(2))
}
