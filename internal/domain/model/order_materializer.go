package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart            = errors.New("cart empty")
	ErrInvalidPaymentMethod = errors.New("invalid payment_method")
)

type MaterializeInput struct {
	UserID         int64
	Shipping       ShippingInfo
	PaymentMethod  PaymentMethod
	Notes          string
	IdempotencyKey *string
	Policy         DeliveryPolicy
	Now            time.Time
}

// MaterializeOrder はカートから注文と明細のスナップショットを作る。
// カート自体は変更しない（クリアは呼び出し側）。入力の検証は済んでいる前提。
func MaterializeOrder(cart *Cart, in MaterializeInput) (Order, []OrderLine, error) {
	if cart == nil || cart.IsEmpty() {
		return Order{}, nil, ErrEmptyCart
	}
	if !in.PaymentMethod.Valid() {
		return Order{}, nil, ErrInvalidPaymentMethod
	}

	lines := make([]OrderLine, 0, len(cart.Lines))
	subtotal := decimal.Zero
	for _, cl := range cart.Lines {
		//名前と単価はこの時点の値をコピー
		ol := OrderLine{
			ProductID:      cl.ProductID,
			ProductName:    cl.Name,
			Quantity:       cl.Quantity,
			WeightKg:       cl.WeightKg,
			UnitPricePerKg: cl.UnitPricePerKg,
			CreatedAt:      in.Now,
		}
		lines = append(lines, ol)
		subtotal = subtotal.Add(ol.Amount())
	}

	//合計は丸めた小計と送料の和（Subtotal + DeliveryFee = Total を崩さない）
	sub := subtotal.Round(2)
	fee := in.Policy.FeeFor(subtotal).Round(2)
	order := Order{
		UserID:             in.UserID,
		Subtotal:           sub,
		DeliveryFee:        fee,
		Total:              sub.Add(fee),
		Status:             OrderStatusPending,
		PaymentStatus:      OrderPaymentPending,
		PaymentMethod:      in.PaymentMethod,
		ShippingName:       in.Shipping.Name,
		ShippingEmail:      in.Shipping.Email,
		ShippingPhone:      in.Shipping.Phone,
		ShippingAddress:    in.Shipping.SocietyName,
		ShippingFlatNumber: in.Shipping.FlatNumber,
		Notes:              in.Notes,
		IdempotencyKey:     in.IdempotencyKey,
		CreatedAt:          in.Now,
		UpdatedAt:          in.Now,
	}
	return order, lines, nil
}
