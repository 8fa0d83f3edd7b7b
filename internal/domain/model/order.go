package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type OrderPaymentStatus string

const (
	OrderPaymentPending  OrderPaymentStatus = "pending_payment"
	OrderPaymentPaid     OrderPaymentStatus = "paid"
	OrderPaymentFailed   OrderPaymentStatus = "failed"
	OrderPaymentRefunded OrderPaymentStatus = "refunded"
)

type PaymentMethod string

const (
	PaymentMethodCOD    PaymentMethod = "cod"
	PaymentMethodOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodOnline
}

// 作成後に変わるのは status と payment_status だけ
type Order struct {
	ID                 int64              `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID             int64              `gorm:"not null;index;uniqueIndex:idx_orders_user_idem,priority:1" json:"user_id"`
	Subtotal           decimal.Decimal    `gorm:"type:numeric(12,2);not null" json:"subtotal"`
	DeliveryFee        decimal.Decimal    `gorm:"type:numeric(12,2);not null" json:"delivery_fee"`
	Total              decimal.Decimal    `gorm:"type:numeric(12,2);not null" json:"total"`
	Status             OrderStatus        `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentStatus      OrderPaymentStatus `gorm:"type:varchar(20);not null;index" json:"payment_status"`
	PaymentMethod      PaymentMethod      `gorm:"type:varchar(20);not null" json:"payment_method"`
	ShippingName       string             `gorm:"type:varchar(255);not null" json:"shipping_name"`
	ShippingEmail      string             `gorm:"type:varchar(255);not null" json:"shipping_email"`
	ShippingPhone      string             `gorm:"type:varchar(30);not null" json:"shipping_phone"`
	ShippingAddress    string             `gorm:"type:varchar(255);not null" json:"shipping_address"`
	ShippingFlatNumber string             `gorm:"type:varchar(50);not null" json:"shipping_flat_number"`
	Notes              string             `gorm:"type:text" json:"notes"`
	//同じキーなら同じ注文を返す（NULLは重複可）
	IdempotencyKey *string     `gorm:"type:varchar(255);uniqueIndex:idx_orders_user_idem,priority:2" json:"-"`
	Lines          []OrderLine `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt      time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// 注文ステータスの遷移表。delivered / cancelled は終端
var orderStatusTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:   {OrderStatusConfirmed, OrderStatusCancelled},
	OrderStatusConfirmed: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:   {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCancelled
}

func CanTransitionOrderStatus(from, to OrderStatus) bool {
	for _, next := range orderStatusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s OrderPaymentStatus) Valid() bool {
	switch s {
	case OrderPaymentPending, OrderPaymentPaid, OrderPaymentFailed, OrderPaymentRefunded:
		return true
	}
	return false
}
