package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentStatusCreated    PaymentStatus = "created"
	PaymentStatusAuthorized PaymentStatus = "authorized"
	PaymentStatusCaptured   PaymentStatus = "captured"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusRefunded   PaymentStatus = "refunded"
)

// 決済ゲートウェイとのやり取り1件分
type Payment struct {
	ID               int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderID          int64           `gorm:"not null;index" json:"order_id"`
	GatewayOrderID   string          `gorm:"type:varchar(100);not null;uniqueIndex" json:"gateway_order_id"`
	GatewayPaymentID string          `gorm:"type:varchar(100);index" json:"gateway_payment_id"`
	GatewaySignature string          `gorm:"type:varchar(255)" json:"-"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency         string          `gorm:"type:varchar(3);not null" json:"currency"`
	Status           PaymentStatus   `gorm:"type:varchar(20);not null;index" json:"status"`
	PaymentMethod    string          `gorm:"type:varchar(50)" json:"payment_method"`
	//ゲートウェイから来た生JSON
	PaymentDetails string    `gorm:"type:text" json:"-"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// created -> authorized -> captured、created/authorized -> failed、captured -> refunded
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusCreated:    {PaymentStatusAuthorized, PaymentStatusCaptured, PaymentStatusFailed},
	PaymentStatusAuthorized: {PaymentStatusCaptured, PaymentStatusFailed},
	PaymentStatusCaptured:   {PaymentStatusRefunded},
}

func CanTransition(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// 決済の状態を注文側のpayment_statusに写す。変えない場合はfalse
func OrderPaymentStatusFor(s PaymentStatus) (OrderPaymentStatus, bool) {
	switch s {
	case PaymentStatusCaptured:
		return OrderPaymentPaid, true
	case PaymentStatusFailed:
		return OrderPaymentFailed, true
	case PaymentStatusRefunded:
		return OrderPaymentRefunded, true
	}
	return "", false
}
