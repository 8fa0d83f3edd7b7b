package model

// 外部に流すイベントの種類
const (
	EventOrderPlaced     = "order.placed"
	EventOrderCancelled  = "order.cancelled"
	EventPaymentCaptured = "payment.captured"
	EventPaymentRefunded = "payment.refunded"
)
