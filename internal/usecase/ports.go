package usecase

import "context"

// 決済ゲートウェイ（Orders API）
type PaymentGateway interface {
	//金額は最小単位（paise）。ゲートウェイ側の注文IDを返す
	CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error)
}

// ゲートウェイ署名の確認。失敗はfalseだけで表す
type SignatureVerifier interface {
	VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool
	VerifyWebhookSignature(rawBody []byte, signature string) bool
}

// 注文・決済イベントの送信先
type EventPublisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// 入力構造体のタグ検証（go-playground/validator）
type StructValidator interface {
	Validate(i any) error
}
