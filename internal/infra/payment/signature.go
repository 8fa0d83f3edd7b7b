package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// SignatureVerifier はゲートウェイの署名（HMAC-SHA256のhex）を確認する。
// 失敗は全部 false（エラーにもpanicにもしない）。
type SignatureVerifier struct {
	keySecret     []byte
	webhookSecret []byte
}

func NewSignatureVerifier(keySecret, webhookSecret string) *SignatureVerifier {
	return &SignatureVerifier{
		keySecret:     []byte(keySecret),
		webhookSecret: []byte(webhookSecret),
	}
}

// hex(HMAC-SHA256(secret, message))
func Sign(secret []byte, message []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write(message)
	return hex.EncodeToString(mac.Sum(nil))
}

// 決済完了時の署名: gatewayOrderID + "|" + gatewayPaymentID
func (v *SignatureVerifier) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	if gatewayOrderID == "" || gatewayPaymentID == "" {
		return false
	}
	return verify(v.keySecret, []byte(gatewayOrderID+"|"+gatewayPaymentID), signature)
}

// Webhookは生のボディに対する署名
func (v *SignatureVerifier) VerifyWebhookSignature(rawBody []byte, signature string) bool {
	return verify(v.webhookSecret, rawBody, signature)
}

func verify(secret []byte, message []byte, signature string) bool {
	if len(secret) == 0 {
		return false
	}
	signature = strings.TrimSpace(signature)
	if signature == "" {
		return false
	}
	expected := Sign(secret, message)
	return hmac.Equal([]byte(expected), []byte(signature))
}
