package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"haritsattva/internal/config"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ゲートウェイ側が 2xx 以外を返した
var ErrGatewayRejected = errors.New("payment gateway rejected request")

// 金額は最小単位（paise）
type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type createOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// HTTPGateway は Razorpay 互換の Orders API クライアント
type HTTPGateway struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

func NewHTTPGateway(cfg config.Payment) *HTTPGateway {
	return &HTTPGateway{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		client:    &http.Client{Timeout: cfg.Timeout},
	}
}

// CreateOrder はゲートウェイ上に注文を作り、そのIDを返す
func (g *HTTPGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	body, err := json.Marshal(createOrderRequest{Amount: amountMinor, Currency: currency, Receipt: receipt})
	if err != nil {
		return "", errors.Wrap(err, "marshal create order")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(err, "new request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(g.keyID, g.keySecret)

	res, err := g.client.Do(httpReq)
	if err != nil {
		return "", errors.Wrap(err, "call gateway")
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return "", errors.Wrap(err, "read gateway response")
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return "", errors.Wrapf(ErrGatewayRejected, "status=%d body=%s", res.StatusCode, truncate(string(raw), 200))
	}

	var out createOrderResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", errors.Wrap(err, "decode gateway response")
	}
	if out.ID == "" {
		return "", errors.Wrap(ErrGatewayRejected, "empty order id")
	}
	return out.ID, nil
}

// FakeGateway は決済を無効にしている環境用。ローカルでIDを払い出すだけ。
type FakeGateway struct {
	now func() time.Time
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{now: time.Now}
}

func (g *FakeGateway) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if amountMinor <= 0 {
		return "", errors.Wrap(ErrGatewayRejected, "amount must be positive")
	}
	return fmt.Sprintf("order_fake_%d_%s", g.now().Unix(), uuid.NewString()[:8]), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
