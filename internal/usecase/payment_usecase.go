package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"haritsattva/internal/config"
	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

type PaymentUsecase struct {
	tx       repo.TransactionManager
	gateway  PaymentGateway
	verifier SignatureVerifier
	events   EventPublisher
	keyID    string
	currency string
	logger   *slog.Logger
	now      func() time.Time
}

func NewPaymentUsecase(
	cfg *config.Config,
	tx repo.TransactionManager,
	gateway PaymentGateway,
	verifier SignatureVerifier,
	events EventPublisher,
	logger *slog.Logger,
) *PaymentUsecase {
	return &PaymentUsecase{
		tx:       tx,
		gateway:  gateway,
		verifier: verifier,
		events:   events,
		keyID:    cfg.Payment.KeyID,
		currency: cfg.Payment.Currency,
		logger:   logger,
		now:      time.Now,
	}
}

// チェックアウト画面に渡す値（key_idはフロントのSDKが使う）
type PaymentInitOutput struct {
	PaymentID      int64  `json:"payment_id"`
	OrderID        int64  `json:"order_id"`
	GatewayOrderID string `json:"gateway_order_id"`
	Amount         string `json:"amount"`
	AmountMinor    int64  `json:"amount_minor"`
	Currency       string `json:"currency"`
	KeyID          string `json:"key_id"`
}

type VerifyPaymentInput struct {
	GatewayOrderID   string
	GatewayPaymentID string
	Signature        string
}

type PaymentOutput struct {
	ID                 int64  `json:"id"`
	OrderID            int64  `json:"order_id"`
	GatewayOrderID     string `json:"gateway_order_id"`
	GatewayPaymentID   string `json:"gateway_payment_id"`
	Amount             string `json:"amount"`
	Currency           string `json:"currency"`
	Status             string `json:"status"`
	OrderStatus        string `json:"order_status"`
	OrderPaymentStatus string `json:"order_payment_status"`
}

type WebhookResult struct {
	Event   string `json:"event"`
	Applied bool   `json:"applied"`
}

type paymentCapturedEvent struct {
	OrderID          int64  `json:"order_id"`
	PaymentID        int64  `json:"payment_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Amount           string `json:"amount"`
	Currency         string `json:"currency"`
}

// InitiatePayment はオンライン決済の注文をゲートウェイに作る。
// ゲートウェイが失敗したらローカルの状態は何も変えない（502）。
func (u *PaymentUsecase) InitiatePayment(ctx context.Context, userID, orderID int64) (PaymentInitOutput, error) {
	if userID <= 0 {
		return PaymentInitOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return PaymentInitOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var (
		order    model.Order
		existing *model.Payment
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}
		if o.PaymentMethod != model.PaymentMethodOnline {
			return NewHTTPError(http.StatusBadRequest, "order is not an online payment")
		}
		if o.Status == model.OrderStatusCancelled || o.PaymentStatus != model.OrderPaymentPending {
			return NewHTTPError(http.StatusConflict, "order is not awaiting payment")
		}
		order = o

		//作成済みでまだ使われていない決済があればそれを返す
		p, err := r.Payments().FindLatestByOrderID(ctx, orderID)
		if err != nil && !errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if err == nil && p.Status == model.PaymentStatusCreated {
			existing = &p
		}
		return nil
	})
	if err != nil {
		return PaymentInitOutput{}, err
	}
	if existing != nil {
		return u.toInitOutput(*existing), nil
	}

	amount := order.Total.Round(2)
	amountMinor := amount.Mul(hundred).IntPart()
	gatewayOrderID, err := u.gateway.CreateOrder(ctx, amountMinor, u.currency, receiptFor(orderID))
	if err != nil {
		u.logger.ErrorContext(ctx, "gateway create order failed", slog.Int64("order_id", orderID), slog.String("error", err.Error()))
		return PaymentInitOutput{}, NewHTTPError(http.StatusBadGateway, "payment gateway unavailable")
	}

	var created model.Payment
	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().Create(ctx, model.Payment{
			OrderID:        orderID,
			GatewayOrderID: gatewayOrderID,
			Amount:         amount,
			Currency:       u.currency,
			Status:         model.PaymentStatusCreated,
		})
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		created = p
		return nil
	})
	if err != nil {
		return PaymentInitOutput{}, err
	}
	return u.toInitOutput(created), nil
}

// VerifyPayment はチェックアウト完了時の署名を確認して決済を確定する。
// 署名が合わなければ何も変えずに400。
func (u *PaymentUsecase) VerifyPayment(ctx context.Context, userID int64, in VerifyPaymentInput) (PaymentOutput, error) {
	if userID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	in.GatewayOrderID = strings.TrimSpace(in.GatewayOrderID)
	in.GatewayPaymentID = strings.TrimSpace(in.GatewayPaymentID)
	in.Signature = strings.TrimSpace(in.Signature)
	if in.GatewayOrderID == "" || in.GatewayPaymentID == "" || in.Signature == "" {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "gateway_order_id, gateway_payment_id and signature are required")
	}

	if !u.verifier.VerifyPaymentSignature(in.GatewayOrderID, in.GatewayPaymentID, in.Signature) {
		u.logger.WarnContext(ctx, "payment signature mismatch", slog.String("gateway_order_id", in.GatewayOrderID))
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "payment could not be verified")
	}

	var (
		out      PaymentOutput
		captured bool
		payment  model.Payment
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByGatewayOrderID(ctx, in.GatewayOrderID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "payment not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		o, err := findOwnOrder(ctx, r, userID, p.OrderID)
		if err != nil {
			return err
		}

		//二重送信は同じ結果
		if p.Status == model.PaymentStatusCaptured {
			out = toPaymentOutput(p, o)
			return nil
		}
		if o.Status == model.OrderStatusCancelled {
			return NewHTTPError(http.StatusConflict, "order is cancelled")
		}
		if !model.CanTransition(p.Status, model.PaymentStatusCaptured) {
			return NewHTTPError(http.StatusConflict, "payment cannot be captured")
		}

		p.GatewayPaymentID = in.GatewayPaymentID
		p.GatewaySignature = in.Signature
		p.Status = model.PaymentStatusCaptured
		if err := r.Payments().Update(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		o, err = applyToOrder(ctx, r, o, model.PaymentStatusCaptured)
		if err != nil {
			return err
		}

		out = toPaymentOutput(p, o)
		payment = p
		captured = true
		return nil
	})
	if err != nil {
		return PaymentOutput{}, err
	}

	if captured {
		u.publishCaptured(ctx, payment)
	}
	return out, nil
}

type webhookEntity struct {
	ID      string `json:"id"`
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
	Method  string `json:"method"`
}

type webhookBody struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity webhookEntity `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// webhookのイベント名 -> 決済の遷移先
var webhookTransitions = map[string]model.PaymentStatus{
	"payment.authorized": model.PaymentStatusAuthorized,
	"payment.captured":   model.PaymentStatusCaptured,
	"payment.failed":     model.PaymentStatusFailed,
	"refund.processed":   model.PaymentStatusRefunded,
}

// HandleWebhook はゲートウェイからの通知で決済状態を進める。
// 知らないイベントや遷移できない状態は無視して成功扱いにする（ゲートウェイの再送を止めるため）。
func (u *PaymentUsecase) HandleWebhook(ctx context.Context, rawBody []byte, signature string) (WebhookResult, error) {
	if !u.verifier.VerifyWebhookSignature(rawBody, signature) {
		return WebhookResult{}, NewHTTPError(http.StatusBadRequest, "invalid signature")
	}

	var body webhookBody
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return WebhookResult{}, NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	res := WebhookResult{Event: body.Event}

	next, ok := webhookTransitions[body.Event]
	if !ok {
		return res, nil
	}
	entity := body.Payload.Payment.Entity
	if entity.OrderID == "" {
		return WebhookResult{}, NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	var (
		payment  model.Payment
		captured bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByGatewayOrderID(ctx, entity.OrderID)
		if errors.Is(err, repo.ErrNotFound) {
			u.logger.WarnContext(ctx, "webhook for unknown payment", slog.String("gateway_order_id", entity.OrderID))
			return nil
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if p.Status == next || !model.CanTransition(p.Status, next) {
			u.logger.InfoContext(ctx, "webhook ignored",
				slog.String("event", body.Event),
				slog.String("from", string(p.Status)),
				slog.String("to", string(next)),
			)
			return nil
		}

		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//取消済みの注文は入金に進めない（返金はゲートウェイ側で対応）
		if o.Status == model.OrderStatusCancelled && next != model.PaymentStatusFailed && next != model.PaymentStatusRefunded {
			u.logger.WarnContext(ctx, "webhook for cancelled order",
				slog.String("event", body.Event),
				slog.Int64("order_id", o.ID),
			)
			return nil
		}

		if entity.ID != "" {
			p.GatewayPaymentID = entity.ID
		}
		if entity.Method != "" {
			p.PaymentMethod = entity.Method
		}
		p.PaymentDetails = string(rawBody)
		p.Status = next
		if err := r.Payments().Update(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		if _, err := applyToOrder(ctx, r, o, next); err != nil {
			return err
		}

		payment = p
		captured = next == model.PaymentStatusCaptured
		res.Applied = true
		return nil
	})
	if err != nil {
		return WebhookResult{}, err
	}

	if captured {
		u.publishCaptured(ctx, payment)
	}
	return res, nil
}

// AdminRefund は captured の決済を refunded にする（返金自体はゲートウェイ側で実施済みの前提）
func (u *PaymentUsecase) AdminRefund(ctx context.Context, adminUserID, paymentID int64) (PaymentOutput, error) {
	if adminUserID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if paymentID <= 0 {
		return PaymentOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var (
		out     PaymentOutput
		payment model.Payment
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Payments().FindByID(ctx, paymentID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "not found")
		}
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !model.CanTransition(p.Status, model.PaymentStatusRefunded) {
			return NewHTTPError(http.StatusConflict, "payment is not captured")
		}

		before := p.Status
		p.Status = model.PaymentStatusRefunded
		if err := r.Payments().Update(ctx, p); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		o, err := r.Orders().FindByID(ctx, p.OrderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		o, err = applyToOrder(ctx, r, o, model.PaymentStatusRefunded)
		if err != nil {
			return err
		}

		if err := r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionRefundPayment,
			ResourceType: model.AuditResourcePayment,
			ResourceID:   p.ID,
			BeforeJSON:   statusJSON(string(before)),
			AfterJSON:    statusJSON(string(p.Status)),
			CreatedAt:    u.now(),
		}); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}

		out = toPaymentOutput(p, o)
		payment = p
		return nil
	})
	if err != nil {
		return PaymentOutput{}, err
	}

	if err := u.events.Publish(ctx, model.EventPaymentRefunded, strconv.FormatInt(payment.OrderID, 10), paymentCapturedEvent{
		OrderID:   payment.OrderID,
		PaymentID: payment.ID,
		Amount:    money(payment.Amount),
		Currency:  payment.Currency,
	}); err != nil {
		u.logger.WarnContext(ctx, "publish event failed", slog.String("type", model.EventPaymentRefunded), slog.String("error", err.Error()))
	}
	return out, nil
}

// 決済の状態を注文の payment_status に写す。支払済みになった pending 注文は confirmed にする
func applyToOrder(ctx context.Context, r repo.TxRepos, o model.Order, ps model.PaymentStatus) (model.Order, error) {
	ops, ok := model.OrderPaymentStatusFor(ps)
	if !ok || o.PaymentStatus == ops {
		return o, nil
	}
	if err := r.Orders().UpdatePaymentStatus(ctx, o.ID, ops); err != nil {
		return o, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	o.PaymentStatus = ops

	if ops == model.OrderPaymentPaid && o.Status == model.OrderStatusPending {
		if err := r.Orders().UpdateStatus(ctx, o.ID, model.OrderStatusConfirmed); err != nil {
			return o, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		o.Status = model.OrderStatusConfirmed
	}
	return o, nil
}

// 注文の取消で、まだ確定していない決済を failed にする。代引きは決済を持たない
func failOpenPayment(ctx context.Context, r repo.TxRepos, o model.Order) error {
	if o.PaymentMethod != model.PaymentMethodOnline {
		return nil
	}
	p, err := r.Payments().FindLatestByOrderID(ctx, o.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if p.Status != model.PaymentStatusCreated && p.Status != model.PaymentStatusAuthorized {
		return nil
	}
	p.Status = model.PaymentStatusFailed
	if err := r.Payments().Update(ctx, p); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *PaymentUsecase) publishCaptured(ctx context.Context, p model.Payment) {
	if err := u.events.Publish(ctx, model.EventPaymentCaptured, strconv.FormatInt(p.OrderID, 10), paymentCapturedEvent{
		OrderID:          p.OrderID,
		PaymentID:        p.ID,
		GatewayPaymentID: p.GatewayPaymentID,
		Amount:           money(p.Amount),
		Currency:         p.Currency,
	}); err != nil {
		u.logger.WarnContext(ctx, "publish event failed", slog.String("type", model.EventPaymentCaptured), slog.String("error", err.Error()))
	}
}

func (u *PaymentUsecase) toInitOutput(p model.Payment) PaymentInitOutput {
	return PaymentInitOutput{
		PaymentID:      p.ID,
		OrderID:        p.OrderID,
		GatewayOrderID: p.GatewayOrderID,
		Amount:         money(p.Amount),
		AmountMinor:    p.Amount.Mul(hundred).IntPart(),
		Currency:       p.Currency,
		KeyID:          u.keyID,
	}
}

func toPaymentOutput(p model.Payment, o model.Order) PaymentOutput {
	return PaymentOutput{
		ID:                 p.ID,
		OrderID:            p.OrderID,
		GatewayOrderID:     p.GatewayOrderID,
		GatewayPaymentID:   p.GatewayPaymentID,
		Amount:             money(p.Amount),
		Currency:           p.Currency,
		Status:             string(p.Status),
		OrderStatus:        string(o.Status),
		OrderPaymentStatus: string(o.PaymentStatus),
	}
}

func receiptFor(orderID int64) string {
	return fmt.Sprintf("order_%d", orderID)
}

func statusJSON(s string) string {
	b, _ := json.Marshal(map[string]string{"status": s})
	return string(b)
}
