package usecase

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"
)

type OrderUsecase struct {
	tx        repo.TransactionManager
	addresses repo.AddressRepository
	carts     repo.CartStore
	validator StructValidator
	events    EventPublisher
	policy    model.DeliveryPolicy
	logger    *slog.Logger
	now       func() time.Time
}

func NewOrderUsecase(
	tx repo.TransactionManager,
	addresses repo.AddressRepository,
	carts repo.CartStore,
	validator StructValidator,
	events EventPublisher,
	policy model.DeliveryPolicy,
	logger *slog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		tx:        tx,
		addresses: addresses,
		carts:     carts,
		validator: validator,
		events:    events,
		policy:    policy,
		logger:    logger,
		now:       time.Now,
	}
}

// address_id があれば保存済み住所を使い、無ければ Shipping を使う
type PlaceOrderInput struct {
	SessionID      string
	AddressID      int64
	Shipping       *model.ShippingInfo
	PaymentMethod  string
	Notes          string
	IdempotencyKey string
}

type OrderLineOutput struct {
	ProductID      int64  `json:"product_id"`
	ProductName    string `json:"product_name"`
	Quantity       int64  `json:"quantity"`
	WeightKg       string `json:"weight_kg"`
	UnitPricePerKg string `json:"unit_price_per_kg"`
	LineAmount     string `json:"line_amount"`
}

type ShippingOutput struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	SocietyName string `json:"society_name"`
	FlatNumber  string `json:"flat_number"`
}

type OrderOutput struct {
	ID            int64             `json:"id"`
	UserID        int64             `json:"user_id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentMethod string            `json:"payment_method"`
	Subtotal      string            `json:"subtotal"`
	DeliveryFee   string            `json:"delivery_fee"`
	Total         string            `json:"total"`
	Shipping      ShippingOutput    `json:"shipping"`
	Notes         string            `json:"notes"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Lines         []OrderLineOutput `json:"lines"`

	//同じ冪等キーで既存の注文を返したとき true
	Replayed bool `json:"-"`
}

type OrderListOutput struct {
	Items []OrderOutput `json:"items"`
	Total int64         `json:"total"`
	Page  int           `json:"page"`
	Limit int           `json:"limit"`
}

type orderPlacedEvent struct {
	OrderID       int64  `json:"order_id"`
	UserID        int64  `json:"user_id"`
	Total         string `json:"total"`
	PaymentMethod string `json:"payment_method"`
	LineCount     int    `json:"line_count"`
}

type orderCancelledEvent struct {
	OrderID int64  `json:"order_id"`
	UserID  int64  `json:"user_id"`
	By      string `json:"by"`
}

// PlaceOrder はセッションのカートから注文を作る。
// 注文と明細は1トランザクションで保存し、コミットできたときだけカートを空にする。
func (u *OrderUsecase) PlaceOrder(ctx context.Context, userID int64, in PlaceOrderInput) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if strings.TrimSpace(in.SessionID) == "" {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart session required")
	}
	method := model.PaymentMethod(strings.TrimSpace(in.PaymentMethod))
	if !method.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_method")
	}
	notes := strings.TrimSpace(in.Notes)
	if len(notes) > 1000 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "notes too long")
	}
	key := strings.TrimSpace(in.IdempotencyKey)
	if len(key) > 255 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid idempotency_key")
	}

	shipping, err := u.resolveShipping(ctx, userID, in)
	if err != nil {
		return OrderOutput{}, err
	}

	//同じキーなら同じ結果
	if key != "" {
		existing, found, err := u.findByKey(ctx, userID, key)
		if err != nil {
			return OrderOutput{}, err
		}
		if found {
			return existing, nil
		}
	}

	cart, err := u.carts.Load(ctx, in.SessionID)
	if err != nil {
		u.logger.ErrorContext(ctx, "load cart failed", slog.String("error", err.Error()))
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}

	var keyPtr *string
	if key != "" {
		keyPtr = &key
	}
	order, lines, err := model.MaterializeOrder(cart, model.MaterializeInput{
		UserID:         userID,
		Shipping:       shipping,
		PaymentMethod:  method,
		Notes:          notes,
		IdempotencyKey: keyPtr,
		Policy:         u.policy,
		Now:            u.now(),
	})
	if errors.Is(err, model.ErrEmptyCart) {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "cart empty")
	}
	if err != nil {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orderID, err := r.Orders().Create(ctx, order)
		if err != nil {
			return err
		}
		if err := r.OrderLines().CreateBulk(ctx, orderID, lines); err != nil {
			return err
		}
		order.ID = orderID
		return nil
	})
	if err != nil {
		//同時に同じキーで作られた
		if errors.Is(err, repo.ErrConflict) && key != "" {
			existing, found, ferr := u.findByKey(ctx, userID, key)
			if ferr == nil && found {
				return existing, nil
			}
			return OrderOutput{}, NewHTTPError(http.StatusConflict, "idempotency conflict")
		}
		if _, ok := AsHTTPError(err); ok {
			return OrderOutput{}, err
		}
		u.logger.ErrorContext(ctx, "place order failed", slog.Int64("user_id", userID), slog.String("error", err.Error()))
		return OrderOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//ここから先はコミット済み。失敗してもログだけ
	if err := u.carts.Delete(ctx, in.SessionID); err != nil {
		u.logger.WarnContext(ctx, "clear cart failed", slog.Int64("order_id", order.ID), slog.String("error", err.Error()))
	}
	u.publish(ctx, model.EventOrderPlaced, order.ID, orderPlacedEvent{
		OrderID:       order.ID,
		UserID:        userID,
		Total:         money(order.Total),
		PaymentMethod: string(order.PaymentMethod),
		LineCount:     len(lines),
	})

	u.logger.InfoContext(ctx, "order placed",
		slog.Int64("order_id", order.ID),
		slog.Int64("user_id", userID),
		slog.String("total", money(order.Total)),
	)
	return toOrderOutput(order, lines), nil
}

func (u *OrderUsecase) resolveShipping(ctx context.Context, userID int64, in PlaceOrderInput) (model.ShippingInfo, error) {
	var shipping model.ShippingInfo
	switch {
	case in.AddressID > 0:
		addr, err := u.addresses.FindByID(ctx, in.AddressID)
		if errors.Is(err, repo.ErrNotFound) {
			return model.ShippingInfo{}, NewHTTPError(http.StatusNotFound, "address not found")
		}
		if err != nil {
			return model.ShippingInfo{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		//他人の住所なら403
		if addr.UserID != userID {
			return model.ShippingInfo{}, NewHTTPError(http.StatusForbidden, "forbidden")
		}
		shipping = addr.ToShipping()
	case in.AddressID < 0:
		return model.ShippingInfo{}, NewHTTPError(http.StatusBadRequest, "invalid address_id")
	case in.Shipping != nil:
		shipping = *in.Shipping
	default:
		return model.ShippingInfo{}, NewHTTPError(http.StatusBadRequest, "shipping required")
	}

	shipping.Name = strings.TrimSpace(shipping.Name)
	shipping.Email = strings.TrimSpace(shipping.Email)
	shipping.Phone = strings.TrimSpace(shipping.Phone)
	shipping.SocietyName = strings.TrimSpace(shipping.SocietyName)
	shipping.FlatNumber = strings.TrimSpace(shipping.FlatNumber)
	if err := u.validator.Validate(shipping); err != nil {
		return model.ShippingInfo{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return shipping, nil
}

func (u *OrderUsecase) findByKey(ctx context.Context, userID int64, key string) (OrderOutput, bool, error) {
	var (
		out   OrderOutput
		found bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, ok, err := r.Orders().FindByIdempotencyKey(ctx, userID, key)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		if !ok {
			return nil
		}
		lines, err := r.OrderLines().ListByOrderID(ctx, o.ID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, lines)
		out.Replayed = true
		found = true
		return nil
	})
	if err != nil {
		return OrderOutput{}, false, err
	}
	return out, found, nil
}

func (u *OrderUsecase) ListMyOrders(ctx context.Context, userID int64, page, limit int) (OrderListOutput, error) {
	if userID <= 0 {
		return OrderListOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if limit < 1 || limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: page, Limit: limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListByUserID(ctx, userID, page, limit)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		items, err := withLines(ctx, r, orders)
		if err != nil {
			return err
		}
		out.Items = items
		out.Total = total
		return nil
	})
	if err != nil {
		return OrderListOutput{}, err
	}
	return out, nil
}

func (u *OrderUsecase) GetMyOrderDetail(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}
		lines, err := r.OrderLines().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, lines)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}
	return out, nil
}

// 購入者によるキャンセルは pending かつ未払いのときだけ
func (u *OrderUsecase) CancelMyOrder(ctx context.Context, userID int64, orderID int64) (OrderOutput, error) {
	if userID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOwnOrder(ctx, r, userID, orderID)
		if err != nil {
			return err
		}
		if o.Status != model.OrderStatusPending {
			return NewHTTPError(http.StatusConflict, "order cannot be cancelled")
		}
		if o.PaymentStatus == model.OrderPaymentPaid {
			return NewHTTPError(http.StatusConflict, "paid order cannot be cancelled")
		}
		if err := r.Orders().UpdateStatus(ctx, orderID, model.OrderStatusCancelled); err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		o.Status = model.OrderStatusCancelled
		if err := failOpenPayment(ctx, r, o); err != nil {
			return err
		}

		lines, err := r.OrderLines().ListByOrderID(ctx, orderID)
		if err != nil {
			return NewHTTPError(http.StatusInternalServerError, "db error")
		}
		out = toOrderOutput(o, lines)
		return nil
	})
	if err != nil {
		return OrderOutput{}, err
	}

	u.publish(ctx, model.EventOrderCancelled, orderID, orderCancelledEvent{OrderID: orderID, UserID: userID, By: "customer"})
	return out, nil
}

func (u *OrderUsecase) publish(ctx context.Context, eventType string, orderID int64, payload any) {
	if err := u.events.Publish(ctx, eventType, strconv.FormatInt(orderID, 10), payload); err != nil {
		u.logger.WarnContext(ctx, "publish event failed",
			slog.String("type", eventType),
			slog.Int64("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

// 他人の注文は「存在しない扱い」にする
func findOwnOrder(ctx context.Context, r repo.TxRepos, userID, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if o.UserID != userID {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return o, nil
}

func withLines(ctx context.Context, r repo.TxRepos, orders []model.Order) ([]OrderOutput, error) {
	ids := make([]int64, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, o.ID)
	}
	byOrder, err := r.OrderLines().ListByOrderIDs(ctx, ids)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, byOrder[o.ID]))
	}
	return outs, nil
}

// 明細の金額はスナップショットから計算する（商品マスタは見ない）
func toOrderOutput(o model.Order, lines []model.OrderLine) OrderOutput {
	outLines := make([]OrderLineOutput, 0, len(lines))
	for _, l := range lines {
		outLines = append(outLines, OrderLineOutput{
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			WeightKg:       l.WeightKg.String(),
			UnitPricePerKg: money(l.UnitPricePerKg),
			LineAmount:     money(l.Amount()),
		})
	}

	return OrderOutput{
		ID:            o.ID,
		UserID:        o.UserID,
		Status:        string(o.Status),
		PaymentStatus: string(o.PaymentStatus),
		PaymentMethod: string(o.PaymentMethod),
		Subtotal:      money(o.Subtotal),
		DeliveryFee:   money(o.DeliveryFee),
		Total:         money(o.Total),
		Shipping: ShippingOutput{
			Name:        o.ShippingName,
			Email:       o.ShippingEmail,
			Phone:       o.ShippingPhone,
			SocietyName: o.ShippingAddress,
			FlatNumber:  o.ShippingFlatNumber,
		},
		Notes:     o.Notes,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
		Lines:     outLines,
	}
}
