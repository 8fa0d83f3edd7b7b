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

type AdminOrderUsecase struct {
	tx     repo.TransactionManager
	events EventPublisher
	logger *slog.Logger
	now    func() time.Time
}

func NewAdminOrderUsecase(tx repo.TransactionManager, events EventPublisher, logger *slog.Logger) *AdminOrderUsecase {
	return &AdminOrderUsecase{tx: tx, events: events, logger: logger, now: time.Now}
}

type AdminUpdateOrderStatusInput struct {
	Status string
}

type AdminUpdatePaymentStatusInput struct {
	PaymentStatus string
}

// 注文一覧
func (u *AdminOrderUsecase) List(ctx context.Context, f repo.AdminOrderListFilter) (OrderListOutput, error) {
	if f.Page < 1 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 100 {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if f.Status != "" && !model.OrderStatus(f.Status).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}
	if f.PaymentStatus != "" && !model.OrderPaymentStatus(f.PaymentStatus).Valid() {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_status")
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return OrderListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	out := OrderListOutput{Items: []OrderOutput{}, Page: f.Page, Limit: f.Limit}
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		orders, total, err := r.Orders().ListAdmin(ctx, f)
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

func (u *AdminOrderUsecase) Detail(ctx context.Context, orderID int64) (OrderOutput, error) {
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
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

// ステータス更新。遷移表にない変更は400、同じなら何もしない
func (u *AdminOrderUsecase) UpdateStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdateOrderStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	newStatus := model.OrderStatus(strings.ToLower(strings.TrimSpace(in.Status)))
	if !newStatus.Valid() {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	var (
		out       OrderOutput
		cancelled bool
	)
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}

		if o.Status != newStatus {
			//終端ガード
			if o.Status.Terminal() {
				return NewHTTPError(http.StatusBadRequest, "cannot change "+string(o.Status)+" order")
			}
			if !model.CanTransitionOrderStatus(o.Status, newStatus) {
				return NewHTTPError(http.StatusBadRequest, "invalid status transition")
			}

			before := o.Status
			if err := r.Orders().UpdateStatus(ctx, orderID, newStatus); err != nil {
				if errors.Is(err, repo.ErrNotFound) {
					return NewHTTPError(http.StatusNotFound, "not found")
				}
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			o.Status = newStatus
			if newStatus == model.OrderStatusCancelled {
				if err := failOpenPayment(ctx, r, o); err != nil {
					return err
				}
			}

			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actorAdminUserID,
				Action:       model.AuditActionUpdateOrderStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   orderID,
				BeforeJSON:   statusJSON(string(before)),
				AfterJSON:    statusJSON(string(newStatus)),
				CreatedAt:    u.now(),
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			cancelled = newStatus == model.OrderStatusCancelled
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

	if cancelled {
		if err := u.events.Publish(ctx, model.EventOrderCancelled, strconv.FormatInt(orderID, 10), orderCancelledEvent{
			OrderID: orderID,
			UserID:  out.UserID,
			By:      "admin",
		}); err != nil {
			u.logger.WarnContext(ctx, "publish event failed", slog.String("type", model.EventOrderCancelled), slog.String("error", err.Error()))
		}
	}
	return out, nil
}

// 代引きの入金記録。pending_payment から paid / failed だけ
func (u *AdminOrderUsecase) UpdatePaymentStatus(ctx context.Context, actorAdminUserID int64, orderID int64, in AdminUpdatePaymentStatusInput) (OrderOutput, error) {
	if actorAdminUserID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if orderID <= 0 {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	next := model.OrderPaymentStatus(strings.ToLower(strings.TrimSpace(in.PaymentStatus)))
	if next != model.OrderPaymentPaid && next != model.OrderPaymentFailed {
		return OrderOutput{}, NewHTTPError(http.StatusBadRequest, "invalid payment_status")
	}

	var out OrderOutput
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		o, err := findOrder(ctx, r, orderID)
		if err != nil {
			return err
		}
		if o.PaymentMethod != model.PaymentMethodCOD {
			return NewHTTPError(http.StatusBadRequest, "online payments are settled by the gateway")
		}
		if o.PaymentStatus != next {
			if o.PaymentStatus != model.OrderPaymentPending {
				return NewHTTPError(http.StatusBadRequest, "payment already settled")
			}
			if o.Status == model.OrderStatusCancelled {
				return NewHTTPError(http.StatusBadRequest, "cannot change cancelled order")
			}

			before := o.PaymentStatus
			if err := r.Orders().UpdatePaymentStatus(ctx, orderID, next); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
			o.PaymentStatus = next

			if err := r.AuditLogs().Create(ctx, model.AuditLog{
				ActorUserID:  actorAdminUserID,
				Action:       model.AuditActionUpdatePaymentStatus,
				ResourceType: model.AuditResourceOrder,
				ResourceID:   orderID,
				BeforeJSON:   statusJSON(string(before)),
				AfterJSON:    statusJSON(string(next)),
				CreatedAt:    u.now(),
			}); err != nil {
				return NewHTTPError(http.StatusInternalServerError, "db error")
			}
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

func findOrder(ctx context.Context, r repo.TxRepos, orderID int64) (model.Order, error) {
	o, err := r.Orders().FindByID(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Order{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Order{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return o, nil
}

// 期間パラメータ（RFC3339 か YYYY-MM-DD）。toの日付指定はその日の終わりまで
func ParseDateParam(s string, endOfDay bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
