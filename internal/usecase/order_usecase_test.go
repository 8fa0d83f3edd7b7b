package usecase_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"haritsattva/internal/domain/model"
	"haritsattva/internal/infra/cache"
	repo "haritsattva/internal/repository"
	"haritsattva/internal/usecase"
	"haritsattva/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type orderDeps struct {
	uc        *usecase.OrderUsecase
	tx        *TxManagerMock
	orders    *OrderRepoMock
	lines     *OrderLineRepoMock
	addresses *AddressRepoMock
	payments  *PaymentRepoMock
	products  *ProductRepoMock
	carts     *cache.MemoryCartStore
	events    *recordingPublisher
}

func newOrderUsecase() orderDeps {
	d := orderDeps{
		orders:    new(OrderRepoMock),
		lines:     new(OrderLineRepoMock),
		addresses: new(AddressRepoMock),
		payments:  new(PaymentRepoMock),
		products:  new(ProductRepoMock),
		carts:     cache.NewMemoryCartStore(),
		events:    &recordingPublisher{},
	}
	d.tx = &TxManagerMock{Repos: &TxReposMock{orders: d.orders, orderLines: d.lines, products: d.products, payments: d.payments}}
	d.tx.On("WithinTx", mock.Anything).Return(nil)
	d.uc = usecase.NewOrderUsecase(d.tx, d.addresses, d.carts, validator.New(), d.events, testPolicy, discardLogger())
	return d
}

func (d orderDeps) seedCart(t *testing.T) {
	t.Helper()
	cart := model.NewCart()
	cart.AddItem(1, "Tomato", kg("80"), "tomato.jpg", kg("0.5"))
	cart.AddItem(1, "Tomato", kg("80"), "tomato.jpg", kg("0.5"))
	cart.AddItem(2, "Spinach", kg("60"), "spinach.jpg", kg("0.25"))
	require.NoError(t, d.carts.Save(context.Background(), testSession, cart))
}

func validShippingInput() *model.ShippingInfo {
	return &model.ShippingInfo{
		Name:        "Asha Rao",
		Email:       "asha@example.com",
		Phone:       "+91 98765 43210",
		SocietyName: "Green Meadows",
		FlatNumber:  "B-402",
	}
}

// =====================
// PlaceOrder
// =====================

func TestOrderUsecase_PlaceOrder_Success(t *testing.T) {
	d := newOrderUsecase()
	d.seedCart(t)

	var created model.Order
	d.orders.On("Create", mock.Anything, mock.AnythingOfType("model.Order")).
		Run(func(args mock.Arguments) { created = args.Get(1).(model.Order) }).
		Return(int64(10), nil)
	d.lines.On("CreateBulk", mock.Anything, int64(10), mock.MatchedBy(func(ls []model.OrderLine) bool {
		return len(ls) == 2
	})).Return(nil)

	out, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:     testSession,
		Shipping:      validShippingInput(),
		PaymentMethod: "cod",
		Notes:         "  ring the bell  ",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(10), out.ID)
	assert.Equal(t, int64(7), out.UserID)
	assert.Equal(t, "pending", out.Status)
	assert.Equal(t, "pending_payment", out.PaymentStatus)
	assert.Equal(t, "cod", out.PaymentMethod)
	// 80*0.5*2 + 60*0.25 = 95
	assert.Equal(t, "95.00", out.Subtotal)
	assert.Equal(t, "40.00", out.DeliveryFee)
	assert.Equal(t, "135.00", out.Total)
	assert.Equal(t, "ring the bell", out.Notes)
	assert.Equal(t, "Green Meadows", out.Shipping.SocietyName)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, "80.00", out.Lines[0].LineAmount)
	assert.False(t, out.Replayed)

	assert.Nil(t, created.IdempotencyKey)
	assert.Equal(t, int64(7), created.UserID)

	//コミット後はカートが空
	cart, err := d.carts.Load(context.Background(), testSession)
	require.NoError(t, err)
	assert.True(t, cart.IsEmpty())

	assert.Equal(t, []string{model.EventOrderPlaced}, d.events.types())
	assert.Equal(t, "10", d.events.events[0].Key)
}

func TestOrderUsecase_PlaceOrder_EmptyCart(t *testing.T) {
	d := newOrderUsecase()

	_, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:     testSession,
		Shipping:      validShippingInput(),
		PaymentMethod: "online",
	})
	assertStatus(t, err, http.StatusBadRequest)
	assertErrContains(t, err, "cart empty")
	d.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	assert.Empty(t, d.events.types())
}

func TestOrderUsecase_PlaceOrder_InputErrors(t *testing.T) {
	bad := validShippingInput()
	bad.Phone = "abc"

	cases := []struct {
		name   string
		userID int64
		in     usecase.PlaceOrderInput
		status int
	}{
		{"unauthorized", 0, usecase.PlaceOrderInput{SessionID: testSession, Shipping: validShippingInput(), PaymentMethod: "cod"}, http.StatusUnauthorized},
		{"no session", 7, usecase.PlaceOrderInput{Shipping: validShippingInput(), PaymentMethod: "cod"}, http.StatusBadRequest},
		{"bad method", 7, usecase.PlaceOrderInput{SessionID: testSession, Shipping: validShippingInput(), PaymentMethod: "card"}, http.StatusBadRequest},
		{"no shipping", 7, usecase.PlaceOrderInput{SessionID: testSession, PaymentMethod: "cod"}, http.StatusBadRequest},
		{"bad phone", 7, usecase.PlaceOrderInput{SessionID: testSession, Shipping: bad, PaymentMethod: "cod"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newOrderUsecase()
			d.seedCart(t)

			_, err := d.uc.PlaceOrder(context.Background(), tc.userID, tc.in)
			assertStatus(t, err, tc.status)
			d.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderUsecase_PlaceOrder_SavedAddress(t *testing.T) {
	d := newOrderUsecase()
	d.seedCart(t)
	d.addresses.On("FindByID", mock.Anything, int64(3)).Return(model.Address{
		ID: 3, UserID: 7, Name: "Asha Rao", Email: "asha@example.com", Phone: "9876543210",
		SocietyName: "Lake View", FlatNumber: "A-1",
	}, nil)
	d.orders.On("Create", mock.Anything, mock.MatchedBy(func(o model.Order) bool {
		return o.ShippingAddress == "Lake View" && o.ShippingFlatNumber == "A-1"
	})).Return(int64(11), nil)
	d.lines.On("CreateBulk", mock.Anything, int64(11), mock.Anything).Return(nil)

	out, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:     testSession,
		AddressID:     3,
		PaymentMethod: "online",
	})
	require.NoError(t, err)
	assert.Equal(t, "Lake View", out.Shipping.SocietyName)
}

func TestOrderUsecase_PlaceOrder_OtherUsersAddress(t *testing.T) {
	d := newOrderUsecase()
	d.seedCart(t)
	d.addresses.On("FindByID", mock.Anything, int64(3)).Return(model.Address{ID: 3, UserID: 99}, nil)

	_, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:     testSession,
		AddressID:     3,
		PaymentMethod: "cod",
	})
	assertStatus(t, err, http.StatusForbidden)
}

func TestOrderUsecase_PlaceOrder_IdempotentReplay(t *testing.T) {
	d := newOrderUsecase()
	d.seedCart(t)
	existing := model.Order{ID: 10, UserID: 7, Status: model.OrderStatusPending, PaymentStatus: model.OrderPaymentPending, PaymentMethod: model.PaymentMethodCOD, Total: kg("135")}
	d.orders.On("FindByIdempotencyKey", mock.Anything, int64(7), "key-1").Return(existing, true, nil)
	d.lines.On("ListByOrderID", mock.Anything, int64(10)).Return([]model.OrderLine{}, nil)

	out, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:      testSession,
		Shipping:       validShippingInput(),
		PaymentMethod:  "cod",
		IdempotencyKey: "key-1",
	})
	require.NoError(t, err)
	assert.True(t, out.Replayed)
	assert.Equal(t, int64(10), out.ID)
	assert.Equal(t, "135.00", out.Total)

	d.orders.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	//再送ではカートを触らない
	cart, err := d.carts.Load(context.Background(), testSession)
	require.NoError(t, err)
	assert.False(t, cart.IsEmpty())
	assert.Empty(t, d.events.types())
}

func TestOrderUsecase_PlaceOrder_ConcurrentSameKey(t *testing.T) {
	d := newOrderUsecase()
	d.seedCart(t)
	winner := model.Order{ID: 12, UserID: 7, Status: model.OrderStatusPending}
	d.orders.On("FindByIdempotencyKey", mock.Anything, int64(7), "key-2").Return(model.Order{}, false, nil).Once()
	d.orders.On("Create", mock.Anything, mock.Anything).Return(int64(0), repo.ErrConflict)
	d.orders.On("FindByIdempotencyKey", mock.Anything, int64(7), "key-2").Return(winner, true, nil).Once()
	d.lines.On("ListByOrderID", mock.Anything, int64(12)).Return([]model.OrderLine{}, nil)

	out, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:      testSession,
		Shipping:       validShippingInput(),
		PaymentMethod:  "cod",
		IdempotencyKey: "key-2",
	})
	require.NoError(t, err)
	assert.True(t, out.Replayed)
	assert.Equal(t, int64(12), out.ID)
}

// 保存に失敗したらカートは残る
func TestOrderUsecase_PlaceOrder_DBErrorKeepsCart(t *testing.T) {
	d := newOrderUsecase()
	d.seedCart(t)
	d.orders.On("Create", mock.Anything, mock.Anything).Return(int64(10), nil)
	d.lines.On("CreateBulk", mock.Anything, int64(10), mock.Anything).Return(errors.New("boom"))

	_, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:     testSession,
		Shipping:      validShippingInput(),
		PaymentMethod: "cod",
	})
	assertStatus(t, err, http.StatusInternalServerError)

	cart, err := d.carts.Load(context.Background(), testSession)
	require.NoError(t, err)
	assert.False(t, cart.IsEmpty())
	assert.Empty(t, d.events.types())
}

func TestOrderUsecase_PlaceOrder_PublishFailureIgnored(t *testing.T) {
	d := newOrderUsecase()
	d.seedCart(t)
	d.events.err = errors.New("broker down")
	d.orders.On("Create", mock.Anything, mock.Anything).Return(int64(10), nil)
	d.lines.On("CreateBulk", mock.Anything, int64(10), mock.Anything).Return(nil)

	out, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:     testSession,
		Shipping:      validShippingInput(),
		PaymentMethod: "cod",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.ID)
}

// =====================
// List / Detail / Cancel
// =====================

func TestOrderUsecase_ListMyOrders(t *testing.T) {
	d := newOrderUsecase()
	now := time.Now()
	d.orders.On("ListByUserID", mock.Anything, int64(7), 1, 20).Return([]model.Order{
		{ID: 2, UserID: 7, CreatedAt: now},
		{ID: 1, UserID: 7, CreatedAt: now.Add(-time.Hour)},
	}, int64(2), nil)
	d.lines.On("ListByOrderIDs", mock.Anything, []int64{2, 1}).Return(map[int64][]model.OrderLine{
		1: {{OrderID: 1, ProductID: 1, ProductName: "Tomato", Quantity: 1, WeightKg: kg("1"), UnitPricePerKg: kg("80")}},
	}, nil)

	out, err := d.uc.ListMyOrders(context.Background(), 7, 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Total)
	require.Len(t, out.Items, 2)
	assert.Empty(t, out.Items[0].Lines)
	require.Len(t, out.Items[1].Lines, 1)
	assert.Equal(t, "80.00", out.Items[1].Lines[0].LineAmount)
}

func TestOrderUsecase_ListMyOrders_InvalidLimit(t *testing.T) {
	d := newOrderUsecase()

	_, err := d.uc.ListMyOrders(context.Background(), 7, 1, 101)
	assertStatus(t, err, http.StatusBadRequest)
}

// 注文後に商品名や単価が変わっても、注文詳細は注文時の値のまま
func TestOrderUsecase_GetMyOrderDetail_KeepsSnapshotAfterCatalogChange(t *testing.T) {
	d := newOrderUsecase()
	d.seedCart(t)

	var (
		placed model.Order
		saved  []model.OrderLine
	)
	d.orders.On("Create", mock.Anything, mock.AnythingOfType("model.Order")).
		Run(func(args mock.Arguments) { placed = args.Get(1).(model.Order) }).
		Return(int64(10), nil)
	d.lines.On("CreateBulk", mock.Anything, int64(10), mock.Anything).
		Run(func(args mock.Arguments) { saved = args.Get(2).([]model.OrderLine) }).
		Return(nil)

	_, err := d.uc.PlaceOrder(context.Background(), 7, usecase.PlaceOrderInput{
		SessionID:     testSession,
		Shipping:      validShippingInput(),
		PaymentMethod: "cod",
	})
	require.NoError(t, err)
	require.Len(t, saved, 2)

	//カタログ側の商品を改名・値上げ
	renamed := tomato()
	renamed.Name = "Heirloom Tomato"
	renamed.PricePerKg = kg("120")
	d.products.On("FindByID", mock.Anything, int64(1)).Return(renamed, nil).Maybe()

	placed.ID = 10
	d.orders.On("FindByID", mock.Anything, int64(10)).Return(placed, nil)
	d.lines.On("ListByOrderID", mock.Anything, int64(10)).Return(saved, nil)

	out, err := d.uc.GetMyOrderDetail(context.Background(), 7, 10)
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)
	assert.Equal(t, "Tomato", out.Lines[0].ProductName)
	assert.Equal(t, "80.00", out.Lines[0].UnitPricePerKg)
	assert.Equal(t, "80.00", out.Lines[0].LineAmount)
	assert.Equal(t, "95.00", out.Subtotal)
}

func TestOrderUsecase_GetMyOrderDetail_OtherUserIsNotFound(t *testing.T) {
	d := newOrderUsecase()
	d.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{ID: 5, UserID: 99}, nil)

	_, err := d.uc.GetMyOrderDetail(context.Background(), 7, 5)
	assertStatus(t, err, http.StatusNotFound)
}

func TestOrderUsecase_CancelMyOrder_Success(t *testing.T) {
	d := newOrderUsecase()
	d.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 7, Status: model.OrderStatusPending, PaymentStatus: model.OrderPaymentPending,
	}, nil)
	d.orders.On("UpdateStatus", mock.Anything, int64(5), model.OrderStatusCancelled).Return(nil)
	d.lines.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderLine{}, nil)

	out, err := d.uc.CancelMyOrder(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	assert.Equal(t, []string{model.EventOrderCancelled}, d.events.types())
}

// 決済画面まで進んだオンライン注文を取り消すと、未確定の決済は failed になる
func TestOrderUsecase_CancelMyOrder_FailsOpenPayment(t *testing.T) {
	d := newOrderUsecase()
	d.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 7, Status: model.OrderStatusPending, PaymentStatus: model.OrderPaymentPending,
		PaymentMethod: model.PaymentMethodOnline,
	}, nil)
	d.orders.On("UpdateStatus", mock.Anything, int64(5), model.OrderStatusCancelled).Return(nil)
	d.payments.On("FindLatestByOrderID", mock.Anything, int64(5)).Return(model.Payment{
		ID: 3, OrderID: 5, GatewayOrderID: "order_G1", Status: model.PaymentStatusCreated,
	}, nil)
	d.payments.On("Update", mock.Anything, mock.MatchedBy(func(p model.Payment) bool {
		return p.ID == 3 && p.Status == model.PaymentStatusFailed
	})).Return(nil)
	d.lines.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderLine{}, nil)

	out, err := d.uc.CancelMyOrder(context.Background(), 7, 5)
	require.NoError(t, err)
	assert.Equal(t, "cancelled", out.Status)
	d.payments.AssertExpectations(t)
}

func TestOrderUsecase_CancelMyOrder_NoPaymentYet(t *testing.T) {
	d := newOrderUsecase()
	d.orders.On("FindByID", mock.Anything, int64(5)).Return(model.Order{
		ID: 5, UserID: 7, Status: model.OrderStatusPending, PaymentStatus: model.OrderPaymentPending,
		PaymentMethod: model.PaymentMethodOnline,
	}, nil)
	d.orders.On("UpdateStatus", mock.Anything, int64(5), model.OrderStatusCancelled).Return(nil)
	d.payments.On("FindLatestByOrderID", mock.Anything, int64(5)).Return(model.Payment{}, repo.ErrNotFound)
	d.lines.On("ListByOrderID", mock.Anything, int64(5)).Return([]model.OrderLine{}, nil)

	_, err := d.uc.CancelMyOrder(context.Background(), 7, 5)
	require.NoError(t, err)
	d.payments.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestOrderUsecase_CancelMyOrder_Rejected(t *testing.T) {
	cases := []struct {
		name  string
		order model.Order
	}{
		{"confirmed", model.Order{ID: 5, UserID: 7, Status: model.OrderStatusConfirmed, PaymentStatus: model.OrderPaymentPending}},
		{"paid", model.Order{ID: 5, UserID: 7, Status: model.OrderStatusPending, PaymentStatus: model.OrderPaymentPaid}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := newOrderUsecase()
			d.orders.On("FindByID", mock.Anything, int64(5)).Return(tc.order, nil)

			_, err := d.uc.CancelMyOrder(context.Background(), 7, 5)
			assertStatus(t, err, http.StatusConflict)
			d.orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
			assert.Empty(t, d.events.types())
		})
	}
}
