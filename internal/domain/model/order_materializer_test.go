package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testShipping() ShippingInfo {
	return ShippingInfo{
		Name:        "Asha",
		Email:       "asha@example.com",
		Phone:       "9876543210",
		SocietyName: "Green Meadows",
		FlatNumber:  "B-402",
	}
}

func TestMaterializeOrder_EmptyCart(t *testing.T) {
	_, _, err := MaterializeOrder(NewCart(), MaterializeInput{UserID: 1, PaymentMethod: PaymentMethodCOD})
	assert.ErrorIs(t, err, ErrEmptyCart)

	_, _, err = MaterializeOrder(nil, MaterializeInput{UserID: 1, PaymentMethod: PaymentMethodCOD})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestMaterializeOrder_InvalidPaymentMethod(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "p1", d("100"), "", d("0.5"))

	_, _, err := MaterializeOrder(c, MaterializeInput{UserID: 1, PaymentMethod: "card"})
	assert.ErrorIs(t, err, ErrInvalidPaymentMethod)
}

func TestMaterializeOrder_EndToEnd(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	c := NewCart()
	c.AddItem(1, "p1", d("100"), "p1.jpg", d("0.5"))
	c.AddItem(1, "p1", d("100"), "p1.jpg", d("0.5"))

	policy := DeliveryPolicy{Fee: d("40"), FreeAbove: d("500")}
	o, lines, err := MaterializeOrder(c, MaterializeInput{
		UserID:        7,
		Shipping:      testShipping(),
		PaymentMethod: PaymentMethodOnline,
		Notes:         "ring twice",
		Policy:        policy,
		Now:           now,
	})
	require.NoError(t, err)

	require.Len(t, lines, 1)
	assert.Equal(t, int64(1), lines[0].ProductID)
	assert.Equal(t, "p1", lines[0].ProductName)
	assert.Equal(t, int64(2), lines[0].Quantity)
	assert.True(t, lines[0].WeightKg.Equal(d("0.5")))
	assert.True(t, lines[0].UnitPricePerKg.Equal(d("100")))

	//小計100 + 配送料40
	assert.True(t, o.Subtotal.Equal(d("100")))
	assert.True(t, o.DeliveryFee.Equal(d("40")))
	assert.True(t, o.Total.Equal(d("140")))
	assert.True(t, o.Total.Equal(policy.Payable(c.Total())))

	assert.Equal(t, OrderStatusPending, o.Status)
	assert.Equal(t, OrderPaymentPending, o.PaymentStatus)
	assert.Equal(t, int64(7), o.UserID)
	assert.Equal(t, "Green Meadows", o.ShippingAddress)
	assert.Equal(t, "B-402", o.ShippingFlatNumber)
	assert.Equal(t, now, o.CreatedAt)

	//カートはそのまま
	assert.Len(t, c.Lines, 1)
}

func TestMaterializeOrder_FreeDeliveryAboveThreshold(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "p1", d("250"), "", d("2"))

	o, _, err := MaterializeOrder(c, MaterializeInput{
		UserID:        1,
		Shipping:      testShipping(),
		PaymentMethod: PaymentMethodCOD,
		Policy:        DeliveryPolicy{Fee: d("40"), FreeAbove: d("500")},
	})
	require.NoError(t, err)

	assert.True(t, o.DeliveryFee.IsZero())
	assert.True(t, o.Total.Equal(d("500")))
	assert.Equal(t, OrderPaymentPending, o.PaymentStatus)
}

// 明細はカートの行をコピーしている（後でカートを変えても明細は変わらない）
func TestMaterializeOrder_LinesDoNotAliasCart(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80"), "", d("1"))

	_, lines, err := MaterializeOrder(c, MaterializeInput{UserID: 1, Shipping: testShipping(), PaymentMethod: PaymentMethodCOD})
	require.NoError(t, err)

	c.Lines[0].Name = "Heirloom Tomato"
	c.Lines[0].UnitPricePerKg = d("120")
	c.UpdateQuantity(c.Lines[0].CompositeID, 5)
	c.Clear()

	require.Len(t, lines, 1)
	assert.Equal(t, "Tomato", lines[0].ProductName)
	assert.True(t, lines[0].UnitPricePerKg.Equal(d("80")))
	assert.Equal(t, int64(1), lines[0].Quantity)
}

// 送料に端数があっても合計は小計+送料と一致する
func TestMaterializeOrder_TotalIsSumOfRoundedParts(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80.01"), "", d("0.25"))

	order, _, err := MaterializeOrder(c, MaterializeInput{
		UserID:        1,
		Shipping:      testShipping(),
		PaymentMethod: PaymentMethodCOD,
		Policy:        DeliveryPolicy{Fee: d("40.004"), FreeAbove: d("500")},
	})
	require.NoError(t, err)

	assert.Equal(t, "20.00", order.Subtotal.StringFixed(2))
	assert.Equal(t, "40.00", order.DeliveryFee.StringFixed(2))
	assert.True(t, order.Total.Equal(order.Subtotal.Add(order.DeliveryFee)), "total=%s", order.Total)
	assert.Equal(t, "60.00", order.Total.StringFixed(2))
}
