package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Linesから計算し直した合計
func recomputeTotal(c *Cart) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.Lines {
		sum = sum.Add(l.UnitPricePerKg.Mul(l.WeightKg).Mul(decimal.NewFromInt(l.Quantity)))
	}
	return sum
}

func TestComputeCompositeID_Deterministic(t *testing.T) {
	a := ComputeCompositeID(1, d("0.5"))
	assert.Equal(t, a, ComputeCompositeID(1, d("0.5")))
	assert.Equal(t, a, ComputeCompositeID(1, d("0.50")))
	assert.Equal(t, "1_0.5", a)

	assert.NotEqual(t, a, ComputeCompositeID(2, d("0.5")))
	assert.NotEqual(t, a, ComputeCompositeID(1, d("1")))
	//"1_10" と "11_0" が衝突しない
	assert.NotEqual(t, ComputeCompositeID(1, d("10")), ComputeCompositeID(11, d("0")))
}

func TestCart_AddItem_MergesSameProductAndWeight(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80"), "tomato.jpg", d("0.5"))
	c.AddItem(1, "Tomato", d("80"), "tomato.jpg", d("0.5"))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, int64(2), c.Lines[0].Quantity)
	assert.Equal(t, int64(2), c.TotalItems())
}

func TestCart_AddItem_DifferentWeightIsNewLine(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80"), "", d("0.5"))
	c.AddItem(1, "Tomato", d("80"), "", d("1"))

	assert.Len(t, c.Lines, 2)
	assert.Equal(t, "1_0.5", c.Lines[0].CompositeID)
	assert.Equal(t, "1_1", c.Lines[1].CompositeID)
}

func TestCart_UpdateQuantity_ZeroAndNegativeRemove(t *testing.T) {
	for _, q := range []int64{0, -1} {
		c := NewCart()
		line := c.AddItem(1, "Tomato", d("80"), "", d("0.5"))

		c.UpdateQuantity(line.CompositeID, q)

		_, ok := c.Find(line.CompositeID)
		assert.False(t, ok, "quantity=%d", q)
		assert.True(t, c.IsEmpty())
	}
}

func TestCart_UpdateQuantity_SetsValue(t *testing.T) {
	c := NewCart()
	line := c.AddItem(1, "Tomato", d("80"), "", d("0.5"))

	c.UpdateQuantity(line.CompositeID, 5)
	c.UpdateQuantity("missing_1", 3)

	got, ok := c.Find(line.CompositeID)
	require.True(t, ok)
	assert.Equal(t, int64(5), got.Quantity)
	assert.Len(t, c.Lines, 1)
}

func TestCart_RemoveItem_MissingIsNoop(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80"), "", d("0.5"))
	before := append([]CartLine(nil), c.Lines...)

	c.RemoveItem("9_1")

	assert.Equal(t, before, c.Lines)
}

func TestCart_UpdateWeight_RekeysLine(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80"), "", d("0.5"))
	c.AddItem(2, "Onion", d("40"), "", d("1"))

	c.UpdateWeight("1_0.5", d("1.5"))

	require.Len(t, c.Lines, 2)
	assert.Equal(t, "1_1.5", c.Lines[0].CompositeID)
	assert.True(t, c.Lines[0].WeightKg.Equal(d("1.5")))
	assert.Equal(t, ComputeCompositeID(c.Lines[0].ProductID, c.Lines[0].WeightKg), c.Lines[0].CompositeID)
	_, ok := c.Find("1_0.5")
	assert.False(t, ok)
}

func TestCart_UpdateWeight_MergesOnCollision(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80"), "", d("0.5"))
	c.AddItem(1, "Tomato", d("80"), "", d("1"))
	c.UpdateQuantity("1_1", 3)

	c.UpdateWeight("1_0.5", d("1"))

	require.Len(t, c.Lines, 1)
	assert.Equal(t, "1_1", c.Lines[0].CompositeID)
	assert.Equal(t, int64(4), c.Lines[0].Quantity)
}

func TestCart_UpdateWeight_MissingIsNoop(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80"), "", d("0.5"))

	c.UpdateWeight("2_0.5", d("1"))

	assert.Equal(t, "1_0.5", c.Lines[0].CompositeID)
}

func TestCart_Total_NoDrift(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Tomato", d("80"), "", d("0.25"))
	assert.True(t, c.Total().Equal(recomputeTotal(c)))

	c.AddItem(2, "Spinach", d("33.33"), "", d("0.75"))
	c.AddItem(1, "Tomato", d("80"), "", d("0.25"))
	assert.True(t, c.Total().Equal(recomputeTotal(c)))

	c.UpdateQuantity("2_0.75", 7)
	assert.True(t, c.Total().Equal(recomputeTotal(c)))

	c.UpdateWeight("1_0.25", d("2"))
	assert.True(t, c.Total().Equal(recomputeTotal(c)))

	c.RemoveItem("2_0.75")
	assert.True(t, c.Total().Equal(recomputeTotal(c)))
	assert.True(t, c.Total().Equal(d("320")))

	c.Clear()
	assert.True(t, c.Total().IsZero())
	assert.Equal(t, int64(0), c.TotalItems())
}

func TestCart_Total_KeepsFullPrecision(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "Herb", d("33.33"), "", d("0.1"))
	c.UpdateQuantity("1_0.1", 3)

	//33.33 * 0.1 * 3 = 9.999 （丸めない）
	assert.Equal(t, "9.999", c.Total().String())
}

func TestCart_EndToEndScenario(t *testing.T) {
	c := NewCart()
	c.AddItem(1, "p1", d("100"), "", d("0.5"))
	c.AddItem(1, "p1", d("100"), "", d("0.5"))

	assert.Equal(t, "100.00", c.Total().StringFixed(2))
}
