package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestWeightOptions_AscendingAndPositive(t *testing.T) {
	opts := WeightOptions()
	assert.Len(t, opts, 7)

	for i, w := range opts {
		assert.True(t, w.ValueKg.IsPositive(), "index %d", i)
		if i > 0 {
			assert.True(t, w.ValueKg.GreaterThan(opts[i-1].ValueKg), "index %d", i)
		}
	}
}

func TestWeightOptions_ReturnsCopy(t *testing.T) {
	opts := WeightOptions()
	opts[0].Label = "changed"

	assert.Equal(t, "100 grams", WeightOptions()[0].Label)
}

func TestFindWeightOption_TrailingZeros(t *testing.T) {
	w, ok := FindWeightOption(decimal.RequireFromString("0.50"))
	assert.True(t, ok)
	assert.Equal(t, "500g", w.DisplayShort)

	assert.False(t, IsValidWeight(decimal.RequireFromString("0.3")))
	assert.False(t, IsValidWeight(decimal.Zero))
}
