package model

import "github.com/shopspring/decimal"

// 選択できる内容量（kg）
type WeightOption struct {
	ValueKg      decimal.Decimal `json:"value_kg"`
	Label        string          `json:"label"`
	DisplayShort string          `json:"display_short"`
}

// valueKgの昇順で固定
var weightOptions = []WeightOption{
	{ValueKg: decimal.RequireFromString("0.1"), Label: "100 grams", DisplayShort: "100g"},
	{ValueKg: decimal.RequireFromString("0.25"), Label: "250 grams", DisplayShort: "250g"},
	{ValueKg: decimal.RequireFromString("0.5"), Label: "500 grams", DisplayShort: "500g"},
	{ValueKg: decimal.RequireFromString("0.75"), Label: "750 grams", DisplayShort: "750g"},
	{ValueKg: decimal.RequireFromString("1"), Label: "1 kilogram", DisplayShort: "1kg"},
	{ValueKg: decimal.RequireFromString("1.5"), Label: "1.5 kilograms", DisplayShort: "1.5kg"},
	{ValueKg: decimal.RequireFromString("2"), Label: "2 kilograms", DisplayShort: "2kg"},
}

// WeightOptions は内容量の一覧をコピーで返す。
func WeightOptions() []WeightOption {
	out := make([]WeightOption, len(weightOptions))
	copy(out, weightOptions)
	return out
}

// 0.50 と 0.5 は同じ重さとして扱う
func FindWeightOption(kg decimal.Decimal) (WeightOption, bool) {
	for _, w := range weightOptions {
		if w.ValueKg.Equal(kg) {
			return w, true
		}
	}
	return WeightOption{}, false
}

func IsValidWeight(kg decimal.Decimal) bool {
	_, ok := FindWeightOption(kg)
	return ok
}
