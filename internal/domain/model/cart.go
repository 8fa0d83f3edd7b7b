package model

import "github.com/shopspring/decimal"

// Cart は1セッション分のカート。DBには保存しない（セッションストアに置く）。
// 合計は保持せず、読むたびにLinesから計算する。
type Cart struct {
	Lines []CartLine `json:"lines"`
}

func NewCart() *Cart {
	return &Cart{Lines: []CartLine{}}
}

// 同じcompositeIDがあれば数量+1、無ければ数量1で末尾に追加
func (c *Cart) AddItem(productID int64, name string, unitPricePerKg decimal.Decimal, imageRef string, weightKg decimal.Decimal) CartLine {
	id := ComputeCompositeID(productID, weightKg)
	if i := c.indexOf(id); i >= 0 {
		c.Lines[i].Quantity++
		return c.Lines[i]
	}

	line := CartLine{
		CompositeID:    id,
		ProductID:      productID,
		Name:           name,
		UnitPricePerKg: unitPricePerKg,
		ImageRef:       imageRef,
		WeightKg:       weightKg,
		Quantity:       1,
	}
	c.Lines = append(c.Lines, line)
	return line
}

// 無いIDは何もしない
func (c *Cart) RemoveItem(compositeID string) {
	i := c.indexOf(compositeID)
	if i < 0 {
		return
	}
	c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
}

// 0以下は削除扱い
func (c *Cart) UpdateQuantity(compositeID string, quantity int64) {
	if quantity <= 0 {
		c.RemoveItem(compositeID)
		return
	}
	if i := c.indexOf(compositeID); i >= 0 {
		c.Lines[i].Quantity = quantity
	}
}

// UpdateWeight は重さを変えてIDも振り直す。
// 振り直したIDが既にある場合は、既存の行に数量を足して1行にまとめる。
func (c *Cart) UpdateWeight(compositeID string, weightKg decimal.Decimal) {
	i := c.indexOf(compositeID)
	if i < 0 {
		return
	}

	newID := ComputeCompositeID(c.Lines[i].ProductID, weightKg)
	if newID == compositeID {
		c.Lines[i].WeightKg = weightKg
		return
	}

	if j := c.indexOf(newID); j >= 0 {
		c.Lines[j].Quantity += c.Lines[i].Quantity
		c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
		return
	}

	c.Lines[i].WeightKg = weightKg
	c.Lines[i].CompositeID = newID
}

func (c *Cart) Clear() {
	c.Lines = []CartLine{}
}

func (c *Cart) Find(compositeID string) (CartLine, bool) {
	if i := c.indexOf(compositeID); i >= 0 {
		return c.Lines[i], true
	}
	return CartLine{}, false
}

func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// 数量の合計
func (c *Cart) TotalItems() int64 {
	var n int64
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// 金額の合計（配送料は含まない）
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Amount())
	}
	return total
}

func (c *Cart) indexOf(compositeID string) int {
	for i, l := range c.Lines {
		if l.CompositeID == compositeID {
			return i
		}
	}
	return -1
}
