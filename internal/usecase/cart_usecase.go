package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"github.com/shopspring/decimal"
)

// 1行あたりの数量上限
const maxLineQuantity = 99

// CartUsecase は /cart の業務ロジック。カートはセッションストアに置き、DBには書かない。
type CartUsecase struct {
	store       repo.CartStore
	productRepo repo.ProductRepository
	policy      model.DeliveryPolicy
}

func NewCartUsecase(store repo.CartStore, productRepo repo.ProductRepository, policy model.DeliveryPolicy) *CartUsecase {
	return &CartUsecase{
		store:       store,
		productRepo: productRepo,
		policy:      policy,
	}
}

type CartLineView struct {
	CompositeID    string `json:"composite_id"`
	ProductID      int64  `json:"product_id"`
	Name           string `json:"name"`
	ImageRef       string `json:"image_ref"`
	UnitPricePerKg string `json:"unit_price_per_kg"`
	WeightKg       string `json:"weight_kg"`
	WeightLabel    string `json:"weight_label"`
	Quantity       int64  `json:"quantity"`
	LineAmount     string `json:"line_amount"`
}

// 金額は表示用に2桁の文字列
type CartView struct {
	Lines       []CartLineView `json:"lines"`
	TotalItems  int64          `json:"total_items"`
	Subtotal    string         `json:"subtotal"`
	DeliveryFee string         `json:"delivery_fee"`
	Total       string         `json:"total"`
}

type AddCartItemInput struct {
	ProductID int64
	WeightKg  decimal.Decimal
}

func (u *CartUsecase) GetCart(ctx context.Context, sessionID string) (CartView, error) {
	cart, err := u.load(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	return u.view(cart), nil
}

// 同じ商品・同じ重さは数量+1
func (u *CartUsecase) AddItem(ctx context.Context, sessionID string, in AddCartItemInput) (CartView, error) {
	if in.ProductID <= 0 {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if !model.IsValidWeight(in.WeightKg) {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid weight_kg")
	}

	cart, err := u.load(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	//商品チェック（公開のみ）。名前と単価はこの時点の値をカートに持つ
	p, err := u.productRepo.FindByID(ctx, in.ProductID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartView{}, NewHTTPError(http.StatusNotFound, "product not found")
	}
	if err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !p.IsActive {
		return CartView{}, NewHTTPError(http.StatusNotFound, "product not found")
	}

	id := model.ComputeCompositeID(p.ID, in.WeightKg)
	if l, ok := cart.Find(id); ok && l.Quantity >= maxLineQuantity {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "quantity too large")
	}

	cart.AddItem(p.ID, p.Name, p.PricePerKg, p.ImageURL, in.WeightKg)
	return u.save(ctx, sessionID, cart)
}

// 0以下は削除。無いIDは何もしない
func (u *CartUsecase) UpdateQuantity(ctx context.Context, sessionID, compositeID string, quantity int64) (CartView, error) {
	if strings.TrimSpace(compositeID) == "" {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	if quantity > maxLineQuantity {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "quantity too large")
	}

	cart, err := u.load(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	cart.UpdateQuantity(compositeID, quantity)
	return u.save(ctx, sessionID, cart)
}

// 重さの変更。IDも振り直し、同じIDがあれば1行にまとめる
func (u *CartUsecase) UpdateWeight(ctx context.Context, sessionID, compositeID string, weightKg decimal.Decimal) (CartView, error) {
	if strings.TrimSpace(compositeID) == "" {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid item id")
	}
	if !model.IsValidWeight(weightKg) {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "invalid weight_kg")
	}

	cart, err := u.load(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}

	line, ok := cart.Find(compositeID)
	if ok {
		//まとめた結果が上限を超えないか
		if other, dup := cart.Find(model.ComputeCompositeID(line.ProductID, weightKg)); dup && other.CompositeID != compositeID {
			if other.Quantity+line.Quantity > maxLineQuantity {
				return CartView{}, NewHTTPError(http.StatusBadRequest, "quantity too large")
			}
		}
	}

	cart.UpdateWeight(compositeID, weightKg)
	return u.save(ctx, sessionID, cart)
}

func (u *CartUsecase) RemoveItem(ctx context.Context, sessionID, compositeID string) (CartView, error) {
	cart, err := u.load(ctx, sessionID)
	if err != nil {
		return CartView{}, err
	}
	cart.RemoveItem(compositeID)
	return u.save(ctx, sessionID, cart)
}

func (u *CartUsecase) Clear(ctx context.Context, sessionID string) (CartView, error) {
	if strings.TrimSpace(sessionID) == "" {
		return CartView{}, NewHTTPError(http.StatusBadRequest, "cart session required")
	}
	if err := u.store.Delete(ctx, sessionID); err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return u.view(model.NewCart()), nil
}

func (u *CartUsecase) load(ctx context.Context, sessionID string) (*model.Cart, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, NewHTTPError(http.StatusBadRequest, "cart session required")
	}
	cart, err := u.store.Load(ctx, sessionID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return cart, nil
}

func (u *CartUsecase) save(ctx context.Context, sessionID string, cart *model.Cart) (CartView, error) {
	if err := u.store.Save(ctx, sessionID, cart); err != nil {
		return CartView{}, NewHTTPError(http.StatusInternalServerError, "cart store error")
	}
	return u.view(cart), nil
}

func (u *CartUsecase) view(cart *model.Cart) CartView {
	return buildCartView(cart, u.policy)
}

func buildCartView(cart *model.Cart, policy model.DeliveryPolicy) CartView {
	lines := make([]CartLineView, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		label := l.WeightKg.String() + "kg"
		if w, ok := model.FindWeightOption(l.WeightKg); ok {
			label = w.DisplayShort
		}
		lines = append(lines, CartLineView{
			CompositeID:    l.CompositeID,
			ProductID:      l.ProductID,
			Name:           l.Name,
			ImageRef:       l.ImageRef,
			UnitPricePerKg: money(l.UnitPricePerKg),
			WeightKg:       l.WeightKg.String(),
			WeightLabel:    label,
			Quantity:       l.Quantity,
			LineAmount:     money(l.Amount()),
		})
	}

	subtotal := cart.Total()
	return CartView{
		Lines:       lines,
		TotalItems:  cart.TotalItems(),
		Subtotal:    money(subtotal),
		DeliveryFee: money(policy.FeeFor(subtotal)),
		Total:       money(policy.Payable(subtotal)),
	}
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}
