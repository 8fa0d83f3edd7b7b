package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"github.com/shopspring/decimal"
)

type ProductUsecase struct {
	productRepo  repo.ProductRepository
	categoryRepo repo.CategoryRepository
	tx           repo.TransactionManager
	now          func() time.Time
}

// DI
func NewProductUsecase(
	productRepo repo.ProductRepository,
	categoryRepo repo.CategoryRepository,
	tx repo.TransactionManager,
) *ProductUsecase {
	return &ProductUsecase{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		tx:           tx,
		now:          time.Now,
	}
}

// GET /products のクエリ
type ListProductsInput struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Sort       string
}

func (in ListProductsInput) validate() error {
	bad := func(msg string) error { return NewHTTPError(http.StatusBadRequest, msg) }
	switch {
	case in.Page < 1:
		return bad("invalid page")
	case in.Limit < 1 || in.Limit > 100:
		return bad("invalid limit")
	case len(in.Q) > 100:
		return bad("q too long")
	case in.CategoryID != nil && *in.CategoryID <= 0:
		return bad("invalid category_id")
	case in.MinPrice != nil && in.MinPrice.IsNegative():
		return bad("min_price must be >= 0")
	case in.MaxPrice != nil && in.MaxPrice.IsNegative():
		return bad("max_price must be >= 0")
	case in.MinPrice != nil && in.MaxPrice != nil && in.MinPrice.GreaterThan(*in.MaxPrice):
		return bad("min_price must be <= max_price")
	}
	switch in.Sort {
	case "", "new", "price_asc", "price_desc":
		return nil
	}
	return bad("invalid sort")
}

type ProductListOutput struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

func (u *ProductUsecase) ListPublicProducts(ctx context.Context, in ListProductsInput) (ProductListOutput, error) {
	if err := in.validate(); err != nil {
		return ProductListOutput{}, err
	}

	items, total, err := u.productRepo.ListPublic(ctx, repo.ProductListQuery{
		Page:       in.Page,
		Limit:      in.Limit,
		Q:          strings.TrimSpace(in.Q),
		CategoryID: in.CategoryID,
		MinPrice:   in.MinPrice,
		MaxPrice:   in.MaxPrice,
		Sort:       in.Sort,
	})
	if err != nil {
		return ProductListOutput{}, fromRepo(err)
	}
	return ProductListOutput{Items: items, Total: total, Page: in.Page, Limit: in.Limit}, nil
}

// 非公開の商品は存在しない扱い
func (u *ProductUsecase) GetProductDetail(ctx context.Context, productID int64) (model.Product, error) {
	if productID <= 0 {
		return model.Product{}, errInvalidProductID
	}
	p, err := u.productRepo.FindByID(ctx, productID)
	if err != nil {
		return model.Product{}, fromRepo(err)
	}
	if !p.IsActive {
		return model.Product{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return p, nil
}

var errInvalidProductID = NewHTTPError(http.StatusBadRequest, "invalid product id")

type AdminProductInput struct {
	CategoryID  *int64
	Name        string
	Description string
	PricePerKg  decimal.Decimal
	ImageURL    string
	IsActive    bool
}

func (in AdminProductInput) toModel(id int64) model.Product {
	return model.Product{
		ID:          id,
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		PricePerKg:  in.PricePerKg,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsActive:    in.IsActive,
	}
}

// kg単価は正で小数2桁まで。カテゴリは存在するものだけ
func (u *ProductUsecase) checkProductInput(ctx context.Context, in AdminProductInput) error {
	name := strings.TrimSpace(in.Name)
	switch {
	case name == "":
		return NewHTTPError(http.StatusBadRequest, "name required")
	case len(name) > 255:
		return NewHTTPError(http.StatusBadRequest, "name too long")
	case !in.PricePerKg.IsPositive():
		return NewHTTPError(http.StatusBadRequest, "price_per_kg must be > 0")
	case !in.PricePerKg.Equal(in.PricePerKg.Round(2)):
		return NewHTTPError(http.StatusBadRequest, "price_per_kg must have at most 2 decimals")
	case len(in.ImageURL) > 500:
		return NewHTTPError(http.StatusBadRequest, "image_url too long")
	}

	if in.CategoryID == nil {
		return nil
	}
	if *in.CategoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid category_id")
	}
	_, err := u.categoryRepo.FindByID(ctx, *in.CategoryID)
	if errors.Is(err, repo.ErrNotFound) {
		return NewHTTPError(http.StatusBadRequest, "category not found")
	}
	return fromRepo(err)
}

func (u *ProductUsecase) AdminCreateProduct(ctx context.Context, adminUserID int64, in AdminProductInput) (model.Product, error) {
	if err := requireActor(adminUserID); err != nil {
		return model.Product{}, err
	}
	if err := u.checkProductInput(ctx, in); err != nil {
		return model.Product{}, err
	}

	p, err := u.productRepo.Create(ctx, in.toModel(0))
	if err != nil {
		return model.Product{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return p, nil
}

// 既存の注文明細は単価のスナップショットを持つので値上げの影響を受けない
func (u *ProductUsecase) AdminUpdateProduct(ctx context.Context, adminUserID int64, productID int64, in AdminProductInput) error {
	if err := requireActor(adminUserID); err != nil {
		return err
	}
	if productID <= 0 {
		return errInvalidProductID
	}
	if err := u.checkProductInput(ctx, in); err != nil {
		return err
	}
	return fromRepo(u.productRepo.Update(ctx, in.toModel(productID)))
}

func (u *ProductUsecase) AdminDeleteProduct(ctx context.Context, adminUserID int64, productID int64) error {
	if err := requireActor(adminUserID); err != nil {
		return err
	}
	if productID <= 0 {
		return errInvalidProductID
	}
	return fromRepo(u.productRepo.SoftDelete(ctx, productID))
}

// 公開状態の切り替えと監査ログは同じトランザクション
func (u *ProductUsecase) AdminSetAvailability(ctx context.Context, adminUserID int64, productID int64, active bool) error {
	if err := requireActor(adminUserID); err != nil {
		return err
	}
	if productID <= 0 {
		return errInvalidProductID
	}

	return u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		p, err := r.Products().FindByID(ctx, productID)
		if err != nil {
			return fromRepo(err)
		}
		if p.IsActive == active {
			return nil
		}
		if err := r.Products().SetActive(ctx, productID, active); err != nil {
			return fromRepo(err)
		}
		return fromRepo(r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateAvailability,
			ResourceType: model.AuditResourceProduct,
			ResourceID:   productID,
			BeforeJSON:   fmt.Sprintf(`{"is_active":%t}`, p.IsActive),
			AfterJSON:    fmt.Sprintf(`{"is_active":%t}`, active),
			CreatedAt:    u.now(),
		}))
	})
}
