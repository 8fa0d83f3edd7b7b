package repository

import (
	"context"
	"strings"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"gorm.io/gorm"
)

type ProductGormRepository struct {
	db *gorm.DB
}

// DI
func NewProductGormRepository(db *gorm.DB) *ProductGormRepository {
	return &ProductGormRepository{db: db}
}

// 公開中の商品だけ。並び順は sort 次第で、同値は id で安定させる
func (r *ProductGormRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	tx := r.db.WithContext(ctx).Model(&model.Product{}).
		Where("is_active = ?", true).
		Scopes(productFilter(q))

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return []model.Product{}, 0, translateError(err)
	}

	products := []model.Product{}
	if err := tx.Scopes(productSort(q.Sort), paginate(q.Page, q.Limit)).Find(&products).Error; err != nil {
		return []model.Product{}, 0, translateError(err)
	}
	return products, total, nil
}

func productFilter(q repo.ProductListQuery) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if s := strings.TrimSpace(q.Q); s != "" {
			db = db.Where("name ILIKE ?", "%"+s+"%")
		}
		if q.CategoryID != nil {
			db = db.Where("category_id = ?", *q.CategoryID)
		}
		//kg単価の範囲
		if q.MinPrice != nil {
			db = db.Where("price_per_kg >= ?", *q.MinPrice)
		}
		if q.MaxPrice != nil {
			db = db.Where("price_per_kg <= ?", *q.MaxPrice)
		}
		return db
	}
}

func productSort(sort string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch sort {
		case "price_asc":
			return db.Order("price_per_kg asc, id asc")
		case "price_desc":
			return db.Order("price_per_kg desc, id desc")
		default:
			return db.Order("created_at desc, id desc")
		}
	}
}

// IDで商品を取得（非公開も含む）
func (r *ProductGormRepository) FindByID(ctx context.Context, id int64) (model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return model.Product{}, translateError(err)
	}
	return p, nil
}

func (r *ProductGormRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	if err := r.db.WithContext(ctx).Create(&p).Error; err != nil {
		return model.Product{}, translateError(err)
	}
	return p, nil
}

// map で渡すのは category_id を NULL に戻す更新もあるから
func (r *ProductGormRepository) Update(ctx context.Context, p model.Product) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]any{
		"category_id":  p.CategoryID,
		"name":         p.Name,
		"description":  p.Description,
		"price_per_kg": p.PricePerKg,
		"image_url":    p.ImageURL,
		"is_active":    p.IsActive,
	}))
}

func (r *ProductGormRepository) SetActive(ctx context.Context, id int64, active bool) error {
	return affected(r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("is_active", active))
}

// deleted_at を立てるだけ。過去の注文明細はスナップショットで残る
func (r *ProductGormRepository) SoftDelete(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Product{}, id))
}
