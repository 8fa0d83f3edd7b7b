package repository

import (
	"context"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"gorm.io/gorm"
)

type addressGormRepository struct {
	db *gorm.DB
}

// DI
func NewAddressGormRepository(db *gorm.DB) repo.AddressRepository {
	return &addressGormRepository{db: db}
}

func (r *addressGormRepository) Create(ctx context.Context, address model.Address) (model.Address, error) {
	if err := r.db.WithContext(ctx).Create(&address).Error; err != nil {
		return model.Address{}, translateError(err)
	}
	return address, nil
}

// デフォルトが先頭、あとは登録順
func (r *addressGormRepository) ListByUserID(ctx context.Context, userID int64) ([]model.Address, error) {
	list := []model.Address{}
	err := r.db.WithContext(ctx).
		Where(&model.Address{UserID: userID}).
		Order("is_default desc, id asc").
		Find(&list).Error
	if err != nil {
		return nil, translateError(err)
	}
	return list, nil
}

func (r *addressGormRepository) FindByID(ctx context.Context, addressID int64) (model.Address, error) {
	var a model.Address
	if err := r.db.WithContext(ctx).Take(&a, addressID).Error; err != nil {
		return model.Address{}, translateError(err)
	}
	return a, nil
}

// 宛先の中身だけ。user_id / is_default はここでは変えない
func (r *addressGormRepository) Update(ctx context.Context, address model.Address) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.Address{}).
		Where("id = ?", address.ID).
		Select("name", "email", "phone", "society_name", "flat_number", "updated_at").
		Updates(address))
}

func (r *addressGormRepository) Delete(ctx context.Context, addressID int64) error {
	return affected(r.db.WithContext(ctx).Delete(&model.Address{}, addressID))
}

// デフォルトはユーザーごとに1件
func (r *addressGormRepository) SetDefault(ctx context.Context, userID, addressID int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		owned := tx.Model(&model.Address{}).Where("user_id = ?", userID)

		var target model.Address
		if err := owned.Session(&gorm.Session{}).Where("id = ?", addressID).Take(&target).Error; err != nil {
			return translateError(err)
		}
		if target.IsDefault {
			return nil
		}

		if err := owned.Session(&gorm.Session{}).
			Where("is_default = ?", true).
			Update("is_default", false).Error; err != nil {
			return translateError(err)
		}
		return affected(owned.Session(&gorm.Session{}).
			Where("id = ?", addressID).
			Update("is_default", true))
	})
}
