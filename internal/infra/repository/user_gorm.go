package repository

import (
	"context"
	"errors"
	"strings"

	"haritsattva/internal/domain/model"
	domainrepo "haritsattva/internal/repository"

	"gorm.io/gorm"
)

type userGormRepository struct {
	db *gorm.DB
}

// DI
func NewUserGormRepository(db *gorm.DB) domainrepo.UserRepository {
	return &userGormRepository{db: db}
}

// email重複は ErrConflict
func (r *userGormRepository) Create(ctx context.Context, user *model.User) error {
	return translateError(r.db.WithContext(ctx).Create(user).Error)
}

// 見つからなければ (nil, nil)
func (r *userGormRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.takeOne(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *userGormRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	return r.takeOne(ctx, "id = ?", id)
}

func (r *userGormRepository) takeOne(ctx context.Context, cond string, arg any) (*model.User, error) {
	var u model.User
	err := translateError(r.db.WithContext(ctx).Where(cond, arg).Take(&u).Error)
	if errors.Is(err, domainrepo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// 管理画面のユーザー一覧。q は email / name の部分一致
func (r *userGormRepository) List(ctx context.Context, q domainrepo.UserListQuery) ([]model.User, int64, error) {
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = 50
	}

	tx := r.db.WithContext(ctx).Model(&model.User{}).Scopes(whereEq("role", q.Role))
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("email ILIKE ? OR name ILIKE ?", like, like)
	}
	return countAndFind[model.User](tx, q.Page, q.Limit)
}

func (r *userGormRepository) Update(ctx context.Context, user *model.User) error {
	return translateError(r.db.WithContext(ctx).Save(user).Error)
}

// 発行済みのJWTを全部無効にする
func (r *userGormRepository) IncrementTokenVersion(ctx context.Context, id int64) error {
	return affected(r.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", id).
		UpdateColumn("token_version", gorm.Expr("token_version + 1")))
}
