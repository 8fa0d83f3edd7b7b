package repository

import (
	"context"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"gorm.io/gorm"
)

type AuditLogGormRepository struct {
	db *gorm.DB
}

func NewAuditLogGormRepository(db *gorm.DB) *AuditLogGormRepository {
	return &AuditLogGormRepository{db: db}
}

func (r *AuditLogGormRepository) Create(ctx context.Context, log model.AuditLog) error {
	return translateError(r.db.WithContext(ctx).Create(&log).Error)
}

// 監査ログ検索。limit は最大200
func (r *AuditLogGormRepository) List(ctx context.Context, q repo.AuditLogQuery) ([]model.AuditLog, int64, error) {
	limit := q.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	tx := r.db.WithContext(ctx).Model(&model.AuditLog{}).Scopes(
		whereEq("action", string(q.Action)),
		whereEq("resource_type", string(q.ResourceType)),
		createdBetween(q.From, q.To),
	)
	if q.ActorUserID != nil {
		tx = tx.Where("actor_user_id = ?", *q.ActorUserID)
	}
	if q.ResourceID != nil {
		tx = tx.Where("resource_id = ?", *q.ResourceID)
	}
	return countAndFind[model.AuditLog](tx, q.Page, limit)
}
