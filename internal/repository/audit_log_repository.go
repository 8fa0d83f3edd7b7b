package repository

import (
	"context"
	"time"

	"haritsattva/internal/domain/model"
)

// 管理画面の監査ログ検索条件
type AuditLogQuery struct {
	Page         int
	Limit        int
	ActorUserID  *int64
	Action       model.AuditAction
	ResourceType model.AuditResourceType
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
}

type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	//新しい順。件数も返す
	List(ctx context.Context, q AuditLogQuery) ([]model.AuditLog, int64, error)
}
