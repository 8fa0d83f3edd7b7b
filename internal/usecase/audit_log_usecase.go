package usecase

import (
	"context"
	"net/http"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"
)

type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AuditLogUsecase) List(ctx context.Context, q repo.AuditLogQuery) (AuditLogListOutput, error) {
	if q.Page < 1 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if q.Limit < 1 || q.Limit > 100 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if q.ActorUserID != nil && *q.ActorUserID <= 0 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid actor_user_id")
	}
	if q.ResourceID != nil && *q.ResourceID <= 0 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid resource_id")
	}
	if q.From != nil && q.To != nil && q.From.After(*q.To) {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "from must be before to")
	}

	logs, total, err := u.auditRepo.List(ctx, q)
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if logs == nil {
		logs = []model.AuditLog{}
	}
	return AuditLogListOutput{Items: logs, Total: total, Page: q.Page, Limit: q.Limit}, nil
}
