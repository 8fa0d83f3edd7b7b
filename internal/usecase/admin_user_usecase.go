package usecase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"
)

type AdminUserUsecase struct {
	users     repo.UserRepository
	auditRepo repo.AuditLogRepository
	now       func() time.Time
}

func NewAdminUserUsecase(users repo.UserRepository, auditRepo repo.AuditLogRepository) *AdminUserUsecase {
	return &AdminUserUsecase{users: users, auditRepo: auditRepo, now: time.Now}
}

type UserListOutput struct {
	Items []UserDTO `json:"items"`
	Total int64     `json:"total"`
	Page  int       `json:"page"`
	Limit int       `json:"limit"`
}

type ForceLogoutOutput struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

func (u *AdminUserUsecase) List(ctx context.Context, q repo.UserListQuery) (UserListOutput, error) {
	if q.Page < 1 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if q.Limit < 1 || q.Limit > 100 {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	q.Q = strings.TrimSpace(q.Q)
	q.Role = strings.ToUpper(strings.TrimSpace(q.Role))
	if q.Role != "" && !model.Role(q.Role).Valid() {
		return UserListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}

	users, total, err := u.users.List(ctx, q)
	if err != nil {
		return UserListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	items := make([]UserDTO, 0, len(users))
	for i := range users {
		items = append(items, toUserDTO(&users[i]))
	}
	return UserListOutput{Items: items, Total: total, Page: q.Page, Limit: q.Limit}, nil
}

// 停止するとtoken_versionも上げて、発行済みトークンを無効にする
func (u *AdminUserUsecase) SetActive(ctx context.Context, adminUserID, targetUserID int64, active bool) (UserDTO, error) {
	user, err := u.target(ctx, adminUserID, targetUserID)
	if err != nil {
		return UserDTO{}, err
	}
	if adminUserID == targetUserID && !active {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot deactivate yourself")
	}
	if user.IsActive == active {
		return toUserDTO(user), nil
	}

	before := user.IsActive
	user.IsActive = active
	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !active {
		if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
			return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		user.TokenVersion++
	}

	if err := u.audit(ctx, adminUserID, targetUserID,
		fmt.Sprintf(`{"is_active":%t}`, before),
		fmt.Sprintf(`{"is_active":%t}`, active),
	); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func (u *AdminUserUsecase) SetRole(ctx context.Context, adminUserID, targetUserID int64, role string) (UserDTO, error) {
	newRole := model.Role(strings.ToUpper(strings.TrimSpace(role)))
	if !newRole.Valid() {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "invalid role")
	}
	user, err := u.target(ctx, adminUserID, targetUserID)
	if err != nil {
		return UserDTO{}, err
	}
	//自分の管理者権限は外せない
	if adminUserID == targetUserID && newRole != model.RoleAdmin {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, "cannot change your own role")
	}
	if user.Role == newRole {
		return toUserDTO(user), nil
	}

	before := user.Role
	user.Role = newRole
	if err := u.users.Update(ctx, user); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	//roleはトークンに入っているので古いトークンは無効にする
	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	user.TokenVersion++

	if err := u.audit(ctx, adminUserID, targetUserID,
		fmt.Sprintf(`{"role":%q}`, before),
		fmt.Sprintf(`{"role":%q}`, newRole),
	); err != nil {
		return UserDTO{}, err
	}
	return toUserDTO(user), nil
}

func (u *AdminUserUsecase) ForceLogout(ctx context.Context, adminUserID, targetUserID int64) (ForceLogoutOutput, error) {
	if _, err := u.target(ctx, adminUserID, targetUserID); err != nil {
		return ForceLogoutOutput{}, err
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil || user == nil {
		return ForceLogoutOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return ForceLogoutOutput{UserID: user.ID, NewTokenVersion: user.TokenVersion}, nil
}

func (u *AdminUserUsecase) target(ctx context.Context, adminUserID, targetUserID int64) (*model.User, error) {
	if adminUserID <= 0 {
		return nil, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if targetUserID <= 0 {
		return nil, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil {
		return nil, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return nil, NewHTTPError(http.StatusNotFound, "not found")
	}
	return user, nil
}

func (u *AdminUserUsecase) audit(ctx context.Context, adminUserID, targetUserID int64, before, after string) error {
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  adminUserID,
		Action:       model.AuditActionUpdateUser,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   before,
		AfterJSON:    after,
		CreatedAt:    u.now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}
