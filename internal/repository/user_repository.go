package repository

import (
	"context"

	"haritsattva/internal/domain/model"
)

type UserListQuery struct {
	Page  int
	Limit int
	Q     string
	Role  string
}

// 保存・取得を約束
type UserRepository interface {
	//新規ユーザー作成（email重複はErrConflict）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。無ければ nil, nil
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。無ければ nil, nil
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	List(ctx context.Context, q UserListQuery) ([]model.User, int64, error)
	// ユーザー情報の更新=>アクティブかどうか・ロールの変更・最後のログイン更新など
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
