package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"haritsattva/internal/config"
	"haritsattva/internal/domain/model"
	repo "haritsattva/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

type UserDTO struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	TokenVersion int        `json:"token_version"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

// bcryptは72バイトまでしか見ない
type AuthRegisterInput struct {
	Name     string `validate:"max=255"`
	Email    string `validate:"required,email,max=255"`
	Password string `validate:"required,min=8,max=72"`
}

type AuthLoginInput struct {
	Email    string `validate:"required,email"`
	Password string `validate:"required"`
}

type AuthLoginOutput struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type AuthUsecase struct {
	jwtSecret  []byte
	accessTTL  time.Duration
	bcryptCost int
	users      repo.UserRepository
	validator  StructValidator
	now        func() time.Time
}

func NewAuthUsecase(cfg *config.Config, users repo.UserRepository, validator StructValidator) *AuthUsecase {
	return &AuthUsecase{
		jwtSecret:  []byte(cfg.JWT.Secret),
		accessTTL:  cfg.JWT.AccessTTL,
		bcryptCost: cfg.Auth.BcryptCost,
		users:      users,
		validator:  validator,
		now:        time.Now,
	}
}

func (u *AuthUsecase) Register(ctx context.Context, in AuthRegisterInput) (UserDTO, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validator.Validate(in); err != nil {
		return UserDTO{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	//email重複チェック
	existing, err := u.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if existing != nil {
		return UserDTO{}, NewHTTPError(http.StatusConflict, "email already used")
	}

	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(in.Password), u.bcryptCost)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}

	user := &model.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(pwHash),
		Role:         model.RoleUser,
		TokenVersion: 0,
		IsActive:     true,
	}
	if err := u.users.Create(ctx, user); err != nil {
		//同時登録
		if errors.Is(err, repo.ErrConflict) {
			return UserDTO{}, NewHTTPError(http.StatusConflict, "email already used")
		}
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return toUserDTO(user), nil
}

// メールが無い場合もパスワード違いも同じ401
func (u *AuthUsecase) Login(ctx context.Context, in AuthLoginInput) (AuthLoginOutput, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := u.validator.Validate(in); err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := u.users.FindByEmail(ctx, in.Email)
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return AuthLoginOutput{}, NewHTTPError(http.StatusForbidden, "user is inactive")
	}

	now := u.now()
	user.LastLoginAt = &now
	_ = u.users.Update(ctx, user)

	token, err := u.issueAccessToken(user, now)
	if err != nil {
		return AuthLoginOutput{}, NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	return AuthLoginOutput{User: toUserDTO(user), Token: token}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (UserDTO, error) {
	if userID <= 0 {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil {
		return UserDTO{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if user == nil {
		return UserDTO{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if !user.IsActive {
		return UserDTO{}, NewHTTPError(http.StatusForbidden, "user is inactive")
	}
	return toUserDTO(user), nil
}

// sub / role / tv を持つ HS256 のアクセストークン
func (u *AuthUsecase) issueAccessToken(user *model.User, now time.Time) (JwtAccessTokenDTO, error) {
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  now.Add(u.accessTTL).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(u.jwtSecret)
	if err != nil {
		return JwtAccessTokenDTO{}, err
	}

	return JwtAccessTokenDTO{
		AccessToken:  signed,
		TokenType:    "Bearer",
		ExpiresIn:    int(u.accessTTL.Seconds()),
		TokenVersion: user.TokenVersion,
	}, nil
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
		LastLoginAt:  u.LastLoginAt,
		CreatedAt:    u.CreatedAt,
	}
}
