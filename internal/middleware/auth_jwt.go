package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"haritsattva/internal/config"
	"haritsattva/internal/domain/model"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey       = "user_id"       // int64
	CtxUserRoleKey     = "user_role"     // string
	CtxTokenVersionKey = "token_version" // int
)

var errBadClaims = errors.New("bad claims")

// アクセストークンから取り出す本人情報
type principal struct {
	UserID       int64
	Role         model.Role
	TokenVersion int
}

// Authorization: Bearer <jwt> を検証して本人情報を context に積む。
// HS256 と exp 必須。中身が壊れていれば全部 401
func AuthJWT(cfg *config.Config) echo.MiddlewareFunc {
	keyFunc := func(*jwt.Token) (any, error) { return []byte(cfg.JWT.Secret), nil }
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request())
			if !ok {
				return unauthorized(c)
			}

			claims := jwt.MapClaims{}
			token, err := parser.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !token.Valid {
				return unauthorized(c)
			}

			p, err := principalFrom(claims)
			if err != nil {
				return unauthorized(c)
			}

			c.Set(CtxUserIDKey, p.UserID)
			c.Set(CtxUserRoleKey, string(p.Role))
			c.Set(CtxTokenVersionKey, p.TokenVersion)
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, found := strings.Cut(r.Header.Get("Authorization"), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// sub は文字列で発行しているが数値でも受ける
func principalFrom(claims jwt.MapClaims) (principal, error) {
	var p principal

	switch sub := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseInt(sub, 10, 64)
		if err != nil {
			return p, errBadClaims
		}
		p.UserID = id
	case float64:
		p.UserID = int64(sub)
	default:
		return p, errBadClaims
	}
	if p.UserID <= 0 {
		return p, errBadClaims
	}

	role, _ := claims["role"].(string)
	p.Role = model.Role(role)
	if !p.Role.Valid() {
		return p, errBadClaims
	}

	//JSONの数値はfloat64で来る
	tv, ok := claims["tv"].(float64)
	if !ok || tv < 0 || tv != float64(int(tv)) {
		return p, errBadClaims
	}
	p.TokenVersion = int(tv)
	return p, nil
}

type errorResponse struct {
	Error string `json:"error"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Error: msg}
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
}
