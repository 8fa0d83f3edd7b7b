package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	CartSessionCookie = "cart_session"
	CartSessionHeader = "X-Cart-Session"
	CtxCartSessionKey = "cart_session" // string
)

const cartSessionMaxAge = 30 * 24 * time.Hour

// カートのセッションIDを決める。cookie -> header の順、無ければ発行してcookieで返す
func CartSession(cookieSecure bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sid := ""
			if ck, err := c.Cookie(CartSessionCookie); err == nil {
				sid = strings.TrimSpace(ck.Value)
			}
			if sid == "" {
				sid = strings.TrimSpace(c.Request().Header.Get(CartSessionHeader))
			}

			//形式が不正なら作り直す
			if _, err := uuid.Parse(sid); err != nil {
				sid = uuid.NewString()
				c.SetCookie(&http.Cookie{
					Name:     CartSessionCookie,
					Value:    sid,
					Path:     "/",
					MaxAge:   int(cartSessionMaxAge.Seconds()),
					HttpOnly: true,
					Secure:   cookieSecure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			//cookieを使えないクライアント向け
			c.Response().Header().Set(CartSessionHeader, sid)
			c.Set(CtxCartSessionKey, sid)
			return next(c)
		}
	}
}
