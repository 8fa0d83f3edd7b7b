package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"haritsattva/internal/middleware"
	"haritsattva/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type SuccessResponse struct {
	Message string `json:"message"`
}

// usecaseのHTTPErrorはそのまま返す。それ以外は500
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}
	return err
}

// middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す
func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

func getCartSession(c echo.Context) string {
	sid, _ := c.Get(middleware.CtxCartSessionKey).(string)
	return sid
}

func parseIDParam(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// 空ならdef
func queryInt(c echo.Context, name string, def int) (int, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func queryInt64Ptr(c echo.Context, name string) (*int64, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	x, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, err
	}
	return &x, nil
}

func unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}

// echoのHTTPErrorHandler。ハンドラから漏れたエラーをJSONにそろえる
type ErrorHandler struct {
	logger *slog.Logger
}

func NewErrorHandler(logger *slog.Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

func (h *ErrorHandler) Handle(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	if he, ok := usecase.AsHTTPError(err); ok {
		_ = c.JSON(he.Status, ErrorResponse{Error: he.Message})
		return
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		msg := http.StatusText(httpErr.Code)
		if m, ok := httpErr.Message.(string); ok {
			msg = m
		}
		_ = c.JSON(httpErr.Code, ErrorResponse{Error: msg})
		return
	}

	//内部の詳細はクライアントに出さない
	h.logger.ErrorContext(c.Request().Context(), "unhandled error",
		slog.Any("error", err),
		slog.String("path", c.Request().URL.Path),
		slog.String("method", c.Request().Method),
	)
	_ = c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
