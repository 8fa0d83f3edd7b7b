package handler

import (
	"net/http"
	"strings"

	repo "haritsattva/internal/repository"
	"haritsattva/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminUserHandler struct {
	uc *usecase.AdminUserUsecase
}

func NewAdminUserHandler(uc *usecase.AdminUserUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active"`
}

type SetRoleRequest struct {
	Role string `json:"role"`
}

// GET /admin/users?page&limit&q&role
func (h *AdminUserHandler) List(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	out, err := h.uc.List(c.Request().Context(), repo.UserListQuery{
		Page:  page,
		Limit: limit,
		Q:     c.QueryParam("q"),
		Role:  strings.TrimSpace(c.QueryParam("role")),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) SetActive(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	var req SetActiveRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return badRequest(c, "is_active required")
	}

	out, err := h.uc.SetActive(c.Request().Context(), adminID, userID, *req.IsActive)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) SetRole(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	var req SetRoleRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.SetRole(c.Request().Context(), adminID, userID, req.Role)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) ForceLogout(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	userID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid user_id")
	}

	res, err := h.uc.ForceLogout(c.Request().Context(), adminID, userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
