package handler

import (
	"net/http"
	"strings"

	repo "haritsattva/internal/repository"
	"haritsattva/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type AdminUpdateOrderStatusRequest struct {
	Status string `json:"status"`
}

type AdminUpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status"`
}

// GET /admin/orders?page&limit&status&payment_status&user_id&from&to
func (h *AdminOrderHandler) List(c echo.Context) error {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return badRequest(c, "invalid page")
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return badRequest(c, "invalid limit")
	}
	userID, err := queryInt64Ptr(c, "user_id")
	if err != nil || (userID != nil && *userID <= 0) {
		return badRequest(c, "invalid user_id")
	}
	from, err := usecase.ParseDateParam(c.QueryParam("from"), false)
	if err != nil {
		return badRequest(c, "invalid from")
	}
	to, err := usecase.ParseDateParam(c.QueryParam("to"), true)
	if err != nil {
		return badRequest(c, "invalid to")
	}

	out, err := h.uc.List(c.Request().Context(), repo.AdminOrderListFilter{
		Page:          page,
		Limit:         limit,
		Status:        strings.TrimSpace(c.QueryParam("status")),
		PaymentStatus: strings.TrimSpace(c.QueryParam("payment_status")),
		UserID:        userID,
		From:          from,
		To:            to,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) Detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.Detail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /admin/orders/:id/status
func (h *AdminOrderHandler) UpdateStatus(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req AdminUpdateOrderStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), adminID, id, usecase.AdminUpdateOrderStatusInput{Status: req.Status})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// PUT /admin/orders/:id/payment-status
func (h *AdminOrderHandler) UpdatePaymentStatus(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req AdminUpdatePaymentStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdatePaymentStatus(c.Request().Context(), adminID, id, usecase.AdminUpdatePaymentStatusInput{
		PaymentStatus: req.PaymentStatus,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
