package handler

import (
	"net/http"

	"haritsattva/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /cartのHTTP。カートはログイン不要でセッションIDで引く
type CartHandler struct {
	uc *usecase.CartUsecase
}

// DI
func NewCartHandler(uc *usecase.CartUsecase) *CartHandler {
	return &CartHandler{uc: uc}
}

type AddCartRequest struct {
	ProductID int64           `json:"product_id"`
	WeightKg  decimal.Decimal `json:"weight_kg"`
}

type UpdateCartQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

type UpdateCartWeightRequest struct {
	WeightKg decimal.Decimal `json:"weight_kg"`
}

func (h *CartHandler) Get(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), getCartSession(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) AddItem(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.AddItem(c.Request().Context(), getCartSession(c), usecase.AddCartItemInput{
		ProductID: req.ProductID,
		WeightKg:  req.WeightKg,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// :id は "<product_id>_<weight>" の複合ID
func (h *CartHandler) UpdateQuantity(c echo.Context) error {
	var req UpdateCartQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateQuantity(c.Request().Context(), getCartSession(c), c.Param("id"), req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) UpdateWeight(c echo.Context) error {
	var req UpdateCartWeightRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.UpdateWeight(c.Request().Context(), getCartSession(c), c.Param("id"), req.WeightKg)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) RemoveItem(c echo.Context) error {
	out, err := h.uc.RemoveItem(c.Request().Context(), getCartSession(c), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) Clear(c echo.Context) error {
	out, err := h.uc.Clear(c.Request().Context(), getCartSession(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
