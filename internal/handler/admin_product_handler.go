package handler

import (
	"net/http"

	"haritsattva/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductRequest struct {
	CategoryID  *int64          `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	PricePerKg  decimal.Decimal `json:"price_per_kg"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active"`
}

type AvailabilityRequest struct {
	IsActive *bool `json:"is_active"`
}

// /admin/products
type AdminProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewAdminProductHandler(uc *usecase.ProductUsecase) *AdminProductHandler {
	return &AdminProductHandler{uc: uc}
}

func (r ProductRequest) toInput() usecase.AdminProductInput {
	return usecase.AdminProductInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		PricePerKg:  r.PricePerKg,
		ImageURL:    r.ImageURL,
		IsActive:    r.IsActive,
	}
}

func (h *AdminProductHandler) Create(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	p, err := h.uc.AdminCreateProduct(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminProductHandler) Update(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req ProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.AdminUpdateProduct(c.Request().Context(), adminID, productID, req.toInput()); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "product updated"})
}

func (h *AdminProductHandler) Delete(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	if err := h.uc.AdminDeleteProduct(c.Request().Context(), adminID, productID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "product deleted"})
}

// PUT /admin/products/:id/availability
func (h *AdminProductHandler) SetAvailability(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	productID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	var req AvailabilityRequest
	if err := c.Bind(&req); err != nil || req.IsActive == nil {
		return badRequest(c, "is_active required")
	}

	if err := h.uc.AdminSetAvailability(c.Request().Context(), adminID, productID, *req.IsActive); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "availability updated"})
}
