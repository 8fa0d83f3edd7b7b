package handler

import (
	"net/http"
	"strings"

	"haritsattva/internal/domain/model"
	"haritsattva/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// /products の公開API
type ProductHandler struct {
	uc *usecase.ProductUsecase
}

// DI
func NewProductHandler(uc *usecase.ProductUsecase) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) List(c echo.Context) error {
	// page（default 1）
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return badRequest(c, "invalid page")
	}
	// limit（default 20）
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return badRequest(c, "invalid limit")
	}

	categoryID, err := queryInt64Ptr(c, "category_id")
	if err != nil {
		return badRequest(c, "invalid category_id")
	}

	minPrice, err := queryDecimalPtr(c, "min_price")
	if err != nil {
		return badRequest(c, "invalid min_price")
	}
	maxPrice, err := queryDecimalPtr(c, "max_price")
	if err != nil {
		return badRequest(c, "invalid max_price")
	}

	out, err := h.uc.ListPublicProducts(c.Request().Context(), usecase.ListProductsInput{
		Page:       page,
		Limit:      limit,
		Q:          c.QueryParam("q"),
		CategoryID: categoryID,
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Sort:       c.QueryParam("sort"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ProductHandler) Detail(c echo.Context) error {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	p, err := h.uc.GetProductDetail(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

type weightsResponse struct {
	Items []model.WeightOption `json:"items"`
}

// GET /weights 選べる重さの一覧
func (h *ProductHandler) Weights(c echo.Context) error {
	return c.JSON(http.StatusOK, weightsResponse{Items: model.WeightOptions()})
}

func queryDecimalPtr(c echo.Context, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
