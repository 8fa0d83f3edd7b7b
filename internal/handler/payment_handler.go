package handler

import (
	"io"
	"net/http"

	"haritsattva/internal/usecase"

	"github.com/labstack/echo/v4"
)

const webhookSignatureHeader = "X-Razorpay-Signature"

// webhookの本文は署名検証に使うので上限付きでそのまま読む
const maxWebhookBody = 1 << 20

type PaymentHandler struct {
	uc *usecase.PaymentUsecase
}

func NewPaymentHandler(uc *usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

type VerifyPaymentRequest struct {
	GatewayOrderID   string `json:"gateway_order_id"`
	GatewayPaymentID string `json:"gateway_payment_id"`
	Signature        string `json:"signature"`
}

// POST /payments/orders/:id
func (h *PaymentHandler) Initiate(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.InitiatePayment(c.Request().Context(), userID, orderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /payments/verify
func (h *PaymentHandler) Verify(c echo.Context) error {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}

	var req VerifyPaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.VerifyPayment(c.Request().Context(), userID, usecase.VerifyPaymentInput{
		GatewayOrderID:   req.GatewayOrderID,
		GatewayPaymentID: req.GatewayPaymentID,
		Signature:        req.Signature,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /payments/webhook
func (h *PaymentHandler) Webhook(c echo.Context) error {
	raw, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
	if err != nil {
		return badRequest(c, "invalid body")
	}

	out, err := h.uc.HandleWebhook(c.Request().Context(), raw, c.Request().Header.Get(webhookSignatureHeader))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// POST /admin/payments/:id/refund
func (h *PaymentHandler) Refund(c echo.Context) error {
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return unauthorized(c)
	}
	paymentID, ok := parseIDParam(c, "id")
	if !ok {
		return badRequest(c, "invalid id")
	}

	out, err := h.uc.AdminRefund(c.Request().Context(), adminID, paymentID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
