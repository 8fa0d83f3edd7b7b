package server

import (
	"net/http"

	"haritsattva/internal/config"
	"haritsattva/internal/handler"
	"haritsattva/internal/middleware"
	repo "haritsattva/internal/repository"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

type RouterParams struct {
	fx.In

	Config   *config.Config
	UserRepo repo.UserRepository

	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	Category     *handler.CategoryHandler
	Cart         *handler.CartHandler
	Order        *handler.OrderHandler
	Payment      *handler.PaymentHandler
	Address      *handler.AddressHandler
	AdminOrder   *handler.AdminOrderHandler
	AdminProduct *handler.AdminProductHandler
	AdminUser    *handler.AdminUserHandler
	AdminReport  *handler.AdminReportHandler
}

func RegisterRoutes(e *echo.Echo, p RouterParams) {
	cartSession := middleware.CartSession(p.Config.HTTP.CookieSecure)
	//JWT必須 + token_version一致
	authed := []echo.MiddlewareFunc{
		middleware.AuthJWT(p.Config),
		middleware.TokenVersionGuard(p.UserRepo),
	}
	paymentLimit := middleware.NewRateLimiter(p.Config.RateLimit.RPS, p.Config.RateLimit.Burst).Middleware()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, handler.SuccessResponse{Message: "ok"})
	})

	//公開
	e.POST("/auth/register", p.Auth.Register)
	e.POST("/auth/login", p.Auth.Login)
	e.GET("/auth/me", p.Auth.Me, authed...)

	e.GET("/products", p.Product.List)
	e.GET("/products/:id", p.Product.Detail)
	e.GET("/categories", p.Category.List)
	e.GET("/weights", p.Product.Weights)

	//カートはログイン不要
	cart := e.Group("/cart", cartSession)
	cart.GET("", p.Cart.Get)
	cart.DELETE("", p.Cart.Clear)
	cart.POST("/items", p.Cart.AddItem)
	cart.PATCH("/items/:id", p.Cart.UpdateQuantity)
	cart.PATCH("/items/:id/weight", p.Cart.UpdateWeight)
	cart.DELETE("/items/:id", p.Cart.RemoveItem)

	//注文はカートのセッションも必要
	orders := e.Group("/orders", authed...)
	orders.POST("", p.Order.Create, cartSession)
	orders.GET("", p.Order.List)
	orders.GET("/:id", p.Order.Detail)
	orders.POST("/:id/cancel", p.Order.Cancel)

	addresses := e.Group("/addresses", authed...)
	addresses.GET("", p.Address.List)
	addresses.POST("", p.Address.Create)
	addresses.PUT("/:id", p.Address.Update)
	addresses.DELETE("/:id", p.Address.Delete)
	addresses.PUT("/:id/default", p.Address.SetDefault)

	payments := e.Group("/payments", paymentLimit)
	payments.POST("/orders/:id", p.Payment.Initiate, authed...)
	payments.POST("/verify", p.Payment.Verify, authed...)
	//署名で検証するのでJWTは不要
	payments.POST("/webhook", p.Payment.Webhook)

	// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
	admin := e.Group("/admin", append(authed, middleware.AdminRoleGuard())...)

	admin.POST("/products", p.AdminProduct.Create)
	admin.PUT("/products/:id", p.AdminProduct.Update)
	admin.DELETE("/products/:id", p.AdminProduct.Delete)
	admin.PUT("/products/:id/availability", p.AdminProduct.SetAvailability)

	admin.POST("/categories", p.Category.Create)
	admin.PUT("/categories/:id", p.Category.Update)
	admin.DELETE("/categories/:id", p.Category.Delete)

	admin.GET("/orders", p.AdminOrder.List)
	admin.GET("/orders/:id", p.AdminOrder.Detail)
	admin.PUT("/orders/:id/status", p.AdminOrder.UpdateStatus)
	admin.PUT("/orders/:id/payment-status", p.AdminOrder.UpdatePaymentStatus)

	admin.POST("/payments/:id/refund", p.Payment.Refund)

	admin.GET("/users", p.AdminUser.List)
	admin.PUT("/users/:id/active", p.AdminUser.SetActive)
	admin.PUT("/users/:id/role", p.AdminUser.SetRole)
	admin.POST("/users/:id/force-logout", p.AdminUser.ForceLogout)

	admin.GET("/analytics/summary", p.AdminReport.Summary)
	admin.GET("/audit-logs", p.AdminReport.AuditLogs)
}
