package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velora-shop/velora/internal/handlers"
	"github.com/velora-shop/velora/internal/middleware/auth"
)

type Deps struct {
	AuthHandler    *handlers.AuthHandler
	ProductHandler *handlers.ProductHandler
	OrderHandler   *handlers.OrderHandler
	UserHandler    *handlers.UserHandler
	SearchHandler  *handlers.SearchHandler
	JWTSecret      []byte
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	authMW := auth.Middleware(d.JWTSecret)

	api := e.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/register", d.AuthHandler.Register)
	authGroup.POST("/login", d.AuthHandler.Login)
	authGroup.POST("/logout", d.AuthHandler.Logout)
	authGroup.POST("/refresh", d.AuthHandler.Refresh)
	authGroup.GET("/me", d.AuthHandler.Me, authMW)

	products := api.Group("/products")
	products.GET("", d.ProductHandler.ListProducts)
	products.GET("/:id", d.ProductHandler.GetProduct)
	products.POST("", d.ProductHandler.CreateProduct, authMW, auth.RequireAdmin)
	products.PUT("/:id", d.ProductHandler.UpdateProduct, authMW, auth.RequireAdmin)
	products.DELETE("/:id", d.ProductHandler.DeleteProduct, authMW, auth.RequireAdmin)

	api.GET("/search", d.SearchHandler.SearchProducts)

	orders := api.Group("/orders", authMW)
	orders.POST("", d.OrderHandler.CreateOrder)
	orders.GET("", d.OrderHandler.ListOrders)
	orders.GET("/:id", d.OrderHandler.GetOrder)
	orders.PATCH("/:id/status", d.OrderHandler.UpdateStatus, auth.RequireAdmin)
	orders.POST("/:id/cancel", d.OrderHandler.CancelOrder)

	users := api.Group("/users", authMW, auth.RequireAdmin)
	users.GET("", d.UserHandler.ListUsers)
	users.GET("/:id", d.UserHandler.GetUser)
	users.PATCH("/:id/role", d.UserHandler.UpdateUserRole)
}
