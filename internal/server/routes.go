package server

import (
	"net/http"

	"storefront/internal/config"
	"storefront/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Order      *handler.OrderHandler
	AdminOrder *handler.AdminOrderHandler
	User       *handler.UserHandler
}

func RegisterRoutes(e *echo.Echo, cfg config.Config, h Handlers) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "API Working")
	})

	h.Order.RegisterRoutes(e, cfg)
	h.AdminOrder.RegisterRoutes(e, cfg)
	h.User.RegisterRoutes(e, cfg)
}
