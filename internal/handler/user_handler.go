package handler

import (
	"net/http"

	"storefront/internal/analytics"
	"storefront/internal/config"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /api/user の注文集計まわり
type UserHandler struct {
	orders    *usecase.OrderUsecase
	analytics *usecase.AnalyticsUsecase
}

func NewUserHandler(orders *usecase.OrderUsecase, analyticsUC *usecase.AnalyticsUsecase) *UserHandler {
	return &UserHandler{orders: orders, analytics: analyticsUC}
}

type userStatsResponse struct {
	Success bool                         `json:"success"`
	Stats   analytics.CustomerOrderStats `json:"stats"`
}

type usersResponse struct {
	Success bool                      `json:"success"`
	Users   []usecase.CustomerSummary `json:"users"`
}

func (h *UserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/api/user")
	g.Use(middleware.AuthJWT(cfg))

	g.GET("/stats", h.myStats, middleware.RequireUser())
	g.GET("/admin/users", h.listUsers, middleware.OperatorGuard(cfg))
}

func (h *UserHandler) myStats(c echo.Context) error {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, fail("unauthorized"))
	}

	stats, err := h.orders.MyOrderStats(c.Request().Context(), ownerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, userStatsResponse{Success: true, Stats: stats})
}

func (h *UserHandler) listUsers(c echo.Context) error {
	users, err := h.analytics.ListCustomers(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, usersResponse{Success: true, Users: users})
}
