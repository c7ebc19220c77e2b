package handler

import (
	"net/http"
	"strings"

	"storefront/internal/analytics"
	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc        *usecase.AdminOrderUsecase
	analytics *usecase.AnalyticsUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase, analyticsUC *usecase.AnalyticsUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, analytics: analyticsUC}
}

type OrderStatusUpdateRequest struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// approve-refund / settle-cod / process-cancellation 共通
type OrderIDRequest struct {
	OrderID string `json:"orderId"`
}

type dashboardResponse struct {
	Success bool                `json:"success"`
	Stats   analytics.Dashboard `json:"stats"`
}

type analyticsResponse struct {
	Success bool           `json:"success"`
	Stats   analytics.Full `json:"stats"`
}

type auditLogsResponse struct {
	Success bool             `json:"success"`
	Logs    []model.AuditLog `json:"logs"`
}

type sweepResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

// 管理者ルートは顧客ルートと同じ /api/order 配下
func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	admin := e.Group("/api/order")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.OperatorGuard(cfg))

	admin.POST("/list", h.list)
	admin.POST("/status", h.updateStatus)
	admin.POST("/approve-refund", h.approveRefund)
	admin.GET("/dashboard-stats", h.dashboardStats)
	admin.GET("/analytics", h.fullAnalytics)
	admin.POST("/settle-cod", h.settleCOD)
	admin.POST("/process-cancellation", h.processCancellation)
	admin.POST("/sweep-unpaid", h.sweepUnpaid)
	admin.GET("/audit/:id", h.auditTrail)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	orders, err := h.uc.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ordersResponse{Success: true, Orders: orders})
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	// ★操作した管理者を取得（監査ログ用）
	actor := actorFromContext(c)

	if err := h.uc.UpdateStatus(c.Request().Context(), actor, strings.TrimSpace(req.OrderID), req.Status); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, success("Status Updated"))
}

func (h *AdminOrderHandler) approveRefund(c echo.Context) error {
	orderID, err := bindOrderID(c)
	if err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.ApproveRefund(c.Request().Context(), actorFromContext(c), orderID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, success("Refund issued"))
}

func (h *AdminOrderHandler) dashboardStats(c echo.Context) error {
	stats, err := h.analytics.Dashboard(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dashboardResponse{Success: true, Stats: stats})
}

func (h *AdminOrderHandler) fullAnalytics(c echo.Context) error {
	stats, err := h.analytics.Full(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, analyticsResponse{Success: true, Stats: stats})
}

func (h *AdminOrderHandler) settleCOD(c echo.Context) error {
	orderID, err := bindOrderID(c)
	if err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.SettleCOD(c.Request().Context(), actorFromContext(c), orderID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, success("COD payment settled"))
}

func (h *AdminOrderHandler) processCancellation(c echo.Context) error {
	orderID, err := bindOrderID(c)
	if err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.ProcessCancellation(c.Request().Context(), actorFromContext(c), orderID); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, success("Cancellation moved to processing"))
}

func (h *AdminOrderHandler) sweepUnpaid(c echo.Context) error {
	deleted, err := h.uc.SweepUnpaid(c.Request().Context(), actorFromContext(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sweepResponse{Success: true, Message: "Unpaid orders swept", Deleted: deleted})
}

func (h *AdminOrderHandler) auditTrail(c echo.Context) error {
	logs, err := h.uc.AuditTrail(c.Request().Context(), c.Param("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, auditLogsResponse{Success: true, Logs: logs})
}

func bindOrderID(c echo.Context) (string, error) {
	var req OrderIDRequest
	if err := c.Bind(&req); err != nil {
		return "", err
	}
	return strings.TrimSpace(req.OrderID), nil
}
