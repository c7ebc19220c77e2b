package handler

import (
	"net/http"
	"strings"

	"storefront/internal/config"
	"storefront/internal/domain/model"
	"storefront/internal/middleware"
	"storefront/internal/payment"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

type OrderHandler struct {
	uc *usecase.OrderUsecase
}

func NewOrderHandler(uc *usecase.OrderUsecase) *OrderHandler {
	return &OrderHandler{uc: uc}
}

// 明細は商品オブジェクト（_id）にsize/quantityを足した形で届く
type OrderItemRequest struct {
	ID        string `json:"_id"`
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

type PlaceOrderRequest struct {
	Items   []OrderItemRequest    `json:"items"`
	Amount  float64               `json:"amount"`
	Address model.ShippingAddress `json:"address"`
}

type VerifyCheckoutRequest struct {
	OrderID string   `json:"orderId"`
	Success flexBool `json:"success"`
}

type VerifyHostedOrderRequest struct {
	RazorpayOrderID string `json:"razorpay_order_id"`
}

type CancelOrderRequest struct {
	OrderID string `json:"orderId"`
	Reason  string `json:"reason"`
}

type sessionResponse struct {
	Success    bool   `json:"success"`
	SessionURL string `json:"session_url"`
}

type hostedOrderResponse struct {
	Success bool                `json:"success"`
	Order   payment.HostedOrder `json:"order"`
}

type ordersResponse struct {
	Success bool          `json:"success"`
	Orders  []model.Order `json:"orders"`
}

// /api/order の顧客ルートを登録
func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/api/order")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.RequireUser())

	g.POST("/place", h.placeCOD)
	g.POST("/stripe", h.placeCheckout)
	g.POST("/razorpay", h.placeHostedOrder)
	g.POST("/verifyStripe", h.verifyCheckout)
	g.POST("/verifyRazorpay", h.verifyHostedOrder)
	g.POST("/userorders", h.userOrders)
	g.POST("/cancel", h.cancel)
}

func (h *OrderHandler) placeCOD(c echo.Context) error {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, fail("unauthorized"))
	}

	in, err := bindPlaceOrder(c)
	if err != nil {
		return badRequest(c, "invalid body")
	}

	if _, err := h.uc.PlaceCOD(c.Request().Context(), ownerID, in); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, success("Order Placed"))
}

func (h *OrderHandler) placeCheckout(c echo.Context) error {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, fail("unauthorized"))
	}

	in, err := bindPlaceOrder(c)
	if err != nil {
		return badRequest(c, "invalid body")
	}

	//戻り先はOriginヘッダから作る
	origin := c.Request().Header.Get(echo.HeaderOrigin)

	sessionURL, err := h.uc.PlaceCheckout(c.Request().Context(), ownerID, in, origin)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, sessionResponse{Success: true, SessionURL: sessionURL})
}

func (h *OrderHandler) placeHostedOrder(c echo.Context) error {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, fail("unauthorized"))
	}

	in, err := bindPlaceOrder(c)
	if err != nil {
		return badRequest(c, "invalid body")
	}

	railOrder, err := h.uc.PlaceHostedOrder(c.Request().Context(), ownerID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, hostedOrderResponse{Success: true, Order: railOrder})
}

func (h *OrderHandler) verifyCheckout(c echo.Context) error {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, fail("unauthorized"))
	}

	var req VerifyCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	paid, err := h.uc.VerifyCheckout(c.Request().Context(), ownerID, strings.TrimSpace(req.OrderID), bool(req.Success))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, Response{Success: paid})
}

func (h *OrderHandler) verifyHostedOrder(c echo.Context) error {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, fail("unauthorized"))
	}

	var req VerifyHostedOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	paid, err := h.uc.VerifyHostedOrder(c.Request().Context(), ownerID, strings.TrimSpace(req.RazorpayOrderID))
	if err != nil {
		return writeError(c, err)
	}
	if !paid {
		return c.JSON(http.StatusOK, fail("Payment Failed"))
	}
	return c.JSON(http.StatusOK, success("Payment Successful"))
}

func (h *OrderHandler) userOrders(c echo.Context) error {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, fail("unauthorized"))
	}

	orders, err := h.uc.ListMyOrders(c.Request().Context(), ownerID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, ordersResponse{Success: true, Orders: orders})
}

func (h *OrderHandler) cancel(c echo.Context) error {
	ownerID, ok := ownerIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, fail("unauthorized"))
	}

	var req CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	if err := h.uc.RequestCancellation(c.Request().Context(), ownerID, strings.TrimSpace(req.OrderID), req.Reason); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, success("Cancellation initiated"))
}

func bindPlaceOrder(c echo.Context) (usecase.PlaceOrderInput, error) {
	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return usecase.PlaceOrderInput{}, err
	}

	items := make([]usecase.PlaceItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		id := it.ProductID
		if id == "" {
			id = it.ID
		}
		items = append(items, usecase.PlaceItemInput{
			ProductID: strings.TrimSpace(id),
			Size:      strings.TrimSpace(it.Size),
			Quantity:  it.Quantity,
		})
	}

	return usecase.PlaceOrderInput{
		Items:   items,
		Amount:  req.Amount,
		Address: req.Address,
	}, nil
}
