package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/usecase"

	"github.com/labstack/echo/v4"
)

// 全APIで共通の { success, message } 形式
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func success(message string) Response {
	return Response{Success: true, Message: message}
}

func fail(message string) Response {
	return Response{Success: false, Message: message}
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, fail(he.Message))
	}

	//500
	slog.ErrorContext(c.Request().Context(), "unhandled error",
		"method", c.Request().Method,
		"path", c.Path(),
		"err", err,
	)
	return c.JSON(http.StatusInternalServerError, fail("internal error"))
}

func badRequest(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, fail(message))
}

// 顧客ID（RequireUserの後で使う）
func ownerIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(string)
	return id, ok && id != ""
}

// 監査ログのactorは管理者email
func actorFromContext(c echo.Context) string {
	email, _ := c.Get(middleware.CtxUserEmailKey).(string)
	return email
}

// "true" と true の両方を受ける
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		*b = flexBool(t)
	case string:
		switch t {
		case "true":
			*b = true
		case "false", "":
			*b = false
		default:
			return fmt.Errorf("invalid boolean %q", t)
		}
	case nil:
		*b = false
	default:
		return fmt.Errorf("invalid boolean %v", t)
	}
	return nil
}
