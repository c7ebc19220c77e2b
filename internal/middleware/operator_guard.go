package middleware

import (
	"net/http"
	"strings"

	"storefront/internal/config"

	"github.com/labstack/echo/v4"
)

//contextに入っているemailが管理者emailかどうかを確認します。

func OperatorGuard(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			email, _ := c.Get(CtxUserEmailKey).(string)

			//管理者email以外は拒否
			if email == "" || !strings.EqualFold(email, cfg.AdminEmail) {
				return c.JSON(http.StatusForbidden, errorJSON("Not Authorized. Login Again!"))
			}

			return next(c)
		}
	}
}
