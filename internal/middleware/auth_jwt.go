package middleware

import (
	"errors"
	"net/http"
	"strings"

	"storefront/internal/config"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey    = "user_id"    // string（顧客トークンのid）
	CtxUserEmailKey = "user_email" // string（管理者トークンのemail）
)

const (
	msgTokenMissing = "Not Authorized. Token missing or malformed."
	msgTokenInvalid = "Invalid token. Please login again."
)

// bearerAuth用のJWT検証ミドルウェア。
// idとemailはどちらか片方でもよい（管理者トークンはemailのみ）
func AuthJWT(cfg config.Config) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgTokenMissing))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgTokenMissing))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgTokenMissing))
			}

			//JWTをパースして検証する
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgTokenInvalid))
			}

			//claimsを取り出す
			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgTokenInvalid))
			}

			userID := parseString(claims["id"])
			email := parseString(claims["email"])
			if userID == "" && email == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgTokenInvalid))
			}

			//contextへ保存
			if userID != "" {
				c.Set(CtxUserIDKey, userID)
			}
			if email != "" {
				c.Set(CtxUserEmailKey, email)
			}

			return next(c)
		}
	}
}

// RequireUserは顧客ID付きのトークンだけ通す
func RequireUser() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if id, ok := c.Get(CtxUserIDKey).(string); !ok || id == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON(msgTokenInvalid))
			}
			return next(c)
		}
	}
}

type errorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func errorJSON(msg string) errorResponse {
	return errorResponse{Success: false, Message: msg}
}

func parseString(v interface{}) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}
