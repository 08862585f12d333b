package middleware

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-order-service/internal/logger"
	"github.com/iliyamo/concert-order-service/internal/model"
)

// Context keys set by JWTAuth.
const (
	ContextUserID    = "user_id"
	ContextRole      = "role"
	ContextPrincipal = "principal"
)

// JWTAuth returns an Echo middleware that validates a Bearer access token
// issued by the auth service and stores the caller under ContextUserID,
// ContextRole and ContextPrincipal.  The "sub" claim carries the numeric
// user id, either as a JSON number or a decimal string.
func JWTAuth(secret string) echo.MiddlewareFunc {
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
			}
			raw := strings.TrimPrefix(auth, "Bearer ")

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !tok.Valid {
				logger.Ctx(c.Request().Context()).Debug().Err(err).Msg("rejected bearer token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
			}
			uid, ok := subject(claims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid claims"})
			}
			role, _ := claims["role"].(string)

			c.Set(ContextUserID, uid)
			c.Set(ContextRole, role)
			c.Set(ContextPrincipal, model.Principal{UserID: uid, Role: role})

			ctx := c.Request().Context()
			l := logger.Ctx(ctx).With().Uint64("auth_user_id", uid).Logger()
			c.SetRequest(c.Request().WithContext(l.WithContext(ctx)))
			return next(c)
		}
	}
}

func subject(claims jwt.MapClaims) (uint64, bool) {
	switch v := claims["sub"].(type) {
	case float64:
		if v > 0 && v == float64(uint64(v)) {
			return uint64(v), true
		}
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil && n > 0 {
			return n, true
		}
	}
	return 0, false
}
