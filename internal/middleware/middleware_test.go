package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/concert-order-service/internal/config"
	"github.com/iliyamo/concert-order-service/internal/model"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return s
}

func serve(t *testing.T, authHeader string, mws ...echo.MiddlewareFunc) (*httptest.ResponseRecorder, *model.Principal) {
	t.Helper()
	e := echo.New()
	var got *model.Principal
	e.GET("/whoami", func(c echo.Context) error {
		p := c.Get(ContextPrincipal).(model.Principal)
		got = &p
		return c.NoContent(http.StatusNoContent)
	}, mws...)
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec, got
}

func TestJWTAuth(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()

	t.Run("numeric subject", func(t *testing.T) {
		tok := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": 7, "role": "CUSTOMER", "exp": exp})
		rec, p := serve(t, "Bearer "+tok, JWTAuth(secret))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, &model.Principal{UserID: 7, Role: model.RoleCustomer}, p)
	})

	t.Run("string subject", func(t *testing.T) {
		tok := sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": "12", "role": "ADMIN", "exp": exp})
		rec, p := serve(t, "Bearer "+tok, JWTAuth(secret))
		require.Equal(t, http.StatusNoContent, rec.Code)
		assert.True(t, p.IsAdmin())
	})

	cases := map[string]string{
		"missing header": "",
		"not bearer":     "Basic abc",
		"garbage":        "Bearer not-a-jwt",
		"wrong secret":   "Bearer " + sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{"sub": 7, "exp": exp}),
		"expired":        "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": 7, "exp": time.Now().Add(-time.Minute).Unix()}),
		"no subject":     "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"role": "CUSTOMER", "exp": exp}),
		"wrong alg":      "Bearer " + sign(t, jwt.SigningMethodHS512, []byte(secret), jwt.MapClaims{"sub": 7, "exp": exp}),
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			rec, p := serve(t, header, JWTAuth(secret))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, p)
		})
	}
}

func TestRequireRole(t *testing.T) {
	exp := time.Now().Add(time.Hour).Unix()
	customer := "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": 7, "role": "CUSTOMER", "exp": exp})
	admin := "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": 1, "role": "ADMIN", "exp": exp})
	roleless := "Bearer " + sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": 3, "exp": exp})

	rec, _ := serve(t, customer, JWTAuth(secret), RequireRole(model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = serve(t, admin, JWTAuth(secret), RequireRole(model.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = serve(t, customer, JWTAuth(secret), RequireRole(model.RoleCustomer, model.RoleAdmin))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, _ = serve(t, roleless, JWTAuth(secret), RequireRole(model.RoleCustomer, model.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestBuildRateKey(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/v1/orders", nil)
	req.RemoteAddr = "10.0.0.5:4321"
	c := e.NewContext(req, httptest.NewRecorder())
	c.SetPath("/v1/orders")

	cfg := config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user_route"}
	assert.Equal(t, "rl:user:anon:route:POST /v1/orders", buildRateKey(cfg, c))

	c.Set(ContextUserID, uint64(7))
	assert.Equal(t, "rl:user:7:route:POST /v1/orders", buildRateKey(cfg, c))

	cfg.KeyStrategy = "ip"
	assert.Equal(t, "rl:ip:10.0.0.5", buildRateKey(cfg, c))
}

func TestNewTokenBucket_DisabledPassesThrough(t *testing.T) {
	rec, _ := serve(t, "Bearer "+sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.MapClaims{"sub": 7, "exp": time.Now().Add(time.Hour).Unix()}),
		JWTAuth(secret), NewTokenBucket(config.RateLimitConfig{Enabled: false}, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
