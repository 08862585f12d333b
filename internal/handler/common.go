package handler

import (
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/concert-order-service/internal/middleware"
	"github.com/iliyamo/concert-order-service/internal/model"
)

// principal returns the caller stored by the JWT middleware.
func principal(c echo.Context) (model.Principal, error) {
	p, ok := c.Get(middleware.ContextPrincipal).(model.Principal)
	if !ok || p.UserID == 0 {
		return model.Principal{}, errors.New("missing principal in context")
	}
	return p, nil
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	n, err := strconv.ParseUint(c.Param(name), 10, 64)
	return n, err == nil && n > 0
}

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// NewValidator returns the validator to install as echo.Echo.Validator.
func NewValidator() *Validator {
	return &Validator{v: validator.New(validator.WithRequiredStructEnabled())}
}

func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}
