package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
)

// RequireParam reads a non-empty path parameter
func RequireParam(c echo.Context, param string) (string, error) {
	value := strings.TrimSpace(c.Param(param))
	if value == "" {
		return "", apperrors.NewFieldValidationError(param, "missing %s", param)
	}
	return value, nil
}

// SuccessResponse returns a 200 OK with data
func SuccessResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, data)
}

// CreatedResponse returns a 201 Created with data
func CreatedResponse(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, data)
}
