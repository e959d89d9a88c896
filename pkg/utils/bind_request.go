package utils

import (
	"errors"
	"io"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/labstack/echo/v4"
)

// BindRequest binds and validates a request body. An empty body binds to the zero value.
func BindRequest[T any](c echo.Context) (T, error) {
	var v T

	if err := c.Bind(&v); err != nil && !errors.Is(err, io.EOF) {
		return v, httperror.WrapError(http.StatusBadRequest, err)
	}

	return Validate(v)
}
