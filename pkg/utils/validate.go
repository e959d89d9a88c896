package utils

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/Ramsey-B/thistle/pkg/errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate runs the struct's validate tags and reports failures as a ValidationError.
func Validate[T any](value T) (T, error) {
	if err := validate.Struct(value); err != nil {
		return value, ValidationErrorToString(value, err)
	}
	return value, nil
}

func ValidationErrorToString(input any, err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperrors.NewValidationError("%s", err.Error())
	}

	messages := make([]string, 0, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("field '%s' failed rule '%s' (expected '%s', got '%v')", fe.Field(), fe.Tag(), fe.Param(), fe.Value()))
		fields = append(fields, fe.Field())
	}
	return apperrors.NewValidationError("invalid %T: %s", input, strings.Join(messages, "; ")).AddMetaValue("fields", fields)
}
