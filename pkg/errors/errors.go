// Package errors defines the error taxonomy shared by the review pipeline.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
)

const (
	KindValidation = "validation"
	KindNotFound   = "not_found"
)

// NewValidationError reports malformed caller input. The request has no effect.
func NewValidationError(format string, args ...any) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(format, args...)).AddMetaValue("kind", KindValidation)
}

// NewFieldValidationError is a ValidationError tied to one input field.
func NewFieldValidationError(field string, format string, args ...any) *httperror.HTTPError {
	return NewValidationError(format, args...).AddMetaValue("field", field)
}

// NewNotFoundError reports an unknown review or property id.
func NewNotFoundError(entity, id string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("%s %s does not exist", entity, id)).
		AddMetaValue("kind", KindNotFound).
		AddMetaValue("entity", entity).
		AddMetaValue("id", id)
}

// NewInternalError hides the cause from the caller; log it before returning.
func NewInternalError(message string) *httperror.HTTPError {
	return httperror.NewHTTPError(http.StatusInternalServerError, message)
}

func IsValidation(err error) bool {
	return err != nil && httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusBadRequest
}

func IsNotFound(err error) bool {
	return err != nil && httperror.IsHTTPError(err) && httperror.GetStatusCode(err) == http.StatusNotFound
}

// UpstreamUnavailableError means the review feed could not be read. Ingestion
// recovers from it with seed data, so it never reaches an HTTP caller.
type UpstreamUnavailableError struct {
	Reason string
	Cause  error
}

func NewUpstreamUnavailableError(reason string, cause error) *UpstreamUnavailableError {
	return &UpstreamUnavailableError{Reason: reason, Cause: cause}
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("upstream unavailable: %s", e.Reason)
	}
	return fmt.Sprintf("upstream unavailable: %s: %v", e.Reason, e.Cause)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Cause
}

func IsUpstreamUnavailable(err error) bool {
	var target *UpstreamUnavailableError
	return errors.As(err, &target)
}
