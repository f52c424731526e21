package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/match"
)

type ApiError struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
	Err        error  `json:"-"`
}

func (e *ApiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
	}

	return e.Message
}

func (e *ApiError) Unwrap() error {
	return e.Err
}

func lower(s string) string {
	return strings.ToLower(s)
}

func newApiError(code int) *ApiError {
	return &ApiError{
		StatusCode: code,
		Message:    lower(http.StatusText(code)),
	}
}

func NewBadRequestError() *ApiError {
	return newApiError(http.StatusBadRequest)
}

func NewNotFoundError() *ApiError {
	return newApiError(http.StatusNotFound)
}

func NewUnauthorizedError() *ApiError {
	return newApiError(http.StatusUnauthorized)
}

func NewForbiddenError() *ApiError {
	return newApiError(http.StatusForbidden)
}

func NewConflictError() *ApiError {
	return newApiError(http.StatusConflict)
}

func NewMethodNotAllowedError() *ApiError {
	return newApiError(http.StatusMethodNotAllowed)
}

func NewServiceUnavailableError() *ApiError {
	return newApiError(http.StatusServiceUnavailable)
}

func NewInternalServerError(err error) *ApiError {
	e := newApiError(http.StatusInternalServerError)
	e.Err = err
	return e
}

// toApiError maps errors returned by the repository and the match service
// onto a response.
func toApiError(err error) *ApiError {
	var apiErr *ApiError
	var validationErrs validator.ValidationErrors

	switch {
	case errors.As(err, &apiErr):
		return apiErr
	case errors.Is(err, sql.ErrNoRows):
		return NewNotFoundError()
	case errors.Is(err, match.ErrForbidden):
		return NewForbiddenError()
	case errors.Is(err, match.ErrEmptyMessage), errors.As(err, &validationErrs):
		return NewBadRequestError()
	case errors.Is(err, database.ErrEmailTaken):
		return NewConflictError()
	default:
		return NewInternalServerError(err)
	}
}
