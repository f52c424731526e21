package api

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/npezzotti/go-housematch/internal/database"
	"github.com/npezzotti/go-housematch/internal/match"
	"github.com/stretchr/testify/assert"
)

func Test_toApiError(t *testing.T) {
	validationErr := validator.New().Struct(struct {
		Name string `validate:"required"`
	}{})

	tcases := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", fmt.Errorf("get match: %w", sql.ErrNoRows), http.StatusNotFound},
		{"forbidden", match.ErrForbidden, http.StatusForbidden},
		{"empty message", match.ErrEmptyMessage, http.StatusBadRequest},
		{"validation", validationErr, http.StatusBadRequest},
		{"email taken", database.ErrEmailTaken, http.StatusConflict},
		{"api error passes through", NewMethodNotAllowedError(), http.StatusMethodNotAllowed},
		{"unknown", errors.New("db error"), http.StatusInternalServerError},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := toApiError(tc.err)
			assert.Equal(t, tc.expected, apiErr.StatusCode)
			assert.NotEmpty(t, apiErr.Message)
		})
	}
}

func TestApiError_Error(t *testing.T) {
	assert.Equal(t, "not found", NewNotFoundError().Error())

	dbErr := errors.New("db error")
	apiErr := NewInternalServerError(dbErr)
	assert.Equal(t, "internal server error: db error", apiErr.Error())
	assert.ErrorIs(t, apiErr, dbErr)
}
