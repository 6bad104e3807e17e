package errors

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusCode(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationError("bad email", nil), StatusUnprocessableEntity},
		{"unavailable", NewUnavailableError("no database", nil), StatusServiceUnavailable},
		{"database", NewDatabaseError("insert failed", nil), StatusInternalServerError},
		{"conflict", NewConflictError("duplicate", nil), StatusConflict},
		{"invalid request", NewInvalidRequestError("bad body", nil), StatusBadRequest},
		{"wrapped", fmt.Errorf("outer: %w", NewUnavailableError("no database", nil)), StatusServiceUnavailable},
		{"plain", fmt.Errorf("boom"), StatusInternalServerError},
		{"nil", nil, StatusInternalServerError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HTTPStatusCode(tc.err))
		})
	}
}

func TestGetHumanReadableMessage_DoesNotLeakInternalErrors(t *testing.T) {
	assert.Equal(t, "insert failed", GetHumanReadableMessage(NewDatabaseError("insert failed", fmt.Errorf("connection reset by peer"))))
	assert.Equal(t, "An unexpected error occurred", GetHumanReadableMessage(fmt.Errorf("connection reset by peer")))
}

func TestResponseErrorType(t *testing.T) {
	assert.Equal(t, ErrorTypeValidation, ResponseErrorType(NewValidationError("x", nil)))
	assert.Equal(t, ErrorTypeInternalServerError, ResponseErrorType(fmt.Errorf("boom")))
}

type signupPayload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
}

func TestFormatValidationErrors_UsesJSONFieldNames(t *testing.T) {
	err := validator.New().Struct(signupPayload{Email: "not-an-email"})

	formatted := FormatValidationErrors(err, &signupPayload{})

	assert.ElementsMatch(t, []ValidationErrorResponse{
		{Field: "name", Message: "This field is required"},
		{Field: "email", Message: "Invalid email format"},
	}, formatted)
}

func TestFormatValidationErrors_TypeMismatch(t *testing.T) {
	var payload signupPayload
	err := json.Unmarshal([]byte(`{"name": 42}`), &payload)

	formatted := FormatValidationErrors(err, &payload)

	if assert.Len(t, formatted, 1) {
		assert.Equal(t, "name", formatted[0].Field)
	}
}

func TestFormatValidationErrors_SyntaxErrorHasNoFields(t *testing.T) {
	var payload signupPayload
	err := json.Unmarshal([]byte(`{"name": `), &payload)

	assert.Empty(t, FormatValidationErrors(err, &payload))
}
