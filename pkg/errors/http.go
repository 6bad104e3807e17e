package errors

import (
	"errors"
)

func HTTPStatusCode(err error) int {
	if err == nil {
		return StatusInternalServerError
	}

	switch GetErrorType(err) {
	case ErrorTypeValidation:
		return StatusUnprocessableEntity
	case ErrorTypeInvalidRequest:
		return StatusBadRequest
	case ErrorTypeNotFound:
		return StatusNotFound
	case ErrorTypeConflict:
		return StatusConflict
	case ErrorTypeUnavailable:
		return StatusServiceUnavailable
	case ErrorTypeTooManyRequests:
		return StatusTooManyRequests
	case ErrorTypeRequestTimeout:
		return StatusRequestTimeout
	case ErrorTypeMethodNotAllowed:
		return StatusMethodNotAllowed
	default:
		// DATABASE_ERROR, EXTERNAL_SERVICE_ERROR and anything unclassified.
		return StatusInternalServerError
	}
}

// ResponseErrorType is the error type exposed to clients. Unclassified errors are
// reported as internal errors rather than leaking their Go type.
func ResponseErrorType(err error) string {
	errType := GetErrorType(err)
	if errType == "" || errType == ErrorTypeUnknown {
		return ErrorTypeInternalServerError
	}
	return errType
}

func GetHumanReadableMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}

	// SECURITY: avoid leaking internal error strings (DB errors, stack messages, etc.)
	return "An unexpected error occurred"
}
