package router

import (
	"net/http"

	"github.com/akeren/waitlist-api/internal/log"
	apperrors "github.com/akeren/waitlist-api/pkg/errors"
)

func GetLogger(ctx *RequestContext) *log.Logger {
	if logger := ctx.Request.Context().Value(log.LoggerKeyForContext); logger != nil {
		if l, ok := logger.(*log.Logger); ok {
			return l
		}
	}

	baseLogger := log.NewLoggerWithJSONOutput()
	return baseLogger.WithCorrelationID(ctx.Request.Context())
}

func OKResult(data any, message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusOK,
		Data:       data,
		Message:    message,
	}
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusTooManyRequests,
		Data:       data,
		Message:    "Too Many Requests",
	}
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusBadRequest,
		Data:       payload,
		Message:    message,
	}
}

func UnprocessableEntityResult(message string, payload any) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusUnprocessableEntity,
		Data:       payload,
		Message:    message,
	}
}

func ServiceUnavailableResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusServiceUnavailable,
		Data:       nil,
		Message:    message,
	}
}

func NotFoundResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusNotFound,
		Data:       nil,
		Message:    message,
	}
}

func InternalServerErrorResult(message string) *ServiceResult {
	return &ServiceResult{
		StatusCode: http.StatusInternalServerError,
		Data:       nil,
		Message:    message,
	}
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
	}
}

// AppErrorResult maps an application error onto its status and client-safe message.
func AppErrorResult(err error) *ServiceResult {
	return &ServiceResult{
		StatusCode: apperrors.HTTPStatusCode(err),
		ErrorType:  apperrors.ResponseErrorType(err),
		Data:       nil,
		Message:    apperrors.GetHumanReadableMessage(err),
	}
}

// BindJSON decodes the body into req. Malformed JSON is a 400; well-formed bodies
// that fail binding rules are a 422 carrying per-field messages.
func BindJSON(ctx *RequestContext, req any) *ServiceResult {
	err := ctx.ShouldBindJSON(req)
	if err == nil {
		return nil
	}

	GetLogger(ctx).Warn("Request body rejected", "error", err)

	details := apperrors.FormatValidationErrors(err, req)
	if len(details) == 0 {
		return BadRequestResult("Request body must be valid JSON", nil)
	}
	return UnprocessableEntityResult("Validation failed", details)
}
