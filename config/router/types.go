package router

import (
	"net/http"

	apperrors "github.com/akeren/waitlist-api/pkg/errors"
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

type ServiceResult struct {
	StatusCode int    `json:"code"`
	ErrorType  string `json:"error,omitempty"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	version      string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

// ToJSON renders successes as the bare payload and errors as the
// {code, error, message, data} envelope.
func (result *ServiceResult) ToJSON() any {
	if result.IsError() {
		errType := result.ErrorType
		if errType == "" {
			errType = errorTypeForStatus(result.StatusCode)
		}
		return gin.H{
			"code":    result.StatusCode,
			"error":   errType,
			"message": result.Message,
			"data":    result.Data,
		}
	}

	if result.Data == nil {
		return gin.H{"message": result.Message}
	}
	return result.Data
}

func (result *ServiceResult) IsError() bool {
	return result.StatusCode >= 400
}

func errorTypeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return apperrors.ErrorTypeInvalidRequest
	case http.StatusNotFound:
		return apperrors.ErrorTypeNotFound
	case http.StatusMethodNotAllowed:
		return apperrors.ErrorTypeMethodNotAllowed
	case http.StatusRequestTimeout:
		return apperrors.ErrorTypeRequestTimeout
	case http.StatusConflict:
		return apperrors.ErrorTypeConflict
	case http.StatusUnprocessableEntity:
		return apperrors.ErrorTypeValidation
	case http.StatusTooManyRequests:
		return apperrors.ErrorTypeTooManyRequests
	case http.StatusServiceUnavailable:
		return apperrors.ErrorTypeUnavailable
	default:
		return apperrors.ErrorTypeInternalServerError
	}
}
