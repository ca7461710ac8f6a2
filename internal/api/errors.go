package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gorelia/internal/errors"
)

// statusFor maps application codes to HTTP status codes
func statusFor(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeInvalidMode:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInsufficientData, errors.CodeFitConvergence, errors.CodeEmptyBootstrap:
		return http.StatusUnprocessableEntity
	case errors.CodeTimeout:
		return http.StatusGatewayTimeout
	case errors.CodeCancelled:
		return http.StatusServiceUnavailable
	case errors.CodeDatabaseError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	appErr := errors.FromDomain(err)
	c.AbortWithStatusJSON(statusFor(appErr.Code), gin.H{
		"error": appErr.Error(),
		"code":  appErr.Code,
	})
}
