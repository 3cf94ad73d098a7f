package handler

import (
	"net/http"

	"github.com/carecollective/careconnect/internal/model"
	"github.com/carecollective/careconnect/pkg/apperr"
	"github.com/gin-gonic/gin"
)

// respondError maps a service error to its HTTP status and a stable error
// code the client can branch on.
func respondError(c *gin.Context, err error) {
	code := apperr.CodeOf(err)
	c.JSON(httpStatus(code), model.ErrorResponse{
		Error:   err.Error(),
		Code:    string(code),
		Message: err.Error(),
	})
}

func httpStatus(code apperr.Code) int {
	switch code {
	case apperr.CodeValidation:
		return http.StatusBadRequest
	case apperr.CodeUnauthenticated:
		return http.StatusUnauthorized
	case apperr.CodePermissionDenied:
		return http.StatusForbidden
	case apperr.CodeNotFound:
		return http.StatusNotFound
	case apperr.CodeRateLimited:
		return http.StatusTooManyRequests
	case apperr.CodeTransientInfra:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func bindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, model.ErrorResponse{
		Error:   "Invalid request",
		Code:    string(apperr.CodeValidation),
		Message: err.Error(),
	})
}
