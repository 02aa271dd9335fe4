package response

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mystik-app/backend/pkg/apperr"
)

// Failure is the error envelope shared by every endpoint.
type Failure struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// OK sends a 200 JSON response. Fields are flattened next to success:true.
func OK(c *gin.Context, fields gin.H) {
	body := gin.H{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	c.JSON(http.StatusOK, body)
}

// BadRequest sends 400 with error message.
func BadRequest(c *gin.Context, err string) {
	c.JSON(http.StatusBadRequest, Failure{Error: err})
}

// Unauthorized sends 401.
func Unauthorized(c *gin.Context, err string) {
	c.JSON(http.StatusUnauthorized, Failure{Error: err})
}

// Forbidden sends 403.
func Forbidden(c *gin.Context, err string) {
	c.JSON(http.StatusForbidden, Failure{Error: err})
}

// NotFound sends 404.
func NotFound(c *gin.Context, err string) {
	c.JSON(http.StatusNotFound, Failure{Error: err})
}

// ServiceUnavailable sends 503.
func ServiceUnavailable(c *gin.Context, err string) {
	c.JSON(http.StatusServiceUnavailable, Failure{Error: err})
}

// Internal sends 500.
func Internal(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, Failure{Error: err})
}

// Error maps err onto the apperr taxonomy and writes the matching response.
// notFound is the message used for apperr.ErrNotFound, fallback the one used for 500s.
func Error(c *gin.Context, logger *zap.Logger, err error, notFound, fallback string) {
	if ve, ok := apperr.IsValidation(err); ok {
		BadRequest(c, ve.Error())
		return
	}
	if errors.Is(err, apperr.ErrNotFound) {
		NotFound(c, notFound)
		return
	}
	if logger != nil {
		logger.Error(fallback, zap.Error(err), zap.String("path", c.FullPath()))
	}
	if errors.Is(err, context.DeadlineExceeded) {
		Internal(c, "request timed out")
		return
	}
	Internal(c, fallback)
}
