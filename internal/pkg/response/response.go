package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/webapp-skeleton/cms/internal/pkg/query"
)

// errorBody is the error half of the envelope.
type errorBody struct {
	Status  int    `json:"status"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

// Entry sends a 200 `{data, meta}` envelope. A nil meta is sent as `{}`.
func Entry(c *gin.Context, data any, meta any) {
	if meta == nil {
		meta = gin.H{}
	}
	c.JSON(http.StatusOK, gin.H{"data": data, "meta": meta})
}

// Created sends a 201 `{data, meta}` envelope.
func Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, gin.H{"data": data, "meta": gin.H{}})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error aborts with the `{data: null, error}` envelope.
func Error(c *gin.Context, status int, name, message string, details any) {
	if details == nil {
		details = gin.H{}
	}
	c.AbortWithStatusJSON(status, gin.H{
		"data":  nil,
		"error": errorBody{Status: status, Name: name, Message: message, Details: details},
	})
}

// BadRequest sends a 400 ValidationError.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "ValidationError", message, nil)
}

// ValidationFailed sends a 400 ValidationError with field-level details.
func ValidationFailed(c *gin.Context, message string, details any) {
	Error(c, http.StatusBadRequest, "ValidationError", message, details)
}

// Invalid sends a 400 for a query validation failure, naming the offending key.
func Invalid(c *gin.Context, err *query.ValidationError) {
	Error(c, http.StatusBadRequest, "ValidationError", err.Error(), gin.H{"key": err.Key})
}

// Unauthorized sends a 401 response.
func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, "UnauthorizedError", "Missing or invalid credentials", nil)
}

// Forbidden sends a 403 response.
func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, "ForbiddenError", "Forbidden", nil)
}

// NotFound sends a 404 response.
func NotFound(c *gin.Context) {
	Error(c, http.StatusNotFound, "NotFoundError", "Not Found", nil)
}

// Conflict sends a 409 response.
func Conflict(c *gin.Context, message string) {
	Error(c, http.StatusConflict, "ConflictError", message, nil)
}

// MethodNotAllowed sends a 405 response.
func MethodNotAllowed(c *gin.Context) {
	Error(c, http.StatusMethodNotAllowed, "MethodNotAllowedError", "Method Not Allowed", nil)
}

// TooManyRequests sends a 429 response.
func TooManyRequests(c *gin.Context) {
	c.Header("Retry-After", "1")
	Error(c, http.StatusTooManyRequests, "RateLimitError", "Too many requests, please try again later.", nil)
}

// InternalError sends a 500 response.
func InternalError(c *gin.Context, err error) {
	Error(c, http.StatusInternalServerError, "ApplicationError", err.Error(), nil)
}

// Fail maps err onto the envelope: query validation errors become 400s,
// everything else a 500.
func Fail(c *gin.Context, err error) {
	var verr *query.ValidationError
	if errors.As(err, &verr) {
		Invalid(c, verr)
		return
	}
	InternalError(c, err)
}
