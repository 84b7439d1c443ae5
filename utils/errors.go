package utils

import (
	"net/http"

	"docstore-platform/services"

	"github.com/gin-gonic/gin"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

// RespondWithError sends a standardized error response
func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

// RespondWithBadRequest sends a 400 Bad Request error
func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

// RespondWithPreconditionFailed sends a 412 Precondition Failed error
func RespondWithPreconditionFailed(c *gin.Context, message string) {
	RespondWithError(c, http.StatusPreconditionFailed, "precondition_failed", message, nil)
}

// RespondWithNotFound sends a 404 Not Found error
func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

// RespondWithInternalError sends a 500 Internal Server Error
func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithServiceError maps a service error onto the response envelope
// using its HTTP-class status (412 precondition, 404 not found, 500 internal).
func RespondWithServiceError(c *gin.Context, err error) {
	status := services.StatusOf(err)
	code := "internal_error"
	switch status {
	case http.StatusNotFound:
		code = "not_found"
	case http.StatusPreconditionFailed:
		code = "precondition_failed"
	}
	RespondWithError(c, status, code, err.Error(), nil)
}
