// Package httpkit provides HTTP response utilities.
// This is part of the platform layer and contains no business logic.
package httpkit

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// statusError is any error that knows its HTTP status.
// *apperr.Error and *external.ServiceError both satisfy it.
type statusError interface {
	error
	HTTPStatus() int
}

// publicError exposes the client-safe part of an error message.
type publicError interface {
	PublicMessage() string
}

// localizedError renders its message for an Accept-Language header value.
type localizedError interface {
	LocalizedMessage(acceptLanguage string) string
}

// detailedError contributes structured response details.
type detailedError interface {
	ResponseDetails() any
}

// JSON sends a JSON response with the given status code.
func JSON(c *gin.Context, status int, payload any) {
	c.JSON(status, payload)
}

// Error sends an error response with the given status code and message.
func Error(c *gin.Context, status int, message string, details any) {
	c.JSON(status, ErrorResponse{Error: message, Details: details})
}

// OK sends a 200 OK response with the given payload.
func OK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

// Accepted sends a 202 Accepted response with the given payload.
func Accepted(c *gin.Context, payload any) {
	c.JSON(http.StatusAccepted, payload)
}

// HandleError maps typed errors to HTTP responses and reports whether err was non-nil.
// Untyped errors become a generic 500 so internal detail never reaches the client.
func HandleError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var se statusError
	if !errors.As(err, &se) {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return true
	}

	resp := ErrorResponse{Error: http.StatusText(se.HTTPStatus())}

	var le localizedError
	var pe publicError
	switch {
	case errors.As(err, &le):
		resp.Error = le.LocalizedMessage(c.GetHeader("Accept-Language"))
	case errors.As(err, &pe):
		resp.Error = pe.PublicMessage()
	}

	var de detailedError
	if errors.As(err, &de) {
		resp.Details = de.ResponseDetails()
	}

	c.JSON(se.HTTPStatus(), resp)
	return true
}
