package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type HTTPError struct {
	Code    string            `json:"error_code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	Details any               `json:"details,omitempty"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Forbidden(c *gin.Context, code, message string) {
	Write(c, http.StatusForbidden, code, message)
}

func Internal5xx(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func statusFor(kind Kind) int {
	switch kind {
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindValidation:
		return http.StatusBadRequest
	case KindConflict, KindInvalidState:
		return http.StatusConflict
	case KindBusy:
		return http.StatusServiceUnavailable
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Respond maps a taxonomy error to its HTTP shape. Unexpected faults are
// collapsed to a generic body; full detail stays in the operator log,
// correlated by request id.
func Respond(c *gin.Context, err error) {
	var e *Error
	if !errors.As(err, &e) {
		requestID, _ := c.Get("requestID")
		log.Error().
			Err(err).
			Str("path", c.FullPath()).
			Interface("request_id", requestID).
			Msg("unhandled error")
		e = Internal()
	}

	body := HTTPError{
		Code:    e.Code,
		Message: e.Message,
		Fields:  e.Fields,
		Details: e.Details,
	}
	if e.Kind == KindInternal {
		requestID, _ := c.Get("requestID")
		log.Error().
			Err(err).
			Str("path", c.FullPath()).
			Interface("request_id", requestID).
			Msg("internal failure")
		body = HTTPError{Code: "internal_error", Message: "An internal error occurred."}
	}

	c.JSON(statusFor(e.Kind), body)
}
