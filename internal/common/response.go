package common

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Envelope every JSON body the wiki API writes
type Envelope struct {
	Data      interface{} `json:"data,omitempty"`
	Meta      *Meta       `json:"meta,omitempty"`
	Error     *ErrorInfo  `json:"error,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

// Meta listing metadata
type Meta struct {
	Prefix string `json:"prefix,omitempty"`
	Total  int64  `json:"total,omitempty"`
}

// ErrorInfo error details. Details is only filled for client errors.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

var errorCodes = map[int]string{
	http.StatusBadRequest:          "BAD_REQUEST",
	http.StatusUnauthorized:        "UNAUTHORIZED",
	http.StatusForbidden:           "FORBIDDEN",
	http.StatusNotFound:            "NOT_FOUND",
	http.StatusConflict:            "CONFLICT",
	http.StatusTooManyRequests:     "RATE_LIMITED",
	http.StatusServiceUnavailable:  "UNAVAILABLE",
	http.StatusInternalServerError: "INTERNAL_SERVER_ERROR",
}

// ErrorCode machine readable code for an HTTP status
func ErrorCode(status int) string {
	if code, ok := errorCodes[status]; ok {
		return code
	}
	return "ERROR"
}

// SuccessResponse writes data with 200
func SuccessResponse(c *gin.Context, data interface{}, meta *Meta) {
	c.JSON(http.StatusOK, Envelope{
		Data:      data,
		Meta:      meta,
		RequestID: c.GetString("request_id"),
	})
}

// ErrorResponse writes an error body and aborts the handler chain
func ErrorResponse(c *gin.Context, status int, message string, err error) {
	info := &ErrorInfo{
		Code:    ErrorCode(status),
		Message: message,
	}
	// 5xx 상세는 로그에만 남김
	if err != nil && status < 500 {
		info.Details = err.Error()
	}

	c.AbortWithStatusJSON(status, Envelope{
		Error:     info,
		RequestID: c.GetString("request_id"),
	})
}

// StatusFor maps a business error onto an HTTP status
func StatusFor(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrInvalidToken), errors.Is(err, ErrExpiredToken):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrPageNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrEmptyPageName), errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrStaleNode):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
