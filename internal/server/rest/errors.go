package rest

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{common.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
	{common.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
	{common.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{common.ErrorUnauthorized, http.StatusUnauthorized, "unauthorized"},
	{common.ErrForbidden, http.StatusForbidden, "forbidden"},
	{common.ErrValidation, http.StatusBadRequest, "validation_error"},
	{common.ErrorNotFound, http.StatusNotFound, "not_found"},
	{common.ErrDuplicateRequest, http.StatusConflict, "duplicate_request"},
	{common.ErrAlreadyExists, http.StatusConflict, "already_exists"},
	{common.ErrCounterUnderflow, http.StatusConflict, "counter_underflow"},
	{common.ErrLockTimeout, http.StatusServiceUnavailable, "lock_timeout"},
	{common.ErrorUnavailable, http.StatusServiceUnavailable, "unavailable"},
}

func classify(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError aborts the request with the status and body err maps to.
// Server-side failures get a generic message.
func writeError(c *gin.Context, err error) {
	status, code := classify(err)

	msg := err.Error()
	if status >= http.StatusInternalServerError {
		msg = http.StatusText(status)
		_ = c.Error(err)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: code, Message: msg})
}
