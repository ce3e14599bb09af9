package rest

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{common.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{fmt.Errorf("%w: bad sig", common.ErrInvalidToken), http.StatusUnauthorized, "invalid_token"},
		{common.ErrTokenExpired, http.StatusUnauthorized, "token_expired"},
		{common.ErrTokenRevoked, http.StatusUnauthorized, "token_revoked"},
		{common.ErrorUnauthorized, http.StatusUnauthorized, "unauthorized"},
		{common.ErrForbidden, http.StatusForbidden, "forbidden"},
		{common.ErrValidation, http.StatusBadRequest, "validation_error"},
		{common.ErrorNotFound, http.StatusNotFound, "not_found"},
		{common.ErrAlreadyExists, http.StatusConflict, "already_exists"},
		{common.ErrDuplicateRequest, http.StatusConflict, "duplicate_request"},
		{fmt.Errorf("like comment: %w", common.ErrLockTimeout), http.StatusServiceUnavailable, "lock_timeout"},
		{common.ErrorUnavailable, http.StatusServiceUnavailable, "unavailable"},
		{errors.New("boom"), http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, code := classify(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, code)
		})
	}
}
