package rest

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/logging"
	"github.com/dmitrijs2005/campushub/internal/server/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Authenticator makes the per-request authentication decision.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*auth.Identity, error)
}

// RequestLogger tags every request with an id and logs one line when it
// completes.
func RequestLogger(l logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(common.RequestIDHeaderName)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(common.RequestIDHeaderName, requestID)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), requestID))

		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start).String(),
		}
		if id, ok := auth.IdentityFromContext(c.Request.Context()); ok {
			args = append(args, "user_id", id.Subject)
		}
		if len(c.Errors) > 0 {
			args = append(args, "error", c.Errors.String())
			l.Error(c.Request.Context(), "request failed", args...)
			return
		}
		l.Info(c.Request.Context(), "request", args...)
	}
}

// Recovery turns a panic into a 500 response.
func Recovery(l logging.Logger) gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		l.Error(c.Request.Context(), "panic recovered", "panic", fmt.Sprint(recovered), "path", c.Request.URL.Path)
		writeError(c, common.ErrorInternal)
	})
}

// Authenticate runs the gate once per request. Requests without a bearer
// token continue unauthenticated; rejected tokens end the request.
func Authenticate(a Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := a.Authenticate(c.Request.Context(), c.GetHeader(common.AuthorizationHeaderName))
		if err != nil {
			writeError(c, err)
			return
		}
		if id != nil {
			c.Request = c.Request.WithContext(auth.WithIdentity(c.Request.Context(), id))
		}
		c.Next()
	}
}

// RequireIdentity rejects unauthenticated requests with 401.
func RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := auth.IdentityFromContext(c.Request.Context()); !ok {
			writeError(c, fmt.Errorf("%w: authentication required", common.ErrorUnauthorized))
			return
		}
		c.Next()
	}
}

// RequirePermission rejects callers whose role lacks p. It implies
// RequireIdentity.
func RequirePermission(p auth.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := auth.IdentityFromContext(c.Request.Context())
		if !ok {
			writeError(c, fmt.Errorf("%w: authentication required", common.ErrorUnauthorized))
			return
		}
		if !id.Role.Can(p) {
			writeError(c, fmt.Errorf("%w: missing permission %s", common.ErrForbidden, p))
			return
		}
		c.Next()
	}
}

func identity(c *gin.Context) *auth.Identity {
	id, _ := auth.IdentityFromContext(c.Request.Context())
	return id
}
