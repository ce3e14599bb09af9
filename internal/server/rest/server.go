// Package rest is the HTTP transport. Middleware runs in a fixed order:
// request logging, panic recovery, authentication, route guards, handler.
package rest

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/campushub/internal/logging"
	"github.com/dmitrijs2005/campushub/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 10 * time.Second

// Deps is everything the router needs.
type Deps struct {
	Logger    logging.Logger
	Gate      Authenticator
	Users     UserService
	Community CommunityService
	Health    map[string]HealthCheck
}

// NewRouter builds the gin engine with all routes mounted.
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(RequestLogger(d.Logger), Recovery(d.Logger))

	r.GET("/healthz", healthz(d.Health))

	api := r.Group("/api", Authenticate(d.Gate))

	ah := &authHandler{users: d.Users}
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", ah.signup)
	authGroup.POST("/login", ah.login)
	authGroup.POST("/refresh", ah.refresh)
	authGroup.POST("/logout", RequireIdentity(), ah.logout)
	api.GET("/me", RequireIdentity(), ah.me)

	ch := &communityHandler{community: d.Community}
	api.POST("/posts", RequirePermission(auth.PermCreatePost), ch.createPost)
	api.GET("/posts/:id", RequireIdentity(), ch.getPost)
	api.POST("/posts/:id/comments", RequirePermission(auth.PermCreateComment), ch.createComment)
	api.DELETE("/comments/:id", RequireIdentity(), ch.deleteComment)
	api.POST("/comments/:id/likes", RequirePermission(auth.PermLikeComment), ch.likeComment)
	api.DELETE("/comments/:id/likes", RequirePermission(auth.PermLikeComment), ch.unlikeComment)
	api.POST("/reports", RequirePermission(auth.PermCreateReport), ch.createReport)
	api.GET("/admin/reports", RequirePermission(auth.PermReviewReports), ch.listReports)

	return r
}

type Server struct {
	address string
	handler http.Handler
	logger  logging.Logger
}

func NewServer(address string, h http.Handler, l logging.Logger) *Server {
	return &Server{address: address, handler: h, logger: l.With("module", "rest_server")}
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping REST server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "REST server shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting REST server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
