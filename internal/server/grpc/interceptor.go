package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/campushub/internal/common"
	"github.com/dmitrijs2005/campushub/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// Authenticator makes the per-request authentication decision.
type Authenticator interface {
	Authenticate(ctx context.Context, authorization string) (*auth.Identity, error)
}

// authInterceptor runs the gate on the authorization metadata entry. Calls
// without a bearer token continue unauthenticated.
func (s *GRPCServer) authInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	var authorization string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values := md.Get(common.AuthorizationHeaderName)
		if len(values) > 0 {
			authorization = values[0]
		}
	}

	id, err := s.gate.Authenticate(ctx, authorization)
	if err != nil {
		if errors.Is(err, common.ErrorUnavailable) {
			s.logger.Error(ctx, "authentication unavailable", "method", info.FullMethod, "error", err)
			return nil, status.Error(codes.Unavailable, "authentication unavailable")
		}
		return nil, status.Error(codes.Unauthenticated, tokenMessage(err))
	}

	if id != nil {
		ctx = auth.WithIdentity(ctx, id)
	}

	return handler(ctx, req)
}

func tokenMessage(err error) string {
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		return "token expired"
	case errors.Is(err, common.ErrTokenRevoked):
		return "token revoked"
	default:
		return "invalid token"
	}
}
