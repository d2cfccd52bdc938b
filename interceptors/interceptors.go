package interceptors

import (
	"github.com/Kotlang/fasalneetiGo/logger"
	grpc_middleware "github.com/grpc-ecosystem/go-grpc-middleware"
	grpc_zap "github.com/grpc-ecosystem/go-grpc-middleware/logging/zap"
	grpc_recovery "github.com/grpc-ecosystem/go-grpc-middleware/recovery"
	grpc_ctxtags "github.com/grpc-ecosystem/go-grpc-middleware/tags"
	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func recoverPanic(p interface{}) error {
	logger.Error("Recovered from panic in grpc handler", zap.Any("panic", p))
	return status.Error(codes.Internal, "Internal error")
}

// NewServer builds a grpc server with tagging, zap logging and panic recovery on every call.
func NewServer(log *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	recoveryOpt := grpc_recovery.WithRecoveryHandler(recoverPanic)

	opts = append(opts,
		grpc.UnaryInterceptor(grpc_middleware.ChainUnaryServer(
			grpc_ctxtags.UnaryServerInterceptor(),
			grpc_zap.UnaryServerInterceptor(log),
			grpc_recovery.UnaryServerInterceptor(recoveryOpt),
		)),
		grpc.StreamInterceptor(grpc_middleware.ChainStreamServer(
			grpc_ctxtags.StreamServerInterceptor(),
			grpc_zap.StreamServerInterceptor(log),
			grpc_recovery.StreamServerInterceptor(recoveryOpt),
		)),
	)
	return grpc.NewServer(opts...)
}

// WrapGrpcWeb exposes server to browsers over the HTTP port.
func WrapGrpcWeb(server *grpc.Server) *grpcweb.WrappedGrpcServer {
	return grpcweb.WrapServer(server,
		grpcweb.WithOriginFunc(func(origin string) bool { return true }),
	)
}

// GrpcWebMiddleware hands grpc-web requests to wrapped before echo routing runs; register it
// with e.Pre.
func GrpcWebMiddleware(wrapped *grpcweb.WrappedGrpcServer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if wrapped.IsGrpcWebRequest(req) || wrapped.IsAcceptableGrpcCorsRequest(req) {
				wrapped.ServeHTTP(c.Response().Writer, req)
				return nil
			}
			return next(c)
		}
	}
}
