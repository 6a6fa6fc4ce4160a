package interceptors

import (
	"context"
	"log/slog"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// LoggingServerInterceptor logs every unary call with its request id and
// outcome. Place it after UnaryServerInterceptor.
func LoggingServerInterceptor(log *slog.Logger) grpc.UnaryServerInterceptor {
	if log == nil {
		log = slog.Default()
	}
	return func(
		ctx context.Context,
		req any,
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)

		attrs := []any{
			"method", info.FullMethod,
			"request_id", RequestIDFromContext(ctx),
			"code", status.Code(err).String(),
			"duration", time.Since(start),
		}
		if key := IdempotencyKeyFromContext(ctx); key != "" {
			attrs = append(attrs, "idempotency_key", key)
		}
		if err != nil {
			log.WarnContext(ctx, "grpc call failed", append(attrs, "error", err)...)
		} else {
			log.DebugContext(ctx, "grpc call", attrs...)
		}
		return resp, err
	}
}
