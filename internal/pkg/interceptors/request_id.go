package interceptors

import (
	"context"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/storefront/internal/pkg/interceptors/constants"
)

// UnaryServerInterceptor copies the request id and idempotency key from the
// incoming metadata into the context. A missing request id gets a fresh one.
func UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req any,
		_ *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (any, error) {
		requestID := metadataValue(ctx, constants.HeaderXRequestId)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx = context.WithValue(ctx, constants.ContextKeyRequestID, requestID)
		ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, metadataValue(ctx, constants.HeaderXIdempotencyKey))

		_ = grpc.SetHeader(ctx, metadata.Pairs(constants.HeaderXRequestId, requestID))
		return handler(ctx, req)
	}
}

// RequestIDFromContext returns the request id stored by the HTTP middleware
// or the interceptor, falling back to incoming metadata.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && id != "" {
		return id
	}
	return metadataValue(ctx, constants.HeaderXRequestId)
}

// IdempotencyKeyFromContext mirrors RequestIDFromContext for the
// idempotency key.
func IdempotencyKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(constants.ContextKeyIdempotencyKey).(string); ok {
		return key
	}
	return metadataValue(ctx, constants.HeaderXIdempotencyKey)
}

// ContextWithPropagatedID forwards the request id and idempotency key on
// outgoing gRPC calls.
func ContextWithPropagatedID(ctx context.Context) context.Context {
	pairs := []string{constants.HeaderXRequestId, RequestIDFromContext(ctx)}
	if key := IdempotencyKeyFromContext(ctx); key != "" {
		pairs = append(pairs, constants.HeaderXIdempotencyKey, key)
	}
	return metadata.AppendToOutgoingContext(ctx, pairs...)
}

func metadataValue(ctx context.Context, key string) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if vals := md.Get(key); len(vals) > 0 {
			return vals[0]
		}
	}
	return ""
}
