package interceptors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jcmexdev/storefront/internal/pkg/interceptors/constants"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestUnaryServerInterceptorReadsMetadata(t *testing.T) {
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(
		constants.HeaderXRequestId, "req-1",
		constants.HeaderXIdempotencyKey, "idem-1",
	))

	var gotID, gotKey string
	_, err := UnaryServerInterceptor()(ctx, nil, info, func(ctx context.Context, _ any) (any, error) {
		gotID = RequestIDFromContext(ctx)
		gotKey = IdempotencyKeyFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "req-1", gotID)
	assert.Equal(t, "idem-1", gotKey)
}

func TestUnaryServerInterceptorGeneratesRequestID(t *testing.T) {
	var gotID string
	_, err := UnaryServerInterceptor()(context.Background(), nil, info, func(ctx context.Context, _ any) (any, error) {
		gotID = RequestIDFromContext(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Len(t, gotID, 36)
}

func TestContextWithPropagatedID(t *testing.T) {
	ctx := context.WithValue(context.Background(), constants.ContextKeyRequestID, "req-2")
	ctx = context.WithValue(ctx, constants.ContextKeyIdempotencyKey, "idem-2")

	md, ok := metadata.FromOutgoingContext(ContextWithPropagatedID(ctx))
	require.True(t, ok)
	assert.Equal(t, []string{"req-2"}, md.Get(constants.HeaderXRequestId))
	assert.Equal(t, []string{"idem-2"}, md.Get(constants.HeaderXIdempotencyKey))
}

func TestLoggingServerInterceptorPassesThrough(t *testing.T) {
	resp, err := LoggingServerInterceptor(nil)(context.Background(), "in", info, func(_ context.Context, req any) (any, error) {
		return req, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "in", resp)
}
