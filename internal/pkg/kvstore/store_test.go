package kvstore

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore is shared by every backend test.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := s.Read(ctx, "orders")
	require.NoError(t, err)
	assert.False(t, ok, "missing key must report ok=false")

	require.NoError(t, s.Write(ctx, "orders", `[{"id":"ORD-1"}]`))
	v, ok, err := s.Read(ctx, "orders")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `[{"id":"ORD-1"}]`, v)

	require.NoError(t, s.Write(ctx, "orders", `[]`))
	v, _, err = s.Read(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "write must overwrite")

	require.NoError(t, s.Write(ctx, "cart-storage", `{"items":[]}`))
	v, _, err = s.Read(ctx, "orders")
	require.NoError(t, err)
	assert.Equal(t, `[]`, v, "keys are independent")
}

func TestMemory(t *testing.T) {
	exerciseStore(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := OpenSQLite(path)
	require.NoError(t, err)
	exerciseStore(t, s)
	require.NoError(t, s.Close())

	reopened, err := OpenSQLite(path)
	require.NoError(t, err)
	defer reopened.Close()

	v, ok, err := reopened.Read(context.Background(), "cart-storage")
	require.NoError(t, err)
	require.True(t, ok, "values survive reopen")
	assert.Equal(t, `{"items":[]}`, v)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	s, closeFn, err := Open(ctx, nil, Options{})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, s)
	require.NoError(t, closeFn())

	s, closeFn, err = Open(ctx, nil, Options{Driver: DriverSQLite, SQLitePath: filepath.Join(t.TempDir(), "kv.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLite{}, s)
	require.NoError(t, closeFn())

	_, _, err = Open(ctx, nil, Options{Driver: "etcd"})
	assert.ErrorContains(t, err, "unknown driver")
}

func TestRedisGenerateKey(t *testing.T) {
	r := NewRedis("localhost:0", "")
	defer r.Close()
	assert.Equal(t, "storefront:kv:orders", r.GenerateKey("orders"))
}
