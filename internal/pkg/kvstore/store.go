// Package kvstore is the persisted key-value storage behind the cart and order
// stores. Values are opaque strings; callers own their encoding.
package kvstore

import (
	"context"
	"fmt"
	"log/slog"
)

// Store reads and writes string values by key. A missing key is reported with
// ok == false and a nil error.
type Store interface {
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
}

type Driver string

const (
	DriverMemory   Driver = "memory"
	DriverSQLite   Driver = "sqlite"
	DriverRedis    Driver = "redis"
	DriverPostgres Driver = "postgres"
)

// Options configures Open. Only the fields relevant to Driver are read.
type Options struct {
	Driver     Driver
	SQLitePath string
	RedisAddr  string
	Namespace  string
	PGURL      string
}

// CloseFunc releases the backend.
type CloseFunc func() error

// Open builds the Store selected by opts.Driver.
func Open(ctx context.Context, log *slog.Logger, opts Options) (Store, CloseFunc, error) {
	noop := func() error { return nil }

	switch opts.Driver {
	case DriverMemory, "":
		return NewMemory(), noop, nil
	case DriverSQLite:
		s, err := OpenSQLite(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case DriverRedis:
		s := NewRedis(opts.RedisAddr, opts.Namespace)
		if err := s.Ping(ctx); err != nil {
			_ = s.Close()
			return nil, nil, err
		}
		return s, s.Close, nil
	case DriverPostgres:
		s, err := OpenPostgres(ctx, log, opts.PGURL)
		if err != nil {
			return nil, nil, err
		}
		return s, func() error { s.Close(); return nil }, nil
	default:
		return nil, nil, fmt.Errorf("kvstore: unknown driver %q", opts.Driver)
	}
}
