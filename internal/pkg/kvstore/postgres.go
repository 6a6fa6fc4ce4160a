package kvstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Postgres struct {
	log  *slog.Logger
	pool *pgxpool.Pool
}

// OpenPostgres connects to url and creates the kv table if needed.
func OpenPostgres(ctx context.Context, log *slog.Logger, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("kvstore: pg connect: %w", err)
	}
	p := NewPostgres(log, pool)
	if err := p.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	p.log.Info("kvstore: postgres ready")
	return p, nil
}

func NewPostgres(log *slog.Logger, pool *pgxpool.Pool) *Postgres {
	if log == nil {
		log = slog.Default()
	}
	return &Postgres{log: log, pool: pool}
}

func (p *Postgres) migrate(ctx context.Context) error {
	_, err := p.pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS kv (
		key        TEXT PRIMARY KEY,
		value      TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`)
	if err != nil {
		return fmt.Errorf("kvstore: pg migrate: %w", err)
	}
	return nil
}

func (p *Postgres) Read(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := p.pool.QueryRow(ctx, `SELECT value FROM kv WHERE key=$1`, key).Scan(&v)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: pg read %q: %w", key, err)
	}
	return v, true, nil
}

func (p *Postgres) Write(ctx context.Context, key, value string) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO kv (key, value, updated_at) VALUES ($1,$2,now())
		ON CONFLICT (key) DO UPDATE SET value=$2, updated_at=now()`, key, value)
	if err != nil {
		return fmt.Errorf("kvstore: pg write %q: %w", key, err)
	}
	return nil
}

func (p *Postgres) Close() {
	p.pool.Close()
}
