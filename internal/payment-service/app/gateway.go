package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

var ErrDeclined = errors.New("payment: declined")

type Config struct {
	// Delay simulates the processor round trip.
	Delay time.Duration
	// MaxAmount declines charges above it. Zero means no limit.
	MaxAmount int64
}

// Gateway is a simulated payment processor. Nothing leaves the process.
type Gateway struct {
	log *slog.Logger
	cfg Config

	mu       sync.Mutex
	payments map[string]int64
}

func NewGateway(log *slog.Logger, cfg Config) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		log:      log.With("component", "payment"),
		cfg:      cfg,
		payments: make(map[string]int64),
	}
}

// Charge takes amount for ref after the configured delay. It returns
// ErrDeclined above MaxAmount, or ctx's error if ctx ends first.
func (g *Gateway) Charge(ctx context.Context, ref string, amount int64) error {
	g.log.InfoContext(ctx, "processing charge", "ref", ref, "amount", amount)

	if g.cfg.Delay > 0 {
		t := time.NewTimer(g.cfg.Delay)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return fmt.Errorf("payment: charge %s: %w", ref, ctx.Err())
		case <-t.C:
		}
	}

	if amount <= 0 {
		return fmt.Errorf("%w: invalid amount %d", ErrDeclined, amount)
	}
	if g.cfg.MaxAmount > 0 && amount > g.cfg.MaxAmount {
		g.log.WarnContext(ctx, "charge declined", "ref", ref, "amount", amount, "limit", g.cfg.MaxAmount)
		return fmt.Errorf("%w: amount %d exceeds limit %d", ErrDeclined, amount, g.cfg.MaxAmount)
	}

	g.mu.Lock()
	g.payments[ref] += amount
	g.mu.Unlock()

	g.log.InfoContext(ctx, "charge successful", "ref", ref)
	return nil
}

// Refund returns the amount recorded for ref. Unknown refs refund nothing.
func (g *Gateway) Refund(ctx context.Context, ref string) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	amount, ok := g.payments[ref]
	if !ok {
		g.log.WarnContext(ctx, "no payment to refund", "ref", ref)
		return 0
	}
	delete(g.payments, ref)
	g.log.InfoContext(ctx, "refunded", "ref", ref, "amount", amount)
	return amount
}
