// Package coordinator advances orders through their lifecycle in the
// background, standing in for a fulfilment backend.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
)

var (
	ErrShutdown       = errors.New("coordinator: simulator is shut down")
	ErrAlreadyRunning = errors.New("coordinator: lifecycle already running for order")
)

type Config struct {
	// InitialDelay is waited before the first transition.
	InitialDelay time.Duration
	// Each later transition waits a random delay in [MinStepDelay, MaxStepDelay).
	MinStepDelay time.Duration
	MaxStepDelay time.Duration
}

func DefaultConfig() Config {
	return Config{
		InitialDelay: 2 * time.Second,
		MinStepDelay: 5 * time.Second,
		MaxStepDelay: 15 * time.Second,
	}
}

type Option func(*Simulator)

// WithRand fixes the source of step delays.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) { s.rng = r }
}

func WithSagaLog(repo sagalog.Repository) Option {
	return func(s *Simulator) { s.repo = repo }
}

// Simulator runs one goroutine per started order. Runs are keyed by order id
// so they can be cancelled individually.
type Simulator struct {
	log    *slog.Logger
	orders StatusUpdater
	repo   sagalog.Repository
	cfg    Config
	tracer trace.Tracer

	rngMu sync.Mutex
	rng   *rand.Rand

	base context.Context
	stop context.CancelFunc

	mu     sync.Mutex
	runs   map[string]context.CancelFunc
	closed bool
	wg     sync.WaitGroup
}

func NewSimulator(log *slog.Logger, orders StatusUpdater, cfg Config, opts ...Option) *Simulator {
	if log == nil {
		log = slog.Default()
	}
	base, stop := context.WithCancel(context.Background())
	s := &Simulator{
		log:    log.With("component", "lifecycle"),
		orders: orders,
		repo:   sagalog.NewMemory(),
		cfg:    cfg,
		tracer: otel.Tracer("storefront/coordinator"),
		base:   base,
		stop:   stop,
		runs:   make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rng == nil {
		s.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return s
}

// Start schedules the lifecycle of orderID and returns immediately. The run
// is detached from ctx's cancellation but linked to its trace.
func (s *Simulator) Start(ctx context.Context, orderID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrShutdown
	}
	if _, ok := s.runs[orderID]; ok {
		return ErrAlreadyRunning
	}

	runCtx, span := s.tracer.Start(s.base, "lifecycle.run",
		trace.WithNewRoot(),
		trace.WithLinks(trace.LinkFromContext(ctx)),
		trace.WithAttributes(orderIDAttr(orderID)))
	runCtx, cancel := context.WithCancel(runCtx)
	s.runs[orderID] = cancel

	o := &Orchestrator{
		log:     s.log,
		repo:    s.repo,
		tracer:  s.tracer,
		runID:   uuid.NewString(),
		orderID: orderID,
		steps:   LifecycleSteps(s.orders, orderID),
		delay:   s.delay,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer span.End()
		defer s.finish(orderID)

		if err := o.Start(runCtx); err != nil && !IsStopped(err) {
			span.RecordError(err)
		}
	}()

	s.log.InfoContext(ctx, "lifecycle scheduled", "order_id", orderID, "run_id", o.runID)
	return nil
}

func (s *Simulator) finish(orderID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cancel, ok := s.runs[orderID]; ok {
		cancel()
		delete(s.runs, orderID)
	}
}

// Cancel stops the pending transitions of orderID. It reports whether a run
// was active.
func (s *Simulator) Cancel(orderID string) bool {
	s.mu.Lock()
	cancel, ok := s.runs[orderID]
	s.mu.Unlock()

	if ok {
		cancel()
	}
	return ok
}

func (s *Simulator) Running(orderID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, ok := s.runs[orderID]
	return ok
}

// Wait blocks until every started run has finished.
func (s *Simulator) Wait() {
	s.wg.Wait()
}

// Shutdown stops all runs and refuses new ones. It waits for runs to exit or
// for ctx to expire.
func (s *Simulator) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// delay returns the wait before step i.
func (s *Simulator) delay(i int) time.Duration {
	if i == 0 {
		return s.cfg.InitialDelay
	}
	spread := s.cfg.MaxStepDelay - s.cfg.MinStepDelay
	if spread <= 0 {
		return s.cfg.MinStepDelay
	}

	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.cfg.MinStepDelay + time.Duration(s.rng.Int64N(int64(spread)))
}
