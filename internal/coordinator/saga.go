package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jcmexdev/storefront/internal/coordinator/sagalog"
	"github.com/jcmexdev/storefront/internal/order-service/domain"
)

// Step is one unit of work in a lifecycle run.
type Step interface {
	Name() string
	// Target is the order status the step moves to.
	Target() domain.OrderStatus
	Execute(ctx context.Context) error
}

// Orchestrator runs the steps of one order sequentially, sleeping before each
// one. A step never starts before the previous one has returned.
type Orchestrator struct {
	log    *slog.Logger
	repo   sagalog.Repository
	tracer trace.Tracer

	runID   string
	orderID string
	steps   []Step
	delay   func(i int) time.Duration
}

// Start blocks until every step has run, a step fails, or ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) error {
	log := o.log.With("order_id", o.orderID, "run_id", o.runID)
	o.record(ctx, sagalog.StatusStarted, "", string(domain.StatusPending), nil)

	for i, step := range o.steps {
		if err := sleep(ctx, o.delay(i)); err != nil {
			log.InfoContext(ctx, "lifecycle run stopped", "before_step", step.Name())
			o.record(context.WithoutCancel(ctx), sagalog.StatusStopped, step.Name(), "", []string{err.Error()})
			return err
		}

		stepCtx, span := o.tracer.Start(ctx, "lifecycle."+step.Name(),
			trace.WithAttributes(orderIDAttr(o.orderID), targetAttr(step.Target())))

		if err := step.Execute(stepCtx); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.WarnContext(stepCtx, "lifecycle step failed, run stops", "step", step.Name(), "error", err)
			o.record(stepCtx, sagalog.StatusFailed, step.Name(), "", []string{err.Error()})
			span.End()
			return err
		}

		log.InfoContext(stepCtx, "lifecycle step done", "step", step.Name(), "status", step.Target())
		o.record(stepCtx, sagalog.StatusStepDone, step.Name(), string(step.Target()), nil)
		span.End()
	}

	o.record(ctx, sagalog.StatusCompleted, "", string(domain.StatusDelivered), nil)
	return nil
}

func (o *Orchestrator) record(ctx context.Context, status sagalog.Status, step, orderStatus string, errs []string) {
	entry := sagalog.NewEntry(ctx, o.runID, o.orderID, status, step, orderStatus, errs)
	if err := o.repo.Save(ctx, entry); err != nil {
		o.log.ErrorContext(ctx, "lifecycle log write failed", "order_id", o.orderID, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsStopped reports whether err ended a run through cancellation rather than
// a failed step.
func IsStopped(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
