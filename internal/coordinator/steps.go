package coordinator

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/jcmexdev/storefront/internal/order-service/app"
	"github.com/jcmexdev/storefront/internal/order-service/domain"
)

var ErrTransitionRejected = errors.New("coordinator: transition rejected")

// StatusUpdater is the part of the order store the simulator drives.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, opts ...app.UpdateOption) bool
}

var stepNames = map[domain.OrderStatus]string{
	domain.StatusConfirmed:  "confirm_order",
	domain.StatusProcessing: "process_order",
	domain.StatusShipped:    "ship_order",
	domain.StatusDelivered:  "deliver_order",
}

// TransitionStep moves one order to a single target status.
type TransitionStep struct {
	orders  StatusUpdater
	orderID string
	to      domain.OrderStatus
}

func NewTransitionStep(orders StatusUpdater, orderID string, to domain.OrderStatus) *TransitionStep {
	return &TransitionStep{orders: orders, orderID: orderID, to: to}
}

func (s *TransitionStep) Name() string {
	if n, ok := stepNames[s.to]; ok {
		return n
	}
	return "set_" + string(s.to)
}

func (s *TransitionStep) Target() domain.OrderStatus { return s.to }

func (s *TransitionStep) Execute(ctx context.Context) error {
	if !s.orders.UpdateStatus(ctx, s.orderID, s.to) {
		return fmt.Errorf("%w: %s to %s", ErrTransitionRejected, s.orderID, s.to)
	}
	return nil
}

// LifecycleSteps returns one step per status after pending, in order.
func LifecycleSteps(orders StatusUpdater, orderID string) []Step {
	steps := make([]Step, 0, len(domain.Lifecycle)-1)
	for _, st := range domain.Lifecycle[1:] {
		steps = append(steps, NewTransitionStep(orders, orderID, st))
	}
	return steps
}

func orderIDAttr(id string) attribute.KeyValue {
	return attribute.String("order.id", id)
}

func targetAttr(s domain.OrderStatus) attribute.KeyValue {
	return attribute.String("order.status.target", string(s))
}
