package sagalog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo returns the ids of the span active in ctx, or empty
// strings when there is none.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an entry stamped with the current time and the trace
// info found in ctx.
//
//	entry := sagalog.NewEntry(ctx, runID, orderID, sagalog.StatusStepDone, "ship_order", "shipped", nil)
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, runID, orderID string, status Status, step, orderStatus string, errs []string) *Entry {
	ti := ExtractTraceInfo(ctx)
	return &Entry{
		RunID:         runID,
		OrderID:       orderID,
		Status:        status,
		Step:          step,
		OrderStatus:   orderStatus,
		ErrorMessages: errs,
		TraceID:       ti.TraceID,
		SpanID:        ti.SpanID,
		RecordedAt:    time.Now().UTC(),
	}
}
