package compositor

import (
	"context"
	"log/slog"
	"time"

	"github.com/randalmurphal/compositor/pkg/compositor/bus"
	"github.com/randalmurphal/compositor/pkg/compositor/message"
	"github.com/randalmurphal/compositor/pkg/compositor/observability"
	"go.opentelemetry.io/otel/trace"
)

// deliveryObserver reports bus deliveries to the host's logger, metrics
// and tracer.
type deliveryObserver struct {
	cfg    *hostConfig
	logger *slog.Logger
}

var _ bus.Observer = (*deliveryObserver)(nil)

func (o *deliveryObserver) Deliver(ctx context.Context, kind message.Kind, mt message.Type) (context.Context, func(int, error)) {
	start := time.Now()
	kindName, typeName := kind.String(), mt.String()

	var span trace.Span
	if o.cfg.tracingEnabled {
		ctx, span = o.cfg.spans.StartDeliverySpan(ctx, kindName, typeName)
	}

	return ctx, func(handlers int, err error) {
		elapsed := time.Since(start)
		o.cfg.metrics.RecordDelivery(ctx, kindName, typeName, handlers, elapsed, err)
		observability.LogDelivery(o.logger, kindName, typeName, handlers, float64(elapsed.Microseconds())/1000, err)
		if span != nil {
			o.cfg.spans.EndSpanWithError(span, err)
		}
	}
}
