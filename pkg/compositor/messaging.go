package compositor

import (
	"context"

	"github.com/randalmurphal/compositor/pkg/compositor/bus"
	"github.com/randalmurphal/compositor/pkg/compositor/message"
	"github.com/randalmurphal/compositor/pkg/compositor/module"
)

// Publish delivers evt to every subscriber on h's bus, in registration order.
func Publish[P any](ctx context.Context, h *Host, evt message.Event[P]) error {
	return bus.Publish(ctx, h.table, evt)
}

// Dispatch delivers cmd to the first handler of its type on h's bus.
func Dispatch[P any](ctx context.Context, h *Host, cmd message.Command[P]) error {
	return bus.Dispatch(ctx, h.table, cmd)
}

// Ask delivers req to the first handler of its type on h's bus and returns
// the response.
func Ask[P, R any](ctx context.Context, h *Host, req message.Request[P, R]) (R, error) {
	return bus.Ask(ctx, h.table, req)
}

// Publisher returns a callback that publishes its payload as an
// Event[P] on h's bus.
func Publisher[P any](h *Host) module.PublishFunc[P] {
	return func(ctx context.Context, payload P) error {
		return bus.Publish(ctx, h.table, message.NewEvent(payload))
	}
}

// Dispatcher returns a callback that dispatches its payload as a
// Command[P] on h's bus.
func Dispatcher[P any](h *Host) func(ctx context.Context, payload P) error {
	return func(ctx context.Context, payload P) error {
		return bus.Dispatch(ctx, h.table, message.NewCommand(payload))
	}
}

// InjectPublisher hands a Publisher[P] to every owned module implementing
// module.PublisherSink[P]. Returns the number of modules injected.
func InjectPublisher[P any](h *Host) int {
	publish := Publisher[P](h)
	n := 0
	for _, m := range h.modules {
		if sink, ok := m.(module.PublisherSink[P]); ok {
			sink.SetPublisher(publish)
			n++
		}
	}
	return n
}
