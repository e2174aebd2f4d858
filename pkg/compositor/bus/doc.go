// Package bus provides the typed dispatch table that routes messages to
// handlers by their static type.
//
// # Bindings
//
// A Binding pairs one message type with one handler. Bindings are built
// with the typed constructors, so a handler's input and output types always
// agree with the message it is bound to:
//
//	b1 := bus.OnEvent(func(ctx context.Context, evt KeyPressEvent) error { ... })
//	b2 := bus.OnCommand(func(ctx context.Context, cmd ResetCommand) error { ... })
//	b3 := bus.OnRequest(func(ctx context.Context, req CountRequest) (int, error) { ... })
//
// Internally a binding stores a type-erased invoker guarded by the bound
// message's type tag; invoking it with any other type fails with
// ErrTypeMismatch instead of calling the handler.
//
// # Tables
//
// A Table is an ordered list of bindings. Extend returns a new table and
// leaves the receiver untouched, which makes staged composition safe:
//
//	base := bus.New()
//	withA := base.Extend(b1)
//	withAB := withA.Extend(b2) // withA still holds only b1
//
// The Subscribe, Handle and Answer helpers combine constructor and Extend.
//
// # Delivery
//
//	err := bus.Publish(ctx, table, KeyPressEvent{Payload: kp})   // every subscriber, in order
//	err = bus.Dispatch(ctx, table, ResetCommand{})                 // first handler only
//	n, err := bus.Ask(ctx, table, CountRequest{Payload: q})       // first handler only
//
// Publishing an event nobody subscribes to is a no-op. Dispatching a
// command or request with no handler returns ErrNoHandler (and the zero
// response for requests). Handler errors are returned wrapped in a
// *HandlerError; panics are not recovered.
//
// Delivery is synchronous and re-entrant: a handler may publish or
// dispatch further messages on the same table before it returns. No cycle
// detection is performed.
package bus
