/*
Package compositor hosts a fixed set of modules around one composed dispatch
table and runs a poll loop over the modules' OS event sources.

# Overview

A compositor application is a list of independently written modules. Each
module contributes bindings (event subscribers, command handlers, request
handlers) to a shared bus; none of them knows the others exist. The Host
owns the modules and the bus:

	host := compositor.New([]module.Module{kb, shortcuts, stats},
	    compositor.WithLogger(logger),
	)
	defer host.Cleanup(ctx)

	if err := host.Initialize(ctx); err != nil {
	    return err
	}

The bus is composed once, in New, so Publish, Dispatch and Ask work before
Initialize. Handlers that depend on external resources are only meaningful
after it.

# Messages

	type KeyPressEvent = message.Event[keyboard.KeyPress]

	err := compositor.Publish(ctx, host, message.NewEvent(keyboard.KeyPress{Key: "a"}))
	err = compositor.Dispatch(ctx, host, message.NewCommand(keystats.Reset{}))
	n, err := compositor.Ask(ctx, host, message.NewRequest[int](keystats.Count{}))

Events reach every subscriber in registration order. Commands and requests
reach the first handler of their type, in composition order; with no
handler they return the zero response and bus.ErrNoHandler.

Modules that originate events from outside the process receive a
publisher after construction:

	compositor.InjectPublisher[keyboard.KeyPress](host)

# Run Loop

	runner, err := compositor.NewRunner(host)
	if err != nil {
	    return err
	}
	err = runner.Run(ctx, compositor.WithExitCheck(shortcuts.ExitRequested))

Run waits, with a bounded timeout, for readiness on every module
descriptor collected when the runner was built, and drains each ready
module. The loop stops when the exit check returns true, when Stop is
called, when ctx ends, when a drain returns false, or on a wait or drain
error. Interrupted waits (EINTR, EAGAIN) are retried.

Everything runs on the caller's goroutine. Stop is the only method meant
to be called from elsewhere.

# Observability

WithLogger, WithMetrics and WithTracing install an observer on the bus
that logs, counts and traces every delivery. The runner records drains
and wait errors. See package observability for the names used.
*/
package compositor
