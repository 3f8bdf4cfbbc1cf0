package api

import "context"

// Runtime is the request-serving collaborator a pipeline hands its actions to.
type Runtime interface {
	// RegisterAction exposes one action to clients.
	RegisterAction(action Action) error

	// Serve blocks until the runtime stops or ctx is cancelled.
	Serve(ctx context.Context) error
}

// RuntimeFactory constructs a runtime on first build.
type RuntimeFactory func() (Runtime, error)
