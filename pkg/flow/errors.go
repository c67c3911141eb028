package flow

import "errors"

var (
	// ErrNoStart is reported when a workflow has no Start node.
	ErrNoStart = errors.New("flow: workflow has no Start node")

	// ErrMultipleStart is reported when a workflow has more than one Start node.
	ErrMultipleStart = errors.New("flow: workflow has multiple Start nodes")

	// ErrNoEnd is reported when a workflow has no End node.
	ErrNoEnd = errors.New("flow: workflow has no End node")

	// ErrOrphanNode is reported for a non-Start node with no incoming
	// connection; such a node is unreachable.
	ErrOrphanNode = errors.New("flow: node has no incoming connection")

	// ErrUnknownActivity is returned when a node references an activity
	// type that is not registered in the catalog.
	ErrUnknownActivity = errors.New("flow: unknown activity type")

	// ErrNodeNotFound is returned when a referenced node does not exist.
	ErrNodeNotFound = errors.New("flow: node not found")

	// ErrPortNotFound is returned when a referenced port does not exist
	// on its node.
	ErrPortNotFound = errors.New("flow: port not found")

	// ErrMaxSteps is returned when an engine step cap interrupts a run,
	// usually because an authored cycle never reached a terminal node.
	ErrMaxSteps = errors.New("flow: max steps exceeded")
)
