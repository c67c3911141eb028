package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Engine walks a workflow graph from its Start node, invoking each
// activity, propagating data-port values through the variable store, and
// following flow-port edges until a terminal node, a dead end, or
// cancellation. Execution is single-threaded and strictly sequential.
type Engine struct {
	Catalog  *Catalog
	Observer RunObserver
	Logger   *slog.Logger

	// MaxSteps bounds total node visits, catching authored cycles that
	// never reach a terminal node. Zero means unlimited.
	MaxSteps int
}

// NewEngine returns an engine over the given catalog.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{Catalog: catalog}
}

// RunResult summarizes one run. Cancelled is distinct from failure: a
// cancelled run is unsuccessful but reports no failing node.
type RunResult struct {
	Success       bool      `json:"success"`
	Cancelled     bool      `json:"cancelled,omitempty"`
	Error         string    `json:"error,omitempty"`
	FailedNode    string    `json:"failed_node,omitempty"`
	NodesExecuted int       `json:"nodes_executed"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
}

// Run validates wf and executes it against the capabilities in rc. A
// structural validation failure means the run never starts.
func (e *Engine) Run(ctx context.Context, wf *Workflow, rc *RunContext) RunResult {
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}
	res := RunResult{StartedAt: time.Now().UTC()}

	if ok, errs := wf.Validate(); !ok {
		res.Error = fmt.Sprintf("workflow invalid: %v", errors.Join(errs...))
		res.FinishedAt = time.Now().UTC()
		emitEvent(e.Observer, RunEvent{Type: EventRunError, Error: errors.Join(errs...)})
		return res
	}

	node := wf.NodesOfType(ActivityStart)[0]
	steps := 0

	for {
		if err := ctx.Err(); err != nil {
			return e.cancelled(res, err)
		}
		steps++
		if e.MaxSteps > 0 && steps > e.MaxSteps {
			return e.failed(res, node, fmt.Errorf("%w: %d", ErrMaxSteps, e.MaxSteps))
		}

		if node.Disabled {
			emitEvent(e.Observer, RunEvent{Type: EventNodeSkipped, NodeID: node.ID, NodeType: node.Type, Label: node.Label})
			next, ok := e.follow(wf, node, DefaultOutPort)
			if !ok {
				return e.complete(res, node)
			}
			node = next
			continue
		}

		activity, ok := e.Catalog.Lookup(node.Type)
		if !ok {
			return e.failed(res, node, fmt.Errorf("%w: %q", ErrUnknownActivity, node.Type))
		}

		inputs := e.gatherInputs(wf, rc, node)

		emitEvent(e.Observer, RunEvent{Type: EventNodeExecuting, NodeID: node.ID, NodeType: node.Type, Label: node.Label})
		logger.Debug("executing node", "node", node.ID, "type", node.Type, "label", node.Label)
		nodeStart := time.Now()

		result, err := activity.Execute(ctx, rc, node, inputs)
		elapsed := time.Since(nodeStart)

		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return e.cancelled(res, err)
			}
			emitEvent(e.Observer, RunEvent{Type: EventNodeExecuted, NodeID: node.ID, NodeType: node.Type, Label: node.Label, Elapsed: elapsed, Error: err})
			return e.failed(res, node, err)
		}

		res.NodesExecuted++
		emitEvent(e.Observer, RunEvent{Type: EventNodeExecuted, NodeID: node.ID, NodeType: node.Type, Label: node.Label, Elapsed: elapsed})

		for name, value := range result.Outputs {
			port, ok := node.OutputPort(name)
			if !ok {
				continue
			}
			rc.Vars.Set(OutputKey(node.ID, port.ID), value)
		}

		if result.Stop {
			return e.complete(res, node)
		}

		nextPort := result.NextPort
		if nextPort == "" {
			nextPort = DefaultOutPort
		}
		next, ok := e.follow(wf, node, nextPort)
		if !ok {
			// A branch with no attached continuation is a valid finish.
			return e.complete(res, node)
		}
		emitEvent(e.Observer, RunEvent{Type: EventTransition, NodeID: node.ID, Port: nextPort})
		node = next
	}
}

// gatherInputs resolves data-port values for a node: for each data input,
// the single incoming connection's stored output value. Absent values are
// omitted, not errors.
func (e *Engine) gatherInputs(wf *Workflow, rc *RunContext, node *ActivityNode) map[string]any {
	inputs := make(map[string]any)
	for _, port := range node.Inputs {
		if port.Kind != DataPort {
			continue
		}
		conn, ok := wf.IncomingConnection(node.ID, port.ID)
		if !ok {
			continue
		}
		if v, ok := rc.Vars.Get(OutputKey(conn.SourceNode, conn.SourcePort)); ok {
			inputs[port.Name] = v
		}
	}
	return inputs
}

// follow resolves the next node through the named output port, falling
// back to the port literally named "Out" when the requested name is
// absent. The first connection in insertion order wins.
func (e *Engine) follow(wf *Workflow, node *ActivityNode, portName string) (*ActivityNode, bool) {
	port, ok := node.OutputPort(portName)
	if !ok {
		port, ok = node.OutputPort(DefaultOutPort)
		if !ok {
			return nil, false
		}
	}
	conns := wf.ConnectionsFrom(node.ID, port.ID)
	if len(conns) == 0 {
		return nil, false
	}
	target, ok := wf.Node(conns[0].TargetNode)
	return target, ok
}

func (e *Engine) complete(res RunResult, node *ActivityNode) RunResult {
	res.Success = true
	res.FinishedAt = time.Now().UTC()
	emitEvent(e.Observer, RunEvent{Type: EventRunComplete, NodeID: node.ID})
	return res
}

func (e *Engine) failed(res RunResult, node *ActivityNode, err error) RunResult {
	res.Error = err.Error()
	res.FailedNode = node.ID
	res.FinishedAt = time.Now().UTC()
	emitEvent(e.Observer, RunEvent{Type: EventRunError, NodeID: node.ID, Label: node.Label, Error: err})
	return res
}

func (e *Engine) cancelled(res RunResult, err error) RunResult {
	res.Cancelled = true
	res.Error = "run cancelled"
	res.FinishedAt = time.Now().UTC()
	emitEvent(e.Observer, RunEvent{Type: EventRunCancelled, Error: err})
	return res
}
