package flow

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Workflow owns the node set and connection set of one automation graph.
// It is built programmatically or decoded from a document, validated on
// demand, and read (never written) by the engine during a run.
type Workflow struct {
	ID          string
	Name        string
	Description string
	Version     string
	Author      string
	CreatedAt   time.Time
	UpdatedAt   time.Time

	nodes     []*ActivityNode
	conns     []*Connection
	nodeIndex map[string]*ActivityNode
}

// NewWorkflow creates an empty workflow with a fresh identity.
func NewWorkflow(name string) *Workflow {
	now := time.Now().UTC()
	return &Workflow{
		ID:        uuid.NewString(),
		Name:      name,
		Version:   "1.0",
		CreatedAt: now,
		UpdatedAt: now,
		nodeIndex: make(map[string]*ActivityNode),
	}
}

// Nodes returns the node set in insertion order.
func (w *Workflow) Nodes() []*ActivityNode { return w.nodes }

// Connections returns the connection set in insertion order.
func (w *Workflow) Connections() []*Connection { return w.conns }

// Node looks a node up by identity.
func (w *Workflow) Node(id string) (*ActivityNode, bool) {
	n, ok := w.nodeIndex[id]
	return n, ok
}

// NodesOfType returns all nodes bound to the given activity type.
func (w *Workflow) NodesOfType(activityType string) []*ActivityNode {
	var out []*ActivityNode
	for _, n := range w.nodes {
		if n.Type == activityType {
			out = append(out, n)
		}
	}
	return out
}

// AddNode inserts a node into the graph.
func (w *Workflow) AddNode(n *ActivityNode) {
	if w.nodeIndex == nil {
		w.nodeIndex = make(map[string]*ActivityNode)
	}
	w.nodes = append(w.nodes, n)
	w.nodeIndex[n.ID] = n
	w.touch()
}

// RemoveNode deletes a node and cascades to every connection touching it.
func (w *Workflow) RemoveNode(id string) {
	if _, ok := w.nodeIndex[id]; !ok {
		return
	}
	delete(w.nodeIndex, id)
	nodes := w.nodes[:0]
	for _, n := range w.nodes {
		if n.ID != id {
			nodes = append(nodes, n)
		}
	}
	w.nodes = nodes

	conns := w.conns[:0]
	for _, c := range w.conns {
		if c.SourceNode != id && c.TargetNode != id {
			conns = append(conns, c)
		}
	}
	w.conns = conns
	w.touch()
}

// Connect adds an edge from an output port to an input port. At most one
// connection may enter an input port: an existing one is replaced, never
// duplicated. Both endpoints must exist.
func (w *Workflow) Connect(sourceNode, sourcePort, targetNode, targetPort string) (*Connection, error) {
	src, ok := w.nodeIndex[sourceNode]
	if !ok {
		return nil, fmt.Errorf("%w: source %q", ErrNodeNotFound, sourceNode)
	}
	if !hasPort(src.Outputs, sourcePort) {
		return nil, fmt.Errorf("%w: output %q on node %q", ErrPortNotFound, sourcePort, sourceNode)
	}
	tgt, ok := w.nodeIndex[targetNode]
	if !ok {
		return nil, fmt.Errorf("%w: target %q", ErrNodeNotFound, targetNode)
	}
	if !hasPort(tgt.Inputs, targetPort) {
		return nil, fmt.Errorf("%w: input %q on node %q", ErrPortNotFound, targetPort, targetNode)
	}

	conns := w.conns[:0]
	for _, c := range w.conns {
		if c.TargetNode == targetNode && c.TargetPort == targetPort {
			continue
		}
		conns = append(conns, c)
	}
	w.conns = conns

	conn := &Connection{
		ID:         uuid.NewString(),
		SourceNode: sourceNode,
		SourcePort: sourcePort,
		TargetNode: targetNode,
		TargetPort: targetPort,
	}
	w.conns = append(w.conns, conn)
	w.touch()
	return conn, nil
}

// AddConnection inserts a pre-built connection (used by the document
// decoder). Replacement semantics match Connect.
func (w *Workflow) AddConnection(conn *Connection) {
	conns := w.conns[:0]
	for _, c := range w.conns {
		if c.TargetNode == conn.TargetNode && c.TargetPort == conn.TargetPort {
			continue
		}
		conns = append(conns, c)
	}
	w.conns = append(conns, conn)
	w.touch()
}

// RemoveConnection deletes a connection by identity.
func (w *Workflow) RemoveConnection(id string) {
	conns := w.conns[:0]
	for _, c := range w.conns {
		if c.ID != id {
			conns = append(conns, c)
		}
	}
	w.conns = conns
	w.touch()
}

// ConnectionsFrom returns every connection leaving the given output port,
// in insertion order. The engine follows the first.
func (w *Workflow) ConnectionsFrom(nodeID, portID string) []*Connection {
	var out []*Connection
	for _, c := range w.conns {
		if c.SourceNode == nodeID && c.SourcePort == portID {
			out = append(out, c)
		}
	}
	return out
}

// IncomingConnection returns the single connection entering an input port.
func (w *Workflow) IncomingConnection(nodeID, portID string) (*Connection, bool) {
	for _, c := range w.conns {
		if c.TargetNode == nodeID && c.TargetPort == portID {
			return c, true
		}
	}
	return nil, false
}

// Validate checks the graph's structure and collects every violation
// rather than stopping at the first: exactly one Start, at least one End,
// and no orphan (a non-Start node with no incoming connection is
// unreachable and an error, not a silent skip). Cycles are not rejected;
// authored retry loops are legal and bounded by the engine's step cap.
func (w *Workflow) Validate() (bool, []error) {
	var errs []error

	starts := w.NodesOfType(ActivityStart)
	switch {
	case len(starts) == 0:
		errs = append(errs, ErrNoStart)
	case len(starts) > 1:
		errs = append(errs, fmt.Errorf("%w: found %d", ErrMultipleStart, len(starts)))
	}

	if len(w.NodesOfType(ActivityEnd)) == 0 {
		errs = append(errs, ErrNoEnd)
	}

	incoming := make(map[string]bool, len(w.nodes))
	for _, c := range w.conns {
		incoming[c.TargetNode] = true
	}
	for _, n := range w.nodes {
		if n.Type == ActivityStart {
			continue
		}
		if !incoming[n.ID] {
			errs = append(errs, fmt.Errorf("%w: %q (%s)", ErrOrphanNode, n.Label, n.ID))
		}
	}

	return len(errs) == 0, errs
}

func (w *Workflow) touch() {
	w.UpdatedAt = time.Now().UTC()
}

func hasPort(ports []Port, id string) bool {
	for _, p := range ports {
		if p.ID == id {
			return true
		}
	}
	return false
}
