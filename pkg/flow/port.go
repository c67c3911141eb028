// Package flow is a small interpreted runtime for visual automation
// workflows: a graph of activity nodes connected by flow edges (execution
// order) and data edges (value transfer), walked sequentially by an engine
// that perceives screen state and simulates input through pluggable
// capabilities.
package flow

// PortKind separates execution-order ports from value-transfer ports.
type PortKind string

const (
	// FlowPort sequences execution between nodes.
	FlowPort PortKind = "flow"
	// DataPort carries a value from a producing node to a consuming node.
	DataPort PortKind = "data"
)

// PortDirection is the side of the node a port sits on.
type PortDirection string

const (
	In  PortDirection = "in"
	Out PortDirection = "out"
)

// DataType tags the value a data port carries. Flow ports use TypeAny.
type DataType string

const (
	TypeAny       DataType = "any"
	TypeBoolean   DataType = "boolean"
	TypeString    DataType = "string"
	TypeNumber    DataType = "number"
	TypePoint     DataType = "point"
	TypeRectangle DataType = "rectangle"
	TypeImage     DataType = "image"
)

// Port is a named connection point on a node. Immutable once created.
type Port struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Kind      PortKind      `json:"kind"`
	Direction PortDirection `json:"direction"`
	Type      DataType      `json:"type"`

	// AllowsMultiple permits fan-out to several connections. Only
	// meaningful for flow outputs; the engine still follows the first
	// connection in insertion order.
	AllowsMultiple bool `json:"allows_multiple,omitempty"`
}
