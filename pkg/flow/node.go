package flow

// Position is a canvas coordinate. Presentation only: it round-trips
// through the document format but plays no part in execution.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ActivityNode is one step in a workflow, bound to an activity type. Its
// ports are instantiated from the activity's contract at creation time;
// its property bag holds the author's configuration.
type ActivityNode struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties"`
	Inputs     []Port         `json:"inputs"`
	Outputs    []Port         `json:"outputs"`

	// Disabled nodes are skipped during execution without being removed
	// from the graph.
	Disabled bool `json:"disabled,omitempty"`

	Position Position `json:"position"`
}

// InputPort returns the input port with the given name.
func (n *ActivityNode) InputPort(name string) (Port, bool) {
	for _, p := range n.Inputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// OutputPort returns the output port with the given name.
func (n *ActivityNode) OutputPort(name string) (Port, bool) {
	for _, p := range n.Outputs {
		if p.Name == name {
			return p, true
		}
	}
	return Port{}, false
}

// Property returns the configured property value, if set.
func (n *ActivityNode) Property(name string) (any, bool) {
	v, ok := n.Properties[name]
	return v, ok
}

// SetProperty writes a property value, allocating the bag on first use.
func (n *ActivityNode) SetProperty(name string, value any) {
	if n.Properties == nil {
		n.Properties = make(map[string]any)
	}
	n.Properties[name] = value
}
