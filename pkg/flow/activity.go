package flow

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Built-in activity type names.
const (
	ActivityStart        = "Start"
	ActivityEnd          = "End"
	ActivityFindTemplate = "FindTemplate"
	ActivityClick        = "Click"
	ActivityTypeText     = "TypeText"
	ActivityWait         = "Wait"
	ActivityCondition    = "Condition"
)

// DefaultOutPort is the flow output an activity steers to when its result
// names no other port.
const DefaultOutPort = "Out"

// Activity is a reusable kind of workflow step: a fixed port and property
// contract plus an execution routine. Implementations are stateless; all
// per-run state lives in the RunContext and the node's property bag.
type Activity interface {
	// Type is the unique registry key, e.g. "FindTemplate".
	Type() string

	// Info describes the activity for editors and catalogs. Presentation
	// only.
	Info() ActivityInfo

	// PortSpec lists the input and output port templates contributed to
	// every node instantiated from this activity.
	PortSpec() (inputs, outputs []Port)

	// Properties lists the configurable property definitions.
	Properties() []PropertyDef

	// Execute performs the step. inputs holds only the data-port values
	// resolved from upstream connections; properties not overridden by a
	// connected port fall back to the node's configured value. A returned
	// error fails the run at this node.
	Execute(ctx context.Context, rc *RunContext, node *ActivityNode, inputs map[string]any) (ActivityResult, error)
}

// ActivityInfo is the human-facing description of an activity.
type ActivityInfo struct {
	DisplayName string
	Category    string
	Description string
}

// ActivityResult is a successful activity invocation: produced data-output
// values, the flow port to leave through (DefaultOutPort when empty), and
// whether the run should stop here.
type ActivityResult struct {
	Outputs  map[string]any
	NextPort string
	Stop     bool
}

// PropertyType tags a property definition's value kind.
type PropertyType string

const (
	PropString    PropertyType = "string"
	PropNumber    PropertyType = "number"
	PropBoolean   PropertyType = "boolean"
	PropPath      PropertyType = "path"
	PropEnum      PropertyType = "enum"
	PropPoint     PropertyType = "point"
	PropRectangle PropertyType = "rectangle"
	PropColor     PropertyType = "color"
)

// PropertyDef declares one configurable property of an activity.
type PropertyDef struct {
	Name     string
	Type     PropertyType
	Default  any
	Required bool
	Min      float64
	Max      float64
	Options  []string // enum values
}

// Catalog maps activity type names to their implementations. It is a
// closed registry populated at startup; the engine resolves node types
// through it and an unregistered type is a fatal run error.
type Catalog struct {
	activities map[string]Activity
}

// NewCatalog returns an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{activities: make(map[string]Activity)}
}

// Register adds an activity, replacing any previous registration of the
// same type name.
func (c *Catalog) Register(a Activity) {
	c.activities[a.Type()] = a
}

// Lookup resolves an activity type name.
func (c *Catalog) Lookup(typeName string) (Activity, bool) {
	a, ok := c.activities[typeName]
	return a, ok
}

// Types returns the registered type names, sorted.
func (c *Catalog) Types() []string {
	out := make([]string, 0, len(c.activities))
	for t := range c.activities {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// NewNode instantiates a node from an activity's contract: fresh port
// identities from the templates and property defaults seeded into the bag.
func (c *Catalog) NewNode(activityType, label string) (*ActivityNode, error) {
	a, ok := c.activities[activityType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownActivity, activityType)
	}

	ins, outs := a.PortSpec()
	node := &ActivityNode{
		ID:         uuid.NewString(),
		Type:       activityType,
		Label:      label,
		Properties: make(map[string]any),
		Inputs:     instantiatePorts(ins),
		Outputs:    instantiatePorts(outs),
	}
	if label == "" {
		node.Label = a.Info().DisplayName
	}
	for _, def := range a.Properties() {
		if def.Default != nil {
			node.Properties[def.Name] = def.Default
		}
	}
	return node, nil
}

func instantiatePorts(templates []Port) []Port {
	out := make([]Port, len(templates))
	for i, p := range templates {
		p.ID = uuid.NewString()
		out[i] = p
	}
	return out
}
