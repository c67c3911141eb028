package flow

import (
	"context"
)

// Builtins returns a catalog pre-populated with the built-in activities.
func Builtins() *Catalog {
	c := NewCatalog()
	c.Register(StartActivity{})
	c.Register(EndActivity{})
	c.Register(FindTemplateActivity{})
	c.Register(ClickActivity{})
	c.Register(TypeTextActivity{})
	c.Register(WaitActivity{})
	c.Register(ConditionActivity{})
	return c
}

// Port template helpers shared by the built-ins.

func flowIn() Port {
	return Port{Name: "In", Kind: FlowPort, Direction: In, Type: TypeAny}
}

func flowOut(name string) Port {
	return Port{Name: name, Kind: FlowPort, Direction: Out, Type: TypeAny, AllowsMultiple: true}
}

func dataIn(name string, t DataType) Port {
	return Port{Name: name, Kind: DataPort, Direction: In, Type: t}
}

func dataOut(name string, t DataType) Port {
	return Port{Name: name, Kind: DataPort, Direction: Out, Type: t}
}

// StartActivity is the workflow entry point. Exactly one Start node must
// exist per workflow.
type StartActivity struct{}

func (StartActivity) Type() string { return ActivityStart }

func (StartActivity) Info() ActivityInfo {
	return ActivityInfo{DisplayName: "Start", Category: "Control", Description: "Entry point of the workflow."}
}

func (StartActivity) PortSpec() ([]Port, []Port) {
	return nil, []Port{flowOut(DefaultOutPort)}
}

func (StartActivity) Properties() []PropertyDef { return nil }

func (StartActivity) Execute(ctx context.Context, rc *RunContext, node *ActivityNode, inputs map[string]any) (ActivityResult, error) {
	return ActivityResult{}, nil
}

// EndActivity stops the run successfully.
type EndActivity struct{}

func (EndActivity) Type() string { return ActivityEnd }

func (EndActivity) Info() ActivityInfo {
	return ActivityInfo{DisplayName: "End", Category: "Control", Description: "Stops execution."}
}

func (EndActivity) PortSpec() ([]Port, []Port) {
	return []Port{flowIn()}, nil
}

func (EndActivity) Properties() []PropertyDef { return nil }

func (EndActivity) Execute(ctx context.Context, rc *RunContext, node *ActivityNode, inputs map[string]any) (ActivityResult, error) {
	return ActivityResult{Stop: true}, nil
}
