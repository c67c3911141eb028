package flow

import (
	"context"
	"fmt"
	"time"
)

// ClickActivity moves the cursor to a point and presses a mouse button.
// Coordinates come from connected data ports, falling back to properties;
// an optional pixel offset shifts the final position either way.
type ClickActivity struct{}

func (ClickActivity) Type() string { return ActivityClick }

func (ClickActivity) Info() ActivityInfo {
	return ActivityInfo{
		DisplayName: "Click",
		Category:    "Actuation",
		Description: "Moves the cursor and performs a mouse click.",
	}
}

func (ClickActivity) PortSpec() ([]Port, []Port) {
	return []Port{flowIn(), dataIn("X", TypeNumber), dataIn("Y", TypeNumber)},
		[]Port{flowOut(DefaultOutPort)}
}

func (ClickActivity) Properties() []PropertyDef {
	return []PropertyDef{
		{Name: "X", Type: PropNumber},
		{Name: "Y", Type: PropNumber},
		{Name: "Button", Type: PropEnum, Default: "left", Options: []string{"left", "right", "double", "middle"}},
		{Name: "OffsetX", Type: PropNumber, Default: 0.0},
		{Name: "OffsetY", Type: PropNumber, Default: 0.0},
		{Name: "DelayBeforeMs", Type: PropNumber, Default: 0.0, Min: 0},
		{Name: "DelayAfterMs", Type: PropNumber, Default: 0.0, Min: 0},
	}
}

func (ClickActivity) Execute(ctx context.Context, rc *RunContext, node *ActivityNode, inputs map[string]any) (ActivityResult, error) {
	x, okX := resolveNumber(node, inputs, "X")
	y, okY := resolveNumber(node, inputs, "Y")
	if !okX || !okY {
		return ActivityResult{}, fmt.Errorf("click: X and Y must be provided by data port or property")
	}

	offX, _ := resolveNumber(node, inputs, "OffsetX")
	offY, _ := resolveNumber(node, inputs, "OffsetY")
	px := int(x + offX)
	py := int(y + offY)

	if before, ok := resolveNumber(node, inputs, "DelayBeforeMs"); ok && before > 0 {
		if err := sleepCtx(ctx, time.Duration(before)*time.Millisecond); err != nil {
			return ActivityResult{}, err
		}
	}

	if err := rc.Actuator.MoveCursor(ctx, px, py); err != nil {
		return ActivityResult{}, fmt.Errorf("click: move cursor: %w", err)
	}

	button, _ := resolveString(node, inputs, "Button")
	switch button {
	case "double":
		if err := rc.Actuator.DoubleClick(ctx); err != nil {
			return ActivityResult{}, fmt.Errorf("click: double click: %w", err)
		}
	case "right":
		if err := rc.Actuator.Click(ctx, RightButton); err != nil {
			return ActivityResult{}, fmt.Errorf("click: right click: %w", err)
		}
	case "middle":
		if err := rc.Actuator.Click(ctx, MiddleButton); err != nil {
			return ActivityResult{}, fmt.Errorf("click: middle click: %w", err)
		}
	default:
		if err := rc.Actuator.Click(ctx, LeftButton); err != nil {
			return ActivityResult{}, fmt.Errorf("click: left click: %w", err)
		}
	}
	rc.Logger.Debug("clicked", "x", px, "y", py, "button", button)

	if after, ok := resolveNumber(node, inputs, "DelayAfterMs"); ok && after > 0 {
		if err := sleepCtx(ctx, time.Duration(after)*time.Millisecond); err != nil {
			return ActivityResult{}, err
		}
	}

	return ActivityResult{}, nil
}
