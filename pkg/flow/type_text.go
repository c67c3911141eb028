package flow

import (
	"context"
	"fmt"
	"regexp"
	"time"
)

var placeholderRe = regexp.MustCompile(`\{([A-Za-z0-9_.]+)\}`)

// TypeTextActivity types text into the focused element, substituting
// {variableName} placeholders from the variable store. It can clear the
// field first (select-all plus delete) and press Enter afterward.
type TypeTextActivity struct{}

func (TypeTextActivity) Type() string { return ActivityTypeText }

func (TypeTextActivity) Info() ActivityInfo {
	return ActivityInfo{
		DisplayName: "Type Text",
		Category:    "Actuation",
		Description: "Types text with per-key delay and variable substitution.",
	}
}

func (TypeTextActivity) PortSpec() ([]Port, []Port) {
	return []Port{flowIn(), dataIn("Text", TypeString)},
		[]Port{flowOut(DefaultOutPort)}
}

func (TypeTextActivity) Properties() []PropertyDef {
	return []PropertyDef{
		{Name: "Text", Type: PropString},
		{Name: "ClearFirst", Type: PropBoolean, Default: false},
		{Name: "PressEnter", Type: PropBoolean, Default: false},
		{Name: "KeyDelayMs", Type: PropNumber, Default: 20.0, Min: 0},
	}
}

func (TypeTextActivity) Execute(ctx context.Context, rc *RunContext, node *ActivityNode, inputs map[string]any) (ActivityResult, error) {
	text, ok := resolveString(node, inputs, "Text")
	if !ok {
		return ActivityResult{}, fmt.Errorf("type text: Text must be provided by data port or property")
	}
	text = substituteVars(text, rc.Vars)

	if clear, _ := resolveBool(node, inputs, "ClearFirst"); clear {
		if err := rc.Actuator.KeyCombination(ctx, []string{"ctrl", "a"}); err != nil {
			return ActivityResult{}, fmt.Errorf("type text: select all: %w", err)
		}
		if err := rc.Actuator.KeyPress(ctx, "Delete"); err != nil {
			return ActivityResult{}, fmt.Errorf("type text: clear: %w", err)
		}
	}

	delay, ok := resolveNumber(node, inputs, "KeyDelayMs")
	if !ok {
		delay = 20
	}
	if err := rc.Actuator.TypeText(ctx, text, time.Duration(delay)*time.Millisecond); err != nil {
		return ActivityResult{}, fmt.Errorf("type text: %w", err)
	}
	rc.Logger.Debug("typed text", "chars", len(text))

	if enter, _ := resolveBool(node, inputs, "PressEnter"); enter {
		if err := rc.Actuator.KeyPress(ctx, "Enter"); err != nil {
			return ActivityResult{}, fmt.Errorf("type text: enter: %w", err)
		}
	}

	return ActivityResult{}, nil
}

// substituteVars replaces {name} placeholders with store values, leaving
// unknown placeholders intact.
func substituteVars(text string, vars *VarStore) string {
	return placeholderRe.ReplaceAllStringFunc(text, func(m string) string {
		name := m[1 : len(m)-1]
		if v, ok := vars.Get(name); ok {
			return toString(v)
		}
		return m
	})
}
