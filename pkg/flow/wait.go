package flow

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"
)

// WaitActivity suspends the run for a duration, optionally jittered by a
// symmetric random bound. The suspension is cooperative and cancellable.
type WaitActivity struct{}

func (WaitActivity) Type() string { return ActivityWait }

func (WaitActivity) Info() ActivityInfo {
	return ActivityInfo{
		DisplayName: "Wait",
		Category:    "Control",
		Description: "Suspends for a configurable duration.",
	}
}

func (WaitActivity) PortSpec() ([]Port, []Port) {
	return []Port{flowIn(), dataIn("Duration", TypeNumber)},
		[]Port{flowOut(DefaultOutPort)}
}

func (WaitActivity) Properties() []PropertyDef {
	return []PropertyDef{
		{Name: "DurationMs", Type: PropNumber, Default: 1000.0, Required: true, Min: 0},
		{Name: "JitterMs", Type: PropNumber, Default: 0.0, Min: 0},
	}
}

func (WaitActivity) Execute(ctx context.Context, rc *RunContext, node *ActivityNode, inputs map[string]any) (ActivityResult, error) {
	ms, ok := resolveNumber(node, inputs, "Duration")
	if !ok {
		ms, ok = resolveNumber(node, inputs, "DurationMs")
	}
	if !ok {
		return ActivityResult{}, fmt.Errorf("wait: DurationMs must be provided by data port or property")
	}

	if jitter, _ := resolveNumber(node, inputs, "JitterMs"); jitter > 0 {
		ms += (rand.Float64()*2 - 1) * jitter
	}
	if ms < 0 {
		ms = 0
	}

	rc.Logger.Debug("waiting", "ms", int(ms))
	if err := sleepCtx(ctx, time.Duration(ms)*time.Millisecond); err != nil {
		return ActivityResult{}, err
	}
	return ActivityResult{}, nil
}
