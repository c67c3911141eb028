package flow

import (
	"context"
	"fmt"
	"os"

	"ocular/pkg/vision"
)

// FindTemplateActivity captures a frame and searches it for a template
// image. A hit routes to Found with the detection's box, center, and
// confidence on the data outputs; a clean miss routes to NotFound. A
// missing template file fails the node rather than branching.
type FindTemplateActivity struct{}

func (FindTemplateActivity) Type() string { return ActivityFindTemplate }

func (FindTemplateActivity) Info() ActivityInfo {
	return ActivityInfo{
		DisplayName: "Find Template",
		Category:    "Perception",
		Description: "Searches the captured frame for a template image.",
	}
}

func (FindTemplateActivity) PortSpec() ([]Port, []Port) {
	return []Port{flowIn()},
		[]Port{
			flowOut("Found"),
			flowOut("NotFound"),
			dataOut("X", TypeNumber),
			dataOut("Y", TypeNumber),
			dataOut("CenterX", TypeNumber),
			dataOut("CenterY", TypeNumber),
			dataOut("Confidence", TypeNumber),
		}
}

func (FindTemplateActivity) Properties() []PropertyDef {
	return []PropertyDef{
		{Name: "TemplatePath", Type: PropPath, Required: true},
		{Name: "Threshold", Type: PropNumber, Default: 0.8, Min: 0, Max: 1},
		{Name: "Target", Type: PropString},
		{Name: "Region", Type: PropRectangle, Default: "0,0,1,1"},
		{Name: "MultiScale", Type: PropBoolean, Default: false},
		{Name: "MinScale", Type: PropNumber, Default: 0.8, Min: 0.1, Max: 10},
		{Name: "MaxScale", Type: PropNumber, Default: 1.2, Min: 0.1, Max: 10},
		{Name: "ScaleSteps", Type: PropNumber, Default: 5.0, Min: 1, Max: 50},
		{Name: "ResultVariable", Type: PropString},
	}
}

func (FindTemplateActivity) Execute(ctx context.Context, rc *RunContext, node *ActivityNode, inputs map[string]any) (ActivityResult, error) {
	path, ok := resolveString(node, inputs, "TemplatePath")
	if !ok || path == "" {
		return ActivityResult{}, fmt.Errorf("find template: TemplatePath is required")
	}
	if _, err := os.Stat(path); err != nil {
		return ActivityResult{}, fmt.Errorf("find template: %w: %s", vision.ErrTemplateNotFound, path)
	}

	threshold, ok := resolveNumber(node, inputs, "Threshold")
	if !ok {
		threshold = 0.8
	}

	region := vision.FullRegion()
	if spec, ok := resolveString(node, inputs, "Region"); ok && spec != "" {
		parsed, err := vision.ParseRegion(spec)
		if err != nil {
			return ActivityResult{}, fmt.Errorf("find template: %w", err)
		}
		region = parsed
	}

	target, _ := resolveString(node, inputs, "Target")
	frame, err := rc.Perception.CaptureFrame(ctx, target)
	if err != nil {
		return ActivityResult{}, fmt.Errorf("find template: capture: %w", err)
	}

	var dets []vision.Detection
	if multi, _ := resolveBool(node, inputs, "MultiScale"); multi {
		minScale, ok := resolveNumber(node, inputs, "MinScale")
		if !ok {
			minScale = 0.8
		}
		maxScale, ok := resolveNumber(node, inputs, "MaxScale")
		if !ok {
			maxScale = 1.2
		}
		steps, ok := resolveNumber(node, inputs, "ScaleSteps")
		if !ok {
			steps = 5
		}
		dets, err = rc.Perception.FindTemplateMultiScale(ctx, frame, path, threshold, minScale, maxScale, int(steps), region)
	} else {
		dets, err = rc.Perception.FindTemplate(ctx, frame, path, threshold, region)
	}
	if err != nil {
		return ActivityResult{}, fmt.Errorf("find template: %w", err)
	}

	best, found := vision.Best(dets)
	if !found {
		rc.Logger.Debug("template not found", "template", path, "threshold", threshold)
		return ActivityResult{NextPort: "NotFound"}, nil
	}

	cx, cy := best.Center()
	rc.Logger.Debug("template found",
		"template", path, "x", best.X, "y", best.Y, "confidence", best.Confidence, "scale", best.Scale)

	if varName, ok := resolveString(node, inputs, "ResultVariable"); ok && varName != "" {
		rc.Vars.Set(varName, best)
	}

	return ActivityResult{
		NextPort: "Found",
		Outputs: map[string]any{
			"X":          float64(best.X),
			"Y":          float64(best.Y),
			"CenterX":    float64(cx),
			"CenterY":    float64(cy),
			"Confidence": best.Confidence,
		},
	}, nil
}
