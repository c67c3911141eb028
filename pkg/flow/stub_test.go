package flow

import (
	"context"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ocular/pkg/vision"
)

// fakePerception serves canned frames and detections.
type fakePerception struct {
	frame      image.Image
	detections []vision.Detection
	findErr    error
}

func (f *fakePerception) CaptureFrame(ctx context.Context, target string) (image.Image, error) {
	if f.frame != nil {
		return f.frame, nil
	}
	return image.NewGray(image.Rect(0, 0, 64, 64)), nil
}

func (f *fakePerception) FindTemplate(ctx context.Context, src image.Image, templatePath string, threshold float64, region vision.Region) ([]vision.Detection, error) {
	return f.detections, f.findErr
}

func (f *fakePerception) FindTemplateMultiScale(ctx context.Context, src image.Image, templatePath string, threshold, minScale, maxScale float64, steps int, region vision.Region) ([]vision.Detection, error) {
	return f.detections, f.findErr
}

// fakeActuator records every input action.
type fakeActuator struct {
	mu    sync.Mutex
	calls []string
	moves []image.Point
	typed []string
}

func (f *fakeActuator) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeActuator) MoveCursor(ctx context.Context, x, y int) error {
	f.mu.Lock()
	f.moves = append(f.moves, image.Pt(x, y))
	f.mu.Unlock()
	f.record("move")
	return nil
}

func (f *fakeActuator) Click(ctx context.Context, button MouseButton) error {
	f.record("click:" + string(button))
	return nil
}

func (f *fakeActuator) DoubleClick(ctx context.Context) error {
	f.record("doubleclick")
	return nil
}

func (f *fakeActuator) KeyPress(ctx context.Context, key string) error {
	f.record("key:" + key)
	return nil
}

func (f *fakeActuator) TypeText(ctx context.Context, text string, perKeyDelay time.Duration) error {
	f.mu.Lock()
	f.typed = append(f.typed, text)
	f.mu.Unlock()
	f.record("type")
	return nil
}

func (f *fakeActuator) KeyCombination(ctx context.Context, keys []string) error {
	combo := "combo"
	for _, k := range keys {
		combo += ":" + k
	}
	f.record(combo)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestContext(p Perception, a Actuator) *RunContext {
	if p == nil {
		p = &fakePerception{}
	}
	if a == nil {
		a = &fakeActuator{}
	}
	return NewRunContext(p, a, testLogger())
}

// mustNode instantiates a node from the built-in catalog.
func mustNode(t *testing.T, c *Catalog, activityType, label string) *ActivityNode {
	t.Helper()
	n, err := c.NewNode(activityType, label)
	if err != nil {
		t.Fatalf("NewNode(%s): %v", activityType, err)
	}
	return n
}

// mustConnect wires two ports by name.
func mustConnect(t *testing.T, wf *Workflow, src *ActivityNode, srcPort string, dst *ActivityNode, dstPort string) {
	t.Helper()
	sp, ok := src.OutputPort(srcPort)
	if !ok {
		t.Fatalf("node %s has no output port %q", src.Type, srcPort)
	}
	dp, ok := dst.InputPort(dstPort)
	if !ok {
		t.Fatalf("node %s has no input port %q", dst.Type, dstPort)
	}
	if _, err := wf.Connect(src.ID, sp.ID, dst.ID, dp.ID); err != nil {
		t.Fatalf("Connect: %v", err)
	}
}

// startEndWorkflow is the smallest runnable graph.
func startEndWorkflow(t *testing.T, c *Catalog) (*Workflow, *ActivityNode, *ActivityNode) {
	t.Helper()
	wf := NewWorkflow("minimal")
	start := mustNode(t, c, ActivityStart, "")
	end := mustNode(t, c, ActivityEnd, "")
	wf.AddNode(start)
	wf.AddNode(end)
	mustConnect(t, wf, start, "Out", end, "In")
	return wf, start, end
}
