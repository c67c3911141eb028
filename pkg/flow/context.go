package flow

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"ocular/pkg/vision"
)

// MouseButton selects which button a Click activity presses.
type MouseButton string

const (
	LeftButton   MouseButton = "left"
	RightButton  MouseButton = "right"
	MiddleButton MouseButton = "middle"
)

// Perception captures frames from the target surface and searches them for
// templates. Supplied by the host; the engine only calls it synchronously.
type Perception interface {
	// CaptureFrame grabs the current frame. An empty target means the
	// whole surface; otherwise target selects a sub-surface (e.g. a CSS
	// selector or window title, adapter-defined).
	CaptureFrame(ctx context.Context, target string) (image.Image, error)

	FindTemplate(ctx context.Context, src image.Image, templatePath string, threshold float64, region vision.Region) ([]vision.Detection, error)

	FindTemplateMultiScale(ctx context.Context, src image.Image, templatePath string, threshold, minScale, maxScale float64, steps int, region vision.Region) ([]vision.Detection, error)
}

// Actuator simulates pointer and keyboard input on the target surface.
type Actuator interface {
	MoveCursor(ctx context.Context, x, y int) error
	Click(ctx context.Context, button MouseButton) error
	DoubleClick(ctx context.Context) error
	KeyPress(ctx context.Context, key string) error
	TypeText(ctx context.Context, text string, perKeyDelay time.Duration) error
	KeyCombination(ctx context.Context, keys []string) error
}

// RunContext is the capability surface handed to every activity call:
// perception, actuation, logging, and the run-scoped variable store.
type RunContext struct {
	Perception Perception
	Actuator   Actuator
	Vars       *VarStore
	Logger     *slog.Logger
}

// NewRunContext wires capabilities into a context with a fresh variable
// store. A nil logger falls back to slog.Default.
func NewRunContext(p Perception, a Actuator, logger *slog.Logger) *RunContext {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunContext{
		Perception: p,
		Actuator:   a,
		Vars:       NewVarStore(),
		Logger:     logger,
	}
}

// VarStore is the mutable, string-keyed value map scoped to one run. The
// engine writes each data-output under OutputKey(nodeID, portID);
// activities read and write named variables directly. Nothing persists
// beyond the run.
type VarStore struct {
	mu sync.RWMutex
	m  map[string]any
}

// NewVarStore returns an empty store.
func NewVarStore() *VarStore {
	return &VarStore{m: make(map[string]any)}
}

// OutputKey derives the store key for a node's data-output value.
func OutputKey(nodeID, portID string) string {
	return nodeID + ":" + portID
}

// Get reads a value.
func (s *VarStore) Get(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	return v, ok
}

// Set writes a value.
func (s *VarStore) Set(key string, value any) {
	s.mu.Lock()
	s.m[key] = value
	s.mu.Unlock()
}

// Delete removes a key.
func (s *VarStore) Delete(key string) {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
}

// Snapshot returns a copy of the store's contents.
func (s *VarStore) Snapshot() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(s.m))
	for k, v := range s.m {
		out[k] = v
	}
	return out
}

// sleepCtx suspends for d, returning early with the context's error if the
// run is cancelled. Every activity suspension point goes through here.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
