package vision

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"testing"
)

// checker builds a checkerboard pattern, which correlates sharply with
// itself and poorly with anything flat.
func checker(w, h, cell int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if (x/cell+y/cell)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// frameWith pastes tpl into a mid-gray 64x64 frame at each point.
func frameWith(tpl *image.Gray, at ...image.Point) *image.Gray {
	frame := image.NewGray(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			frame.SetGray(x, y, color.Gray{Y: 128})
		}
	}
	for _, p := range at {
		for y := 0; y < tpl.Bounds().Dy(); y++ {
			for x := 0; x < tpl.Bounds().Dx(); x++ {
				frame.SetGray(p.X+x, p.Y+y, tpl.GrayAt(x, y))
			}
		}
	}
	return frame
}

func TestFindAll_ExactMatch(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(20, 12))

	dets, err := NewMatcher().FindAll(frame, tpl, 0.9, FullRegion())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("got %d detections, want 1: %v", len(dets), dets)
	}
	d := dets[0]
	if d.X != 20 || d.Y != 12 {
		t.Errorf("located at (%d,%d), want (20,12)", d.X, d.Y)
	}
	if d.Width != 16 || d.Height != 16 {
		t.Errorf("box %dx%d, want 16x16", d.Width, d.Height)
	}
	if d.Confidence < 0.99 {
		t.Errorf("Confidence = %f, want near 1", d.Confidence)
	}
	if !d.Found {
		t.Error("Found not set")
	}
	if cx, cy := d.Center(); cx != 28 || cy != 20 {
		t.Errorf("Center = (%d,%d), want (28,20)", cx, cy)
	}
}

func TestFindAll_MultipleNonOverlapping(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(4, 4), image.Pt(40, 40))

	dets, err := NewMatcher().FindAll(frame, tpl, 0.9, FullRegion())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(dets) != 2 {
		t.Fatalf("got %d detections, want 2: %v", len(dets), dets)
	}
	for i := 1; i < len(dets); i++ {
		if dets[i].Confidence > dets[i-1].Confidence {
			t.Error("detections not ranked by confidence")
		}
	}
	a := image.Rect(dets[0].X, dets[0].Y, dets[0].X+dets[0].Width, dets[0].Y+dets[0].Height)
	b := image.Rect(dets[1].X, dets[1].Y, dets[1].X+dets[1].Width, dets[1].Y+dets[1].Height)
	if a.Overlaps(b) {
		t.Errorf("detections overlap: %v and %v", a, b)
	}
}

func TestFindAll_NoStructureNoMatch(t *testing.T) {
	tpl := checker(16, 16, 4)
	flat := frameWith(tpl) // nothing pasted

	dets, err := NewMatcher().FindAll(flat, tpl, 0.5, FullRegion())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("matched a flat frame: %v", dets)
	}
}

func TestFindAll_ThresholdIsHardFloor(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(20, 12))

	dets, err := NewMatcher().FindAll(frame, checker(16, 16, 8), 0.999, FullRegion())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	for _, d := range dets {
		if d.Confidence < 0.999 {
			t.Errorf("detection below threshold returned: %v", d)
		}
	}
}

func TestFindAll_RegionRestriction(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(4, 4), image.Pt(40, 40))

	region := NewRegion(0.5, 0.5, 1, 1)
	dets, err := NewMatcher().FindAll(frame, tpl, 0.9, region)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(dets) != 1 {
		t.Fatalf("got %d detections in the restricted region, want 1: %v", len(dets), dets)
	}
	// Coordinates stay in full-frame space.
	if dets[0].X != 40 || dets[0].Y != 40 {
		t.Errorf("located at (%d,%d), want (40,40)", dets[0].X, dets[0].Y)
	}
}

func TestFindAll_MaxMatchesCeiling(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(0, 0), image.Pt(24, 0), image.Pt(0, 24), image.Pt(24, 24))

	m := NewMatcher()
	m.MaxMatches = 2
	dets, err := m.FindAll(frame, tpl, 0.9, FullRegion())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(dets) != 2 {
		t.Errorf("got %d detections, want the ceiling of 2", len(dets))
	}
}

func TestFindAll_TemplateLargerThanFrame(t *testing.T) {
	tpl := checker(80, 80, 4)
	frame := frameWith(checker(16, 16, 4))

	_, err := NewMatcher().FindAll(frame, tpl, 0.8, FullRegion())
	if !errors.Is(err, ErrTemplateLargerThanFrame) {
		t.Fatalf("expected ErrTemplateLargerThanFrame, got %v", err)
	}
}

func TestFindAll_FlatTemplateMatchesNothing(t *testing.T) {
	flatTpl := image.NewGray(image.Rect(0, 0, 8, 8))
	frame := frameWith(checker(16, 16, 4), image.Pt(20, 20))

	dets, err := NewMatcher().FindAll(frame, flatTpl, 0.5, FullRegion())
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(dets) != 0 {
		t.Errorf("flat template produced matches: %v", dets)
	}
}

func TestFindMultiScale_NativeScaleWins(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(20, 12))

	dets, err := NewMatcher().FindMultiScale(context.Background(), frame, tpl,
		0.9, 0.5, 2.0, 5, FullRegion())
	if err != nil {
		t.Fatalf("FindMultiScale: %v", err)
	}
	best, ok := Best(dets)
	if !ok {
		t.Fatal("no detection across scales")
	}
	if math.Abs(best.Scale-1.0) > 0.01 {
		t.Errorf("best scale = %f, want ~1.0", best.Scale)
	}
	if best.X != 20 || best.Y != 12 {
		t.Errorf("located at (%d,%d), want (20,12)", best.X, best.Y)
	}
}

func TestFindMultiScale_OversizedScalesSkipped(t *testing.T) {
	tpl := checker(48, 48, 8)
	frame := frameWith(checker(16, 16, 4))

	// 2x the template would exceed the frame; those rungs are skipped
	// rather than failing the whole search.
	_, err := NewMatcher().FindMultiScale(context.Background(), frame, tpl,
		0.9, 0.5, 2.0, 5, FullRegion())
	if err != nil {
		t.Fatalf("FindMultiScale: %v", err)
	}
}

func TestFindMultiScale_BadRange(t *testing.T) {
	tpl := checker(16, 16, 4)
	frame := frameWith(tpl, image.Pt(20, 12))

	if _, err := NewMatcher().FindMultiScale(context.Background(), frame, tpl,
		0.9, 1.5, 0.5, 5, FullRegion()); !errors.Is(err, ErrBadScaleRange) {
		t.Errorf("inverted range: got %v", err)
	}
	if _, err := NewMatcher().FindMultiScale(context.Background(), frame, tpl,
		0.9, 0, 1.0, 5, FullRegion()); !errors.Is(err, ErrBadScaleRange) {
		t.Errorf("zero min scale: got %v", err)
	}
}

func TestBest_PenalizesScaleDrift(t *testing.T) {
	dets := []Detection{
		{Confidence: 0.9, Scale: 1.4},
		{Confidence: 0.8, Scale: 1.0},
	}
	best, ok := Best(dets)
	if !ok {
		t.Fatal("expected a best detection")
	}
	// 0.9*(1-0.5*0.4)=0.72 loses to 0.8*1.0=0.80.
	if best.Scale != 1.0 {
		t.Errorf("best scale = %f, want the native-size match", best.Scale)
	}

	if _, ok := Best(nil); ok {
		t.Error("Best of nothing reported a detection")
	}

	// Single-scale detections carry Scale 0 and score as native size.
	best, _ = Best([]Detection{{Confidence: 0.7}, {Confidence: 0.6, Scale: 1.0}})
	if best.Confidence != 0.7 {
		t.Errorf("zero Scale not treated as native: %v", best)
	}
}

func TestScaleLadder(t *testing.T) {
	scales := scaleLadder(0.5, 2.0, 5)
	if len(scales) != 5 {
		t.Fatalf("got %d rungs, want 5", len(scales))
	}
	if scales[0] != 0.5 || scales[4] != 2.0 {
		t.Errorf("endpoints %f..%f, want 0.5..2.0", scales[0], scales[4])
	}
	// Geometric spacing: constant ratio between rungs.
	ratio := scales[1] / scales[0]
	for i := 2; i < len(scales); i++ {
		if math.Abs(scales[i]/scales[i-1]-ratio) > 1e-9 {
			t.Errorf("non-geometric spacing at rung %d: %v", i, scales)
		}
	}

	if got := scaleLadder(0.8, 0.8, 5); len(got) != 1 || got[0] != 0.8 {
		t.Errorf("degenerate range: %v", got)
	}
	if got := scaleLadder(0.5, 2.0, 1); len(got) != 1 {
		t.Errorf("single step: %v", got)
	}
}
