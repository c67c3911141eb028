package vision

import (
	"image"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewRegion_ClampsAndOrders(t *testing.T) {
	got := NewRegion(1.5, -0.2, 0.25, 0.75)
	// X axis clamps to [0,1] then reorders so Start <= End.
	want := Region{StartX: 0.25, StartY: 0, EndX: 1, EndY: 0.75}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewRegion mismatch (-want +got):\n%s", diff)
	}
}

func TestRegion_IsFull(t *testing.T) {
	if !FullRegion().IsFull() {
		t.Error("FullRegion not full")
	}
	if NewRegion(0, 0, 0.5, 1).IsFull() {
		t.Error("half region reported full")
	}
}

func TestRegion_Abs(t *testing.T) {
	r := NewRegion(0.25, 0.5, 0.75, 1)
	got := r.Abs(image.Rect(0, 0, 100, 200))
	want := image.Rect(25, 100, 75, 200)
	if got != want {
		t.Errorf("Abs = %v, want %v", got, want)
	}

	// Non-zero-based bounds offset the result.
	got = r.Abs(image.Rect(10, 20, 110, 220))
	want = image.Rect(35, 120, 85, 220)
	if got != want {
		t.Errorf("Abs with offset bounds = %v, want %v", got, want)
	}
}

func TestParseRegion(t *testing.T) {
	got, err := ParseRegion("0.1, 0.2, 0.9, 0.8")
	if err != nil {
		t.Fatalf("ParseRegion: %v", err)
	}
	want := Region{StartX: 0.1, StartY: 0.2, EndX: 0.9, EndY: 0.8}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ParseRegion mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range []string{"", "0.1,0.2,0.9", "a,b,c,d", "0,0,1,1,1"} {
		if _, err := ParseRegion(bad); err == nil {
			t.Errorf("ParseRegion(%q) accepted malformed input", bad)
		}
	}
}

func TestDetection_Center(t *testing.T) {
	d := Detection{X: 10, Y: 20, Width: 8, Height: 6}
	if cx, cy := d.Center(); cx != 14 || cy != 23 {
		t.Errorf("Center = (%d,%d), want (14,23)", cx, cy)
	}
}
