// Package vision locates template images inside captured frames using
// normalized cross-correlation, with optional region restriction and
// multi-scale search.
package vision

import (
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"
	"time"
)

// Detection is one template match: where it was found and how confident
// the matcher is. Produced fresh by each search, never mutated after.
type Detection struct {
	Found      bool      `json:"found"`
	Confidence float64   `json:"confidence"` // 0.0-1.0
	X          int       `json:"x"`
	Y          int       `json:"y"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Scale      float64   `json:"scale,omitempty"` // template scale factor, 1.0 = native size
	Label      string    `json:"label,omitempty"`
	At         time.Time `json:"at"`
}

// Center returns the midpoint of the detection's bounding box.
func (d Detection) Center() (int, int) {
	return d.X + d.Width/2, d.Y + d.Height/2
}

// Region restricts a search to a sub-rectangle of the frame, expressed as
// ratios in [0,1] on each axis so the same workflow works at any resolution.
type Region struct {
	StartX float64 `json:"start_x"`
	StartY float64 `json:"start_y"`
	EndX   float64 `json:"end_x"`
	EndY   float64 `json:"end_y"`
}

// NewRegion builds a Region, clamping each ratio into [0,1] and ordering
// the axes so Start <= End.
func NewRegion(startX, startY, endX, endY float64) Region {
	startX, endX = orderRatios(clampRatio(startX), clampRatio(endX))
	startY, endY = orderRatios(clampRatio(startY), clampRatio(endY))
	return Region{StartX: startX, StartY: startY, EndX: endX, EndY: endY}
}

// FullRegion covers the whole frame, equivalent to no restriction.
func FullRegion() Region {
	return Region{EndX: 1, EndY: 1}
}

// IsFull reports whether the region covers the entire [0,1]x[0,1] square.
func (r Region) IsFull() bool {
	return r.StartX == 0 && r.StartY == 0 && r.EndX == 1 && r.EndY == 1
}

// Abs resolves the ratio rectangle against concrete pixel bounds.
func (r Region) Abs(b image.Rectangle) image.Rectangle {
	w := float64(b.Dx())
	h := float64(b.Dy())
	return image.Rect(
		b.Min.X+int(math.Round(r.StartX*w)),
		b.Min.Y+int(math.Round(r.StartY*h)),
		b.Min.X+int(math.Round(r.EndX*w)),
		b.Min.Y+int(math.Round(r.EndY*h)),
	)
}

// ParseRegion parses "startX,startY,endX,endY" ratio notation.
func ParseRegion(s string) (Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Region{}, fmt.Errorf("region %q: want four comma-separated ratios", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Region{}, fmt.Errorf("region %q: %w", s, err)
		}
		vals[i] = v
	}
	return NewRegion(vals[0], vals[1], vals[2], vals[3]), nil
}

func clampRatio(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func orderRatios(a, b float64) (float64, float64) {
	if a > b {
		return b, a
	}
	return a, b
}
