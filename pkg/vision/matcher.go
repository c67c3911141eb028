package vision

import (
	"context"
	"errors"
	"image"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrTemplateLargerThanFrame is returned when the template cannot fit
	// inside the (possibly region-restricted) search area.
	ErrTemplateLargerThanFrame = errors.New("vision: template larger than search area")

	// ErrBadScaleRange is returned for a multi-scale request with a
	// non-positive or inverted scale range.
	ErrBadScaleRange = errors.New("vision: invalid scale range")
)

// Matcher finds template occurrences in a source image. The zero value is
// not usable; construct with NewMatcher.
type Matcher struct {
	// MaxMatches caps how many suppression rounds a single-scale search
	// performs, bounding worst-case work on noisy frames.
	MaxMatches int

	// Scaler resizes templates during multi-scale search.
	Scaler draw.Scaler
}

// NewMatcher returns a Matcher with the default match ceiling and a
// Catmull-Rom resampler for template scaling.
func NewMatcher() *Matcher {
	return &Matcher{
		MaxMatches: 10,
		Scaler:     draw.CatmullRom,
	}
}

// FindAll searches src for tpl and returns every non-overlapping match at
// or above threshold, ranked by confidence. A non-full region restricts the
// search to that sub-rectangle; returned coordinates are always relative to
// the full src bounds.
func (m *Matcher) FindAll(src, tpl image.Image, threshold float64, region Region) ([]Detection, error) {
	srcGray := toGray(src)
	offX, offY := 0, 0
	if !region.IsFull() {
		abs := region.Abs(srcGray.Bounds())
		srcGray = cropGray(srcGray, abs)
		offX, offY = abs.Min.X, abs.Min.Y
	}

	dets, err := m.matchGray(srcGray, toGray(tpl), threshold, 1.0)
	if err != nil {
		return nil, err
	}
	for i := range dets {
		dets[i].X += offX
		dets[i].Y += offY
	}
	return dets, nil
}

// FindMultiScale repeats the search across a geometric ladder of template
// scales between minScale and maxScale. Per-scale searches run concurrently;
// the combined detections are ranked by confidence. Scales whose resized
// template does not fit the search area are skipped, not errors.
func (m *Matcher) FindMultiScale(ctx context.Context, src, tpl image.Image, threshold, minScale, maxScale float64, steps int, region Region) ([]Detection, error) {
	if minScale <= 0 || maxScale < minScale {
		return nil, ErrBadScaleRange
	}

	srcGray := toGray(src)
	offX, offY := 0, 0
	if !region.IsFull() {
		abs := region.Abs(srcGray.Bounds())
		srcGray = cropGray(srcGray, abs)
		offX, offY = abs.Min.X, abs.Min.Y
	}
	tplGray := toGray(tpl)

	scales := scaleLadder(minScale, maxScale, steps)

	var mu sync.Mutex
	var all []Detection

	g, ctx := errgroup.WithContext(ctx)
	for _, scale := range scales {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			scaled := m.resizeGray(tplGray, scale)
			if scaled == nil {
				return nil
			}
			dets, err := m.matchGray(srcGray, scaled, threshold, scale)
			if err != nil {
				if errors.Is(err, ErrTemplateLargerThanFrame) {
					return nil
				}
				return err
			}
			mu.Lock()
			all = append(all, dets...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range all {
		all[i].X += offX
		all[i].Y += offY
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Confidence > all[j].Confidence })
	return all, nil
}

// Best disambiguates candidate detections of the same template across
// positions and scales: prefer high confidence, penalize matches far from
// the template's native size. Returns false when dets is empty.
func Best(dets []Detection) (Detection, bool) {
	if len(dets) == 0 {
		return Detection{}, false
	}
	best := dets[0]
	bestScore := compositeScore(dets[0])
	for _, d := range dets[1:] {
		if s := compositeScore(d); s > bestScore {
			best = d
			bestScore = s
		}
	}
	return best, true
}

func compositeScore(d Detection) float64 {
	scale := d.Scale
	if scale == 0 {
		scale = 1.0
	}
	return d.Confidence * (1 - 0.5*math.Abs(scale-1.0))
}

// matchGray computes a zero-mean normalized cross-correlation response
// surface of tpl against src, then extracts peaks by iterative suppression:
// take the global maximum, record it if it clears threshold, zero a window
// the size of the template's larger dimension around it, and re-scan.
func (m *Matcher) matchGray(src, tpl *image.Gray, threshold float64, scale float64) ([]Detection, error) {
	sw, sh := src.Bounds().Dx(), src.Bounds().Dy()
	tw, th := tpl.Bounds().Dx(), tpl.Bounds().Dy()
	if tw > sw || th > sh {
		return nil, ErrTemplateLargerThanFrame
	}
	if tw == 0 || th == 0 {
		return nil, ErrTemplateLargerThanFrame
	}

	n := float64(tw * th)

	// Template statistics: zero-mean values and their energy.
	tMean := 0.0
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			tMean += float64(tpl.GrayAt(tpl.Bounds().Min.X+x, tpl.Bounds().Min.Y+y).Y)
		}
	}
	tMean /= n

	tDiff := make([]float64, tw*th)
	tEnergy := 0.0
	for y := 0; y < th; y++ {
		for x := 0; x < tw; x++ {
			d := float64(tpl.GrayAt(tpl.Bounds().Min.X+x, tpl.Bounds().Min.Y+y).Y) - tMean
			tDiff[y*tw+x] = d
			tEnergy += d * d
		}
	}
	if tEnergy == 0 {
		// A flat template has no structure to correlate against.
		return nil, nil
	}

	// Integral images over src give each candidate patch's sum and sum of
	// squares in O(1), so only the correlation numerator needs a full pass.
	sum, sumSq := integrals(src)

	rw := sw - tw + 1
	rh := sh - th + 1
	resp := make([]float64, rw*rh)

	for ry := 0; ry < rh; ry++ {
		for rx := 0; rx < rw; rx++ {
			num := 0.0
			for y := 0; y < th; y++ {
				row := src.PixOffset(src.Bounds().Min.X+rx, src.Bounds().Min.Y+ry+y)
				for x := 0; x < tw; x++ {
					num += float64(src.Pix[row+x]) * tDiff[y*tw+x]
				}
			}
			pSum := rectSum(sum, rx, ry, tw, th, sw)
			pSumSq := rectSum(sumSq, rx, ry, tw, th, sw)
			pEnergy := pSumSq - pSum*pSum/n
			if pEnergy <= 0 {
				resp[ry*rw+rx] = 0
				continue
			}
			// num already equals the zero-mean numerator: the template
			// diffs sum to zero, so the patch mean term vanishes.
			resp[ry*rw+rx] = num / math.Sqrt(pEnergy*tEnergy)
		}
	}

	suppress := max(tw, th)
	var dets []Detection
	for len(dets) < m.MaxMatches {
		peak, px, py := peakOf(resp, rw, rh)
		if peak < threshold {
			break
		}
		dets = append(dets, Detection{
			Found:      true,
			Confidence: math.Min(peak, 1.0),
			X:          px,
			Y:          py,
			Width:      tw,
			Height:     th,
			Scale:      scale,
			At:         time.Now().UTC(),
		})
		zeroWindow(resp, rw, rh, px, py, suppress)
	}
	return dets, nil
}

// resizeGray scales tpl by factor, returning nil when the result would be
// degenerate (under one pixel on either axis).
func (m *Matcher) resizeGray(tpl *image.Gray, factor float64) *image.Gray {
	tw := int(math.Round(float64(tpl.Bounds().Dx()) * factor))
	th := int(math.Round(float64(tpl.Bounds().Dy()) * factor))
	if tw < 1 || th < 1 {
		return nil
	}
	if tw == tpl.Bounds().Dx() && th == tpl.Bounds().Dy() {
		return tpl
	}
	dst := image.NewGray(image.Rect(0, 0, tw, th))
	m.Scaler.Scale(dst, dst.Bounds(), tpl, tpl.Bounds(), draw.Src, nil)
	return dst
}

// scaleLadder returns steps geometrically spaced factors from minScale to
// maxScale inclusive.
func scaleLadder(minScale, maxScale float64, steps int) []float64 {
	if steps < 2 || minScale == maxScale {
		return []float64{minScale}
	}
	ratio := math.Pow(maxScale/minScale, 1/float64(steps-1))
	scales := make([]float64, steps)
	s := minScale
	for i := 0; i < steps; i++ {
		scales[i] = s
		s *= ratio
	}
	scales[steps-1] = maxScale
	return scales
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// cropGray copies a sub-rectangle into a fresh zero-based image.
func cropGray(src *image.Gray, r image.Rectangle) *image.Gray {
	r = r.Intersect(src.Bounds())
	dst := image.NewGray(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

// integrals builds (w+1)x(h+1) summed-area tables of pixel values and
// squared values.
func integrals(img *image.Gray) ([]float64, []float64) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	stride := w + 1
	sum := make([]float64, stride*(h+1))
	sumSq := make([]float64, stride*(h+1))
	for y := 0; y < h; y++ {
		rowSum, rowSq := 0.0, 0.0
		off := img.PixOffset(img.Bounds().Min.X, img.Bounds().Min.Y+y)
		for x := 0; x < w; x++ {
			v := float64(img.Pix[off+x])
			rowSum += v
			rowSq += v * v
			sum[(y+1)*stride+x+1] = sum[y*stride+x+1] + rowSum
			sumSq[(y+1)*stride+x+1] = sumSq[y*stride+x+1] + rowSq
		}
	}
	return sum, sumSq
}

// rectSum reads a w x h rectangle at (x, y) from a summed-area table built
// for a source of width srcW.
func rectSum(table []float64, x, y, w, h, srcW int) float64 {
	stride := srcW + 1
	return table[(y+h)*stride+x+w] - table[y*stride+x+w] - table[(y+h)*stride+x] + table[y*stride+x]
}

func peakOf(resp []float64, rw, rh int) (float64, int, int) {
	peak := math.Inf(-1)
	px, py := 0, 0
	for y := 0; y < rh; y++ {
		for x := 0; x < rw; x++ {
			if v := resp[y*rw+x]; v > peak {
				peak = v
				px, py = x, y
			}
		}
	}
	return peak, px, py
}

// zeroWindow suppresses a size x size window centered on (cx, cy) so the
// next scan cannot re-return an overlapping peak.
func zeroWindow(resp []float64, rw, rh, cx, cy, size int) {
	half := size / 2
	for y := cy - half; y <= cy+half; y++ {
		if y < 0 || y >= rh {
			continue
		}
		for x := cx - half; x <= cx+half; x++ {
			if x < 0 || x >= rw {
				continue
			}
			resp[y*rw+x] = math.Inf(-1)
		}
	}
}
