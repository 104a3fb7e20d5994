// Package simplify reduces polylines while bounding their deviation.
package simplify

import (
	"math"

	"github.com/akhenakh/vectormap"
)

// DefaultPixelTolerance deviation allowed on screen in pixels
const DefaultPixelTolerance = 0.5

// Tolerance converts a pixel tolerance into degrees for a viewport scale,
// the lower the scale the more aggressive the simplification
func Tolerance(pixelTolerance, scale float64) float64 {
	if scale <= 0 {
		return math.Inf(1)
	}
	return pixelTolerance / scale
}

// DouglasPeucker simplifies pts, both endpoints are kept so a closed ring
// stays closed. The input is never modified.
func DouglasPeucker(pts []vectormap.PixelPoint, tolerance float64) []vectormap.PixelPoint {
	if len(pts) <= 2 {
		return pts
	}
	if tolerance < 0 {
		tolerance = 0
	}

	keep := make([]bool, len(pts))
	keep[0] = true
	keep[len(pts)-1] = true
	dp(pts, 0, len(pts)-1, tolerance*tolerance, keep)

	out := make([]vectormap.PixelPoint, 0, len(pts))
	for i, k := range keep {
		if k {
			out = append(out, pts[i])
		}
	}
	return out
}

func dp(pts []vectormap.PixelPoint, start, end int, tol2 float64, keep []bool) {
	if end-start < 2 {
		return
	}

	maxDist := 0.0
	maxIdx := 0
	for i := start + 1; i < end; i++ {
		d := SegmentDistanceSquared(pts[start], pts[end], pts[i])
		if d > maxDist {
			maxDist = d
			maxIdx = i
		}
	}

	if maxDist <= tol2 {
		return
	}

	keep[maxIdx] = true
	dp(pts, start, maxIdx, tol2, keep)
	dp(pts, maxIdx, end, tol2, keep)
}

// SegmentDistanceSquared returns the squared distance from p to the segment ab,
// a degenerate segment measures the distance to a
func SegmentDistanceSquared(a, b, p vectormap.PixelPoint) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	if dx != 0 || dy != 0 {
		t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (dx*dx + dy*dy)
		switch {
		case t > 1:
			a = b
		case t > 0:
			a = vectormap.PixelPoint{X: a.X + dx*t, Y: a.Y + dy*t}
		}
	}
	ex, ey := p.X-a.X, p.Y-a.Y
	return ex*ex + ey*ey
}

// Closed returns true if the first and last points are equal
func Closed(pts []vectormap.PixelPoint) bool {
	return len(pts) > 1 && pts[0] == pts[len(pts)-1]
}

// Degenerate returns true if pts can't be drawn as a line of at least minLen pixels
func Degenerate(pts []vectormap.PixelPoint, minLen float64) bool {
	if len(pts) < 2 {
		return true
	}
	minX, minY := pts[0].X, pts[0].Y
	maxX, maxY := minX, minY
	for _, p := range pts[1:] {
		minX, maxX = math.Min(minX, p.X), math.Max(maxX, p.X)
		minY, maxY = math.Min(minY, p.Y), math.Max(maxY, p.Y)
	}
	return maxX-minX < minLen && maxY-minY < minLen
}
