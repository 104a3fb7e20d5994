package vectormap

import (
	"math"

	"github.com/paulmach/orb"
)

const (
	// MaxLatitude valid latitude range for equirectangular viewports
	MaxLatitude = 90.0

	// MercatorMaxLatitude valid latitude range for mercator viewports
	MercatorMaxLatitude = 85.05112878

	tileSize = 256.0
)

// Projection how latitudes are mapped to the vertical axis
type Projection uint8

const (
	// ProjectionMercator longitude linear, latitude stretched as spherical mercator
	ProjectionMercator Projection = iota
	// ProjectionEquirectangular latitude linear, longitude compressed by cos(center latitude)
	ProjectionEquirectangular
)

func (p Projection) String() string {
	if p == ProjectionEquirectangular {
		return "equirectangular"
	}
	return "mercator"
}

// ProjectionFromString parses a projection name, defaults to mercator
func ProjectionFromString(s string) Projection {
	if s == "equirectangular" {
		return ProjectionEquirectangular
	}
	return ProjectionMercator
}

// PixelPoint a point in output space, origin top left, y growing down
type PixelPoint struct {
	X, Y float64
}

// Viewport the visible window: a center, a scale in pixels per degree of longitude
// and the pixel dimensions.
type Viewport struct {
	Center     GeoPoint
	Scale      float64
	Width      int
	Height     int
	Projection Projection
}

// NewViewportForZoom returns a viewport at a web zoom level
func NewViewportForZoom(center GeoPoint, zoom float64, width, height int) Viewport {
	return Viewport{
		Center: center,
		Scale:  ScaleForZoom(zoom),
		Width:  width,
		Height: height,
	}
}

// TileViewport returns the mercator viewport of the web tile z/x/y rendered at size pixels
func TileViewport(z uint8, x, y uint32, size int) Viewport {
	n := math.Exp2(float64(z))
	lon := (float64(x)+0.5)/n*360 - 180
	lat := mercatorLat(180 - (float64(y)+0.5)/n*360)
	return Viewport{
		Center: GeoPoint{Lat: lat, Lon: lon},
		Scale:  ScaleForZoom(float64(z)) * float64(size) / tileSize,
		Width:  size,
		Height: size,
	}
}

// TileXY returns the web tile at zoom z containing p
func TileXY(p GeoPoint, z uint8) (x, y uint32) {
	n := math.Exp2(float64(z))
	fx := (p.Lon + 180) / 360 * n
	fy := (180 - mercatorY(p.Lat)) / 360 * n
	return uint32(clamp(math.Floor(fx), 0, n-1)), uint32(clamp(math.Floor(fy), 0, n-1))
}

// ScaleForZoom converts a web zoom level into pixels per degree
func ScaleForZoom(zoom float64) float64 {
	return tileSize * math.Pow(2, zoom) / 360.0
}

// Zoom returns the web zoom level equivalent of the viewport scale
func (v Viewport) Zoom() float64 {
	return math.Log2(v.Scale * 360.0 / tileSize)
}

// MaxLatitude returns the latitude range the projection can represent
func (v Viewport) MaxLatitude() float64 {
	if v.Projection == ProjectionEquirectangular {
		return MaxLatitude
	}
	return MercatorMaxLatitude
}

// Project converts p to pixel coordinates
func (v Viewport) Project(p GeoPoint) PixelPoint {
	w, h := float64(v.Width), float64(v.Height)
	switch v.Projection {
	case ProjectionEquirectangular:
		k := math.Cos(v.Center.Lat * math.Pi / 180)
		return PixelPoint{
			X: w/2 + (p.Lon-v.Center.Lon)*v.Scale*k,
			Y: h/2 - (p.Lat-v.Center.Lat)*v.Scale,
		}
	default:
		return PixelPoint{
			X: w/2 + (p.Lon-v.Center.Lon)*v.Scale,
			Y: h/2 - (mercatorY(p.Lat)-mercatorY(v.Center.Lat))*v.Scale,
		}
	}
}

// Unproject converts pixel coordinates back to a GeoPoint
func (v Viewport) Unproject(px PixelPoint) GeoPoint {
	w, h := float64(v.Width), float64(v.Height)
	switch v.Projection {
	case ProjectionEquirectangular:
		k := math.Cos(v.Center.Lat * math.Pi / 180)
		return GeoPoint{
			Lon: v.Center.Lon + (px.X-w/2)/(v.Scale*k),
			Lat: v.Center.Lat - (px.Y-h/2)/v.Scale,
		}
	default:
		return GeoPoint{
			Lon: v.Center.Lon + (px.X-w/2)/v.Scale,
			Lat: mercatorLat(mercatorY(v.Center.Lat) - (px.Y-h/2)/v.Scale),
		}
	}
}

// ProjectAll projects every point
func (v Viewport) ProjectAll(pts []GeoPoint) []PixelPoint {
	out := make([]PixelPoint, len(pts))
	for i, p := range pts {
		out[i] = v.Project(p)
	}
	return out
}

// VisibleBounds returns the geographic rectangle covered by the viewport
// expanded by marginPx pixels on every side, clamped to the projection range
func (v Viewport) VisibleBounds(marginPx float64) orb.Bound {
	tl := v.Unproject(PixelPoint{X: -marginPx, Y: -marginPx})
	br := v.Unproject(PixelPoint{X: float64(v.Width) + marginPx, Y: float64(v.Height) + marginPx})

	maxLat := v.MaxLatitude()
	return orb.Bound{
		Min: orb.Point{clamp(tl.Lon, -180, 180), clamp(br.Lat, -maxLat, maxLat)},
		Max: orb.Point{clamp(br.Lon, -180, 180), clamp(tl.Lat, -maxLat, maxLat)},
	}
}

// Pan moves the center by dx, dy pixels
func (v Viewport) Pan(dx, dy float64) Viewport {
	c := v.Unproject(PixelPoint{X: float64(v.Width)/2 + dx, Y: float64(v.Height)/2 + dy})
	v.Center = GeoPoint{Lat: clamp(c.Lat, -v.MaxLatitude(), v.MaxLatitude()), Lon: c.Lon}
	return v
}

// ZoomBy multiplies the scale by factor
func (v Viewport) ZoomBy(factor float64) Viewport {
	if factor > 0 {
		v.Scale *= factor
	}
	return v
}

// ViewportFitting returns a viewport of w x h pixels showing b entirely
func ViewportFitting(b orb.Bound, w, h int, proj Projection) Viewport {
	center := GeoPoint{Lon: (b.Min[0] + b.Max[0]) / 2}
	v := Viewport{Width: w, Height: h, Projection: proj}

	var spanX, spanY float64
	switch proj {
	case ProjectionEquirectangular:
		center.Lat = (b.Min[1] + b.Max[1]) / 2
		spanX = (b.Max[0] - b.Min[0]) * math.Cos(center.Lat*math.Pi/180)
		spanY = b.Max[1] - b.Min[1]
	default:
		ymin, ymax := mercatorY(b.Min[1]), mercatorY(b.Max[1])
		center.Lat = mercatorLat((ymin + ymax) / 2)
		spanX = b.Max[0] - b.Min[0]
		spanY = ymax - ymin
	}
	v.Center = center

	scale := math.Inf(1)
	if spanX > 0 {
		scale = float64(w) / spanX
	}
	if spanY > 0 && float64(h)/spanY < scale {
		scale = float64(h) / spanY
	}
	if math.IsInf(scale, 1) {
		scale = ScaleForZoom(18)
	}
	v.Scale = scale
	return v
}

func mercatorY(lat float64) float64 {
	lat = clamp(lat, -MercatorMaxLatitude, MercatorMaxLatitude)
	return math.Log(math.Tan(math.Pi/4+lat*math.Pi/360)) * 180 / math.Pi
}

func mercatorLat(y float64) float64 {
	return (2*math.Atan(math.Exp(y*math.Pi/180)) - math.Pi/2) * 180 / math.Pi
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
