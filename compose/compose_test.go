package compose

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/akhenakh/vectormap"
	"github.com/akhenakh/vectormap/style"
)

func line(l Layer, x float64) *Line {
	return &Line{Layer: l, Points: []vectormap.PixelPoint{{X: x, Y: 0}, {X: x, Y: 10}}, Width: 1}
}

func TestCompositor_LayerOrder(t *testing.T) {
	c := NewCompositor()

	// added in reverse order on purpose
	c.Add(&Text{Layer: LayerLabels, Text: "label"})
	c.Add(&Point{Layer: LayerPOIs, Radius: 3})
	c.Add(line(LayerRailways, 1))
	c.AddRoad(RoadRank("residential"), nil, line(LayerRoads, 2))
	c.Add(&Polygon{Layer: LayerBuildings})
	c.Add(&Polygon{Layer: LayerLanduse})
	c.Add(&Polygon{Layer: LayerWater})

	f := c.Frame(FrameInfo{Width: 10, Height: 10, Background: style.RGB(1, 2, 3)})

	var rec Recorder
	require.NoError(t, f.Emit(&rec))
	require.True(t, rec.Ended)
	require.Equal(t, []Layer{
		LayerBackground, LayerWater, LayerLanduse, LayerBuildings,
		LayerRoads, LayerRailways, LayerPOIs, LayerLabels,
	}, rec.Layers())

	bg := rec.Primitives[0].(*Polygon)
	require.Equal(t, style.RGB(1, 2, 3), bg.Fill)
	require.Len(t, bg.Points, 5)
}

func TestCompositor_InsertionOrder(t *testing.T) {
	c := NewCompositor()
	for i := 0; i < 5; i++ {
		c.Add(line(LayerWater, float64(i)))
	}

	f := c.Frame(FrameInfo{})
	for i, p := range f.Primitives[1:] {
		require.Equal(t, float64(i), p.(*Line).Points[0].X)
	}
}

func TestCompositor_RoadHierarchy(t *testing.T) {
	c := NewCompositor()

	highways := []string{"primary", "footway", "motorway", "residential", "service", "trunk", "tertiary", "secondary", "cycleway"}
	for i, hw := range highways {
		casing := line(LayerRoads, float64(100+i))
		if hw == "footway" || hw == "cycleway" {
			casing = nil
		}
		c.AddRoad(RoadRank(hw), casing, line(LayerRoads, float64(i)))
	}

	f := c.Frame(FrameInfo{})
	var casings, fills []string
	for _, p := range f.Primitives[1:] {
		l := p.(*Line)
		x := int(l.Points[0].X)
		if l.Casing {
			casings = append(casings, highways[x-100])
			require.Empty(t, fills, "casings are drawn before fills")
			continue
		}
		fills = append(fills, highways[x])
	}

	want := []string{"footway", "cycleway", "service", "residential", "tertiary", "secondary", "primary", "trunk", "motorway"}
	if !cmp.Equal(fills, want) {
		t.Errorf("fills got = %v, want %v", fills, want)
	}
	require.Equal(t, []string{"service", "residential", "tertiary", "secondary", "primary", "trunk", "motorway"}, casings)
}

func TestCompositor_FrameIsRepeatable(t *testing.T) {
	c := NewCompositor()
	c.AddRoad(0, nil, line(LayerRoads, 1))
	c.AddRoad(5, nil, line(LayerRoads, 2))
	c.Add(&Point{Layer: LayerPOIs})

	var a, b Recorder
	require.NoError(t, c.Frame(FrameInfo{}).Emit(&a))
	require.NoError(t, c.Frame(FrameInfo{}).Emit(&b))
	require.True(t, cmp.Equal(a.Primitives, b.Primitives))
	require.Equal(t, 3, c.Len())
}

type failingSink struct {
	Recorder
	err error
}

func (f *failingSink) Line(*Line) error { return f.err }

func TestFrame_EmitError(t *testing.T) {
	c := NewCompositor()
	c.Add(line(LayerWater, 1))
	c.Add(&Point{Layer: LayerPOIs})

	want := errors.New("disk full")
	s := &failingSink{err: want}
	err := c.Frame(FrameInfo{}).Emit(s)
	require.ErrorIs(t, err, want)
	require.False(t, s.Ended)
	require.Len(t, s.Primitives, 1)
}

func TestClassifyWay(t *testing.T) {
	tests := []struct {
		tags map[string]string
		want Layer
	}{
		{map[string]string{"highway": "motorway"}, LayerRoads},
		{map[string]string{"railway": "rail"}, LayerRailways},
		{map[string]string{"natural": "water"}, LayerWater},
		{map[string]string{"waterway": "river"}, LayerWater},
		{map[string]string{"landuse": "reservoir"}, LayerWater},
		{map[string]string{"building": "yes", "amenity": "school"}, LayerBuildings},
		{map[string]string{"building": "no", "landuse": "grass"}, LayerLanduse},
		{map[string]string{"leisure": "park"}, LayerLanduse},
		{map[string]string{"natural": "wood"}, LayerLanduse},
		{map[string]string{"boundary": "administrative"}, LayerBoundaries},
		{map[string]string{"barrier": "fence"}, LayerOther},
		{nil, LayerOther},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, ClassifyWay(tt.tags), "%v", tt.tags)
	}
}

func TestLayer_String(t *testing.T) {
	require.Equal(t, "water", LayerWater.String())
	require.Equal(t, "Points of Interest", LayerPOIs.Label())
	require.Len(t, Layers(), int(layerCount))
	require.Equal(t, "unknown", Layer(200).String())
}

func TestText_Baseline(t *testing.T) {
	txt := &Text{At: vectormap.PixelPoint{X: 10, Y: 20}, FontSize: 10}
	require.Equal(t, vectormap.PixelPoint{X: 10, Y: 23.5}, txt.Baseline())
}
