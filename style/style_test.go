package style

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestResolve_RulePrecedence(t *testing.T) {
	set := &Set{
		Rules: []Rule{
			{Name: "A", Selectors: []Selector{{Key: "X", Value: "1"}}, Paint: Paint{Color: RGB(1, 0, 0)}},
			{Name: "B", Selectors: []Selector{{Key: "X"}}, Paint: Paint{Color: RGB(2, 0, 0)}},
		},
		Ways: CategoryTable{DefaultKey: MinimalWayPaint},
	}

	got, ok := Resolve(map[string]string{"X": "1"}, KindWay, set, 14)
	require.True(t, ok)
	require.Equal(t, "rule:A", got.Source)

	got, ok = Resolve(map[string]string{"X": "2"}, KindWay, set, 14)
	require.True(t, ok)
	require.Equal(t, "rule:B", got.Source)
}

func TestResolve(t *testing.T) {
	set := &Set{
		Rules: []Rule{
			{
				Name:      "big motorways",
				Selectors: []Selector{{Key: "highway", Value: "motorway"}, {Key: "lanes", Value: "4"}},
				Paint:     Paint{Color: RGB(255, 0, 0), Width: 10},
			},
			{
				Name:      "close cafes",
				Selectors: []Selector{{Key: "amenity", Value: "cafe"}},
				Paint:     Paint{Mode: ModePoint, Color: RGB(0, 255, 0), Radius: 6},
				MinZoom:   15,
			},
			{
				Name:      "far cafes",
				Selectors: []Selector{{Key: "amenity", Value: "cafe"}},
				Paint:     Paint{Mode: ModePoint, Color: RGB(0, 0, 255), Radius: 2},
				MaxZoom:   14.99,
			},
		},
		POIs: CategoryTable{
			DefaultKey:    {Mode: ModePoint, Color: RGB(9, 9, 9), Radius: 2.5},
			"restaurant":  {Mode: ModePoint, Color: RGB(1, 1, 1), Radius: 3},
			"shop_bakery": {Mode: ModePoint, Color: RGB(2, 2, 2), Radius: 3},
		},
		Ways: CategoryTable{
			DefaultKey:         {Mode: ModeLine, Color: RGB(3, 3, 3), Width: 1},
			"highway_motorway": {Mode: ModeLine, Color: RGB(231, 114, 0), Width: 6},
			"building":         {Mode: ModeBoth, Color: RGB(4, 4, 4)},
		},
	}

	tests := []struct {
		name       string
		tags       map[string]string
		kind       Kind
		zoom       float64
		wantOK     bool
		wantSource string
	}{
		{"full rule match", map[string]string{"highway": "motorway", "lanes": "4"}, KindWay, 10, true, "rule:big motorways"},
		{"partial rule match falls to category", map[string]string{"highway": "motorway"}, KindWay, 10, true, "category:highway_motorway"},
		{"rule out of zoom skipped", map[string]string{"amenity": "cafe"}, KindNode, 12, true, "rule:far cafes"},
		{"rule in zoom", map[string]string{"amenity": "cafe"}, KindNode, 16, true, "rule:close cafes"},
		{"amenity direct key", map[string]string{"amenity": "restaurant"}, KindNode, 16, true, "category:restaurant"},
		{"shop composite key", map[string]string{"shop": "bakery"}, KindNode, 16, true, "category:shop_bakery"},
		{"unknown shop falls to default", map[string]string{"shop": "books"}, KindNode, 16, true, "default"},
		{"poi without classifying tag", map[string]string{"name": "nothing"}, KindNode, 16, false, ""},
		{"poi without tags", nil, KindNode, 16, false, ""},
		{"building any value", map[string]string{"building": "house"}, KindWay, 16, true, "category:building"},
		{"way without classifying tag", map[string]string{"barrier": "fence"}, KindWay, 16, true, "default"},
		{"way without tags", nil, KindWay, 16, true, "default"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Resolve(tt.tags, tt.kind, set, tt.zoom)
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantSource, got.Source)
		})
	}
}

func TestResolve_Pure(t *testing.T) {
	set := Default()
	before := Default()
	tags := map[string]string{"highway": "primary", "name": "Rue de Rivoli"}

	first, ok := Resolve(tags, KindWay, set, 14)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		got, _ := Resolve(tags, KindWay, set, 14)
		require.True(t, cmp.Equal(first, got))
	}
	require.True(t, cmp.Equal(before, set))
	require.Equal(t, map[string]string{"highway": "primary", "name": "Rue de Rivoli"}, tags)
}

func TestResolve_NoWayDefault(t *testing.T) {
	got, ok := Resolve(map[string]string{"barrier": "wall"}, KindWay, &Set{}, 10)
	require.True(t, ok)
	require.Equal(t, MinimalWayPaint.Color, got.Color)

	_, ok = Resolve(map[string]string{"shop": "bakery"}, KindNode, &Set{}, 10)
	require.False(t, ok)
}

func TestCategoryKey(t *testing.T) {
	tests := []struct {
		tags map[string]string
		want string
		ok   bool
	}{
		{map[string]string{"amenity": "restaurant"}, "restaurant", true},
		{map[string]string{"shop": "bakery"}, "shop_bakery", true},
		{map[string]string{"tourism": "hotel"}, "tourism_hotel", true},
		{map[string]string{"leisure": "park"}, "leisure_park", true},
		{map[string]string{"office": "company"}, "office_company", true},
		{map[string]string{"healthcare": "clinic"}, "healthcare_clinic", true},
		{map[string]string{"public_transport": "station"}, "public_transport_station", true},
		{map[string]string{"place": "city"}, "place_city", true},
		{map[string]string{"shop": "bakery", "amenity": "cafe"}, "cafe", true},
		{map[string]string{"highway": "bus_stop"}, "", false},
	}

	for _, tt := range tests {
		got, ok := CategoryKey(tt.tags)
		require.Equal(t, tt.ok, ok, "%v", tt.tags)
		require.Equal(t, tt.want, got)
	}

	k, ok := WayCategoryKey(map[string]string{"highway": "primary", "building": "yes"})
	require.True(t, ok)
	require.Equal(t, "highway_primary", k)

	k, ok = WayCategoryKey(map[string]string{"building": "yes"})
	require.True(t, ok)
	require.Equal(t, "building", k)

	_, ok = WayCategoryKey(map[string]string{"building": "no"})
	require.False(t, ok)
}

func TestDefault_Scenarios(t *testing.T) {
	set := Default()

	mw, ok := Resolve(map[string]string{"highway": "motorway"}, KindWay, set, 8)
	require.True(t, ok)
	require.Equal(t, RGB(231, 114, 0), mw.Color)
	require.Equal(t, 6.0, mw.Width)

	bakery, ok := Resolve(map[string]string{"shop": "bakery"}, KindNode, set, 16)
	require.True(t, ok)
	require.Equal(t, "category:shop_bakery", bakery.Source)

	wpt, ok := Resolve(map[string]string{"gpx": "waypoint", "name": "summit"}, KindNode, set, 10)
	require.True(t, ok)
	require.Equal(t, "rule:gpx waypoints", wpt.Source)

	delete(set.POIs, "shop_bakery")
	bakery, ok = Resolve(map[string]string{"shop": "bakery"}, KindNode, set, 16)
	require.True(t, ok)
	require.Equal(t, DefaultKey, bakery.Source)
}

func TestLoadJSON(t *testing.T) {
	in := `{
		"name": "night",
		"background": "#101020",
		"rules": [
			{"name": "motorway", "selectors": ["highway=motorway"], "mode": "line", "color": "rgb(255,0,0)", "width": 7, "max_zoom": 12},
			{"name": "any shop", "selectors": ["shop"], "mode": "point", "color": "#00ff00", "radius": 3}
		],
		"pois": {"restaurant": {"mode": "point", "color": "#ff8800", "radius": 4}}
	}`

	set, err := LoadJSON(strings.NewReader(in))
	require.NoError(t, err)
	require.Equal(t, "night", set.Name)
	require.Equal(t, RGB(0x10, 0x10, 0x20), set.Background)
	require.Len(t, set.Rules, 2)
	require.Equal(t, Selector{Key: "highway", Value: "motorway"}, set.Rules[0].Selectors[0])
	require.Equal(t, Selector{Key: "shop"}, set.Rules[1].Selectors[0])
	require.Equal(t, ModePoint, set.Rules[1].Mode)
	require.Equal(t, 12.0, set.Rules[0].MaxZoom)

	// filled by defaults
	_, ok := set.POIs[DefaultKey]
	require.True(t, ok)
	require.Equal(t, Default().Ways, set.Ways)
	require.Equal(t, Default().Labels, set.Labels)

	_, err = LoadJSON(strings.NewReader(`{"rules": [{"name": "empty"}]}`))
	require.Error(t, err)

	_, err = LoadJSON(strings.NewReader(`{"unknown": 1}`))
	require.Error(t, err)

	_, err = LoadJSON(strings.NewReader(`{"background": "blue"}`))
	require.Error(t, err)
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    Color
		wantErr bool
	}{
		{"#aad3df", RGB(170, 211, 223), false},
		{"#AAD3DF80", Color{170, 211, 223, 128}, false},
		{"#fff", RGB(255, 255, 255), false},
		{"rgb(231, 114, 0)", RGB(231, 114, 0), false},
		{"rgba(0,0,0,0.5)", Color{0, 0, 0, 128}, false},
		{"rgb(300,0,0)", Color{}, true},
		{"#12345", Color{}, true},
		{"red", Color{}, true},
	}

	for _, tt := range tests {
		got, err := ParseColor(tt.in)
		if tt.wantErr {
			require.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		require.Equal(t, tt.want, got, tt.in)
	}

	require.Equal(t, "#aad3df", RGB(170, 211, 223).Hex())
	require.Equal(t, "rgb(170,211,223)", RGB(170, 211, 223).CSS())
}

func TestColor_Alpha(t *testing.T) {
	tests := []struct {
		name    string
		color   Color
		opacity float64
		want    float64
	}{
		{"opaque", RGB(1, 2, 3), 0, 1},
		{"paint opacity", RGB(1, 2, 3), 0.5, 0.5},
		{"color alpha", Color{R: 1, A: 51}, 1, 0.2},
		{"both", Color{R: 1, A: 51}, 0.5, 0.1},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.InDelta(t, tt.want, tt.color.Alpha(tt.opacity), 1e-9)
		})
	}
}
