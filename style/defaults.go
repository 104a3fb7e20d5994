package style

// DefaultName name of the built-in style set
const DefaultName = "google-maps"

// Default returns a new copy of the built-in style set
func Default() *Set {
	roads := map[string]struct {
		color  Color
		width  float64
		border Color
		bwidth float64
		label  float64
	}{
		"motorway":      {RGB(231, 114, 0), 6, RGB(200, 90, 0), 1, 8},
		"motorway_link": {RGB(231, 114, 0), 3, RGB(200, 90, 0), 0.5, 13},
		"trunk":         {RGB(255, 156, 0), 5, RGB(220, 130, 0), 1, 9},
		"trunk_link":    {RGB(255, 156, 0), 3, RGB(220, 130, 0), 0.5, 13},
		"primary":       {RGB(255, 205, 0), 4, RGB(220, 175, 0), 1, 11},
		"primary_link":  {RGB(255, 205, 0), 2.5, RGB(220, 175, 0), 0.5, 14},
		"secondary":     {RGB(255, 230, 100), 3.5, RGB(210, 190, 80), 0.75, 12},
		"tertiary":      {RGB(255, 245, 150), 3, RGB(210, 200, 120), 0.75, 13},
		"residential":   {RGB(255, 255, 255), 2.5, RGB(210, 210, 210), 0.5, 15},
		"unclassified":  {RGB(255, 255, 255), 2.5, RGB(210, 210, 210), 0.5, 15},
		"living_street": {RGB(250, 250, 250), 2, RGB(210, 210, 210), 0.5, 16},
		"pedestrian":    {RGB(240, 238, 232), 2, RGB(210, 210, 210), 0.5, 16},
		"service":       {RGB(240, 240, 240), 1.5, RGB(210, 210, 210), 0.25, 17},
		"track":         {RGB(210, 190, 150), 1, Color{}, 0, 17},
		"footway":       {RGB(200, 200, 200), 1, Color{}, 0, 17},
		"path":          {RGB(200, 200, 200), 1, Color{}, 0, 17},
		"cycleway":      {RGB(120, 160, 220), 1, Color{}, 0, 17},
		"steps":         {RGB(200, 200, 200), 1, Color{}, 0, 18},
	}

	ways := CategoryTable{
		DefaultKey: {Mode: ModeLine, Color: RGB(0xe0, 0xe0, 0xe0), Width: 1},

		"building": {
			Mode: ModeBoth, Color: RGB(180, 180, 180), FillColor: RGB(218, 218, 218), Width: 0.5,
		},

		"natural_water":     {Mode: ModeFill, Color: RGB(170, 211, 223), Opacity: 1},
		"natural_coastline": {Mode: ModeLine, Color: RGB(140, 190, 210), Width: 1},
		"natural_wood":      {Mode: ModeFill, Color: RGB(173, 209, 158)},
		"natural_scrub":     {Mode: ModeFill, Color: RGB(200, 215, 171)},
		"natural_grassland": {Mode: ModeFill, Color: RGB(205, 235, 176)},
		"natural_beach":     {Mode: ModeFill, Color: RGB(255, 241, 186)},
		"natural_wetland":   {Mode: ModeFill, Color: RGB(190, 220, 210)},

		"waterway_river":     {Mode: ModeLine, Color: RGB(170, 211, 223), Width: 4, TextField: "name", LabelMinZoom: 12},
		"waterway_stream":    {Mode: ModeLine, Color: RGB(170, 211, 223), Width: 1.5},
		"waterway_canal":     {Mode: ModeLine, Color: RGB(170, 211, 223), Width: 3},
		"waterway_riverbank": {Mode: ModeFill, Color: RGB(170, 211, 223)},

		"landuse_forest":      {Mode: ModeFill, Color: RGB(173, 209, 158)},
		"landuse_grass":       {Mode: ModeFill, Color: RGB(205, 235, 176)},
		"landuse_meadow":      {Mode: ModeFill, Color: RGB(205, 235, 176)},
		"landuse_residential": {Mode: ModeFill, Color: RGB(240, 238, 232)},
		"landuse_commercial":  {Mode: ModeFill, Color: RGB(242, 218, 217)},
		"landuse_retail":      {Mode: ModeFill, Color: RGB(255, 214, 209)},
		"landuse_industrial":  {Mode: ModeFill, Color: RGB(235, 219, 232)},
		"landuse_farmland":    {Mode: ModeFill, Color: RGB(238, 240, 213)},
		"landuse_cemetery":    {Mode: ModeFill, Color: RGB(170, 203, 175)},
		"landuse_reservoir":   {Mode: ModeFill, Color: RGB(170, 211, 223)},
		"landuse_basin":       {Mode: ModeFill, Color: RGB(170, 211, 223)},

		"leisure_park":           {Mode: ModeFill, Color: RGB(194, 235, 164)},
		"leisure_garden":         {Mode: ModeFill, Color: RGB(205, 235, 176)},
		"leisure_playground":     {Mode: ModeFill, Color: RGB(223, 252, 226)},
		"leisure_pitch":          {Mode: ModeFill, Color: RGB(170, 224, 203)},
		"leisure_golf_course":    {Mode: ModeFill, Color: RGB(181, 226, 181)},
		"leisure_nature_reserve": {Mode: ModeLine, Color: RGB(140, 200, 140), Width: 1, Dash: []float64{4, 2}},

		"aeroway_aerodrome": {Mode: ModeFill, Color: RGB(233, 231, 226)},
		"aeroway_runway":    {Mode: ModeLine, Color: RGB(187, 187, 204), Width: 8},
		"aeroway_taxiway":   {Mode: ModeLine, Color: RGB(187, 187, 204), Width: 3},

		"railway_rail":       {Mode: ModeLine, Color: RGB(100, 100, 100), Width: 2, Dash: []float64{6, 6}},
		"railway_tram":       {Mode: ModeLine, Color: RGB(120, 120, 120), Width: 1},
		"railway_light_rail": {Mode: ModeLine, Color: RGB(120, 120, 120), Width: 1.5},
		"railway_subway":     {Mode: ModeLine, Color: RGB(150, 150, 150), Width: 1.5, Dash: []float64{3, 3}},

		"boundary_administrative": {Mode: ModeLine, Color: RGB(160, 120, 180), Width: 1, Dash: []float64{5, 3}},
	}

	for hw, r := range roads {
		ways["highway_"+hw] = Paint{
			Mode:         ModeLine,
			Color:        r.color,
			Width:        r.width,
			BorderColor:  r.border,
			BorderWidth:  r.bwidth,
			TextField:    "name",
			LabelMinZoom: r.label,
		}
	}

	amenity := RGB(220, 20, 60)
	food := RGB(230, 126, 34)
	shop := RGB(52, 152, 219)
	health := RGB(231, 76, 60)
	tourism := RGB(155, 89, 182)
	transport := RGB(41, 128, 185)
	leisure := RGB(39, 174, 96)
	office := RGB(127, 140, 141)
	poi := func(c Color, r float64) Paint {
		return Paint{Mode: ModePoint, Color: c, Radius: r, TextField: "name"}
	}
	place := func(size, minZoom float64) Paint {
		return Paint{Mode: ModePoint, Color: RGB(60, 60, 60), TextField: "name", FontSize: size, LabelMinZoom: minZoom}
	}

	pois := CategoryTable{
		DefaultKey: poi(RGB(0x95, 0xa5, 0xa6), 2.5),

		"restaurant":       poi(food, 3.5),
		"cafe":             poi(food, 3),
		"fast_food":        poi(food, 3),
		"bar":              poi(food, 3),
		"pub":              poi(food, 3),
		"hospital":         poi(health, 4.5),
		"pharmacy":         poi(health, 3),
		"doctors":          poi(health, 3),
		"school":           poi(amenity, 4),
		"university":       poi(amenity, 4.5),
		"police":           poi(RGB(44, 62, 80), 4),
		"fire_station":     poi(RGB(192, 57, 43), 4),
		"bank":             poi(office, 3),
		"atm":              poi(office, 2.5),
		"post_office":      poi(office, 3),
		"fuel":             poi(RGB(211, 84, 0), 3),
		"parking":          poi(transport, 3),
		"place_of_worship": poi(RGB(100, 100, 100), 3.5),
		"toilets":          poi(office, 2.5),

		"shop_supermarket": poi(shop, 3.5),
		"shop_bakery":      poi(shop, 3),
		"shop_convenience": poi(shop, 3),
		"shop_clothes":     poi(shop, 3),

		"tourism_hotel":      poi(tourism, 3.5),
		"tourism_museum":     poi(tourism, 4),
		"tourism_attraction": poi(tourism, 4),
		"tourism_viewpoint":  poi(tourism, 3),

		"leisure_park":       poi(leisure, 3),
		"leisure_playground": poi(leisure, 2.5),

		"healthcare_clinic": poi(health, 3.5),
		"office_company":    poi(office, 2.5),

		"public_transport_station":       poi(transport, 4),
		"public_transport_platform":      poi(transport, 2.5),
		"public_transport_stop_position": poi(transport, 2),

		"place_city":     place(18, 4),
		"place_town":     place(15, 8),
		"place_village":  place(13, 11),
		"place_suburb":   place(13, 12),
		"place_hamlet":   place(11, 14),
		"place_locality": place(11, 15),
	}

	return &Set{
		Name:       DefaultName,
		Background: RGB(245, 243, 240),
		Rules: []Rule{{
			Name:      "gpx waypoints",
			Selectors: []Selector{{Key: "gpx", Value: "waypoint"}},
			Paint: Paint{
				Mode:        ModePoint,
				Color:       RGB(0, 102, 255),
				Radius:      4,
				BorderColor: RGB(255, 255, 255),
				BorderWidth: 1,
				TextField:   "name",
			},
		}},
		POIs: pois,
		Ways: ways,
		Track: Paint{
			Mode:    ModeLine,
			Color:   RGB(0, 102, 255),
			Width:   3,
			Opacity: 0.85,
		},
		Labels: LabelStyle{
			FontFamily:    "Arial, Helvetica, sans-serif",
			Color:         RGB(51, 51, 51),
			HaloColor:     RGB(255, 255, 255),
			HaloWidth:     3,
			RoadFontSize:  11,
			PlaceFontSize: 14,
			POIFontSize:   10,
		},
	}
}
