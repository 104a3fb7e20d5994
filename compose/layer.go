package compose

// Layer a draw order group, layers are drawn in increasing order
type Layer uint8

const (
	LayerBackground Layer = iota
	LayerWater
	// LayerLanduse landuse, leisure, natural and aeroway areas
	LayerLanduse
	LayerBuildings
	// LayerOther ways with no known classifying tag
	LayerOther
	LayerRoads
	LayerRailways
	LayerBoundaries
	LayerTracks
	LayerPOIs
	LayerLabels

	layerCount
)

var layerIDs = [layerCount]string{
	"background",
	"water",
	"landuse",
	"buildings",
	"other",
	"roads",
	"railway",
	"boundaries",
	"tracks",
	"pois",
	"labels",
}

var layerLabels = [layerCount]string{
	"Background",
	"Water",
	"Land Use",
	"Buildings",
	"Other",
	"Roads",
	"Railway",
	"Boundaries",
	"Tracks",
	"Points of Interest",
	"Labels",
}

// Layers returns every layer in draw order
func Layers() []Layer {
	ls := make([]Layer, layerCount)
	for i := range ls {
		ls[i] = Layer(i)
	}
	return ls
}

// String returns the layer id
func (l Layer) String() string {
	if l >= layerCount {
		return "unknown"
	}
	return layerIDs[l]
}

// Label returns a human readable layer name
func (l Layer) Label() string {
	if l >= layerCount {
		return "Unknown"
	}
	return layerLabels[l]
}

var waterLanduse = map[string]bool{
	"reservoir": true,
	"basin":     true,
}

var waterNatural = map[string]bool{
	"water":     true,
	"bay":       true,
	"coastline": true,
	"strait":    true,
}

// ClassifyWay returns the layer a way is drawn in
func ClassifyWay(tags map[string]string) Layer {
	has := func(k string) bool {
		v, ok := tags[k]
		return ok && v != "" && v != "no"
	}

	switch {
	case has("highway"):
		return LayerRoads
	case has("railway"):
		return LayerRailways
	case has("waterway"), has("water"), waterNatural[tags["natural"]], waterLanduse[tags["landuse"]]:
		return LayerWater
	case has("building"):
		return LayerBuildings
	case has("landuse"), has("leisure"), has("natural"), has("aeroway"):
		return LayerLanduse
	case has("boundary"):
		return LayerBoundaries
	}
	return LayerOther
}

// RoadRank returns the hierarchy rank of a highway value, 0 being a motorway
func RoadRank(highway string) int {
	switch highway {
	case "motorway", "motorway_link":
		return 0
	case "trunk", "trunk_link":
		return 1
	case "primary", "primary_link":
		return 2
	case "secondary", "secondary_link":
		return 3
	case "tertiary", "tertiary_link":
		return 4
	case "residential", "unclassified", "living_street", "pedestrian", "road":
		return 5
	case "footway", "path", "cycleway", "steps", "bridleway":
		return 7
	default:
		// service, track and unknown values
		return 6
	}
}
